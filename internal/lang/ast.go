package lang

import (
	"strconv"
	"strings"
)

// Program is the result of a successful parse. It is immutable once built.
type Program struct {
	Name          string
	Deck          Expr // expression producing the initial deck
	Players       int
	CurrentPlayer int // 1-based; defaults to 1
	Stacks        []string
	PlayerStacks  []string
	Functions     map[string]*FunctionDef
	FunctionOrder []string
}

// Function returns the user definition named name.
func (p *Program) Function(name string) (*FunctionDef, bool) {
	fn, ok := p.Functions[name]
	return fn, ok
}

// HasStack reports whether name is a declared table stack.
func (p *Program) HasStack(name string) bool {
	for _, s := range p.Stacks {
		if s == name {
			return true
		}
	}
	return false
}

// HasPlayerStack reports whether name is a declared per-player stack.
func (p *Program) HasPlayerStack(name string) bool {
	for _, s := range p.PlayerStacks {
		if s == name {
			return true
		}
	}
	return false
}

// FunctionDef is a named function with positional parameters.
type FunctionDef struct {
	Name   string
	Params []string
	Body   []Stmt
	Pos    Pos
}

// Stmt is a statement inside a function body.
type Stmt interface {
	stmtNode()
	Position() Pos
}

// TransferStmt moves cards: "Src > Dst [Count | end | - Subset]".
type TransferStmt struct {
	Src      Expr
	Dst      Expr
	Count    int
	HasCount bool
	All      bool // "end": everything left in Src
	Subset   Expr
	At       Pos
}

// CheckStmt rejects the move when Cond is false.
type CheckStmt struct {
	Cond Expr
	At   Pos
}

// ReturnStmt ends the function with an optional value.
type ReturnStmt struct {
	Value Expr
	At    Pos
}

// ExprStmt is a call made for its effect.
type ExprStmt struct {
	X  *CallExpr
	At Pos
}

// IfStmt runs Body when Cond holds. Body shares the enclosing scope.
type IfStmt struct {
	Cond Expr
	Body []Stmt
	At   Pos
}

func (*TransferStmt) stmtNode() {}
func (*CheckStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}

func (s *TransferStmt) Position() Pos { return s.At }
func (s *CheckStmt) Position() Pos    { return s.At }
func (s *ReturnStmt) Position() Pos   { return s.At }
func (s *ExprStmt) Position() Pos     { return s.At }
func (s *IfStmt) Position() Pos       { return s.At }

// Expr is an expression node.
type Expr interface {
	exprNode()
	Position() Pos
	String() string
}

// Ident is a bare name: a variable, stack, function or bareword value.
type Ident struct {
	Name string
	At   Pos
}

// IntLit is an integer literal.
type IntLit struct {
	Value int
	At    Pos
}

// AttrExpr is "X:Name".
type AttrExpr struct {
	X    Expr
	Name string
	At   Pos
}

// CallExpr is "Name(Args...)".
type CallExpr struct {
	Name string
	Args []Expr
	At   Pos
}

// CompareExpr is "Left is Right" or "Left is not Right".
type CompareExpr struct {
	Left   Expr
	Right  Expr
	Negate bool
	At     Pos
}

// BinaryExpr is a short-circuit "&" or "|".
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	At    Pos
}

// NotExpr negates a boolean.
type NotExpr struct {
	X  Expr
	At Pos
}

func (*Ident) exprNode()       {}
func (*IntLit) exprNode()      {}
func (*AttrExpr) exprNode()    {}
func (*CallExpr) exprNode()    {}
func (*CompareExpr) exprNode() {}
func (*BinaryExpr) exprNode()  {}
func (*NotExpr) exprNode()     {}

func (e *Ident) Position() Pos       { return e.At }
func (e *IntLit) Position() Pos      { return e.At }
func (e *AttrExpr) Position() Pos    { return e.At }
func (e *CallExpr) Position() Pos    { return e.At }
func (e *CompareExpr) Position() Pos { return e.At }
func (e *BinaryExpr) Position() Pos  { return e.At }
func (e *NotExpr) Position() Pos     { return e.At }

func (e *Ident) String() string  { return e.Name }
func (e *IntLit) String() string { return strconv.Itoa(e.Value) }

func (e *AttrExpr) String() string { return e.X.String() + ":" + e.Name }

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func (e *CompareExpr) String() string {
	op := " is "
	if e.Negate {
		op = " is not "
	}
	return e.Left.String() + op + e.Right.String()
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
}

func (e *NotExpr) String() string { return "not " + e.X.String() }

package lang

import (
	"fmt"
	"sort"
)

// Record fields available through "obj:field".
const (
	PlayerFieldID = "id"

	MoveFieldAction = "action"
	MoveFieldCards  = "cards"
	MoveFieldTarget = "target"
	MoveFieldPlayer = "player"

	CardFieldRank = "rank"
	CardFieldSuit = "suit"
)

// FilterBuiltin names the combinator whose second argument must name a function.
const FilterBuiltin = "filter"

// bind checks names that can be resolved before any evaluation: attribute
// names against the fixed record shapes, transfer endpoints, and predicate
// references passed to filter.
func bind(prog *Program) error {
	b := &binder{prog: prog, fields: make(map[string]bool)}
	for _, f := range []string{PlayerFieldID, MoveFieldAction, MoveFieldCards, MoveFieldTarget, MoveFieldPlayer, CardFieldRank, CardFieldSuit} {
		b.fields[f] = true
	}
	for _, s := range prog.PlayerStacks {
		b.fields[s] = true
	}

	if prog.Deck != nil {
		if err := b.expr(prog.Deck); err != nil {
			return err
		}
	}
	for _, name := range prog.FunctionOrder {
		for _, stmt := range prog.Functions[name].Body {
			if err := b.stmt(stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

type binder struct {
	prog   *Program
	fields map[string]bool
}

func (b *binder) stmt(s Stmt) error {
	switch st := s.(type) {
	case *TransferStmt:
		if err := b.endpoint(st.Src, false); err != nil {
			return err
		}
		if err := b.endpoint(st.Dst, true); err != nil {
			return err
		}
		if st.Subset != nil {
			if isAllPlayers(st.Dst) {
				return errorAt(st.Subset.Position(), "a card count when dealing to every player", "a card set")
			}
			return b.expr(st.Subset)
		}
		return nil
	case *CheckStmt:
		return b.expr(st.Cond)
	case *ReturnStmt:
		if st.Value == nil {
			return nil
		}
		return b.expr(st.Value)
	case *ExprStmt:
		return b.expr(st.X)
	case *IfStmt:
		if err := b.expr(st.Cond); err != nil {
			return err
		}
		for _, inner := range st.Body {
			if err := b.stmt(inner); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("bind: unknown statement %T", s)
}

func isAllPlayers(e Expr) bool {
	attr, ok := e.(*AttrExpr)
	if !ok {
		return false
	}
	id, ok := attr.X.(*Ident)
	return ok && id.Name == "players"
}

func (b *binder) endpoint(e Expr, isDst bool) error {
	switch x := e.(type) {
	case *Ident:
		switch x.Name {
		case "players":
			return &ParseError{Line: x.At.Line, Col: x.At.Col, Expected: "players:<stack>", Found: "players"}
		case "current_player":
			return errorAt(x.At, "stack or deck", x.Name)
		}
		return nil
	case *AttrExpr:
		if isAllPlayers(x) {
			if !isDst {
				return errorAt(x.At, "a single stack as transfer source", x.String())
			}
			if !b.prog.HasPlayerStack(x.Name) {
				return b.unknownField(x, b.prog.PlayerStacks)
			}
			return nil
		}
		return b.expr(x)
	}
	return errorAt(e.Position(), "stack or deck", e.String())
}

func (b *binder) expr(e Expr) error {
	switch x := e.(type) {
	case *Ident, *IntLit:
		return nil
	case *AttrExpr:
		if isAllPlayers(x) {
			if !b.prog.HasPlayerStack(x.Name) {
				return b.unknownField(x, b.prog.PlayerStacks)
			}
			return nil
		}
		if !b.fields[x.Name] {
			return b.unknownField(x, b.fieldNames())
		}
		return b.expr(x.X)
	case *CallExpr:
		if x.Name == FilterBuiltin && len(x.Args) == 2 {
			if err := b.predicate(x.Args[1]); err != nil {
				return err
			}
		}
		for _, a := range x.Args {
			if err := b.expr(a); err != nil {
				return err
			}
		}
		return nil
	case *CompareExpr:
		if err := b.expr(x.Left); err != nil {
			return err
		}
		return b.expr(x.Right)
	case *BinaryExpr:
		if err := b.expr(x.Left); err != nil {
			return err
		}
		return b.expr(x.Right)
	case *NotExpr:
		return b.expr(x.X)
	}
	return fmt.Errorf("bind: unknown expression %T", e)
}

// predicate requires a filter predicate to name a top-level function.
func (b *binder) predicate(e Expr) error {
	id, ok := e.(*Ident)
	if !ok {
		return errorAt(e.Position(), "predicate function name", e.String())
	}
	if _, ok := b.prog.Functions[id.Name]; ok {
		return nil
	}
	err := errorAt(id.At, "predicate function name", id.Name)
	if s := Suggest(id.Name, b.prog.FunctionOrder); s != "" {
		err.Hint = fmt.Sprintf("did you mean %q?", s)
	}
	return err
}

func (b *binder) unknownField(x *AttrExpr, candidates []string) *ParseError {
	err := errorAt(x.At, "field name", x.Name)
	if s := Suggest(x.Name, candidates); s != "" {
		err.Hint = fmt.Sprintf("did you mean %q?", s)
	}
	return err
}

func (b *binder) fieldNames() []string {
	names := make([]string, 0, len(b.fields))
	for f := range b.fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// Package lang lexes, parses and binds card language source into a Program.
package lang

import (
	"fmt"
	"strconv"
)

// AllCount is the transfer count that moves every card in the source.
const AllCount = "end"

type parser struct {
	tokens []Token
	pos    int
	prog   *Program
	seen   map[string]Pos
}

// ParseSource tokenizes and parses src.
func ParseSource(src string) (*Program, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// Parse builds a Program from tokens. Any grammar or binding violation
// returns a *ParseError and no Program.
func Parse(tokens []Token) (*Program, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		tokens = append(append([]Token(nil), tokens...), Token{Kind: TokenEOF})
	}
	p := &parser{
		tokens: tokens,
		prog: &Program{
			CurrentPlayer: 1,
			Functions:     make(map[string]*FunctionDef),
		},
		seen: make(map[string]Pos),
	}
	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	if err := bind(p.prog); err != nil {
		return nil, err
	}
	return p.prog, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	if t.Kind != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.Kind == TokenPunct && t.Text == s
}

func (p *parser) isKeyword(s string) bool {
	t := p.peek()
	return t.Kind == TokenKeyword && t.Text == s
}

func (p *parser) expectPunct(s string) (Token, error) {
	if !p.isPunct(s) {
		return Token{}, p.unexpected(fmt.Sprintf("%q", s))
	}
	return p.next(), nil
}

func (p *parser) expectIdent(what string) (Token, error) {
	if p.peek().Kind != TokenIdent {
		return Token{}, p.unexpected(what)
	}
	return p.next(), nil
}

func (p *parser) expectInt(what string) (int, Token, error) {
	t := p.peek()
	if t.Kind != TokenInt {
		return 0, t, p.unexpected(what)
	}
	p.next()
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		return 0, t, errorAt(t.Pos, what, t.String())
	}
	return n, t, nil
}

func (p *parser) unexpected(expected string) *ParseError {
	t := p.peek()
	return errorAt(t.Pos, expected, t.String())
}

func (p *parser) once(key string, at Pos) error {
	if prev, dup := p.seen[key]; dup {
		return &ParseError{
			Line:     at.Line,
			Col:      at.Col,
			Expected: fmt.Sprintf("a single %q declaration", key),
			Found:    "a second declaration",
			Hint:     "first declared at " + prev.String(),
		}
	}
	p.seen[key] = at
	return nil
}

func (p *parser) parseProgram() error {
	for {
		t := p.peek()
		if t.Kind == TokenEOF {
			break
		}
		if t.Kind != TokenKeyword {
			return p.unexpected("declaration or function definition")
		}
		var err error
		switch t.Text {
		case "name":
			err = p.parseName()
		case "deck":
			err = p.parseDeck()
		case "players":
			err = p.parsePlayers()
		case "current_player":
			err = p.parseCurrentPlayer()
		case "stack":
			err = p.parseStack()
		case "def":
			err = p.parseFunction()
		default:
			return p.unexpected("declaration or function definition")
		}
		if err != nil {
			return err
		}
	}

	eof := p.peek().Pos
	for _, required := range []string{"name", "deck", "players"} {
		if _, ok := p.seen[required]; !ok {
			return errorAt(eof, fmt.Sprintf("%q declaration", required), "end of input")
		}
	}
	if p.prog.CurrentPlayer > p.prog.Players {
		at := p.seen["current_player"]
		return errorAt(at, fmt.Sprintf("current_player between 1 and %d", p.prog.Players), strconv.Itoa(p.prog.CurrentPlayer))
	}
	return nil
}

func (p *parser) parseName() error {
	kw := p.next()
	if err := p.once("name", kw.Pos); err != nil {
		return err
	}
	t := p.peek()
	if t.Kind != TokenIdent && t.Kind != TokenInt {
		return p.unexpected("game name")
	}
	p.next()
	p.prog.Name = t.Text
	return nil
}

func (p *parser) parseDeck() error {
	kw := p.next()
	if err := p.once("deck", kw.Pos); err != nil {
		return err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return err
	}
	p.prog.Deck = expr
	return nil
}

func (p *parser) parsePlayers() error {
	kw := p.next()
	if err := p.once("players", kw.Pos); err != nil {
		return err
	}
	n, t, err := p.expectInt("player count")
	if err != nil {
		return err
	}
	if n < 1 {
		return errorAt(t.Pos, "at least one player", t.Text)
	}
	p.prog.Players = n
	return nil
}

func (p *parser) parseCurrentPlayer() error {
	kw := p.next()
	if err := p.once("current_player", kw.Pos); err != nil {
		return err
	}
	n, t, err := p.expectInt("starting player id")
	if err != nil {
		return err
	}
	if n < 1 {
		return errorAt(t.Pos, "a 1-based player id", t.Text)
	}
	p.prog.CurrentPlayer = n
	return nil
}

// parseStack handles "stack middle" and "stack player:hand".
func (p *parser) parseStack() error {
	p.next()
	name, err := p.expectIdent("stack name")
	if err != nil {
		return err
	}
	perPlayer := false
	if p.isPunct(":") {
		if name.Text != "player" {
			return errorAt(name.Pos, `"player" scope`, name.String())
		}
		p.next()
		name, err = p.expectIdent("player stack name")
		if err != nil {
			return err
		}
		perPlayer = true
	}
	if p.prog.HasStack(name.Text) || p.prog.HasPlayerStack(name.Text) {
		return errorAt(name.Pos, "a new stack name", name.String())
	}
	if perPlayer {
		if name.Text == PlayerFieldID {
			return errorAt(name.Pos, "a player stack name", name.String())
		}
		p.prog.PlayerStacks = append(p.prog.PlayerStacks, name.Text)
	} else {
		p.prog.Stacks = append(p.prog.Stacks, name.Text)
	}
	return nil
}

func (p *parser) parseFunction() error {
	kw := p.next()
	name, err := p.expectIdent("function name")
	if err != nil {
		return err
	}
	if _, dup := p.prog.Functions[name.Text]; dup {
		return errorAt(name.Pos, "a new function name", name.String())
	}
	if _, err := p.expectPunct("("); err != nil {
		return err
	}

	var params []string
	seen := make(map[string]bool)
	for !p.isPunct(")") {
		if len(params) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return err
			}
		}
		param, err := p.expectIdent("parameter name")
		if err != nil {
			return err
		}
		if seen[param.Text] {
			return errorAt(param.Pos, "a distinct parameter name", param.String())
		}
		seen[param.Text] = true
		params = append(params, param.Text)
	}
	p.next() // ')'

	body, err := p.parseBlock()
	if err != nil {
		return err
	}

	p.prog.Functions[name.Text] = &FunctionDef{
		Name:   name.Text,
		Params: params,
		Body:   body,
		Pos:    kw.Pos,
	}
	p.prog.FunctionOrder = append(p.prog.FunctionOrder, name.Text)
	return nil
}

// parseBlock reads "{ stmt* }".
func (p *parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var body []Stmt
	for !p.isPunct("}") {
		if p.peek().Kind == TokenEOF {
			return nil, p.unexpected(`"}"`)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	p.next() // '}'
	return body, nil
}

func (p *parser) parseStatement() (Stmt, error) {
	start := p.peek()
	switch {
	case p.isKeyword("if"):
		p.next()
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &IfStmt{Cond: cond, Body: body, At: start.Pos}, nil

	case p.isKeyword("check"):
		p.next()
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &CheckStmt{Cond: cond, At: start.Pos}, nil

	case p.isKeyword("return"):
		p.next()
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var value Expr
		if !p.isPunct(")") {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			value = v
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: value, At: start.Pos}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.isPunct(">") {
		return p.parseTransfer(expr, start.Pos)
	}
	call, ok := expr.(*CallExpr)
	if !ok {
		return nil, &ParseError{
			Line:     start.Pos.Line,
			Col:      start.Pos.Col,
			Expected: "statement",
			Found:    fmt.Sprintf("%q", expr.String()),
			Hint:     "only calls, transfers, check, return and if may stand alone",
		}
	}
	return &ExprStmt{X: call, At: start.Pos}, nil
}

func (p *parser) parseTransfer(src Expr, at Pos) (Stmt, error) {
	if !isContainer(src) {
		return nil, errorAt(src.Position(), "stack or deck as transfer source", src.String())
	}
	p.next() // '>'
	dstTok := p.peek()
	dst, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !isContainer(dst) {
		return nil, errorAt(dstTok.Pos, "stack or deck as transfer destination", dst.String())
	}

	stmt := &TransferStmt{Src: src, Dst: dst, Count: 1, At: at}
	switch {
	case p.isAllCount():
		p.next()
		stmt.All = true
	case p.peek().Kind == TokenInt:
		n, _, err := p.expectInt("card count")
		if err != nil {
			return nil, err
		}
		stmt.Count = n
		stmt.HasCount = true
	case p.isPunct("-"):
		p.next()
		subset, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Subset = subset
	}
	return stmt, nil
}

// isAllCount reports whether the next token is the "end" count. A following
// "(" makes it a call to the end builtin on the next line instead.
func (p *parser) isAllCount() bool {
	t := p.peek()
	if t.Kind != TokenIdent || t.Text != AllCount {
		return false
	}
	after := p.tokens[min(p.pos+1, len(p.tokens)-1)]
	return after.Kind != TokenPunct || after.Text != "("
}

func isContainer(e Expr) bool {
	switch x := e.(type) {
	case *Ident:
		return true
	case *AttrExpr:
		_, isCall := x.X.(*CallExpr)
		return !isCall
	}
	return false
}

// Expression grammar, loosest first: "|", "&", "not", "is [not]", postfix.

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isPunct("|") {
		op := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "|", Left: left, Right: right, At: op.Pos}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&") {
		op := p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "&", Left: left, Right: right, At: op.Pos}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.isKeyword("not") {
		t := p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{X: x, At: t.Pos}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("is") {
		return left, nil
	}
	op := p.next()
	negate := false
	if p.isKeyword("not") {
		p.next()
		negate = true
	}
	right, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	return &CompareExpr{Left: left, Right: right, Negate: negate, At: op.Pos}, nil
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if id, ok := x.(*Ident); ok && p.isPunct("(") && !IsKeyword(id.Name) {
		x, err = p.parseCall(id)
		if err != nil {
			return nil, err
		}
	}
	for p.isPunct(":") {
		colon := p.next()
		field, err := p.expectIdent("attribute name")
		if err != nil {
			return nil, err
		}
		x = &AttrExpr{X: x, Name: field.Text, At: colon.Pos}
	}
	return x, nil
}

func (p *parser) parseCall(name *Ident) (Expr, error) {
	p.next() // '('
	call := &CallExpr{Name: name.Name, At: name.At}
	for !p.isPunct(")") {
		if len(call.Args) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
	p.next() // ')'
	return call, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.Kind {
	case TokenIdent:
		p.next()
		return &Ident{Name: t.Text, At: t.Pos}, nil
	case TokenInt:
		p.next()
		n, err := strconv.Atoi(t.Text)
		if err != nil {
			return nil, errorAt(t.Pos, "integer", t.String())
		}
		return &IntLit{Value: n, At: t.Pos}, nil
	case TokenKeyword:
		switch t.Text {
		case "deck", "players", "current_player":
			p.next()
			return &Ident{Name: t.Text, At: t.Pos}, nil
		}
	case TokenPunct:
		if t.Text == "(" {
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return x, nil
		}
	}
	return nil, p.unexpected("expression")
}

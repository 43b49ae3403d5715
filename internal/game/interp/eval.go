package interp

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/game/model"
	"github.com/cardlang/cardlang-go/internal/lang"
)

// DefaultMaxCallDepth bounds nested calls when no limit is configured.
const DefaultMaxCallDepth = 64

// Context is the player and move an invocation acts for. Player 0 means the
// current player.
type Context struct {
	Player int
	Move   *model.Move
}

// Outcome is the result of one top-level invocation. A committed outcome
// carries the new state; a rejected one carries the failure and leaves the
// input state untouched.
type Outcome struct {
	Committed     bool
	State         *model.State
	Failure       *ValidationFailure
	ValidMoves    []string
	MovesDeclared bool
	Return        Value
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxCallDepth sets the nesting limit for calls.
func WithMaxCallDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// Interpreter evaluates the functions of one program. It holds no game state
// and may be shared by any number of games.
type Interpreter struct {
	prog     *lang.Program
	builtins map[string]builtin
	maxDepth int
}

// New returns an interpreter for prog.
func New(prog *lang.Program, opts ...Option) *Interpreter {
	in := &Interpreter{
		prog:     prog,
		builtins: builtins(),
		maxDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Program returns the program being interpreted.
func (in *Interpreter) Program() *lang.Program {
	return in.prog
}

// BuildDeck evaluates the deck declaration. st supplies the table that
// predicates may inspect; it is not modified.
func (in *Interpreter) BuildDeck(st *model.State) ([]cards.Card, error) {
	if in.prog.Deck == nil {
		return nil, errors.New("program declares no deck")
	}
	r := &run{in: in, state: st.Clone()}
	v, err := r.eval(in.prog.Deck, r.newScope())
	if err != nil {
		return nil, fmt.Errorf("build deck: %w", err)
	}
	cs, err := r.cardsOf(v, "deck", in.prog.Deck.Position())
	if err != nil {
		return nil, fmt.Errorf("build deck: %w", err)
	}
	return cs, nil
}

// NewState builds the deck and lays out an empty table for a fresh game.
func (in *Interpreter) NewState(seed uint64) (*model.State, error) {
	p := in.prog
	table, err := model.NewState(nil, p.Stacks, p.PlayerStacks, p.Players, p.CurrentPlayer, seed)
	if err != nil {
		return nil, err
	}
	deck, err := in.BuildDeck(table)
	if err != nil {
		return nil, err
	}
	return model.NewState(deck, p.Stacks, p.PlayerStacks, p.Players, p.CurrentPlayer, seed)
}

// Execute runs fn against a copy of st. The function's parameters are bound
// positionally to the context player and move. A failed check or subset
// transfer yields a rejected Outcome; any other failure is returned as an
// error. st itself is never modified.
func (in *Interpreter) Execute(fn *lang.FunctionDef, st *model.State, ctx Context) (*Outcome, error) {
	work := st.Clone()
	r := &run{in: in, state: work, ctx: ctx}

	args := []Value{r.contextPlayer(), r.contextMove()}
	if len(fn.Params) > len(args) {
		return nil, &TypeError{
			Op:   fn.Name,
			Want: "at most 2 parameters (player, move)",
			Got:  strconv.Itoa(len(fn.Params)),
			Pos:  fn.Pos,
		}
	}

	ret, err := r.call(fn, args[:len(fn.Params)], fn.Pos)
	if err != nil {
		var vf *ValidationFailure
		if errors.As(err, &vf) {
			return &Outcome{Failure: vf}, nil
		}
		return nil, err
	}
	return &Outcome{
		Committed:     true,
		State:         work,
		ValidMoves:    r.validMoves,
		MovesDeclared: r.movesDeclared,
		Return:        ret,
	}, nil
}

type scope map[string]Value

// run is the mutable state of a single top-level invocation.
type run struct {
	in    *Interpreter
	state *model.State
	ctx   Context
	depth int

	validMoves    []string
	movesDeclared bool
}

func (r *run) contextPlayer() PlayerRef {
	if r.ctx.Player > 0 {
		return PlayerRef{ID: r.ctx.Player}
	}
	return PlayerRef{ID: r.state.CurrentPlayer().ID}
}

func (r *run) contextMove() Value {
	if r.ctx.Move == nil {
		return Empty{}
	}
	return MoveValue{Move: r.ctx.Move}
}

// newScope seeds a fresh scope with the invocation context.
func (r *run) newScope() scope {
	return scope{
		"player": r.contextPlayer(),
		"move":   r.contextMove(),
	}
}

func (r *run) call(fn *lang.FunctionDef, args []Value, at lang.Pos) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, &TypeError{
			Op:   fn.Name,
			Want: fmt.Sprintf("%d arguments", len(fn.Params)),
			Got:  strconv.Itoa(len(args)),
			Pos:  at,
		}
	}
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.in.maxDepth {
		return nil, fmt.Errorf("%s: %s: %w", at, fn.Name, ErrRecursionLimit)
	}

	sc := r.newScope()
	for i, p := range fn.Params {
		sc[p] = args[i]
	}
	for _, stmt := range fn.Body {
		ret, done, err := r.exec(fn, stmt, sc)
		if err != nil {
			return nil, err
		}
		if done {
			return ret, nil
		}
	}
	return Empty{}, nil
}

// invoke resolves name against user functions, then builtins. A user
// function with an empty body only declares a hook and defers to the
// builtin of the same name.
func (r *run) invoke(name string, args []Value, at lang.Pos) (Value, error) {
	fn, user := r.in.prog.Function(name)
	b, builtin := r.in.builtins[name]
	switch {
	case user && (len(fn.Body) > 0 || !builtin):
		return r.call(fn, args, at)
	case builtin:
		return b(r, args, at)
	}
	return nil, &UnresolvedNameError{
		Name:       name,
		Pos:        at,
		Suggestion: lang.Suggest(name, r.in.callableNames()),
	}
}

func (in *Interpreter) callableNames() []string {
	names := append([]string(nil), in.prog.FunctionOrder...)
	for name := range in.builtins {
		if _, ok := in.prog.Functions[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (in *Interpreter) isCallable(name string) bool {
	if _, ok := in.prog.Functions[name]; ok {
		return true
	}
	_, ok := in.builtins[name]
	return ok
}

func (r *run) exec(fn *lang.FunctionDef, stmt lang.Stmt, sc scope) (Value, bool, error) {
	switch s := stmt.(type) {
	case *lang.TransferStmt:
		return nil, false, r.transfer(fn, s, sc)

	case *lang.CheckStmt:
		v, err := r.eval(s.Cond, sc)
		if err != nil {
			return nil, false, err
		}
		ok, isBool := v.(Bool)
		if !isBool {
			return nil, false, typeErr("check", "boolean", v, s.At)
		}
		if !ok {
			return nil, false, &ValidationFailure{
				Func:   fn.Name,
				Reason: "check failed: " + s.Cond.String(),
				Pos:    s.At,
			}
		}
		return nil, false, nil

	case *lang.ReturnStmt:
		if s.Value == nil {
			return Empty{}, true, nil
		}
		v, err := r.eval(s.Value, sc)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil

	case *lang.ExprStmt:
		_, err := r.eval(s.X, sc)
		return nil, false, err

	case *lang.IfStmt:
		v, err := r.eval(s.Cond, sc)
		if err != nil {
			return nil, false, err
		}
		ok, isBool := v.(Bool)
		if !isBool {
			return nil, false, typeErr("if", "boolean", v, s.Cond.Position())
		}
		if !ok {
			return nil, false, nil
		}
		for _, inner := range s.Body {
			ret, done, err := r.exec(fn, inner, sc)
			if err != nil || done {
				return ret, done, err
			}
		}
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("%s: unknown statement %T", stmt.Position(), stmt)
}

func (r *run) transfer(fn *lang.FunctionDef, s *lang.TransferStmt, sc scope) error {
	srcRef, err := r.containerRef(s.Src, sc, "transfer source")
	if err != nil {
		return err
	}
	dstRef, err := r.containerRef(s.Dst, sc, "transfer destination")
	if err != nil {
		return err
	}
	src, err := r.container(srcRef, s.Src.Position())
	if err != nil {
		return err
	}

	if dstRef.AllPlayers {
		need := s.Count * len(r.state.Players)
		if s.All {
			need = src.Len()
		}
		dealt, err := src.Take(need)
		if err != nil {
			return &EmptyStackError{Stack: srcRef.String(), Want: need, Have: src.Len(), Pos: s.At}
		}
		for i, c := range dealt {
			p := r.state.Players[i%len(r.state.Players)]
			dst, ok := p.Stack(dstRef.Name)
			if !ok {
				return &TypeError{Op: "transfer", Want: "player stack", Got: dstRef.Name, Pos: s.Dst.Position()}
			}
			dst.Push(c)
		}
		return nil
	}

	dst, err := r.container(dstRef, s.Dst.Position())
	if err != nil {
		return err
	}

	if s.Subset != nil {
		v, err := r.eval(s.Subset, sc)
		if err != nil {
			return err
		}
		subset, err := r.cardsOf(v, "transfer subset", s.Subset.Position())
		if err != nil {
			return err
		}
		if !src.Remove(subset) {
			return &ValidationFailure{
				Func:   fn.Name,
				Reason: fmt.Sprintf("%s not all in %s", Cards(subset), srcRef),
				Pos:    s.At,
			}
		}
		dst.Push(subset...)
		return nil
	}

	n := s.Count
	if s.All {
		n = src.Len()
	}
	taken, err := src.Take(n)
	if err != nil {
		return &EmptyStackError{Stack: srcRef.String(), Want: n, Have: src.Len(), Pos: s.At}
	}
	dst.Push(taken...)
	return nil
}

func (r *run) containerRef(e lang.Expr, sc scope, op string) (ContainerRef, error) {
	v, err := r.eval(e, sc)
	if err != nil {
		return ContainerRef{}, err
	}
	ref, ok := v.(ContainerRef)
	if !ok {
		return ContainerRef{}, typeErr(op, "stack or deck", v, e.Position())
	}
	return ref, nil
}

func (r *run) container(ref ContainerRef, at lang.Pos) (*cards.Stack, error) {
	if ref.AllPlayers {
		return nil, &TypeError{Op: "stack", Want: "a single stack", Got: ref.String(), Pos: at}
	}
	if ref.Player > 0 {
		p, ok := r.state.Player(ref.Player)
		if !ok {
			return nil, &TypeError{Op: "stack", Want: "a seated player", Got: ref.String(), Pos: at}
		}
		s, ok := p.Stack(ref.Name)
		if !ok {
			return nil, &TypeError{Op: "stack", Want: "a player stack", Got: ref.String(), Pos: at}
		}
		return s, nil
	}
	s, ok := r.state.Stack(ref.Name)
	if !ok {
		return nil, &TypeError{Op: "stack", Want: "a declared stack", Got: ref.String(), Pos: at}
	}
	return s, nil
}

func (r *run) eval(e lang.Expr, sc scope) (Value, error) {
	switch x := e.(type) {
	case *lang.Ident:
		return r.resolve(x.Name, sc), nil

	case *lang.IntLit:
		return Number(x.Value), nil

	case *lang.AttrExpr:
		return r.attr(x, sc)

	case *lang.CallExpr:
		args := make([]Value, len(x.Args))
		for i, a := range x.Args {
			v, err := r.eval(a, sc)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return r.invoke(x.Name, args, x.At)

	case *lang.CompareExpr:
		left, err := r.eval(x.Left, sc)
		if err != nil {
			return nil, err
		}
		right, err := r.eval(x.Right, sc)
		if err != nil {
			return nil, err
		}
		eq, err := r.equal(left, right, x.At)
		if err != nil {
			return nil, err
		}
		return Bool(eq != x.Negate), nil

	case *lang.BinaryExpr:
		left, err := r.boolean(x.Left, sc, x.Op)
		if err != nil {
			return nil, err
		}
		if (x.Op == "&" && !left) || (x.Op == "|" && left) {
			return Bool(left), nil
		}
		right, err := r.boolean(x.Right, sc, x.Op)
		if err != nil {
			return nil, err
		}
		return Bool(right), nil

	case *lang.NotExpr:
		v, err := r.boolean(x.X, sc, "not")
		if err != nil {
			return nil, err
		}
		return Bool(!v), nil
	}
	return nil, fmt.Errorf("%s: unknown expression %T", e.Position(), e)
}

func (r *run) boolean(e lang.Expr, sc scope, op string) (bool, error) {
	v, err := r.eval(e, sc)
	if err != nil {
		return false, err
	}
	b, ok := v.(Bool)
	if !ok {
		return false, typeErr(op, "boolean", v, e.Position())
	}
	return bool(b), nil
}

// resolve looks a bare name up: locals, then the deck and table stacks, then
// functions, then it stands for itself.
func (r *run) resolve(name string, sc scope) Value {
	if v, ok := sc[name]; ok {
		return v
	}
	switch name {
	case model.DeckName:
		return ContainerRef{Name: model.DeckName}
	case "current_player":
		return Number(r.state.CurrentPlayer().ID)
	case "players":
		return Number(len(r.state.Players))
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if r.in.prog.HasStack(name) {
		return ContainerRef{Name: name}
	}
	if r.in.isCallable(name) {
		return FuncRef{Name: name}
	}
	return Symbol(name)
}

func (r *run) attr(x *lang.AttrExpr, sc scope) (Value, error) {
	if id, ok := x.X.(*lang.Ident); ok && id.Name == "players" {
		return ContainerRef{Name: x.Name, AllPlayers: true}, nil
	}
	base, err := r.eval(x.X, sc)
	if err != nil {
		return nil, err
	}

	switch b := base.(type) {
	case PlayerRef:
		if x.Name == lang.PlayerFieldID {
			return Number(b.ID), nil
		}
		if r.in.prog.HasPlayerStack(x.Name) {
			return ContainerRef{Name: x.Name, Player: b.ID}, nil
		}
	case MoveValue:
		switch x.Name {
		case lang.MoveFieldAction:
			return Symbol(b.Move.Action), nil
		case lang.MoveFieldCards:
			return Cards(b.Move.Cards), nil
		case lang.MoveFieldTarget:
			return Cards(b.Move.Target), nil
		case lang.MoveFieldPlayer:
			if b.Move.Player > 0 {
				return PlayerRef{ID: b.Move.Player}, nil
			}
			return PlayerRef{ID: r.state.CurrentPlayer().ID}, nil
		}
	case Card:
		switch x.Name {
		case lang.CardFieldRank:
			return Symbol(cards.Card(b).Rank.String()), nil
		case lang.CardFieldSuit:
			return Symbol(cards.Card(b).Suit.String()), nil
		}
	}
	return nil, typeErr(":"+x.Name, "a record with field "+x.Name, base, x.At)
}

// cardsOf coerces v to a card set. Containers yield their contents and
// zero-argument functions are called.
func (r *run) cardsOf(v Value, op string, at lang.Pos) ([]cards.Card, error) {
	switch c := v.(type) {
	case Cards:
		return []cards.Card(c), nil
	case Card:
		return []cards.Card{cards.Card(c)}, nil
	case ContainerRef:
		s, err := r.container(c, at)
		if err != nil {
			return nil, err
		}
		return s.Cards(), nil
	case FuncRef:
		res, err := r.invoke(c.Name, nil, at)
		if err != nil {
			return nil, err
		}
		if _, again := res.(FuncRef); again {
			return nil, typeErr(op, "card set", res, at)
		}
		return r.cardsOf(res, op, at)
	}
	return nil, typeErr(op, "card set", v, at)
}

func isScalar(v Value) bool {
	switch v.Kind() {
	case KindNumber, KindSymbol, KindFunc:
		return true
	}
	return false
}

func isCardish(v Value) bool {
	switch v.Kind() {
	case KindCards, KindCard, KindContainer:
		return true
	}
	return false
}

// equal implements "is". Numbers, symbols and function names compare by
// text so that "card:rank is 3" and "move:action is take" work; card values
// compare as multisets.
func (r *run) equal(a, b Value, at lang.Pos) (bool, error) {
	switch {
	case a.Kind() == KindEmpty || b.Kind() == KindEmpty:
		return a.Kind() == b.Kind(), nil
	case isScalar(a) && isScalar(b):
		return a.String() == b.String(), nil
	case a.Kind() == KindBool && b.Kind() == KindBool:
		return a.(Bool) == b.(Bool), nil
	case a.Kind() == KindPlayer && b.Kind() == KindPlayer:
		return a.(PlayerRef).ID == b.(PlayerRef).ID, nil
	case isCardish(a) && isCardish(b):
		ac, err := r.cardsOf(a, "is", at)
		if err != nil {
			return false, err
		}
		bc, err := r.cardsOf(b, "is", at)
		if err != nil {
			return false, err
		}
		return cards.SameCards(ac, bc), nil
	}
	return false, &TypeError{Op: "is", Want: "comparable values", Got: a.Kind().String() + " and " + b.Kind().String(), Pos: at}
}

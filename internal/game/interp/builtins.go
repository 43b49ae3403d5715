package interp

import (
	"fmt"
	"strconv"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/lang"
)

type builtin func(r *run, args []Value, at lang.Pos) (Value, error)

// Builtin names.
const (
	BuiltinStandardDeck = "StandardDeck"
	BuiltinFilter       = lang.FilterBuiltin
	BuiltinCount        = "count"
	BuiltinCardsInStack = "cards_in_stack"
	BuiltinGetValue     = "get_value"
	BuiltinValidMoves   = "valid_moves"
	BuiltinShuffle      = "shuffle"
	BuiltinEnd          = "end"
	BuiltinWinner       = "winner"
	BuiltinHandRank     = "hand_rank"
	BuiltinNextPlayer   = "next_player"
)

func builtins() map[string]builtin {
	return map[string]builtin{
		BuiltinStandardDeck: builtinStandardDeck,
		BuiltinFilter:       builtinFilter,
		BuiltinCount:        builtinCount,
		BuiltinCardsInStack: builtinCardsInStack,
		BuiltinGetValue:     builtinGetValue,
		BuiltinValidMoves:   builtinValidMoves,
		BuiltinShuffle:      builtinShuffle,
		BuiltinEnd:          builtinEnd,
		BuiltinWinner:       builtinWinner,
		BuiltinHandRank:     builtinHandRank,
		BuiltinNextPlayer:   builtinNextPlayer,
	}
}

func arity(name string, args []Value, want int, at lang.Pos) error {
	if len(args) != want {
		return &TypeError{
			Op:   name,
			Want: fmt.Sprintf("%d arguments", want),
			Got:  strconv.Itoa(len(args)),
			Pos:  at,
		}
	}
	return nil
}

func builtinStandardDeck(_ *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinStandardDeck, args, 0, at); err != nil {
		return nil, err
	}
	return Cards(cards.StandardDeck()), nil
}

// builtinFilter keeps, in order, the cards for which the named predicate
// returns true.
func builtinFilter(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinFilter, args, 2, at); err != nil {
		return nil, err
	}
	source, err := r.cardsOf(args[0], BuiltinFilter, at)
	if err != nil {
		return nil, err
	}
	pred, ok := args[1].(FuncRef)
	if !ok {
		return nil, typeErr(BuiltinFilter, "predicate function", args[1], at)
	}

	kept := make(Cards, 0, len(source))
	for _, c := range source {
		v, err := r.invoke(pred.Name, []Value{Card(c)}, at)
		if err != nil {
			return nil, err
		}
		keep, ok := v.(Bool)
		if !ok {
			return nil, typeErr(pred.Name, "boolean", v, at)
		}
		if keep {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func builtinCount(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinCount, args, 1, at); err != nil {
		return nil, err
	}
	cs, err := r.cardsOf(args[0], BuiltinCount, at)
	if err != nil {
		return nil, err
	}
	return Number(len(cs)), nil
}

func builtinCardsInStack(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinCardsInStack, args, 2, at); err != nil {
		return nil, err
	}
	ref, ok := args[1].(ContainerRef)
	if !ok {
		return nil, typeErr(BuiltinCardsInStack, "stack", args[1], at)
	}
	stack, err := r.container(ref, at)
	if err != nil {
		return nil, err
	}
	cs, err := r.cardsOf(args[0], BuiltinCardsInStack, at)
	if err != nil {
		return nil, err
	}
	return Bool(stack.Contains(cs)), nil
}

// builtinGetValue sums card ranks, ace low and king 13.
func builtinGetValue(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinGetValue, args, 1, at); err != nil {
		return nil, err
	}
	cs, err := r.cardsOf(args[0], BuiltinGetValue, at)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, c := range cs {
		total += c.Value()
	}
	return Number(total), nil
}

// builtinValidMoves records the actions the engine may dispatch this turn.
func builtinValidMoves(r *run, args []Value, at lang.Pos) (Value, error) {
	names := make([]string, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case FuncRef:
			names = append(names, v.Name)
		case Symbol:
			names = append(names, string(v))
		default:
			return nil, typeErr(BuiltinValidMoves, "action name", a, at)
		}
	}
	r.validMoves = names
	r.movesDeclared = true
	return Empty{}, nil
}

func builtinShuffle(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinShuffle, args, 1, at); err != nil {
		return nil, err
	}
	ref, ok := args[0].(ContainerRef)
	if !ok {
		return nil, typeErr(BuiltinShuffle, "stack or deck", args[0], at)
	}
	stack, err := r.container(ref, at)
	if err != nil {
		return nil, err
	}
	stack.Shuffle(r.state.Rand())
	return Empty{}, nil
}

func builtinEnd(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinEnd, args, 0, at); err != nil {
		return nil, err
	}
	r.state.Ended = true
	return Empty{}, nil
}

// builtinNextPlayer hands the turn to the next seat. The engine then skips
// its own advance for the move.
func builtinNextPlayer(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinNextPlayer, args, 0, at); err != nil {
		return nil, err
	}
	r.state.PassTurn()
	return Empty{}, nil
}

func builtinWinner(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinWinner, args, 1, at); err != nil {
		return nil, err
	}
	var id int
	switch v := args[0].(type) {
	case Number:
		id = int(v)
	case PlayerRef:
		id = v.ID
	default:
		return nil, typeErr(BuiltinWinner, "player id", args[0], at)
	}
	if err := r.state.SetWinner(id); err != nil {
		return nil, &TypeError{Op: BuiltinWinner, Want: "a seated player id", Got: strconv.Itoa(id), Pos: at}
	}
	return Empty{}, nil
}

// builtinHandRank scores a poker hand with the evaluator in package cards.
func builtinHandRank(r *run, args []Value, at lang.Pos) (Value, error) {
	if err := arity(BuiltinHandRank, args, 1, at); err != nil {
		return nil, err
	}
	cs, err := r.cardsOf(args[0], BuiltinHandRank, at)
	if err != nil {
		return nil, err
	}
	rank, err := cards.HandRank(cs)
	if err != nil {
		return nil, &TypeError{Op: BuiltinHandRank, Want: "3, 5 or 7 cards", Got: strconv.Itoa(len(cs)) + " cards", Pos: at}
	}
	return Number(rank), nil
}

package interp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/game/model"
	"github.com/cardlang/cardlang-go/internal/games"
	"github.com/cardlang/cardlang-go/internal/lang"
)

func load(t *testing.T, src string, opts ...Option) (*Interpreter, *model.State) {
	t.Helper()
	prog, err := lang.ParseSource(src)
	require.NoError(t, err)
	in := New(prog, opts...)
	st, err := in.NewState(1)
	require.NoError(t, err)
	return in, st
}

func fn(t *testing.T, in *Interpreter, name string) *lang.FunctionDef {
	t.Helper()
	f, ok := in.Program().Function(name)
	require.True(t, ok, "function %s", name)
	return f
}

func card(t *testing.T, s string) cards.Card {
	t.Helper()
	c, err := cards.ParseCard(s)
	require.NoError(t, err)
	return c
}

// place moves the named card out of the deck into dst.
func place(t *testing.T, st *model.State, dst *cards.Stack, names ...string) {
	t.Helper()
	for _, n := range names {
		c := card(t, n)
		require.True(t, st.Deck.Remove([]cards.Card{c}), "%s not in deck", n)
		dst.Push(c)
	}
}

func commit(t *testing.T, in *Interpreter, name string, st *model.State, ctx Context) *model.State {
	t.Helper()
	out, err := in.Execute(fn(t, in, name), st, ctx)
	require.NoError(t, err)
	require.True(t, out.Committed, "rejected: %v", out.Failure)
	return out.State
}

func scopa(t *testing.T) (*Interpreter, *model.State) {
	return load(t, games.MustSource(games.SimpleScopaName))
}

func TestBuildDeckFiltersRoyals(t *testing.T) {
	_, st := scopa(t)

	deck := st.Deck.Cards()
	require.Len(t, deck, 40)
	assert.Equal(t, 40, st.Initial)
	for _, c := range deck {
		assert.NotContains(t, []cards.Rank{cards.Jack, cards.Queen, cards.King}, c.Rank)
	}
	assert.Equal(t, card(t, "A spades"), deck[0])
	assert.Equal(t, card(t, "A hearts"), deck[10], "order is preserved")
}

func TestSetupDeals(t *testing.T) {
	in, st := scopa(t)
	next := commit(t, in, "setup", st, Context{})

	assert.Equal(t, 30, next.Deck.Len())
	assert.Equal(t, []string{"A spades", "2 spades", "3 spades", "4 spades"}, cards.Strings(next.Stacks["middle"].Cards()))
	assert.Equal(t, []string{"5 spades", "7 spades", "9 spades"}, cards.Strings(next.Players[0].Stacks["hand"].Cards()))
	assert.Equal(t, []string{"6 spades", "8 spades", "10 spades"}, cards.Strings(next.Players[1].Stacks["hand"].Cards()))
	assert.Equal(t, 40, next.TotalCards())

	assert.Equal(t, 40, st.Deck.Len(), "input state is untouched")
}

func TestTakeEqualRank(t *testing.T) {
	in, st := scopa(t)
	p1 := st.Players[0]
	place(t, st, p1.Stacks["hand"], "3 hearts", "9 clubs")
	place(t, st, st.Stacks["middle"], "3 spades", "5 diamonds")
	deckBefore := st.Deck.Cards()

	move := &model.Move{
		Action: "take",
		Cards:  []cards.Card{card(t, "3 hearts")},
		Target: []cards.Card{card(t, "3 spades")},
	}
	next := commit(t, in, "take", st, Context{Move: move})

	assert.ElementsMatch(t, []string{"3 hearts", "3 spades"}, cards.Strings(next.Players[0].Stacks["collection"].Cards()))
	assert.Equal(t, []string{"9 clubs"}, cards.Strings(next.Players[0].Stacks["hand"].Cards()))
	assert.Equal(t, []string{"5 diamonds"}, cards.Strings(next.Stacks["middle"].Cards()))
	assert.Equal(t, deckBefore, next.Deck.Cards())
	assert.True(t, next.Players[1].Stacks["collection"].IsEmpty())
	assert.Equal(t, 40, next.TotalCards())
}

func TestTakeDifferentRankRejected(t *testing.T) {
	in, st := scopa(t)
	place(t, st, st.Players[0].Stacks["hand"], "3 hearts")
	place(t, st, st.Stacks["middle"], "4 spades")

	move := &model.Move{
		Action: "take",
		Cards:  []cards.Card{card(t, "3 hearts")},
		Target: []cards.Card{card(t, "4 spades")},
	}
	out, err := in.Execute(fn(t, in, "take"), st, Context{Move: move})
	require.NoError(t, err)

	assert.False(t, out.Committed)
	assert.Nil(t, out.State)
	require.NotNil(t, out.Failure)
	assert.Equal(t, "take", out.Failure.Func)
	assert.Equal(t, []string{"3 hearts"}, cards.Strings(st.Players[0].Stacks["hand"].Cards()))
	assert.Equal(t, []string{"4 spades"}, cards.Strings(st.Stacks["middle"].Cards()))
}

func TestDropTwoCardsRejected(t *testing.T) {
	in, st := scopa(t)
	place(t, st, st.Players[0].Stacks["hand"], "2 hearts", "5 hearts")

	move := &model.Move{
		Action: "drop",
		Cards:  []cards.Card{card(t, "2 hearts"), card(t, "5 hearts")},
	}
	out, err := in.Execute(fn(t, in, "drop"), st, Context{Move: move})
	require.NoError(t, err)

	require.False(t, out.Committed)
	assert.Contains(t, out.Failure.Reason, "count(move:cards) is 1")
	assert.Equal(t, 2, st.Players[0].Stacks["hand"].Len())
	assert.True(t, st.Stacks["middle"].IsEmpty())
}

func TestDropCardNotInHandRejected(t *testing.T) {
	in, st := scopa(t)

	move := &model.Move{Action: "drop", Cards: []cards.Card{card(t, "2 hearts")}}
	out, err := in.Execute(fn(t, in, "drop"), st, Context{Move: move})
	require.NoError(t, err)

	require.False(t, out.Committed)
	assert.Contains(t, out.Failure.Reason, "not all in 1:hand")
}

func TestPlayerMoveDeclaresActions(t *testing.T) {
	in, st := scopa(t)

	out, err := in.Execute(fn(t, in, "player_move"), st, Context{Player: 1, Move: &model.Move{Action: "take"}})
	require.NoError(t, err)
	require.True(t, out.Committed)
	assert.True(t, out.MovesDeclared)
	assert.Equal(t, []string{"take", "drop"}, out.ValidMoves)

	out, err = in.Execute(fn(t, in, "player_move"), st, Context{Player: 2, Move: &model.Move{Action: "take"}})
	require.NoError(t, err)
	assert.False(t, out.Committed, "player 2 is not on turn")
	assert.Empty(t, out.ValidMoves)
}

const misc = `
name misc
deck StandardDeck
players 2
stack middle
stack player:hand

def setup(){
    deck > players:hand 2
}
def overdraw(){ deck > middle 60 }
def partial(){
    deck > middle 2
    check(false)
}
def typo(){ cont(deck) }
def bad_count(){ count(3) }
def bad_check(){ check(3) }
def loop(){ loop() }
def middle_value(){ return(get_value(middle)) }
def total(){ return(count(deck)) }
def finish(player){
    winner(player:id)
    end()
}
def mix(){ shuffle(deck) }
def is_three(card){ return(card:rank is 3) }
def threes(){ return(filter(deck, is_three)) }
def best(){
    deck > middle 5
    return(hand_rank(middle))
}
def mismatch(){ return(middle is current_player) }
def action_is(player, move){ return(move:action is drop) }
`

func TestCountedTransferShortfall(t *testing.T) {
	in, st := load(t, misc)

	_, err := in.Execute(fn(t, in, "overdraw"), st, Context{})
	var empty *EmptyStackError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 60, empty.Want)
	assert.Equal(t, 52, empty.Have)
	assert.False(t, IsValidationFailure(err))
}

func TestDealShortfall(t *testing.T) {
	in, st := load(t, misc)
	_, err := st.Deck.Take(51)
	require.NoError(t, err)

	_, err = in.Execute(fn(t, in, "setup"), st, Context{})
	var empty *EmptyStackError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 4, empty.Want)
}

func TestFailedCheckDiscardsEarlierTransfers(t *testing.T) {
	in, st := load(t, misc)

	out, err := in.Execute(fn(t, in, "partial"), st, Context{})
	require.NoError(t, err)
	assert.False(t, out.Committed)
	assert.Equal(t, 52, st.Deck.Len())
	assert.True(t, st.Stacks["middle"].IsEmpty())
}

func TestUnresolvedCallSuggests(t *testing.T) {
	in, st := load(t, misc)

	_, err := in.Execute(fn(t, in, "typo"), st, Context{})
	var unresolved *UnresolvedNameError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "cont", unresolved.Name)
	assert.Equal(t, "count", unresolved.Suggestion)
}

func TestTypeErrors(t *testing.T) {
	in, st := load(t, misc)

	for _, name := range []string{"bad_count", "bad_check", "mismatch"} {
		t.Run(name, func(t *testing.T) {
			_, err := in.Execute(fn(t, in, name), st, Context{})
			var typeErr *TypeError
			require.ErrorAs(t, err, &typeErr)
		})
	}
}

func TestRecursionLimit(t *testing.T) {
	in, st := load(t, misc, WithMaxCallDepth(8))

	_, err := in.Execute(fn(t, in, "loop"), st, Context{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecursionLimit))
}

func TestReturnValues(t *testing.T) {
	in, st := load(t, misc)
	place(t, st, st.Stacks["middle"], "3 hearts", "K clubs")

	out, err := in.Execute(fn(t, in, "middle_value"), st, Context{})
	require.NoError(t, err)
	assert.Equal(t, Number(16), out.Return)

	out, err = in.Execute(fn(t, in, "total"), st, Context{})
	require.NoError(t, err)
	assert.Equal(t, Number(50), out.Return)

	out, err = in.Execute(fn(t, in, "threes"), st, Context{})
	require.NoError(t, err)
	assert.Equal(t, Cards{card(t, "3 spades"), card(t, "3 diamonds"), card(t, "3 clubs")}, out.Return)

	out, err = in.Execute(fn(t, in, "action_is"), st, Context{Move: &model.Move{Action: "drop"}})
	require.NoError(t, err)
	assert.Equal(t, Bool(true), out.Return)
}

func TestWinnerAndEnd(t *testing.T) {
	in, st := load(t, misc)

	next := commit(t, in, "finish", st, Context{Player: 2})
	assert.True(t, next.Ended)
	assert.Equal(t, []int{2}, next.Winners)
	assert.False(t, st.Ended)
}

func TestShuffleIsDeterministic(t *testing.T) {
	in, st := load(t, misc)

	a := commit(t, in, "mix", st, Context{})
	b := commit(t, in, "mix", st, Context{})
	assert.Equal(t, a.Deck.Cards(), b.Deck.Cards())
	assert.NotEqual(t, st.Deck.Cards(), a.Deck.Cards())
	assert.True(t, cards.SameCards(st.Deck.Cards(), a.Deck.Cards()))
}

func TestHandRank(t *testing.T) {
	in, st := load(t, misc)

	out, err := in.Execute(fn(t, in, "best"), st, Context{})
	require.NoError(t, err)
	require.True(t, out.Committed)
	assert.Equal(t, KindNumber, out.Return.Kind())
}

func TestUserFunctionShadowsBuiltin(t *testing.T) {
	in, st := load(t, `
name shadow
deck StandardDeck
players 1
stack middle
def get_value(cards){ return(99) }
def lookup(){ return(get_value(deck)) }
`)
	out, err := in.Execute(fn(t, in, "lookup"), st, Context{})
	require.NoError(t, err)
	assert.Equal(t, Number(99), out.Return)
}

const flow = `
name flow
deck StandardDeck
players 3
stack middle
stack player:hand

def dump(){ deck > middle end }
def deal_all(){ deck > players:hand end }
def back(){ middle > deck end }
def pick(player){
    if(count(middle) is 0){
        return(empty)
    }
    if(player:id is 2){
        middle > player:hand
        return(second)
    }
    return(other)
}
def guarded(){
    deck > middle 3
    if(count(middle) is 3){
        check(false)
    }
}
def not_bool(){
    if(count(deck)){ return(1) }
}
def pass(){ next_player() }
def pass_twice(){
    next_player()
    next_player()
}
`

func TestTransferEverything(t *testing.T) {
	in, st := load(t, flow)

	next := commit(t, in, "dump", st, Context{})
	assert.Equal(t, 52, next.Stacks["middle"].Len())
	assert.True(t, next.Deck.IsEmpty())
	assert.Equal(t, cards.StandardDeck(), next.Stacks["middle"].Cards(), "order is kept")

	next = commit(t, in, "back", next, Context{})
	assert.Equal(t, 52, next.Deck.Len())

	// an empty source moves nothing and is not an error
	empty := commit(t, in, "back", st, Context{})
	assert.Equal(t, 52, empty.Deck.Len())
}

func TestDealEverythingRoundRobin(t *testing.T) {
	in, st := load(t, flow)
	_, err := st.Deck.Take(2)
	require.NoError(t, err)

	next := commit(t, in, "deal_all", st, Context{})
	assert.True(t, next.Deck.IsEmpty())
	hands := make([]int, 3)
	for i, p := range next.Players {
		hands[i] = p.Stacks["hand"].Len()
	}
	assert.Equal(t, []int{17, 17, 16}, hands)
	assert.Equal(t, 50, next.TotalCards())
}

func TestIfStatement(t *testing.T) {
	in, st := load(t, flow)

	out, err := in.Execute(fn(t, in, "pick"), st, Context{Player: 2})
	require.NoError(t, err)
	assert.Equal(t, Symbol("empty"), out.Return, "return inside if ends the function")

	st = commit(t, in, "dump", st, Context{})
	out, err = in.Execute(fn(t, in, "pick"), st, Context{Player: 2})
	require.NoError(t, err)
	assert.Equal(t, Symbol("second"), out.Return)
	p2, _ := out.State.Player(2)
	assert.Equal(t, 1, p2.Stacks["hand"].Len())

	out, err = in.Execute(fn(t, in, "pick"), st, Context{Player: 3})
	require.NoError(t, err)
	assert.Equal(t, Symbol("other"), out.Return)
}

func TestCheckInsideIfRejects(t *testing.T) {
	in, st := load(t, flow)

	out, err := in.Execute(fn(t, in, "guarded"), st, Context{})
	require.NoError(t, err)
	assert.False(t, out.Committed)
	assert.Equal(t, "check failed: false", out.Failure.Reason)
	assert.Equal(t, 52, st.Deck.Len())
}

func TestIfNeedsBoolean(t *testing.T) {
	in, st := load(t, flow)

	_, err := in.Execute(fn(t, in, "not_bool"), st, Context{})
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "if", typeErr.Op)
	assert.Equal(t, "boolean", typeErr.Want)
}

func TestNextPlayer(t *testing.T) {
	in, st := load(t, flow)
	require.Equal(t, 1, st.CurrentPlayer().ID)

	next := commit(t, in, "pass", st, Context{})
	assert.Equal(t, 2, next.CurrentPlayer().ID)
	assert.True(t, next.Passed)
	assert.False(t, st.Passed)

	next = commit(t, in, "pass_twice", next, Context{})
	assert.Equal(t, 1, next.CurrentPlayer().ID, "wraps after the last seat")
}

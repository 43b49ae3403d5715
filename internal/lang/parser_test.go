package lang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlang/cardlang-go/internal/games"
	"github.com/cardlang/cardlang-go/internal/lang"
)

const header = "name t\ndeck StandardDeck\nplayers 2\nstack middle\nstack player:hand\n"

func parse(t *testing.T, body string) *lang.Program {
	t.Helper()
	prog, err := lang.ParseSource(header + body)
	require.NoError(t, err)
	return prog
}

func parseErr(t *testing.T, src string) *lang.ParseError {
	t.Helper()
	prog, err := lang.ParseSource(src)
	require.Error(t, err)
	assert.Nil(t, prog, "no partial program on error")
	var perr *lang.ParseError
	require.ErrorAs(t, err, &perr)
	return perr
}

func TestParseSimpleScopa(t *testing.T) {
	prog, err := lang.ParseSource(games.MustSource(games.SimpleScopaName))
	require.NoError(t, err)

	assert.Equal(t, "simple_scopa", prog.Name)
	assert.Equal(t, []string{"middle"}, prog.Stacks)
	assert.Equal(t, []string{"hand", "collection"}, prog.PlayerStacks)
	assert.Equal(t, 2, prog.Players)
	assert.Equal(t, 1, prog.CurrentPlayer)
	assert.ElementsMatch(t,
		[]string{"setup", "player_move", "take", "drop", "get_value", "not_royal"},
		prog.FunctionOrder)
	assert.Len(t, prog.Functions, 6)

	deck, ok := prog.Deck.(*lang.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "filter(StandardDeck, not_royal)", deck.String())

	take, ok := prog.Function("take")
	require.True(t, ok)
	assert.Equal(t, []string{"player", "move"}, take.Params)
	require.Len(t, take.Body, 6)

	transfer, ok := take.Body[4].(*lang.TransferStmt)
	require.True(t, ok)
	assert.Equal(t, "player:hand", transfer.Src.String())
	assert.Equal(t, "player:collection", transfer.Dst.String())
	assert.Equal(t, "move:cards", transfer.Subset.String())

	getValue, _ := prog.Function("get_value")
	assert.Empty(t, getValue.Body)
}

func TestParseTransferForms(t *testing.T) {
	prog := parse(t, "def setup(){\n deck > middle 4\n deck > players:hand 3\n deck > middle\n}")
	setup, _ := prog.Function("setup")
	require.Len(t, setup.Body, 3)

	first := setup.Body[0].(*lang.TransferStmt)
	assert.True(t, first.HasCount)
	assert.Equal(t, 4, first.Count)
	assert.Nil(t, first.Subset)

	deal := setup.Body[1].(*lang.TransferStmt)
	assert.Equal(t, "players:hand", deal.Dst.String())
	assert.Equal(t, 3, deal.Count)

	single := setup.Body[2].(*lang.TransferStmt)
	assert.False(t, single.HasCount)
	assert.Equal(t, 1, single.Count)
}

func TestParseTransferEverything(t *testing.T) {
	prog := parse(t, "def setup(){\n deck > middle end\n middle > players:hand end\n deck > middle\n end()\n}")
	setup, _ := prog.Function("setup")
	require.Len(t, setup.Body, 4)

	all := setup.Body[0].(*lang.TransferStmt)
	assert.True(t, all.All)
	assert.False(t, all.HasCount)

	deal := setup.Body[1].(*lang.TransferStmt)
	assert.True(t, deal.All)
	assert.Equal(t, "players:hand", deal.Dst.String())

	single := setup.Body[2].(*lang.TransferStmt)
	assert.False(t, single.All, "end() on the next line is a call")
	call := setup.Body[3].(*lang.ExprStmt)
	assert.Equal(t, "end()", call.X.String())
}

func TestParseIf(t *testing.T) {
	prog := parse(t, `def f(player){
    if(count(deck) is 52 & player:id is 1){
        deck > middle 2
        if(true){ return(1) }
    }
    return(0)
}`)
	f, _ := prog.Function("f")
	require.Len(t, f.Body, 2)

	stmt, ok := f.Body[0].(*lang.IfStmt)
	require.True(t, ok)
	assert.Equal(t, "(count(deck) is 52 & player:id is 1)", stmt.Cond.String())
	assert.Equal(t, lang.Pos{Line: 7, Col: 5}, stmt.At)
	require.Len(t, stmt.Body, 2)
	assert.IsType(t, &lang.TransferStmt{}, stmt.Body[0])

	inner, ok := stmt.Body[1].(*lang.IfStmt)
	require.True(t, ok)
	assert.IsType(t, &lang.ReturnStmt{}, inner.Body[0])
}

func TestParseIfBodyIsBound(t *testing.T) {
	perr := parseErr(t, header+"def f(player){\n if(true){ check(player:hnd is 1) }\n}")
	assert.Equal(t, "hnd", perr.Found)
	assert.Equal(t, 7, perr.Line)
}

func TestParseBareExpressionStatement(t *testing.T) {
	for _, body := range []string{"middle", "end", "player:hand", "a is b"} {
		t.Run(body, func(t *testing.T) {
			perr := parseErr(t, header+"def f(player){ deck > middle 1\n "+body+" }")
			assert.Equal(t, "statement", perr.Expected)
			assert.Equal(t, 7, perr.Line)
			assert.Equal(t, 2, perr.Col)
		})
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	prog := parse(t, "def f(a, b){ return(not a is b & a | b is not 3) }")
	f, _ := prog.Function("f")
	ret := f.Body[0].(*lang.ReturnStmt)

	assert.Equal(t, "((not a is b & a) | b is not 3)", ret.Value.String())
}

func TestParseReturnWithoutValue(t *testing.T) {
	prog := parse(t, "def f(){ return() }")
	f, _ := prog.Function("f")
	ret := f.Body[0].(*lang.ReturnStmt)
	assert.Nil(t, ret.Value)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		line     int
		expected string
	}{
		{
			name:     "duplicate players",
			src:      "name g\ndeck StandardDeck\nplayers 2\nplayers 3",
			line:     4,
			expected: `a single "players" declaration`,
		},
		{
			name:     "missing deck",
			src:      "name g\nplayers 2",
			line:     2,
			expected: `"deck" declaration`,
		},
		{
			name:     "unclosed function",
			src:      header + "def setup(){ deck > middle 1",
			line:     6,
			expected: `"}"`,
		},
		{
			name:     "transfer from a call",
			src:      header + "def f(){ count(deck) > middle }",
			line:     6,
			expected: "stack or deck as transfer source",
		},
		{
			name:     "current player out of range",
			src:      "name g\ndeck StandardDeck\nplayers 2\ncurrent_player 3",
			line:     4,
			expected: "current_player between 1 and 2",
		},
		{
			name:     "statement at top level",
			src:      header + "middle > deck 4",
			line:     6,
			expected: "declaration or function definition",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := parseErr(t, tt.src)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.expected, perr.Expected)
		})
	}
}

func TestParseUnknownFieldIsBindError(t *testing.T) {
	perr := parseErr(t, header+"def f(player){ check(player:hnd is 1) }")

	assert.Equal(t, "field name", perr.Expected)
	assert.Equal(t, "hnd", perr.Found)
	assert.Equal(t, 6, perr.Line)
}

func TestParseFilterPredicateMustExist(t *testing.T) {
	perr := parseErr(t, "name g\ndeck filter(StandardDeck, not_ryal)\nplayers 2\ndef not_royal(card){ return(true) }")

	assert.Equal(t, "predicate function name", perr.Expected)
	assert.Equal(t, "not_ryal", perr.Found)
	assert.Contains(t, perr.Hint, "not_royal")
}

func TestParseDealSourceMustBeSingleStack(t *testing.T) {
	perr := parseErr(t, header+"def f(){ players:hand > middle 1 }")
	assert.Equal(t, "a single stack as transfer source", perr.Expected)
}

func TestParseLexErrorPropagates(t *testing.T) {
	_, err := lang.ParseSource("name g$")
	var lexErr *lang.LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, '$', lexErr.Char)
}

package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func texts(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind != TokenEOF {
			out = append(out, t.Text)
		}
	}
	return out
}

func TestTokenizeDeclaration(t *testing.T) {
	tokens, err := Tokenize("deck filter(StandardDeck, not_royal)")
	require.NoError(t, err)

	assert.Equal(t, []string{"deck", "filter", "(", "StandardDeck", ",", "not_royal", ")"}, texts(tokens))
	assert.Equal(t, []TokenKind{
		TokenKeyword, TokenIdent, TokenPunct, TokenIdent, TokenPunct, TokenIdent, TokenPunct, TokenEOF,
	}, kinds(tokens))
}

func TestTokenizeTransferAndOperators(t *testing.T) {
	tokens, err := Tokenize("player:hand > middle - move:cards\ncheck(a is not b & c | d)")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"player", ":", "hand", ">", "middle", "-", "move", ":", "cards",
		"check", "(", "a", "is", "not", "b", "&", "c", "|", "d", ")",
	}, texts(tokens))

	check := tokens[9]
	assert.Equal(t, TokenKeyword, check.Kind)
	assert.Equal(t, Pos{Line: 2, Col: 1}, check.Pos)
}

func TestTokenizeSkipsComments(t *testing.T) {
	tokens, err := Tokenize(".(a comment: with punctuation, and > arrows)\nplayers 2")
	require.NoError(t, err)

	assert.Equal(t, []string{"players", "2"}, texts(tokens))
	assert.Equal(t, TokenInt, tokens[1].Kind)
	assert.Equal(t, 2, tokens[0].Pos.Line)
}

func TestTokenizeNestedComments(t *testing.T) {
	tokens, err := Tokenize("stack middle .(see (note) and (a (deeper) one))\n.(two\nlines) players 2")
	require.NoError(t, err)

	assert.Equal(t, []string{"stack", "middle", "players", "2"}, texts(tokens))
	assert.Equal(t, Pos{Line: 3, Col: 8}, tokens[2].Pos)
}

func TestTokenizeUnterminatedComment(t *testing.T) {
	_, err := Tokenize("players 2\n  .(open (nested)")
	require.Error(t, err)

	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 2, lexErr.Line)
	assert.Equal(t, 3, lexErr.Col)
	assert.Equal(t, '.', lexErr.Char)
}

func TestTokenizeRejectsUnknownCharacter(t *testing.T) {
	_, err := Tokenize("players 2\nstack mid#dle")
	require.Error(t, err)

	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 2, lexErr.Line)
	assert.Equal(t, 10, lexErr.Col)
	assert.Equal(t, '#', lexErr.Char)
}

func TestTokenizeEmptyInput(t *testing.T) {
	tokens, err := Tokenize("")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenEOF, tokens[0].Kind)
}

package lang

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// cardLexer holds the token rules. Comments are blanked out before lexing
// because they nest, which a regular rule cannot express.
var cardLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[>\-:(){},&|]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	symIdent      = cardLexer.Symbols()["Ident"]
	symInt        = cardLexer.Symbols()["Int"]
	symPunct      = cardLexer.Symbols()["Punct"]
	symWhitespace = cardLexer.Symbols()["Whitespace"]
)

// Tokenize converts source text into tokens terminated by a TokenEOF token.
// An unrecognized character yields a *LexError; nothing is skipped.
func Tokenize(src string) ([]Token, error) {
	src, err := blankComments(src)
	if err != nil {
		return nil, err
	}
	lex, err := cardLexer.LexString("", src)
	if err != nil {
		return nil, toLexError(src, err)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, toLexError(src, err)
	}

	tokens := make([]Token, 0, len(raw))
	for _, t := range raw {
		pos := Pos{Line: t.Pos.Line, Col: t.Pos.Column}
		switch t.Type {
		case symWhitespace:
			continue
		case symIdent:
			kind := TokenIdent
			if IsKeyword(t.Value) {
				kind = TokenKeyword
			}
			tokens = append(tokens, Token{Kind: kind, Text: t.Value, Pos: pos})
		case symInt:
			tokens = append(tokens, Token{Kind: TokenInt, Text: t.Value, Pos: pos})
		case symPunct:
			tokens = append(tokens, Token{Kind: TokenPunct, Text: t.Value, Pos: pos})
		case lexer.EOF:
			tokens = append(tokens, Token{Kind: TokenEOF, Pos: pos})
		default:
			return nil, fmt.Errorf("unexpected token type %d at %s", t.Type, pos)
		}
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		tokens = append(tokens, Token{Kind: TokenEOF, Pos: endPos(src)})
	}
	return tokens, nil
}

// blankComments replaces every ".( ... )" comment with spaces, keeping line
// breaks so positions are unchanged. Parentheses inside a comment nest. An
// unterminated comment is a *LexError at its opening ".".
func blankComments(src string) (string, error) {
	if !strings.Contains(src, ".(") {
		return src, nil
	}
	runes := []rune(src)
	depth := 0
	var open Pos
	pos := Pos{Line: 1, Col: 1}
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if depth == 0 && r == '.' && i+1 < len(runes) && runes[i+1] == '(' {
			open = pos
			depth = 1
			runes[i], runes[i+1] = ' ', ' '
			i++
			pos.Col += 2
			continue
		}
		if depth > 0 {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
			}
			if r != '\n' {
				runes[i] = ' '
			}
		}
		if r == '\n' {
			pos.Line++
			pos.Col = 1
		} else {
			pos.Col++
		}
	}
	if depth > 0 {
		return "", &LexError{Line: open.Line, Col: open.Col, Char: '.'}
	}
	return string(runes), nil
}

func toLexError(src string, err error) error {
	var lerr *lexer.Error
	if !errors.As(err, &lerr) {
		return fmt.Errorf("tokenize: %w", err)
	}
	ch, _ := utf8.DecodeRuneInString(src[min(lerr.Pos.Offset, len(src)):])
	return &LexError{Line: lerr.Pos.Line, Col: lerr.Pos.Column, Char: ch}
}

func endPos(src string) Pos {
	pos := Pos{Line: 1, Col: 1}
	for _, r := range src {
		if r == '\n' {
			pos.Line++
			pos.Col = 1
			continue
		}
		pos.Col++
	}
	return pos
}

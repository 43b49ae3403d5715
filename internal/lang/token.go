package lang

import "fmt"

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenKeyword
	TokenInt
	TokenPunct
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:     "EOF",
	TokenIdent:   "IDENT",
	TokenKeyword: "KEYWORD",
	TokenInt:     "INT",
	TokenPunct:   "PUNCT",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN_%d", int(k))
}

// Keywords reserved by the language. "is" and "not" are operators.
var keywords = map[string]bool{
	"name":           true,
	"deck":           true,
	"players":        true,
	"current_player": true,
	"stack":          true,
	"def":            true,
	"return":         true,
	"check":          true,
	"if":             true,
	"is":             true,
	"not":            true,
}

// IsKeyword reports whether s is reserved.
func IsKeyword(s string) bool {
	return keywords[s]
}

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single lexeme.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Pos
}

func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

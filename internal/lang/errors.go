package lang

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// LexError reports a character no token rule accepts.
type LexError struct {
	Line int
	Col  int
	Char rune
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: unexpected character %q", e.Line, e.Col, e.Char)
}

// ParseError reports a grammar or binding violation. No Program is produced.
type ParseError struct {
	Line     int
	Col      int
	Expected string
	Found    string
	Hint     string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error at %d:%d: expected %s, found %s", e.Line, e.Col, e.Expected, e.Found)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func errorAt(pos Pos, expected, found string) *ParseError {
	return &ParseError{Line: pos.Line, Col: pos.Col, Expected: expected, Found: found}
}

// Suggest returns the closest candidate to target, or "" when nothing is close.
func Suggest(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

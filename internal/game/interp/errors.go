package interp

import (
	"errors"
	"fmt"

	"github.com/cardlang/cardlang-go/internal/lang"
)

// ErrRecursionLimit is returned when calls nest deeper than the configured limit.
var ErrRecursionLimit = errors.New("call depth limit exceeded")

// UnresolvedNameError reports a call to a name that is neither a user
// function nor a builtin.
type UnresolvedNameError struct {
	Name       string
	Pos        lang.Pos
	Suggestion string
}

func (e *UnresolvedNameError) Error() string {
	msg := fmt.Sprintf("%s: unknown function %q", e.Pos, e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// TypeError reports a builtin or operator applied to a value of the wrong shape.
type TypeError struct {
	Op   string
	Want string
	Got  string
	Pos  lang.Pos
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", e.Pos, e.Op, e.Want, e.Got)
}

// EmptyStackError reports a counted transfer from a container holding too
// few cards.
type EmptyStackError struct {
	Stack string
	Want  int
	Have  int
	Pos   lang.Pos
}

func (e *EmptyStackError) Error() string {
	return fmt.Sprintf("%s: cannot take %d cards from %s holding %d", e.Pos, e.Want, e.Stack, e.Have)
}

// ValidationFailure rejects the move being evaluated. It is the only
// recoverable evaluation error.
type ValidationFailure struct {
	Func   string
	Reason string
	Pos    lang.Pos
}

func (e *ValidationFailure) Error() string {
	if e.Func == "" {
		return fmt.Sprintf("%s: move rejected: %s", e.Pos, e.Reason)
	}
	return fmt.Sprintf("%s: move rejected in %s: %s", e.Pos, e.Func, e.Reason)
}

// IsValidationFailure reports whether err is or wraps a *ValidationFailure.
func IsValidationFailure(err error) bool {
	var vf *ValidationFailure
	return errors.As(err, &vf)
}

func typeErr(op, want string, got Value, pos lang.Pos) *TypeError {
	return &TypeError{Op: op, Want: want, Got: got.Kind().String(), Pos: pos}
}

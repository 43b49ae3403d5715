// Package interp evaluates function bodies against a game state.
package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/game/model"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindBool
	KindNumber
	KindSymbol
	KindCards
	KindCard
	KindPlayer
	KindMove
	KindContainer
	KindFunc
)

var kindNames = map[Kind]string{
	KindEmpty:     "empty",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindSymbol:    "symbol",
	KindCards:     "card set",
	KindCard:      "card",
	KindPlayer:    "player",
	KindMove:      "move",
	KindContainer: "stack",
	KindFunc:      "function",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// Value is anything an expression can produce.
type Value interface {
	Kind() Kind
	String() string
}

// Empty is the result of a function that returns nothing.
type Empty struct{}

// Bool is a truth value.
type Bool bool

// Number is an integer.
type Number int

// Symbol is a bareword such as a rank, a suit or an action name.
type Symbol string

// Cards is an ordered multiset of cards.
type Cards []cards.Card

// Card is a single card.
type Card cards.Card

// PlayerRef names a player by 1-based id.
type PlayerRef struct{ ID int }

// MoveValue wraps the move under evaluation.
type MoveValue struct{ Move *model.Move }

// FuncRef names a user function or builtin without calling it.
type FuncRef struct{ Name string }

// ContainerRef points at a card container in the state being evaluated.
// Player 0 selects a table stack or the deck. AllPlayers selects the named
// stack of every player, which is only meaningful as a deal destination.
type ContainerRef struct {
	Name       string
	Player     int
	AllPlayers bool
}

func (Empty) Kind() Kind        { return KindEmpty }
func (Bool) Kind() Kind         { return KindBool }
func (Number) Kind() Kind       { return KindNumber }
func (Symbol) Kind() Kind       { return KindSymbol }
func (Cards) Kind() Kind        { return KindCards }
func (Card) Kind() Kind         { return KindCard }
func (PlayerRef) Kind() Kind    { return KindPlayer }
func (MoveValue) Kind() Kind    { return KindMove }
func (FuncRef) Kind() Kind      { return KindFunc }
func (ContainerRef) Kind() Kind { return KindContainer }

func (Empty) String() string       { return "()" }
func (b Bool) String() string      { return strconv.FormatBool(bool(b)) }
func (n Number) String() string    { return strconv.Itoa(int(n)) }
func (s Symbol) String() string    { return string(s) }
func (c Card) String() string      { return cards.Card(c).String() }
func (p PlayerRef) String() string { return "player " + strconv.Itoa(p.ID) }
func (m MoveValue) String() string { return m.Move.String() }
func (f FuncRef) String() string   { return f.Name }

func (c Cards) String() string {
	return "[" + strings.Join(cards.Strings(c), ", ") + "]"
}

func (c ContainerRef) String() string {
	switch {
	case c.AllPlayers:
		return "players:" + c.Name
	case c.Player > 0:
		return strconv.Itoa(c.Player) + ":" + c.Name
	}
	return c.Name
}

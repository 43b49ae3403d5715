// Package cards defines playing cards and ordered card stacks.
package cards

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four French suits.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitNames = map[Suit]string{
	Spades:   "spades",
	Hearts:   "hearts",
	Diamonds: "diamonds",
	Clubs:    "clubs",
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SUIT_%d", int(s))
}

// Rank is the face value of a card. Ace is 1 and King is 13.
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = map[Rank]string{
	Ace:   "A",
	Jack:  "J",
	Queen: "Q",
	King:  "K",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	if r >= Two && r <= Ten {
		return strconv.Itoa(int(r))
	}
	return fmt.Sprintf("RANK_%d", int(r))
}

// Valid reports whether r is one of the thirteen standard ranks.
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// Card is an immutable rank and suit pair. Equal cards are interchangeable.
type Card struct {
	Rank Rank
	Suit Suit
}

// String renders the card as "<rank> <suit>", e.g. "3 hearts".
func (c Card) String() string {
	return c.Rank.String() + " " + c.Suit.String()
}

// Value is the numeric rank value used by get_value.
func (c Card) Value() int {
	return int(c.Rank)
}

// ParseRank accepts A, 2-10, J, Q, K (case-insensitive) and the long names
// ace, jack, queen and king.
func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "A", "ACE":
		return Ace, nil
	case "J", "JACK":
		return Jack, nil
	case "Q", "QUEEN":
		return Queen, nil
	case "K", "KING":
		return King, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(Two) || n > int(Ten) {
		return 0, fmt.Errorf("invalid rank %q", s)
	}
	return Rank(n), nil
}

// ParseSuit accepts the suit names and their one-letter abbreviations.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spades", "s":
		return Spades, nil
	case "hearts", "h":
		return Hearts, nil
	case "diamonds", "d":
		return Diamonds, nil
	case "clubs", "c":
		return Clubs, nil
	}
	return 0, fmt.Errorf("invalid suit %q", s)
}

// ParseCard parses "<rank> <suit>", e.g. "3 hearts" or "Q s".
func ParseCard(s string) (Card, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Card{}, fmt.Errorf("invalid card %q: want \"<rank> <suit>\"", s)
	}
	rank, err := ParseRank(fields[0])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	suit, err := ParseSuit(fields[1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses every entry with ParseCard.
func ParseCards(in []string) ([]Card, error) {
	out := make([]Card, 0, len(in))
	for _, s := range in {
		c, err := ParseCard(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// StandardDeck returns the 52 cards in canonical order: spades, hearts,
// diamonds, clubs, each from Ace to King.
func StandardDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, suit := range []Suit{Spades, Hearts, Diamonds, Clubs} {
		for rank := Ace; rank <= King; rank++ {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	return deck
}

// Strings renders each card with Card.String.
func Strings(cs []Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

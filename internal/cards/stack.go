package cards

import (
	"errors"
	"math/rand/v2"
)

// ErrNotEnoughCards is returned by Take when a stack holds fewer cards than requested.
var ErrNotEnoughCards = errors.New("not enough cards")

// Stack is a named card container. Cards keep their insertion order so that
// dealing is deterministic; membership tests treat it as a multiset.
type Stack struct {
	Name  string
	cards []Card
}

// NewStack creates a stack holding a copy of the given cards.
func NewStack(name string, cs ...Card) *Stack {
	s := &Stack{
		Name:  name,
		cards: make([]Card, 0, len(cs)),
	}
	s.cards = append(s.cards, cs...)
	return s
}

// Len returns the number of cards in the stack.
func (s *Stack) Len() int {
	return len(s.cards)
}

// IsEmpty returns whether the stack is empty.
func (s *Stack) IsEmpty() bool {
	return len(s.cards) == 0
}

// Cards returns a copy of the stack contents in order.
func (s *Stack) Cards() []Card {
	cpy := make([]Card, len(s.cards))
	copy(cpy, s.cards)
	return cpy
}

// Push appends cards to the end of the stack.
func (s *Stack) Push(cs ...Card) {
	s.cards = append(s.cards, cs...)
}

// Take removes and returns the first n cards.
func (s *Stack) Take(n int) ([]Card, error) {
	if n < 0 || n > len(s.cards) {
		return nil, ErrNotEnoughCards
	}
	taken := make([]Card, n)
	copy(taken, s.cards[:n])
	s.cards = append(s.cards[:0:0], s.cards[n:]...)
	return taken, nil
}

// Contains reports whether every card of cs is present, counting duplicates.
func (s *Stack) Contains(cs []Card) bool {
	return IsSubset(cs, s.cards)
}

// Remove deletes exactly the cards in cs. Nothing is removed unless all of
// them are present.
func (s *Stack) Remove(cs []Card) bool {
	if !s.Contains(cs) {
		return false
	}
	remaining := make([]Card, 0, len(s.cards))
	pending := counts(cs)
	for _, c := range s.cards {
		if pending[c] > 0 {
			pending[c]--
			continue
		}
		remaining = append(remaining, c)
	}
	s.cards = remaining
	return true
}

// Shuffle permutes the stack with the supplied generator.
func (s *Stack) Shuffle(r *rand.Rand) {
	r.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
}

// Clone returns an independent copy.
func (s *Stack) Clone() *Stack {
	return NewStack(s.Name, s.cards...)
}

// IsSubset reports whether sub is contained in set as multisets.
func IsSubset(sub, set []Card) bool {
	if len(sub) > len(set) {
		return false
	}
	have := counts(set)
	for _, c := range sub {
		if have[c] == 0 {
			return false
		}
		have[c]--
	}
	return true
}

// SameCards reports whether a and b hold the same cards regardless of order.
func SameCards(a, b []Card) bool {
	return len(a) == len(b) && IsSubset(a, b)
}

func counts(cs []Card) map[Card]int {
	m := make(map[Card]int, len(cs))
	for _, c := range cs {
		m[c]++
	}
	return m
}

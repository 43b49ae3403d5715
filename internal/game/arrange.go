package game

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/game/model"
	"github.com/cardlang/cardlang-go/internal/game/rules"
)

// ErrNotAwaiting is returned when the table is rearranged mid-move or after
// the game is over.
var ErrNotAwaiting = errors.New("game is not awaiting a move")

// Placement sets the exact contents of one container.
type Placement struct {
	Ref   string
	Cards []cards.Card
}

// Arrange rearranges the table for a test fixture. Each placement empties
// its container and refills it with the listed cards, which are pulled from
// wherever they are. Displaced cards nobody asked for go to the bottom of the
// deck, so the total number of cards never changes. Nothing is applied
// unless every placement succeeds.
func (g *Game) Arrange(placements []Placement) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.turns.Ended() {
		return ErrGameEnded
	}
	if g.turns.Phase() != rules.PhaseAwaitingMove {
		return ErrNotAwaiting
	}

	next := g.state.Clone()
	targets := make([]*cards.Stack, len(placements))
	placed := make(map[*cards.Stack]bool, len(placements))
	var loose []cards.Card

	for i, p := range placements {
		s, err := g.lookup(next, p.Ref)
		if err != nil {
			return err
		}
		if placed[s] {
			return fmt.Errorf("arrange: %q listed twice", p.Ref)
		}
		placed[s] = true
		targets[i] = s
		taken, _ := s.Take(s.Len())
		loose = append(loose, taken...)
	}

	for i, p := range placements {
		for _, c := range p.Cards {
			if idx := indexOf(loose, c); idx >= 0 {
				loose = append(loose[:idx], loose[idx+1:]...)
			} else if !takeFromOthers(next, placed, c) {
				return fmt.Errorf("arrange %q: no %s left to place", p.Ref, c)
			}
			targets[i].Push(c)
		}
	}
	next.Deck.Push(loose...)

	if next.TotalCards() != next.Initial {
		return ErrConservation
	}
	g.state = next
	g.logger.Debug("table arranged", zap.Int("placements", len(placements)))
	return nil
}

func indexOf(cs []cards.Card, c cards.Card) int {
	for i, x := range cs {
		if x == c {
			return i
		}
	}
	return -1
}

// takeFromOthers removes one c from the first container not being placed.
func takeFromOthers(st *model.State, placed map[*cards.Stack]bool, c cards.Card) bool {
	for _, s := range st.Containers() {
		if placed[s] {
			continue
		}
		if s.Remove([]cards.Card{c}) {
			return true
		}
	}
	return false
}

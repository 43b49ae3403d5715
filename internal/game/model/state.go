// Package model holds the runtime game state shared by the evaluator and the
// turn engine.
package model

import (
	"fmt"
	"math/rand/v2"

	"github.com/cardlang/cardlang-go/internal/cards"
)

// DeckName is the reference used for the undealt pool.
const DeckName = "deck"

// Player is a seat in turn order with its own copy of every player stack.
type Player struct {
	ID         int // 1-based
	Stacks     map[string]*cards.Stack
	StackOrder []string
}

// Stack returns the player's stack called name.
func (p *Player) Stack(name string) (*cards.Stack, bool) {
	s, ok := p.Stacks[name]
	return s, ok
}

func (p *Player) clone() *Player {
	cp := &Player{
		ID:         p.ID,
		Stacks:     make(map[string]*cards.Stack, len(p.Stacks)),
		StackOrder: append([]string(nil), p.StackOrder...),
	}
	for name, s := range p.Stacks {
		cp.Stacks[name] = s.Clone()
	}
	return cp
}

// Move is a request submitted for one turn. Player 0 means the player whose
// turn it is.
type Move struct {
	Player int
	Action string
	Cards  []cards.Card
	Target []cards.Card
}

func (m Move) String() string {
	return fmt.Sprintf("%s cards=%v target=%v", m.Action, cards.Strings(m.Cards), cards.Strings(m.Target))
}

// State is a complete game position. The turn engine owns it; the evaluator
// works on clones.
type State struct {
	Deck       *cards.Stack
	Stacks     map[string]*cards.Stack
	StackOrder []string
	Players    []*Player
	Current    int // index into Players
	Winners    []int
	Ended      bool

	// Passed is set when the program handed the turn on itself during the
	// move being resolved. The engine clears it on commit.
	Passed bool

	// Initial is the size of the deck the game started from.
	Initial int

	rng *rand.PCG
}

// NewState lays out an empty table around deck. current is the 1-based id of
// the player to move first.
func NewState(deck []cards.Card, stacks, playerStacks []string, players, current int, seed uint64) (*State, error) {
	if players < 1 {
		return nil, fmt.Errorf("need at least one player, got %d", players)
	}
	if current < 1 || current > players {
		return nil, fmt.Errorf("current player %d outside 1..%d", current, players)
	}

	st := &State{
		Deck:       cards.NewStack(DeckName, deck...),
		Stacks:     make(map[string]*cards.Stack, len(stacks)),
		StackOrder: append([]string(nil), stacks...),
		Players:    make([]*Player, players),
		Current:    current - 1,
		Initial:    len(deck),
		rng:        rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
	for _, name := range stacks {
		st.Stacks[name] = cards.NewStack(name)
	}
	for i := range st.Players {
		p := &Player{
			ID:         i + 1,
			Stacks:     make(map[string]*cards.Stack, len(playerStacks)),
			StackOrder: append([]string(nil), playerStacks...),
		}
		for _, name := range playerStacks {
			p.Stacks[name] = cards.NewStack(name)
		}
		st.Players[i] = p
	}
	return st, nil
}

// CurrentPlayer returns the player whose move is awaited.
func (s *State) CurrentPlayer() *Player {
	return s.Players[s.Current]
}

// Player looks a player up by 1-based id.
func (s *State) Player(id int) (*Player, bool) {
	if id < 1 || id > len(s.Players) {
		return nil, false
	}
	return s.Players[id-1], true
}

// Stack returns the deck or a table stack by name.
func (s *State) Stack(name string) (*cards.Stack, bool) {
	if name == DeckName {
		return s.Deck, true
	}
	st, ok := s.Stacks[name]
	return st, ok
}

// Advance passes the turn to the next player, wrapping around.
func (s *State) Advance() {
	s.Current = (s.Current + 1) % len(s.Players)
}

// PassTurn advances the turn on the program's behalf and marks it Passed.
func (s *State) PassTurn() {
	s.Advance()
	s.Passed = true
}

// SetWinner records id as a winner once.
func (s *State) SetWinner(id int) error {
	if _, ok := s.Player(id); !ok {
		return fmt.Errorf("no player %d", id)
	}
	for _, w := range s.Winners {
		if w == id {
			return nil
		}
	}
	s.Winners = append(s.Winners, id)
	return nil
}

// Rand returns a generator drawing from the state's seeded source. Draws
// advance the source, so clones diverge only when they are used.
func (s *State) Rand() *rand.Rand {
	return rand.New(s.rng)
}

// Containers lists every container in a fixed order: deck, table stacks,
// then each player's stacks.
func (s *State) Containers() []*cards.Stack {
	out := make([]*cards.Stack, 0, 1+len(s.StackOrder)+len(s.Players)*2)
	out = append(out, s.Deck)
	for _, name := range s.StackOrder {
		out = append(out, s.Stacks[name])
	}
	for _, p := range s.Players {
		for _, name := range p.StackOrder {
			out = append(out, p.Stacks[name])
		}
	}
	return out
}

// TotalCards counts the cards held anywhere in the game.
func (s *State) TotalCards() int {
	n := 0
	for _, c := range s.Containers() {
		n += c.Len()
	}
	return n
}

// Clone returns a deep copy, including the random source position.
func (s *State) Clone() *State {
	rng := *s.rng
	cp := &State{
		Deck:       s.Deck.Clone(),
		Stacks:     make(map[string]*cards.Stack, len(s.Stacks)),
		StackOrder: append([]string(nil), s.StackOrder...),
		Players:    make([]*Player, len(s.Players)),
		Current:    s.Current,
		Winners:    append([]int(nil), s.Winners...),
		Ended:      s.Ended,
		Passed:     s.Passed,
		Initial:    s.Initial,
		rng:        &rng,
	}
	for name, st := range s.Stacks {
		cp.Stacks[name] = st.Clone()
	}
	for i, p := range s.Players {
		cp.Players[i] = p.clone()
	}
	return cp
}

package rules

import (
	"errors"
	"fmt"
)

// Phase is where the engine stands in the move cycle.
type Phase int

const (
	PhaseAwaitingMove Phase = iota
	PhaseResolving
	PhaseEnded
)

var phaseNames = map[Phase]string{
	PhaseAwaitingMove: "AWAITING_MOVE",
	PhaseResolving:    "RESOLVING",
	PhaseEnded:        "ENDED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ErrInvalidTransition is returned when a phase change is not allowed from
// the current phase.
var ErrInvalidTransition = errors.New("invalid phase transition")

// TurnManager tracks the engine phase, the player on turn and the turn count.
type TurnManager struct {
	phase      Phase
	players    int
	current    int // 1-based
	turnNumber int
}

// NewTurnManager creates a manager awaiting the first move from first.
func NewTurnManager(players, first int) (*TurnManager, error) {
	if players < 1 {
		return nil, fmt.Errorf("need at least one player, got %d", players)
	}
	if first < 1 || first > players {
		return nil, fmt.Errorf("first player %d outside 1..%d", first, players)
	}
	return &TurnManager{
		phase:      PhaseAwaitingMove,
		players:    players,
		current:    first,
		turnNumber: 1,
	}, nil
}

// Phase returns the current phase.
func (tm *TurnManager) Phase() Phase {
	return tm.phase
}

// CurrentPlayer returns the 1-based id of the player on turn.
func (tm *TurnManager) CurrentPlayer() int {
	return tm.current
}

// TurnNumber returns the number of the turn in progress (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// Ended reports whether the game is over.
func (tm *TurnManager) Ended() bool {
	return tm.phase == PhaseEnded
}

func (tm *TurnManager) transition(from, to Phase) error {
	if tm.phase != from {
		return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidTransition, from, to, tm.phase)
	}
	tm.phase = to
	return nil
}

// BeginResolve moves from AwaitingMove to Resolving.
func (tm *TurnManager) BeginResolve() error {
	return tm.transition(PhaseAwaitingMove, PhaseResolving)
}

// Reject returns to AwaitingMove; the same player stays on turn.
func (tm *TurnManager) Reject() error {
	return tm.transition(PhaseResolving, PhaseAwaitingMove)
}

// Commit finishes a move. The turn passes to the next player, wrapping
// around, unless ended is set, in which case the game becomes terminal.
func (tm *TurnManager) Commit(ended bool) error {
	if ended {
		return tm.transition(PhaseResolving, PhaseEnded)
	}
	if err := tm.transition(PhaseResolving, PhaseAwaitingMove); err != nil {
		return err
	}
	tm.current = tm.current%tm.players + 1
	tm.turnNumber++
	return nil
}

// CommitTo finishes a move whose program already chose the next player.
// next is a 1-based id.
func (tm *TurnManager) CommitTo(next int) error {
	if next < 1 || next > tm.players {
		return fmt.Errorf("next player %d outside 1..%d", next, tm.players)
	}
	if err := tm.transition(PhaseResolving, PhaseAwaitingMove); err != nil {
		return err
	}
	tm.current = next
	tm.turnNumber++
	return nil
}

// End makes the game terminal from any non-terminal phase.
func (tm *TurnManager) End() error {
	if tm.phase == PhaseEnded {
		return fmt.Errorf("%w: already %s", ErrInvalidTransition, PhaseEnded)
	}
	tm.phase = PhaseEnded
	return nil
}

package game

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/game/interp"
	"github.com/cardlang/cardlang-go/internal/game/model"
	"github.com/cardlang/cardlang-go/internal/game/rules"
	"github.com/cardlang/cardlang-go/internal/lang"
)

// Game is one running session of a program.
type Game struct {
	ID string

	mu         sync.Mutex
	prog       *lang.Program
	interp     *interp.Interpreter
	logger     *zap.Logger
	state      *model.State
	turns      *rules.TurnManager
	validMoves []string
	history    *History
	events     *rules.EventBus
}

// Result describes how a submitted move was resolved.
type Result struct {
	Committed     bool
	Failure       *interp.ValidationFailure
	CurrentPlayer int
	Ended         bool
	Winners       []int
	Checksum      string
}

// SubmitMove resolves m for the player on turn. A rejected move leaves the
// game exactly as it was and is reported through Result, not as an error.
// Errors indicate a broken program or a finished game.
func (g *Game) SubmitMove(m model.Move) (res *Result, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.turns.Ended() {
		return nil, ErrGameEnded
	}
	if err := g.turns.BeginResolve(); err != nil {
		return nil, err
	}

	mover := m.Player
	if mover == 0 {
		mover = g.turns.CurrentPlayer()
	}
	log := g.logger.With(
		zap.Int("turn", g.turns.TurnNumber()),
		zap.Int("player", mover),
		zap.String("action", m.Action),
	)

	// The engine state is only replaced on commit; every other exit goes
	// back to awaiting a move with the previous state in place.
	defer func() {
		if err != nil || !res.Committed {
			if rerr := g.turns.Reject(); rerr != nil {
				log.Error("failed to restore phase", zap.Error(rerr))
			}
		}
	}()

	ctx := interp.Context{Player: mover, Move: &m}
	turn := g.turns.TurnNumber()
	defer func() {
		if err != nil {
			evt := rules.NewEvent(rules.EventMoveFailed, g.ID, turn, mover)
			evt.Action = m.Action
			evt.Reason = err.Error()
			g.events.Publish(evt)
		}
	}()

	next, moves, failure, err := g.resolve(m, ctx)
	if err != nil {
		log.Error("move failed", zap.Error(err))
		return nil, err
	}
	if failure != nil {
		log.Info("move rejected", zap.String("reason", failure.Reason))
		evt := rules.NewEvent(rules.EventMoveRejected, g.ID, turn, mover)
		evt.Action = m.Action
		evt.Reason = failure.Reason
		g.events.Publish(evt)
		return g.result(false, failure, g.state), nil
	}

	over, err := g.gameOver(next, ctx)
	if err != nil {
		log.Error("end-of-game predicate failed", zap.Error(err))
		return nil, err
	}
	if next.TotalCards() != next.Initial {
		log.Error("move changed the number of cards",
			zap.Int("want", next.Initial),
			zap.Int("have", next.TotalCards()),
		)
		return nil, ErrConservation
	}

	ended := next.Ended || over
	next.Ended = ended
	if next.Passed && !ended {
		err = g.turns.CommitTo(next.Current + 1)
	} else {
		err = g.turns.Commit(ended)
	}
	if err != nil {
		return nil, err
	}
	next.Passed = false
	next.Current = g.turns.CurrentPlayer() - 1
	g.state = next
	g.validMoves = moves

	sum := Checksum(next)
	g.history.Record(HistoryEntry{
		Turn:     turn,
		Player:   mover,
		Move:     m,
		Checksum: sum,
		At:       time.Now(),
	})

	log.Info("move committed", zap.Int("next_player", g.turns.CurrentPlayer()), zap.String("checksum", sum))
	evt := rules.NewEvent(rules.EventMoveCommitted, g.ID, turn, mover)
	evt.Action = m.Action
	evt.Checksum = sum
	g.events.Publish(evt)
	if ended {
		log.Info("game ended", zap.Ints("winners", next.Winners))
		evt := rules.NewEvent(rules.EventGameEnded, g.ID, turn, mover)
		evt.Winners = append([]int(nil), next.Winners...)
		evt.Checksum = sum
		g.events.Publish(evt)
	}
	res = g.result(true, nil, next)
	res.Checksum = sum
	return res, nil
}

// resolve runs player_move and then the requested action against copies of
// the current state. Both must pass for the move to commit. The returned
// valid moves take effect only if the caller commits.
func (g *Game) resolve(m model.Move, ctx interp.Context) (*model.State, []string, *interp.ValidationFailure, error) {
	dispatch, ok := g.prog.Function(PlayerMoveFunc)
	if !ok {
		return nil, nil, nil, ErrNoPlayerMove
	}
	out, err := g.interp.Execute(dispatch, g.state, ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", PlayerMoveFunc, err)
	}
	if !out.Committed {
		return nil, nil, out.Failure, nil
	}
	moves := g.validMoves
	if out.MovesDeclared {
		moves = out.ValidMoves
	}
	if !slices.Contains(moves, m.Action) {
		return nil, nil, &interp.ValidationFailure{
			Func:   PlayerMoveFunc,
			Reason: fmt.Sprintf("action %q is not one of %v", m.Action, moves),
		}, nil
	}

	action, ok := g.prog.Function(m.Action)
	if !ok {
		return nil, nil, nil, &interp.UnresolvedNameError{
			Name:       m.Action,
			Suggestion: lang.Suggest(m.Action, g.prog.FunctionOrder),
		}
	}
	out, err = g.interp.Execute(action, out.State, ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", m.Action, err)
	}
	if !out.Committed {
		return nil, nil, out.Failure, nil
	}
	return out.State, moves, nil, nil
}

// gameOver evaluates the optional game_over predicate on the state a move
// would commit. A failed check inside it means "not over".
func (g *Game) gameOver(next *model.State, ctx interp.Context) (bool, error) {
	fn, ok := g.prog.Function(GameOverFunc)
	if !ok {
		return false, nil
	}
	out, err := g.interp.Execute(fn, next, ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", GameOverFunc, err)
	}
	if !out.Committed {
		return false, nil
	}
	switch v := out.Return.(type) {
	case interp.Bool:
		return bool(v), nil
	case interp.Empty:
		return false, nil
	}
	return false, &interp.TypeError{Op: GameOverFunc, Want: "boolean", Got: out.Return.Kind().String(), Pos: fn.Pos}
}

func (g *Game) result(committed bool, failure *interp.ValidationFailure, st *model.State) *Result {
	return &Result{
		Committed:     committed,
		Failure:       failure,
		CurrentPlayer: g.turns.CurrentPlayer(),
		Ended:         g.turns.Ended(),
		Winners:       append([]int(nil), st.Winners...),
	}
}

// RenderStack returns a snapshot of a container. ref is "deck", a table
// stack name, or "<player id>:<player stack>".
func (g *Game) RenderStack(ref string) ([]cards.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.lookup(g.state, ref)
	if err != nil {
		return nil, err
	}
	return s.Cards(), nil
}

func (g *Game) lookup(st *model.State, ref string) (*cards.Stack, error) {
	if id, name, ok := strings.Cut(ref, ":"); ok {
		n, err := strconv.Atoi(id)
		if err != nil {
			return nil, fmt.Errorf("%w %q: bad player id", ErrUnknownStack, ref)
		}
		p, ok := st.Player(n)
		if !ok {
			return nil, fmt.Errorf("%w %q: no player %d", ErrUnknownStack, ref, n)
		}
		s, ok := p.Stack(name)
		if !ok {
			return nil, g.unknown(ref, name, g.prog.PlayerStacks)
		}
		return s, nil
	}
	s, ok := st.Stack(ref)
	if !ok {
		return nil, g.unknown(ref, ref, append([]string{model.DeckName}, g.prog.Stacks...))
	}
	return s, nil
}

func (g *Game) unknown(ref, name string, candidates []string) error {
	if s := lang.Suggest(name, candidates); s != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownStack, ref, s)
	}
	return fmt.Errorf("%w %q", ErrUnknownStack, ref)
}

// StackRefs lists every reference RenderStack accepts, in display order.
func (g *Game) StackRefs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	refs := []string{model.DeckName}
	refs = append(refs, g.state.StackOrder...)
	for _, p := range g.state.Players {
		for _, name := range p.StackOrder {
			refs = append(refs, strconv.Itoa(p.ID)+":"+name)
		}
	}
	return refs
}

// State returns a copy of the current state.
func (g *Game) State() *model.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// Program returns the program the game runs.
func (g *Game) Program() *lang.Program {
	return g.prog
}

// CurrentPlayer returns the 1-based id of the player on turn.
func (g *Game) CurrentPlayer() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turns.CurrentPlayer()
}

// Phase returns the engine phase.
func (g *Game) Phase() rules.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turns.Phase()
}

// Ended reports whether the game is over.
func (g *Game) Ended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turns.Ended()
}

// ValidMoves returns the actions declared by the most recent valid_moves call.
func (g *Game) ValidMoves() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.validMoves...)
}

// LastCommit returns the newest history entry: the setup position until a
// move commits. It reports false when history is disabled.
func (g *Game) LastCommit() (HistoryEntry, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history.Last()
}

// History returns the recorded commits, oldest first.
func (g *Game) History() []HistoryEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history.Entries()
}

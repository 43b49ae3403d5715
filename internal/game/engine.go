// Package game runs card games declared in the card language: it builds the
// table, runs setup and drives the move cycle.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardlang/cardlang-go/internal/config"
	"github.com/cardlang/cardlang-go/internal/game/interp"
	"github.com/cardlang/cardlang-go/internal/game/rules"
	"github.com/cardlang/cardlang-go/internal/lang"
)

// Well-known function names.
const (
	SetupFunc      = "setup"
	PlayerMoveFunc = "player_move"
	GameOverFunc   = "game_over"
)

var (
	// ErrGameEnded is returned for moves submitted after the game is over.
	ErrGameEnded = errors.New("game has ended")
	// ErrUnknownStack is returned by RenderStack for a reference that names
	// no container.
	ErrUnknownStack = errors.New("unknown stack")
	// ErrNoPlayerMove is returned when the program has no player_move function.
	ErrNoPlayerMove = errors.New("program defines no " + PlayerMoveFunc + " function")
	// ErrConservation signals that a move would create or destroy cards.
	ErrConservation = errors.New("card conservation violated")
)

// Engine creates games. It is safe to share between goroutines; each Game
// serializes its own moves.
type Engine struct {
	logger *zap.Logger
	cfg    config.EngineConfig
	events *rules.EventBus
}

// NewEngine returns an engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger, cfg config.EngineConfig) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = interp.DefaultMaxCallDepth
	}
	return &Engine{logger: logger, cfg: cfg, events: rules.NewEventBus()}
}

// Events returns the bus every game of this engine publishes to. Listeners
// run while the game is locked and must not call back into it.
func (e *Engine) Events() *rules.EventBus {
	return e.events
}

// NewGame builds the deck, seats the players and runs setup. Any failure,
// including a rejected check inside setup, aborts construction.
func (e *Engine) NewGame(prog *lang.Program) (*Game, error) {
	in := interp.New(prog, interp.WithMaxCallDepth(e.cfg.MaxCallDepth))
	st, err := in.NewState(e.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("new game %s: %w", prog.Name, err)
	}

	g := &Game{
		ID:     uuid.NewString(),
		prog:   prog,
		interp: in,
		events: e.events,
	}
	g.logger = e.logger.With(zap.String("game_id", g.ID), zap.String("game", prog.Name))
	if e.cfg.RecordHistory {
		g.history = NewHistory(e.cfg.HistoryLimit)
	}

	if setup, ok := prog.Function(SetupFunc); ok {
		out, err := in.Execute(setup, st, interp.Context{})
		if err != nil {
			return nil, fmt.Errorf("new game %s: %s: %w", prog.Name, SetupFunc, err)
		}
		if !out.Committed {
			return nil, fmt.Errorf("new game %s: %s: %w", prog.Name, SetupFunc, out.Failure)
		}
		st = out.State
	}
	if st.TotalCards() != st.Initial {
		return nil, fmt.Errorf("new game %s: %w", prog.Name, ErrConservation)
	}
	// setup may have handed the first turn on with next_player.
	st.Passed = false
	turns, err := rules.NewTurnManager(prog.Players, st.Current+1)
	if err != nil {
		return nil, fmt.Errorf("new game %s: %w", prog.Name, err)
	}
	g.turns = turns
	g.state = st
	if st.Ended {
		if err := turns.End(); err != nil {
			return nil, err
		}
	}

	g.history.Record(HistoryEntry{
		Turn:     0,
		Checksum: Checksum(st),
		At:       time.Now(),
	})

	g.events.Publish(rules.NewEvent(rules.EventGameStarted, g.ID, 0, 0))
	g.logger.Info("game started",
		zap.Int("players", prog.Players),
		zap.Int("deck", st.Deck.Len()),
		zap.Int("current_player", turns.CurrentPlayer()),
	)
	return g, nil
}

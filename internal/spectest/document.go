// Package spectest runs scripted move sequences against a program and checks
// the resulting table.
package spectest

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/game/model"
)

// Move outcomes a test can expect.
const (
	ExpectCommitted = "committed"
	ExpectRejected  = "rejected"
	ExpectError     = "error"
)

// Document is a file of tests for one program.
type Document struct {
	Game  string `yaml:"game,omitempty"`
	Tests []Case `yaml:"tests"`
}

// Case is a single test: an optional fixture, moves, and the expected end state.
type Case struct {
	Name   string      `yaml:"name"`
	State  *Fixture    `yaml:"state,omitempty"`
	Moves  []MoveSpec  `yaml:"moves,omitempty"`
	Expect Expectation `yaml:"expect,omitempty"`
}

// Fixture rearranges the table after setup. Keys are stack references as
// accepted by RenderStack; Players[i] addresses player i+1.
type Fixture struct {
	Deck    []string              `yaml:"deck,omitempty"`
	Stacks  map[string][]string   `yaml:"stacks,omitempty"`
	Players []map[string][]string `yaml:"players,omitempty"`
}

// MoveSpec is one submitted move and its expected outcome.
type MoveSpec struct {
	Player int      `yaml:"player,omitempty"`
	Action string   `yaml:"action"`
	Cards  []string `yaml:"cards,omitempty"`
	Target []string `yaml:"target,omitempty"`
	Expect string   `yaml:"expect,omitempty"` // defaults to committed
}

// Expectation is checked after the last move. Zero values are not checked.
type Expectation struct {
	Stacks        map[string][]string `yaml:"stacks,omitempty"`
	Counts        map[string]int      `yaml:"counts,omitempty"`
	CurrentPlayer int                 `yaml:"current_player,omitempty"`
	Ended         *bool               `yaml:"ended,omitempty"`
	Winners       []int               `yaml:"winners,omitempty"`
}

// Decode reads a test document. Unknown keys are rejected so that typos do
// not silently disable an assertion.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("spectest: parse: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	seen := make(map[string]bool, len(d.Tests))
	for i, c := range d.Tests {
		if c.Name == "" {
			return fmt.Errorf("spectest: test %d has no name", i+1)
		}
		if seen[c.Name] {
			return fmt.Errorf("spectest: duplicate test %q", c.Name)
		}
		seen[c.Name] = true
		for j, m := range c.Moves {
			switch m.Expect {
			case "", ExpectCommitted, ExpectRejected, ExpectError:
			default:
				return fmt.Errorf("spectest: %s: move %d: unknown expectation %q", c.Name, j+1, m.Expect)
			}
		}
	}
	return nil
}

// toMove converts the textual card names of m.
func (m MoveSpec) toMove() (model.Move, error) {
	cs, err := cards.ParseCards(m.Cards)
	if err != nil {
		return model.Move{}, err
	}
	target, err := cards.ParseCards(m.Target)
	if err != nil {
		return model.Move{}, err
	}
	return model.Move{Player: m.Player, Action: m.Action, Cards: cs, Target: target}, nil
}

func (m MoveSpec) expected() string {
	if m.Expect == "" {
		return ExpectCommitted
	}
	return m.Expect
}

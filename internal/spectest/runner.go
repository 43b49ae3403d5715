package spectest

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/game"
	"github.com/cardlang/cardlang-go/internal/game/model"
	"github.com/cardlang/cardlang-go/internal/lang"
)

// Result is the outcome of one test.
type Result struct {
	Name     string   `yaml:"name"`
	Passed   bool     `yaml:"passed"`
	Failures []string `yaml:"failures,omitempty"`
}

// Report collects results in document order.
type Report struct {
	Results []Result `yaml:"results"`
	Skipped int      `yaml:"skipped,omitempty"`
}

// Passed reports whether every test ran and passed.
func (r *Report) Passed() bool {
	return r.Failed() == 0 && r.Skipped == 0
}

// Failed counts failing tests.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// WriteYAML writes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("spectest: encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("spectest: encoder close: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Runner executes documents with a fresh game per test.
type Runner struct {
	engine   *game.Engine
	logger   *zap.Logger
	failFast bool
}

// NewRunner returns a runner. With failFast set, tests after the first
// failure are skipped.
func NewRunner(engine *game.Engine, logger *zap.Logger, failFast bool) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{engine: engine, logger: logger, failFast: failFast}
}

// Run executes every test in doc against prog.
func Run(engine *game.Engine, prog *lang.Program, doc *Document) *Report {
	return NewRunner(engine, nil, false).Run(prog, doc)
}

// Run executes every test in doc against prog.
func (r *Runner) Run(prog *lang.Program, doc *Document) *Report {
	report := &Report{}
	for i, c := range doc.Tests {
		res := r.runCase(prog, c)
		report.Results = append(report.Results, res)
		if res.Passed {
			r.logger.Debug("spec test passed", zap.String("test", c.Name))
		} else {
			r.logger.Info("spec test failed", zap.String("test", c.Name), zap.Strings("failures", res.Failures))
			if r.failFast {
				report.Skipped = len(doc.Tests) - i - 1
				break
			}
		}
	}
	return report
}

type failures []string

func (f *failures) addf(format string, args ...any) {
	*f = append(*f, fmt.Sprintf(format, args...))
}

func (r *Runner) runCase(prog *lang.Program, c Case) Result {
	var fails failures
	g, err := r.engine.NewGame(prog)
	if err != nil {
		fails.addf("new game: %v", err)
		return Result{Name: c.Name, Failures: fails}
	}

	if c.State != nil {
		placements, err := c.State.placements()
		if err != nil {
			fails.addf("fixture: %v", err)
			return Result{Name: c.Name, Failures: fails}
		}
		if err := g.Arrange(placements); err != nil {
			fails.addf("fixture: %v", err)
			return Result{Name: c.Name, Failures: fails}
		}
	}

	for i, m := range c.Moves {
		move, err := m.toMove()
		if err != nil {
			fails.addf("move %d: %v", i+1, err)
			return Result{Name: c.Name, Failures: fails}
		}
		got := ExpectCommitted
		res, err := g.SubmitMove(move)
		switch {
		case err != nil:
			got = ExpectError
		case !res.Committed:
			got = ExpectRejected
		}
		if want := m.expected(); got != want {
			detail := ""
			switch {
			case err != nil:
				detail = ": " + err.Error()
			case res.Failure != nil:
				detail = ": " + res.Failure.Reason
			}
			fails.addf("move %d (%s): expected %s, got %s%s", i+1, m.Action, want, got, detail)
		}
	}

	checkExpectation(g, c.Expect, &fails)
	return Result{Name: c.Name, Passed: len(fails) == 0, Failures: fails}
}

func (f *Fixture) placements() ([]game.Placement, error) {
	refs := make(map[string][]string, len(f.Stacks)+1)
	for ref, names := range f.Stacks {
		refs[ref] = names
	}
	for i, stacks := range f.Players {
		for name, names := range stacks {
			ref := strconv.Itoa(i+1) + ":" + name
			if _, dup := refs[ref]; dup {
				return nil, fmt.Errorf("%s given twice", ref)
			}
			refs[ref] = names
		}
	}
	if f.Deck != nil {
		if _, dup := refs[model.DeckName]; dup {
			return nil, fmt.Errorf("%s given twice", model.DeckName)
		}
		refs[model.DeckName] = f.Deck
	}

	keys := make([]string, 0, len(refs))
	for ref := range refs {
		keys = append(keys, ref)
	}
	sort.Strings(keys)

	out := make([]game.Placement, 0, len(keys))
	for _, ref := range keys {
		cs, err := cards.ParseCards(refs[ref])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		out = append(out, game.Placement{Ref: ref, Cards: cs})
	}
	return out, nil
}

func checkExpectation(g *game.Game, exp Expectation, fails *failures) {
	refs := make([]string, 0, len(exp.Stacks))
	for ref := range exp.Stacks {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	for _, ref := range refs {
		want, err := cards.ParseCards(exp.Stacks[ref])
		if err != nil {
			fails.addf("expect %s: %v", ref, err)
			continue
		}
		got, err := g.RenderStack(ref)
		if err != nil {
			fails.addf("expect %s: %v", ref, err)
			continue
		}
		same := cards.SameCards(want, got)
		if ref == model.DeckName {
			same = len(want) == len(got)
			for i := 0; same && i < len(want); i++ {
				same = want[i] == got[i]
			}
		}
		if !same {
			fails.addf("%s: expected %v, got %v", ref, cards.Strings(want), cards.Strings(got))
		}
	}

	counts := make([]string, 0, len(exp.Counts))
	for ref := range exp.Counts {
		counts = append(counts, ref)
	}
	sort.Strings(counts)
	for _, ref := range counts {
		got, err := g.RenderStack(ref)
		if err != nil {
			fails.addf("expect %s: %v", ref, err)
			continue
		}
		if len(got) != exp.Counts[ref] {
			fails.addf("%s: expected %d cards, got %d", ref, exp.Counts[ref], len(got))
		}
	}

	if exp.CurrentPlayer != 0 && g.CurrentPlayer() != exp.CurrentPlayer {
		fails.addf("current_player: expected %d, got %d", exp.CurrentPlayer, g.CurrentPlayer())
	}
	if exp.Ended != nil && g.Ended() != *exp.Ended {
		fails.addf("ended: expected %t, got %t", *exp.Ended, g.Ended())
	}
	if exp.Winners != nil {
		got := g.State().Winners
		if fmt.Sprint(got) != fmt.Sprint(exp.Winners) {
			fails.addf("winners: expected %v, got %v", exp.Winners, got)
		}
	}
}

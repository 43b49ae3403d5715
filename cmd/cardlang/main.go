package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/config"
	"github.com/cardlang/cardlang-go/internal/game"
	"github.com/cardlang/cardlang-go/internal/lang"
	"github.com/cardlang/cardlang-go/internal/spectest"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: cardlang [-config path] <command> <file.card> [specs.yaml]

commands:
  build   parse a program and summarize it
  show    start a game and print every stack
  test    run a spec-test document against a program
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Debug("starting cardlang",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	code := run(flag.Args(), cfg, logger, os.Stdout)
	logger.Sync()
	os.Exit(code)
}

func run(args []string, cfg *config.Config, logger *zap.Logger, out io.Writer) int {
	if len(args) < 2 {
		flag.Usage()
		return 2
	}
	cmd, path := args[0], args[1]

	prog, err := load(path)
	if err != nil {
		logger.Error("failed to load program", zap.String("file", path), zap.Error(err))
		fmt.Fprintln(out, err)
		return 1
	}

	engine := game.NewEngine(logger, cfg.Engine)
	switch cmd {
	case "build":
		printProgram(out, prog)
		return 0

	case "show":
		g, err := engine.NewGame(prog)
		if err != nil {
			logger.Error("failed to start game", zap.Error(err))
			fmt.Fprintln(out, err)
			return 1
		}
		printGame(out, g)
		return 0

	case "test":
		if len(args) < 3 {
			flag.Usage()
			return 2
		}
		f, err := os.Open(args[2])
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		defer f.Close()
		doc, err := spectest.Decode(f)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		report := spectest.NewRunner(engine, logger, cfg.SpecTest.FailFast).Run(prog, doc)
		if err := report.WriteYAML(out); err != nil {
			logger.Error("failed to write report", zap.Error(err))
			return 1
		}
		logger.Info("spec tests finished",
			zap.Int("tests", len(report.Results)),
			zap.Int("failed", report.Failed()),
			zap.Int("skipped", report.Skipped),
		)
		if !report.Passed() {
			return 1
		}
		return 0
	}

	fmt.Fprintf(out, "unknown command %q\n", cmd)
	return 2
}

func load(path string) (*lang.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := lang.ParseSource(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

func printProgram(out io.Writer, prog *lang.Program) {
	fmt.Fprintf(out, "name:           %s\n", prog.Name)
	fmt.Fprintf(out, "deck:           %s\n", prog.Deck)
	fmt.Fprintf(out, "players:        %d\n", prog.Players)
	fmt.Fprintf(out, "current_player: %d\n", prog.CurrentPlayer)
	fmt.Fprintf(out, "stacks:         %s\n", strings.Join(prog.Stacks, ", "))
	fmt.Fprintf(out, "player stacks:  %s\n", strings.Join(prog.PlayerStacks, ", "))
	fmt.Fprintln(out, "functions:")
	for _, name := range prog.FunctionOrder {
		fn := prog.Functions[name]
		fmt.Fprintf(out, "  %s(%s)  %d statements\n", name, strings.Join(fn.Params, ", "), len(fn.Body))
	}
}

func printGame(out io.Writer, g *game.Game) {
	fmt.Fprintf(out, "game %s  phase %s  current player %d\n", g.ID, g.Phase(), g.CurrentPlayer())
	if last, ok := g.LastCommit(); ok {
		fmt.Fprintf(out, "turn %d  checksum %s\n", last.Turn, last.Checksum)
	} else {
		fmt.Fprintf(out, "checksum %s\n", game.Checksum(g.State()))
	}
	for _, ref := range g.StackRefs() {
		cs, err := g.RenderStack(ref)
		if err != nil {
			fmt.Fprintf(out, "%-14s %v\n", ref, err)
			continue
		}
		fmt.Fprintf(out, "%-14s (%d) %s\n", ref, len(cs), strings.Join(cards.Strings(cs), ", "))
	}
}

// initLogger builds the process logger. Records go to stderr so that
// command output on stdout stays machine-readable.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

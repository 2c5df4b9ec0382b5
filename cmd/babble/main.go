package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/CTAG07/babble/pkg/markov"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		baseLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		baseLogger.Error("babble failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run trains on every line of stdin and writes one generated text to stdout.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	config, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLogLevel(config.LogLevel)}))
	logger.Debug("Starting babble",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
		"boundaries", config.Boundaries.String(),
		"store", config.Store,
	)

	model, closeModel, err := openModel(config, logger)
	if err != nil {
		return err
	}
	defer closeModel()

	trainer := markov.NewTrainer(config.Boundaries)
	trainer.SetLogger(logger)
	if _, err = trainer.Train(ctx, markov.NewLineReader(stdin), model); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if stats, err := model.Stats(ctx); err != nil {
		logger.Warn("Failed to read model stats", "error", err)
	} else {
		logger.Info("Model trained",
			"sources", stats.Sources,
			"transitions", stats.Transitions,
			"total_frequency", stats.TotalFrequency,
			"starting_tokens", stats.StartingTokens,
			"vocab_size", stats.VocabSize,
		)
	}

	gen := markov.NewGenerator(model, config.Boundaries, config.generateOptions()...)
	gen.SetLogger(logger)

	out := bufio.NewWriter(stdout)
	if config.Generation.Punctuate {
		_, _ = out.WriteString(gen.Text(ctx, config.MaxTokens))
	} else {
		first := true
		for word := range gen.Stream(ctx, config.MaxTokens) {
			if !first {
				_ = out.WriteByte(' ')
			}
			_, _ = out.WriteString(word)
			first = false
		}
	}
	_ = out.WriteByte('\n')

	return out.Flush()
}

// parseArgs builds the effective configuration: defaults, then the config
// file if one is given, then any flags set explicitly.
func parseArgs(args []string, stderr io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("babble", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := DefaultConfig()
	configPath := fs.String("config", "", "Path to a JSON config file (created with defaults if missing)")
	maxTokens := fs.Int("max-tokens", defaults.MaxTokens, "Maximum number of words to generate")
	boundaries := fs.String("boundaries", defaults.Boundaries.String(), "Boundary mode: line-endings or sentence-endings")
	store := fs.String("store", defaults.Store, "Transition store: memory or sqlite (a scratch database removed on exit)")
	scratchDir := fs.String("scratch-dir", defaults.ScratchDir, "Directory for the sqlite scratch database (default: system temp dir)")
	logLevel := fs.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	seed := fs.Uint64("seed", defaults.Generation.Seed, "Random seed; 0 picks one at random")
	start := fs.String("start", defaults.Generation.StartPolicy, "Start policy: boundary or random")
	temperature := fs.Float64("temperature", defaults.Generation.Temperature, "Sampling temperature; 1 samples the raw counts")
	topK := fs.Int("top-k", defaults.Generation.TopK, "Only sample from the k most frequent next words; 0 disables")
	cont := fs.Bool("continue", defaults.Generation.ContinueAcrossBoundaries, "Keep generating past line or sentence boundaries")
	punctuate := fs.Bool("punctuate", defaults.Generation.Punctuate, "Render crossed boundaries as periods or line breaks")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	config := defaults
	if *configPath != "" {
		var err error
		if config, err = LoadConfig(*configPath); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-tokens":
			config.MaxTokens = *maxTokens
		case "boundaries":
			mode, err := markov.ParseBoundaryMode(*boundaries)
			if err != nil {
				flagErr = err
				return
			}
			config.Boundaries = mode
		case "store":
			config.Store = *store
		case "scratch-dir":
			config.ScratchDir = *scratchDir
		case "log-level":
			config.LogLevel = *logLevel
		case "seed":
			config.Generation.Seed = *seed
		case "start":
			config.Generation.StartPolicy = *start
		case "temperature":
			config.Generation.Temperature = *temperature
		case "top-k":
			config.Generation.TopK = *topK
		case "continue":
			config.Generation.ContinueAcrossBoundaries = *cont
		case "punctuate":
			config.Generation.Punctuate = *punctuate
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// openModel returns the transition store selected by the config and a
// function that releases it.
func openModel(config *Config, logger *slog.Logger) (markov.Model, func(), error) {
	if config.Store != storeSQLite {
		return markov.NewTable(), func() {}, nil
	}

	dir, err := os.MkdirTemp(config.ScratchDir, "babble-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	cleanupDir := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Failed to remove scratch directory", "path", dir, "error", err)
		}
	}

	db, err := initDB(scratchDSN(filepath.Join(dir, "chain.db")))
	if err != nil {
		cleanupDir()
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err = markov.SetupSchema(db); err != nil {
		_ = db.Close()
		cleanupDir()
		return nil, nil, fmt.Errorf("failed to setup markov schema: %w", err)
	}

	store, err := markov.NewSQLTable(db)
	if err != nil {
		_ = db.Close()
		cleanupDir()
		return nil, nil, fmt.Errorf("error creating sql table: %w", err)
	}
	store.SetLogger(logger)
	logger.Debug("Using sqlite scratch store", "path", dir, "driver", sqliteDriver)

	return store, func() {
		store.Close()
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
		cleanupDir()
	}, nil
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CTAG07/babble/pkg/markov"
	"github.com/natefinch/atomic"
)

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel   string              `json:"log_level"`
	MaxTokens  int                 `json:"max_tokens"`
	Boundaries markov.BoundaryMode `json:"boundaries"`
	Store      string              `json:"store"`
	ScratchDir string              `json:"scratch_dir"`
	Generation *GenerationConfig   `json:"generation_config"`
}

// GenerationConfig holds the sampling settings passed to the generator.
type GenerationConfig struct {
	Seed                     uint64  `json:"seed"` // 0 picks a random seed
	StartPolicy              string  `json:"start_policy"`
	Temperature              float64 `json:"temperature"`
	TopK                     int     `json:"top_k"`
	ContinueAcrossBoundaries bool    `json:"continue_across_boundaries"`
	Punctuate                bool    `json:"punctuate"`
}

const (
	storeMemory = "memory"
	storeSQLite = "sqlite"
)

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "warn",
		MaxTokens:  100,
		Boundaries: markov.LineEndings,
		Store:      storeMemory,
		ScratchDir: "",
		Generation: &GenerationConfig{
			Seed:                     0,
			StartPolicy:              "boundary",
			Temperature:              1.0,
			TopK:                     0,
			ContinueAcrossBoundaries: false,
			Punctuate:                false,
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Warn instead of failing, as generation can still run with defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Generation == nil {
		config.Generation = DefaultConfig().Generation
	}

	return config, nil
}

// Validate checks the values that the core library cannot recover from.
func (c *Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Store != storeMemory && c.Store != storeSQLite {
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, storeMemory, storeSQLite)
	}
	if _, err := c.startPolicy(); err != nil {
		return err
	}
	if c.Generation.TopK < 0 {
		return fmt.Errorf("top_k must not be negative, got %d", c.Generation.TopK)
	}
	return nil
}

func (c *Config) startPolicy() (markov.StartPolicy, error) {
	switch strings.ToLower(c.Generation.StartPolicy) {
	case "", "boundary":
		return markov.StartFromBoundary, nil
	case "random":
		return markov.StartRandom, nil
	default:
		return 0, fmt.Errorf("unknown start policy %q (want boundary or random)", c.Generation.StartPolicy)
	}
}

// generateOptions translates the generation config into generator options.
func (c *Config) generateOptions() []markov.GenerateOption {
	policy, _ := c.startPolicy()
	opts := []markov.GenerateOption{
		markov.WithStartPolicy(policy),
		markov.WithTemperature(c.Generation.Temperature),
		markov.WithTopK(c.Generation.TopK),
		markov.WithEarlyTermination(!c.Generation.ContinueAcrossBoundaries),
	}
	if c.Generation.Seed != 0 {
		opts = append(opts, markov.WithSeed(c.Generation.Seed))
	}
	return opts
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

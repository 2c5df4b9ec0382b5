package markov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// TrainStats summarizes a single training pass.
type TrainStats struct {
	Lines        int64 // Lines that were read and tokenized.
	SkippedLines int64 // Lines that could not be read and were skipped.
	Tokens       int64 // Tokens produced by the tokenizer, boundaries included.
	Transitions  int64 // Adjacent pairs passed to the Counter.
}

// Trainer turns a stream of lines into transition counts.
type Trainer struct {
	mode      BoundaryMode
	tokenizer Tokenizer
	logger    *slog.Logger
}

// TrainOption is a function that configures a Trainer.
type TrainOption func(*Trainer)

// WithTokenizer replaces the default tokenizer for the trainer's mode.
func WithTokenizer(tokenizer Tokenizer) TrainOption {
	return func(t *Trainer) {
		if tokenizer != nil {
			t.tokenizer = tokenizer
		}
	}
}

// NewTrainer creates a Trainer that segments input according to mode.
func NewTrainer(mode BoundaryMode, opts ...TrainOption) *Trainer {
	t := &Trainer{
		mode:      mode,
		tokenizer: NewDefaultTokenizer(mode),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetLogger sets the logger for the Trainer. By default, all logs are discarded.
func (t *Trainer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

// Train reads src to the end and records every adjacent token pair in
// counter.
//
// Under LineEndings each line is wrapped in its own pair of boundaries.
// Under SentenceEndings the last token of the previous line is carried over
// and prepended, so that a sentence broken across lines keeps its adjacency;
// boundaries only appear where the tokenizer put them. A pair of boundaries
// is never counted.
//
// Lines failing with ErrUnreadableLine are logged and skipped as if they
// were empty. Any other read error stops training and is returned.
func (t *Trainer) Train(ctx context.Context, src LineSource, counter Counter) (TrainStats, error) {
	var stats TrainStats
	carry := Boundary()
	var seq []Token

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line, err := src.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, ErrUnreadableLine) {
				stats.SkippedLines++
				t.logger.WarnContext(ctx, "Skipping unreadable line",
					slog.Any("error", err),
				)
				continue
			}
			return stats, fmt.Errorf("failed to read training input: %w", err)
		}
		stats.Lines++

		tokens := t.tokenizer.Tokenize(line)
		stats.Tokens += int64(len(tokens))

		seq = seq[:0]
		switch t.mode {
		case SentenceEndings:
			seq = append(seq, carry)
			seq = append(seq, tokens...)
			if len(tokens) > 0 {
				carry = tokens[len(tokens)-1]
			}
		default:
			seq = append(seq, Boundary())
			seq = append(seq, tokens...)
			seq = append(seq, Boundary())
		}

		n, err := countSequence(ctx, counter, seq)
		stats.Transitions += n
		if err != nil {
			return stats, fmt.Errorf("failed to count transitions on line %d: %w", stats.Lines+stats.SkippedLines, err)
		}
	}

	t.logger.InfoContext(ctx, "Training completed",
		slog.String("boundary_mode", t.mode.String()),
		slog.Int64("lines_processed", stats.Lines),
		slog.Int64("lines_skipped", stats.SkippedLines),
		slog.Int64("transitions_counted", stats.Transitions),
	)

	return stats, nil
}

// countSequence passes each adjacent pair of seq to counter, skipping pairs
// of boundaries.
func countSequence(ctx context.Context, counter Counter, seq []Token) (int64, error) {
	var n int64
	for i := 1; i < len(seq); i++ {
		from, to := seq[i-1], seq[i]
		if from.boundary && to.boundary {
			continue
		}
		if err := counter.Observe(ctx, from, to); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Train builds a new in-memory Table from src using the default tokenizer
// for mode.
func Train(ctx context.Context, src LineSource, mode BoundaryMode) (*Table, error) {
	table := NewTable()
	if _, err := NewTrainer(mode).Train(ctx, src, table); err != nil {
		return table, err
	}
	return table, nil
}

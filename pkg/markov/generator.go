package markov

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
)

// Generator walks a trained Chain, producing one word per call to Next. It is
// the main entry point for text generation.
//
// A Generator owns its random source and is not safe for concurrent use.
// The Chain must not be modified while a Generator is reading it.
type Generator struct {
	chain   Chain
	mode    BoundaryMode
	options generateOptions
	logger  *slog.Logger

	last         Token
	started      bool
	done         bool
	lastBoundary bool
	steps        int
}

// NewGenerator creates a Generator over chain. mode should be the mode the
// chain was trained with; it decides how Text renders crossed boundaries.
func NewGenerator(chain Chain, mode BoundaryMode, opts ...GenerateOption) *Generator {
	options := generateOptions{
		canEndEarly: true,
		temperature: 1.0,
		topK:        0,
		start:       StartFromBoundary,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.rng == nil {
		options.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Generator{
		chain:   chain,
		mode:    mode,
		options: options,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Next returns the next generated word. It returns false once generation has
// ended: the chain is empty, a dead end was reached, or (with early
// termination) a Boundary was drawn. After returning false, Next keeps
// returning false.
func (g *Generator) Next(ctx context.Context) (string, bool) {
	for {
		tok, ok := g.advance(ctx)
		if !ok {
			return "", false
		}
		if tok.boundary {
			if g.options.canEndEarly {
				g.stop(ctx, "Generation terminated by boundary")
				return "", false
			}
			continue
		}
		return tok.text, true
	}
}

// Generate returns up to limit words.
func (g *Generator) Generate(ctx context.Context, limit int) []string {
	var words []string
	for len(words) < limit {
		word, ok := g.Next(ctx)
		if !ok {
			break
		}
		words = append(words, word)
	}
	return words
}

// Text returns up to limit words rendered as text. Unlike Join over Generate,
// crossed boundaries are made visible again: under SentenceEndings a
// boundary closes the sentence with ".", under LineEndings it starts a new
// line.
func (g *Generator) Text(ctx context.Context, limit int) string {
	var builder strings.Builder
	emitted := 0
	pendingSeparator := ""

	for emitted < limit {
		tok, ok := g.advance(ctx)
		if !ok {
			break
		}
		if tok.boundary {
			if emitted > 0 {
				if g.mode == SentenceEndings {
					builder.WriteString(".")
					pendingSeparator = " "
				} else {
					pendingSeparator = "\n"
				}
			}
			if g.options.canEndEarly {
				g.stop(ctx, "Generation terminated by boundary")
				break
			}
			continue
		}
		builder.WriteString(pendingSeparator)
		builder.WriteString(tok.text)
		pendingSeparator = " "
		emitted++
	}

	return builder.String()
}

// advance performs one step of the walk and returns the drawn token, which
// may be a Boundary. It returns false when generation is over.
func (g *Generator) advance(ctx context.Context) (Token, bool) {
	if g.done {
		return Token{}, false
	}
	if !g.started {
		g.started = true
		if !g.start(ctx) {
			return Token{}, false
		}
	}

	choices, totalFreq, err := g.chain.NextTokens(ctx, g.last)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to get next tokens",
			slog.String("last_token", g.last.String()),
			slog.Any("error", err),
		)
		g.stop(ctx, "Generation terminated due to lookup failure")
		return Token{}, false
	}
	if len(choices) == 0 { // Dead end in chain
		g.stop(ctx, "Generation terminated due to dead-end")
		return Token{}, false
	}

	next, err := chooseNextToken(g.options.rng, choices, totalFreq, &g.options)
	if err != nil {
		g.logger.WarnContext(ctx, "invalid transition weights",
			slog.String("last_token", g.last.String()),
			slog.Any("error", err),
		)
		g.stop(ctx, "Generation terminated due to dead-end")
		return Token{}, false
	}

	if next.boundary && g.lastBoundary {
		// Only a malformed chain links Boundary to itself.
		g.stop(ctx, "Generation terminated due to boundary loop")
		return Token{}, false
	}
	g.lastBoundary = next.boundary
	g.last = next
	g.steps++

	return next, true
}

// start picks the first source token according to the start policy.
func (g *Generator) start(ctx context.Context) bool {
	if g.options.start == StartFromBoundary {
		choices, _, err := g.chain.NextTokens(ctx, Boundary())
		if err == nil && len(choices) > 0 {
			g.last = Boundary()
			g.lastBoundary = true
			return true
		}
	}

	sources, err := g.chain.Sources(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to list source tokens", slog.Any("error", err))
		g.stop(ctx, "Generation terminated due to lookup failure")
		return false
	}
	if len(sources) == 0 {
		g.stop(ctx, "Generation terminated on empty model")
		return false
	}

	g.last = sources[g.options.rng.IntN(len(sources))]
	g.lastBoundary = g.last.boundary
	return true
}

func (g *Generator) stop(ctx context.Context, reason string) {
	g.done = true
	g.logger.DebugContext(ctx, reason,
		slog.String("boundary_mode", g.mode.String()),
		slog.Int("generated_length", g.steps),
	)
}

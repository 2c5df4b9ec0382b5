package markov

import (
	"context"
	"iter"
)

// Stream returns an iterator over up to limit generated words. This allows
// for processing the generated text word-by-word, which is useful when
// writing output as it is produced. Iteration also stops when ctx is
// cancelled. Words already taken from the Generator by other calls are not
// repeated.
func (g *Generator) Stream(ctx context.Context, limit int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for n := 0; n < limit; n++ {
			if ctx.Err() != nil {
				g.logger.DebugContext(ctx, "Generation stream cancelled by context")
				return
			}
			word, ok := g.Next(ctx)
			if !ok || !yield(word) {
				return
			}
		}
	}
}

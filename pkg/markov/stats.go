package markov

import (
	"context"
)

// ModelStats holds aggregated statistics for a trained transition model.
type ModelStats struct {
	Sources        int    // The number of tokens with at least one outgoing transition.
	Transitions    int    // The number of unique source->destination links.
	TotalFrequency uint64 // The sum of all link counts; the total number of trained transitions.
	StartingTokens int    // The number of unique tokens that can follow a Boundary.
	VocabSize      int    // The number of unique words seen on either side of a link.
}

// Stats returns a snapshot of statistics for the table.
func (t *Table) Stats(_ context.Context) (ModelStats, error) {
	var stats ModelStats
	vocab := make(map[string]struct{})

	for from, next := range t.transitions {
		stats.Sources++
		if !from.boundary {
			vocab[from.text] = struct{}{}
		}
		for to, freq := range next {
			stats.Transitions++
			stats.TotalFrequency += uint64(freq)
			if !to.boundary {
				vocab[to.text] = struct{}{}
			}
		}
	}
	stats.StartingTokens = len(t.transitions[Boundary()])
	stats.VocabSize = len(vocab)

	return stats, nil
}

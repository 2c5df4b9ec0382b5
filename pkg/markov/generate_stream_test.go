package markov

import (
	"context"
	"testing"
)

func TestGenerateStream(t *testing.T) {
	ctx := context.Background()
	table := trainTable(t, "lonely lonely", SentenceEndings)

	t.Run("Stops at limit", func(t *testing.T) {
		var got []string
		for word := range NewGenerator(table, SentenceEndings).Stream(ctx, 7) {
			got = append(got, word)
		}
		if len(got) != 7 {
			t.Errorf("expected 7 words, got %v", got)
		}
	})

	t.Run("Stops at dead end", func(t *testing.T) {
		var got []string
		for word := range NewGenerator(trainTable(t, "start deadend", SentenceEndings), SentenceEndings).Stream(ctx, 100) {
			got = append(got, word)
		}
		if Join(got) != "start deadend" {
			t.Errorf("expected 'start deadend', got %v", got)
		}
	})

	t.Run("Caller can stop early", func(t *testing.T) {
		g := NewGenerator(table, SentenceEndings)
		n := 0
		for range g.Stream(ctx, 100) {
			n++
			if n == 3 {
				break
			}
		}
		if n != 3 {
			t.Errorf("expected to stop after 3 words, got %d", n)
		}
		if _, ok := g.Next(ctx); !ok {
			t.Error("generator should still be usable after breaking out of a stream")
		}
	})

	t.Run("Stream cancellation", func(t *testing.T) {
		ctxCancel, cancel := context.WithCancel(ctx)
		cancel()

		for word := range NewGenerator(table, SentenceEndings).Stream(ctxCancel, 100) {
			t.Fatalf("expected no words from a cancelled stream, got %q", word)
		}
	})
}

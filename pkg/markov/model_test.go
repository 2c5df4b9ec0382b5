package markov

import (
	"context"
	"reflect"
	"testing"
)

func TestTableAdd(t *testing.T) {
	table := NewTable()
	last, next := Word("last"), Word("next")

	table.Add(last, next)
	table.Add(last, next)
	table.Add(Boundary(), Boundary())

	if got := table.Frequency(last, next); got != 2 {
		t.Errorf("expected frequency 2, got %d", got)
	}
	if table.Has(Boundary()) {
		t.Error("a (Boundary, Boundary) pair should not create a source")
	}
	if table.Len() != 1 {
		t.Errorf("expected 1 source, got %d", table.Len())
	}
}

func TestNewTableIsEmpty(t *testing.T) {
	ctx := context.Background()
	table := NewTable()

	sources, err := table.Sources(ctx)
	if err != nil || len(sources) != 0 {
		t.Errorf("expected no sources, got %v, %v", sources, err)
	}
	tokens, total, err := table.NextTokens(ctx, Boundary())
	if err != nil || tokens != nil || total != 0 {
		t.Errorf("expected nothing after Boundary, got %v, %d, %v", tokens, total, err)
	}
	stats, _ := table.Stats(ctx)
	if stats != (ModelStats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestTableNextTokens(t *testing.T) {
	ctx := context.Background()
	table := trainTable(t, "one fish two fish. red fish blue fish.", SentenceEndings)

	tokens, total, err := table.NextTokens(ctx, Word("fish"))
	if err != nil {
		t.Fatalf("NextTokens failed: %v", err)
	}
	expected := []ChainToken{
		{Token: Boundary(), Freq: 2},
		{Token: Word("blue"), Freq: 1},
		{Token: Word("two"), Freq: 1},
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected tokens %+v, got %+v", expected, tokens)
	}
	if total != 4 {
		t.Errorf("expected total frequency of 4, got %d", total)
	}

	// Test unseen token
	tokens, total, err = table.NextTokens(ctx, Word("green"))
	if err != nil {
		t.Fatalf("NextTokens for unseen token failed: %v", err)
	}
	if len(tokens) != 0 || total != 0 {
		t.Error("expected no tokens for an unseen token")
	}
}

func TestTableSources(t *testing.T) {
	table := trainTable(t, "one fish two fish.", SentenceEndings)

	sources, err := table.Sources(context.Background())
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	expected := []Token{Boundary(), Word("fish"), Word("one"), Word("two")}
	if !reflect.DeepEqual(sources, expected) {
		t.Errorf("expected sources %v, got %v", expected, sources)
	}
}

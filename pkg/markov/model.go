package markov

import (
	"context"
	"slices"
)

// Counter is the write side of a transition model. Training calls Observe
// once for every adjacent pair of tokens it sees.
type Counter interface {
	Observe(ctx context.Context, from, to Token) error
}

// Chain is the read side of a transition model, used by the Generator.
type Chain interface {
	// NextTokens returns every token observed after from, with counts, and
	// the sum of those counts. An unknown token yields a nil slice and 0.
	NextTokens(ctx context.Context, from Token) ([]ChainToken, uint64, error)
	// Sources returns every token that has at least one outgoing transition.
	Sources(ctx context.Context) ([]Token, error)
}

// Model is a transition model that can be trained, walked and measured.
// Table and SQLTable both implement it.
type Model interface {
	Counter
	Chain
	Stats(ctx context.Context) (ModelStats, error)
}

// Table is the in-memory transition table: a mapping from a source token to
// the number of times each destination token followed it. A missing
// destination means a count of zero; zero is never stored.
//
// A Table is not safe for concurrent use. Train it fully, then generate.
type Table struct {
	transitions map[Token]map[Token]uint32
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{transitions: make(map[Token]map[Token]uint32)}
}

// Add records one observation of from followed by to. A Boundary followed
// by a Boundary carries no information and is ignored.
func (t *Table) Add(from, to Token) {
	if from.boundary && to.boundary {
		return
	}
	next, ok := t.transitions[from]
	if !ok {
		next = make(map[Token]uint32)
		t.transitions[from] = next
	}
	next[to]++
}

// Observe implements Counter. It never fails.
func (t *Table) Observe(_ context.Context, from, to Token) error {
	t.Add(from, to)
	return nil
}

// Frequency returns the number of times to was observed after from.
func (t *Table) Frequency(from, to Token) uint32 {
	return t.transitions[from][to]
}

// Len returns the number of known source tokens.
func (t *Table) Len() int {
	return len(t.transitions)
}

// Has reports whether from has any outgoing transition.
func (t *Table) Has(from Token) bool {
	_, ok := t.transitions[from]
	return ok
}

// NextTokens implements Chain. Results are ordered with Boundary first and
// Words by text so that a seeded Generator is reproducible.
func (t *Table) NextTokens(_ context.Context, from Token) ([]ChainToken, uint64, error) {
	next, ok := t.transitions[from]
	if !ok {
		return nil, 0, nil
	}

	tokens := make([]ChainToken, 0, len(next))
	var total uint64
	for tok, freq := range next {
		tokens = append(tokens, ChainToken{Token: tok, Freq: freq})
		total += uint64(freq)
	}
	sortChainTokens(tokens)
	return tokens, total, nil
}

// Sources implements Chain.
func (t *Table) Sources(_ context.Context) ([]Token, error) {
	sources := make([]Token, 0, len(t.transitions))
	for tok := range t.transitions {
		sources = append(sources, tok)
	}
	sortTokens(sources)
	return sources, nil
}

func sortTokens(tokens []Token) {
	slices.SortFunc(tokens, compareTokens)
}

func sortChainTokens(tokens []ChainToken) {
	slices.SortFunc(tokens, func(a, b ChainToken) int {
		return compareTokens(a.Token, b.Token)
	})
}

func compareTokens(a, b Token) int {
	switch {
	case a == b:
		return 0
	case lessToken(a, b):
		return -1
	default:
		return 1
	}
}

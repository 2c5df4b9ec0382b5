package markov

import (
	"strings"
	"unicode/utf8"
)

// Tokenizer is an interface that defines the contract for splitting a line of
// input text into tokens. This allows training to be independent of the
// specific tokenization strategy.
type Tokenizer interface {
	// Tokenize splits one line of text into tokens. It must not retain state
	// between calls.
	Tokenize(line string) []Token
}

// DefaultTokenizer is the default implementation of the Tokenizer interface.
// It splits on whitespace and then peels single punctuation characters off
// the ends of each word. Under SentenceEndings, sentence-ending punctuation
// is replaced with a Boundary token instead.
type DefaultTokenizer struct {
	mode             BoundaryMode
	sentenceEnders   string
	trailingSplitSet string
	leadingSplitSet  string
}

// Option Is a function that configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithSentenceEnders sets the characters that end a sentence under
// SentenceEndings.
// Default: ".!?"
func WithSentenceEnders(chars string) Option {
	return func(t *DefaultTokenizer) {
		t.sentenceEnders = chars
	}
}

// WithTrailingPunctuation sets the characters split off the end of a word.
// Default: `.!?,"'})`
func WithTrailingPunctuation(chars string) Option {
	return func(t *DefaultTokenizer) {
		t.trailingSplitSet = chars
	}
}

// WithLeadingPunctuation sets the characters split off the start of a word.
// Default: `"'{(`
func WithLeadingPunctuation(chars string) Option {
	return func(t *DefaultTokenizer) {
		t.leadingSplitSet = chars
	}
}

// NewDefaultTokenizer creates a new tokenizer for the given boundary mode,
// which can be customized by providing one or more Option functions.
func NewDefaultTokenizer(mode BoundaryMode, opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{
		mode:             mode,
		sentenceEnders:   ".!?",
		trailingSplitSet: `.!?,"'})`,
		leadingSplitSet:  `"'{(`,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Tokenize returns line as a sequence of tokens. Each pass builds a new slice
// from the previous one, so no pass ever edits the sequence it is reading.
func (t *DefaultTokenizer) Tokenize(line string) []Token {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, Word(f))
	}

	if t.mode == SentenceEndings {
		tokens = t.splitSentences(tokens)
	}
	tokens = t.splitTrailing(tokens)
	tokens = t.splitLeading(tokens)

	return tokens
}

// splitSentences replaces a trailing sentence ender with a Boundary.
func (t *DefaultTokenizer) splitSentences(in []Token) []Token {
	out := make([]Token, 0, len(in)+1)
	for _, tok := range in {
		rest, _, ok := cutLast(tok, t.sentenceEnders)
		if !ok {
			out = append(out, tok)
			continue
		}
		if rest != "" {
			out = append(out, Word(rest))
		}
		out = append(out, Boundary())
	}
	return out
}

// splitTrailing moves one trailing punctuation character into its own token.
func (t *DefaultTokenizer) splitTrailing(in []Token) []Token {
	out := make([]Token, 0, len(in)+len(in)/2)
	for _, tok := range in {
		rest, punct, ok := cutLast(tok, t.trailingSplitSet)
		if !ok {
			out = append(out, tok)
			continue
		}
		if rest != "" {
			out = append(out, Word(rest))
		}
		out = append(out, Word(punct))
	}
	return out
}

// splitLeading moves one leading punctuation character into its own token.
func (t *DefaultTokenizer) splitLeading(in []Token) []Token {
	out := make([]Token, 0, len(in)+len(in)/2)
	for _, tok := range in {
		punct, rest, ok := cutFirst(tok, t.leadingSplitSet)
		if !ok {
			out = append(out, tok)
			continue
		}
		out = append(out, Word(punct))
		if rest != "" {
			out = append(out, Word(rest))
		}
	}
	return out
}

// cutLast splits the last rune off a Word when it is one of chars.
func cutLast(tok Token, chars string) (rest, last string, ok bool) {
	if tok.boundary || tok.text == "" {
		return "", "", false
	}
	r, size := utf8.DecodeLastRuneInString(tok.text)
	if r == utf8.RuneError || !strings.ContainsRune(chars, r) {
		return "", "", false
	}
	cut := len(tok.text) - size
	return tok.text[:cut], tok.text[cut:], true
}

// cutFirst splits the first rune off a Word when it is one of chars.
func cutFirst(tok Token, chars string) (first, rest string, ok bool) {
	if tok.boundary || tok.text == "" {
		return "", "", false
	}
	r, size := utf8.DecodeRuneInString(tok.text)
	if r == utf8.RuneError || !strings.ContainsRune(chars, r) {
		return "", "", false
	}
	return tok.text[:size], tok.text[size:], true
}

var defaultTokenizers = [...]*DefaultTokenizer{
	LineEndings:     NewDefaultTokenizer(LineEndings),
	SentenceEndings: NewDefaultTokenizer(SentenceEndings),
}

// Tokenize splits line using the default tokenizer for mode.
func Tokenize(line string, mode BoundaryMode) []Token {
	if mode == SentenceEndings {
		return defaultTokenizers[SentenceEndings].Tokenize(line)
	}
	return defaultTokenizers[LineEndings].Tokenize(line)
}

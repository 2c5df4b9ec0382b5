package markov

import (
	"fmt"
	"strings"
)

// Token represents a single tokenized unit of text. A Token is either a Word,
// carrying a non-empty run of non-whitespace text, or the Boundary sentinel,
// which marks the start or end of a chain and carries no text.
//
// The fields are unexported so that every Boundary is the same value; Tokens
// can be compared with == and used as map keys.
type Token struct {
	text     string
	boundary bool
}

// Word returns a Word token holding text.
func Word(text string) Token {
	return Token{text: text}
}

// Boundary returns the Boundary sentinel token.
func Boundary() Token {
	return Token{boundary: true}
}

// IsBoundary reports whether t is the Boundary sentinel.
func (t Token) IsBoundary() bool {
	return t.boundary
}

// Text returns the payload of a Word token, or "" for Boundary.
func (t Token) Text() string {
	return t.text
}

// String is meant for logs and test output only. Generated text never
// contains a Boundary.
func (t Token) String() string {
	if t.boundary {
		return "<boundary>"
	}
	return fmt.Sprintf("%q", t.text)
}

// ChainToken is a possible destination of a transition along with the number
// of times the transition was observed during training.
type ChainToken struct {
	Token Token
	Freq  uint32
}

// BoundaryMode selects how token sequences are segmented during training.
type BoundaryMode int

const (
	// LineEndings wraps every input line in its own pair of boundaries, as in
	// a play transcript where each line is a complete utterance.
	LineEndings BoundaryMode = iota
	// SentenceEndings places boundaries only after sentence-ending
	// punctuation and carries the chain across line breaks.
	SentenceEndings
)

// String returns the flag/config spelling of the mode.
func (m BoundaryMode) String() string {
	switch m {
	case LineEndings:
		return "line-endings"
	case SentenceEndings:
		return "sentence-endings"
	default:
		return fmt.Sprintf("BoundaryMode(%d)", int(m))
	}
}

// ParseBoundaryMode parses the spelling produced by BoundaryMode.String.
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line-endings", "line":
		return LineEndings, nil
	case "sentence-endings", "sentence":
		return SentenceEndings, nil
	default:
		return 0, fmt.Errorf("unknown boundary mode %q (want line-endings or sentence-endings)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m BoundaryMode) MarshalText() ([]byte, error) {
	if m != LineEndings && m != SentenceEndings {
		return nil, fmt.Errorf("invalid boundary mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BoundaryMode) UnmarshalText(text []byte) error {
	parsed, err := ParseBoundaryMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Join renders generated words as text, separated by single spaces.
func Join(words []string) string {
	return strings.Join(words, " ")
}

// lessToken orders tokens with Boundary first and Words by text, giving
// chain lookups a stable order.
func lessToken(a, b Token) bool {
	if a.boundary != b.boundary {
		return a.boundary
	}
	return a.text < b.text
}

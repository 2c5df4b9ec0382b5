package markov

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrUnreadableLine is wrapped by LineSource errors that affect a single line
// only. Training skips such lines and keeps reading.
var ErrUnreadableLine = errors.New("unreadable line")

// LineSource is a sequential source of text lines. ReadLine returns io.EOF
// once the source is exhausted.
type LineSource interface {
	ReadLine() (string, error)
}

// LineReader is the default LineSource for an io.Reader. Line terminators
// ("\n" or "\r\n") are stripped, and a final line without a terminator is
// still returned.
type LineReader struct {
	reader *bufio.Reader
	line   int
}

// NewLineReader returns a LineReader reading from r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{reader: bufio.NewReader(r)}
}

// ReadLine returns the next line. A line that is not valid UTF-8 is consumed
// and reported as an error wrapping ErrUnreadableLine; the reader remains
// usable afterwards.
func (l *LineReader) ReadLine() (string, error) {
	text, err := l.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if text == "" {
			return "", io.EOF
		}
	}
	l.line++

	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")

	if !utf8.ValidString(text) {
		return "", fmt.Errorf("line %d: %w: invalid UTF-8", l.line, ErrUnreadableLine)
	}
	return text, nil
}

// Line returns the number of lines consumed so far.
func (l *LineReader) Line() int {
	return l.line
}

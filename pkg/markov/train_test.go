package markov

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTrain(t *testing.T) {
	table := trainTable(t, "the cat sat.\nthe cat ran", LineEndings)
	b := Boundary()

	expected := []struct {
		from, to Token
		freq     uint32
	}{
		{b, Word("the"), 2},
		{Word("the"), Word("cat"), 2},
		{Word("cat"), Word("sat"), 1},
		{Word("cat"), Word("ran"), 1},
		{Word("sat"), Word("."), 1},
		{Word("."), b, 1},
		{Word("ran"), b, 1},
	}
	for _, e := range expected {
		if got := table.Frequency(e.from, e.to); got != e.freq {
			t.Errorf("Frequency(%v, %v) = %d, want %d", e.from, e.to, got, e.freq)
		}
	}

	stats, err := table.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := ModelStats{Sources: 6, Transitions: 7, TotalFrequency: 9, StartingTokens: 1, VocabSize: 5}
	if stats != want {
		t.Errorf("Stats() got %+v, want %+v", stats, want)
	}
}

func TestTrainBoundarySuppression(t *testing.T) {
	testCases := []struct {
		name string
		text string
		mode BoundaryMode
	}{
		{name: "Blank lines, line endings", text: "a\n\n\nb\n\n", mode: LineEndings},
		{name: "Whitespace lines, line endings", text: "\n \n\t\na b\n", mode: LineEndings},
		{name: "Lone boundaries, sentence endings", text: "end.\n.\n.\nnext!\n", mode: SentenceEndings},
		{name: "Back to back sentence enders", text: "stop. . ! again?", mode: SentenceEndings},
		{name: "Only blank lines", text: "\n\n\n", mode: LineEndings},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table := trainTable(t, tc.text, tc.mode)
			if got := table.Frequency(Boundary(), Boundary()); got != 0 {
				t.Errorf("expected no (Boundary, Boundary) transition, got count %d", got)
			}
		})
	}

	if table := trainTable(t, "\n\n\n", LineEndings); table.Len() != 0 {
		t.Errorf("expected blank input to leave the table empty, got %d sources", table.Len())
	}
}

func TestTrainSentenceCarry(t *testing.T) {
	table := trainTable(t, "start\nmiddle end.", SentenceEndings)
	b := Boundary()

	if got := table.Frequency(Word("start"), Word("middle")); got != 1 {
		t.Errorf("expected (start, middle) to be counted across the line break, got %d", got)
	}
	if got := table.Frequency(Word("end"), b); got != 1 {
		t.Errorf("expected (end, Boundary) to be counted once, got %d", got)
	}
	if got := table.Frequency(Word("start"), b); got != 0 {
		t.Errorf("expected no boundary after start, got %d", got)
	}
	if got := table.Frequency(b, Word("middle")); got != 0 {
		t.Errorf("expected no boundary before middle, got %d", got)
	}
	if got := table.Frequency(b, Word("start")); got != 1 {
		t.Errorf("expected the chain to start at Boundary, got %d", got)
	}
}

func TestTrainLineEndingsDoNotCarry(t *testing.T) {
	table := trainTable(t, "start\nmiddle end.", LineEndings)
	b := Boundary()

	if got := table.Frequency(Word("start"), Word("middle")); got != 0 {
		t.Errorf("expected no transition across the line break, got %d", got)
	}
	if got := table.Frequency(Word("start"), b); got != 1 {
		t.Errorf("expected (start, Boundary), got %d", got)
	}
	if got := table.Frequency(b, Word("middle")); got != 1 {
		t.Errorf("expected (Boundary, middle), got %d", got)
	}
	if got := table.Frequency(Word("."), b); got != 1 {
		t.Errorf("expected (., Boundary), got %d", got)
	}
}

func TestTrainSkipsUnreadableLines(t *testing.T) {
	src := &sliceLines{
		lines: []string{"start", "", "middle end."},
		errs:  []error{nil, fmt.Errorf("line 2: %w", ErrUnreadableLine), nil},
	}
	table := NewTable()

	stats, err := NewTrainer(SentenceEndings).Train(context.Background(), src, table)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	if stats.Lines != 2 || stats.SkippedLines != 1 {
		t.Errorf("expected 2 lines read and 1 skipped, got %+v", stats)
	}
	if got := table.Frequency(Word("start"), Word("middle")); got != 1 {
		t.Errorf("expected the carry to survive the skipped line, got %d", got)
	}
}

func TestTrainReadFailure(t *testing.T) {
	errDisk := errors.New("disk on fire")
	src := &sliceLines{
		lines: []string{"one two", "three"},
		errs:  []error{nil, errDisk},
	}
	table := NewTable()

	stats, err := NewTrainer(LineEndings).Train(context.Background(), src, table)
	if !errors.Is(err, errDisk) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
	if stats.Lines != 1 {
		t.Errorf("expected 1 line processed before the failure, got %d", stats.Lines)
	}
	if table.Frequency(Word("one"), Word("two")) != 1 {
		t.Error("expected counts from before the failure to be kept")
	}
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTrainer(LineEndings).Train(ctx, NewLineReader(strings.NewReader("a b c")), NewTable())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type recordingTokenizer struct {
	lines []string
}

func (r *recordingTokenizer) Tokenize(line string) []Token {
	r.lines = append(r.lines, line)
	return []Token{Word(strings.ToUpper(line))}
}

func TestTrainWithTokenizer(t *testing.T) {
	rec := &recordingTokenizer{}
	table := NewTable()
	trainer := NewTrainer(SentenceEndings, WithTokenizer(rec))

	stats, err := trainer.Train(context.Background(), NewLineReader(strings.NewReader("a\nb\n")), table)
	if err != nil {
		t.Fatalf("Train() failed: %v", err)
	}
	if len(rec.lines) != 2 || stats.Tokens != 2 || stats.Transitions != 2 {
		t.Errorf("unexpected tokenizer calls %v / stats %+v", rec.lines, stats)
	}
	if table.Frequency(Word("A"), Word("B")) != 1 {
		t.Error("expected custom tokenizer output to be counted")
	}
}

func BenchmarkTrain(b *testing.B) {
	corpus := createBenchmarkCorpus()
	ctx := context.Background()

	for _, mode := range []BoundaryMode{LineEndings, SentenceEndings} {
		b.Run(mode.String(), func(b *testing.B) {
			b.SetBytes(int64(len(corpus)))
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := Train(ctx, NewLineReader(strings.NewReader(corpus)), mode); err != nil {
					b.Fatalf("Train() failed: %v", err)
				}
			}
		})
	}
}

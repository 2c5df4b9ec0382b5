/*
Package markov builds a first-order Markov chain over the words of a text
corpus and generates new text by randomly walking it.

Training reads a corpus line by line, tokenizes each line into words and
Boundary markers, and counts every adjacent pair of tokens in a Table (or,
for large corpora, an SQLTable scratch store). A BoundaryMode decides where
boundaries go: around every line, or only after sentence-ending
punctuation.

	table, err := markov.Train(ctx, markov.NewLineReader(os.Stdin), markov.SentenceEndings)
	if err != nil {
		return err
	}
	g := markov.NewGenerator(table, markov.SentenceEndings)
	fmt.Println(markov.Join(g.Generate(ctx, 100)))

A Generator draws each next word with probability proportional to how often
it followed the previous one in training, and stops at a dead end, at the
first boundary, or at the caller's limit. Temperature and top-K sampling are
available as options.
*/
package markov

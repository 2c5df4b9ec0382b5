package markov

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// boundaryTokenID is the reserved ID for the Boundary token. It never
// appears in markov_vocabulary, so no word text can collide with it.
const boundaryTokenID = 0

// SetupSchema initializes the tables used by SQLTable in the provided
// database. It is idempotent and safe to call on an already-initialized
// database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaVocab = `
CREATE TABLE IF NOT EXISTS markov_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS markov_transitions (
    from_id INTEGER NOT NULL,
    to_id INTEGER NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (from_id, to_id)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing. If it fails, this will clean up.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaVocab); err != nil {
		return fmt.Errorf("could not create vocabulary schema: %w", err)
	}

	if _, err = tx.Exec(schemaTransitions); err != nil {
		return fmt.Errorf("could not create transitions schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// SQLTable is a transition model stored in a SQLite database instead of the
// Go heap. It holds prepared statements for efficient database interaction
// and caches token IDs seen during training.
//
// Like Table, it is not safe for concurrent use.
type SQLTable struct {
	db                *sql.DB
	stmtInsertVocab   *sql.Stmt
	stmtGetTokenText  *sql.Stmt
	stmtInsertLink    *sql.Stmt
	stmtGetChain      *sql.Stmt
	stmtGetSources    *sql.Stmt
	stmtCountSources  *sql.Stmt
	stmtCountLinks    *sql.Stmt
	stmtTotalFreq     *sql.Stmt
	stmtCountStarters *sql.Stmt
	stmtGetVocabLen   *sql.Stmt
	idCache           map[string]int64
	textCache         map[int64]string
	logger            *slog.Logger
}

// NewSQLTable creates and returns a new SQLTable over db, which must have
// been initialized with SetupSchema. It pre-compiles all necessary SQL
// statements, returning an error if any preparation fails.
func NewSQLTable(db *sql.DB) (*SQLTable, error) {
	s := &SQLTable{
		db:        db,
		idCache:   make(map[string]int64),
		textCache: make(map[int64]string),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	statements := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtInsertVocab, `INSERT INTO markov_vocabulary (token_text) VALUES (?) ON CONFLICT(token_text) DO UPDATE SET token_text=excluded.token_text RETURNING token_id;`},
		{&s.stmtGetTokenText, `SELECT token_text FROM markov_vocabulary WHERE token_id = ?;`},
		{&s.stmtInsertLink, `INSERT INTO markov_transitions (from_id, to_id, frequency) VALUES (?, ?, 1) ON CONFLICT(from_id, to_id) DO UPDATE SET frequency = frequency + 1;`},
		{&s.stmtGetChain, `SELECT to_id, frequency FROM markov_transitions WHERE from_id = ? AND frequency > 0;`},
		{&s.stmtGetSources, `SELECT DISTINCT from_id FROM markov_transitions;`},
		{&s.stmtCountSources, `SELECT COUNT(DISTINCT from_id) FROM markov_transitions;`},
		{&s.stmtCountLinks, `SELECT COUNT(*) FROM markov_transitions;`},
		{&s.stmtTotalFreq, `SELECT coalesce(SUM(frequency), 0) FROM markov_transitions;`},
		{&s.stmtCountStarters, `SELECT COUNT(*) FROM markov_transitions WHERE from_id = ?;`},
		{&s.stmtGetVocabLen, `SELECT COUNT(*) FROM markov_vocabulary;`},
	}

	for _, st := range statements {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		*st.dst = stmt
	}

	return s, nil
}

// Close releases all prepared SQL statements held by the SQLTable. It does
// not close the database.
func (s *SQLTable) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtInsertVocab,
		s.stmtGetTokenText,
		s.stmtInsertLink,
		s.stmtGetChain,
		s.stmtGetSources,
		s.stmtCountSources,
		s.stmtCountLinks,
		s.stmtTotalFreq,
		s.stmtCountStarters,
		s.stmtGetVocabLen,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the SQLTable. By default, all logs are discarded.
func (s *SQLTable) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Observe implements Counter. A Boundary followed by a Boundary is ignored.
func (s *SQLTable) Observe(ctx context.Context, from, to Token) error {
	if from.boundary && to.boundary {
		return nil
	}
	fromID, err := s.tokenID(ctx, from)
	if err != nil {
		return err
	}
	toID, err := s.tokenID(ctx, to)
	if err != nil {
		return err
	}
	if _, err = s.stmtInsertLink.ExecContext(ctx, fromID, toID); err != nil {
		return fmt.Errorf("failed to insert transition (%d -> %d): %w", fromID, toID, err)
	}
	return nil
}

// NextTokens implements Chain.
func (s *SQLTable) NextTokens(ctx context.Context, from Token) ([]ChainToken, uint64, error) {
	fromID, known, err := s.lookupID(ctx, from)
	if err != nil || !known {
		return nil, 0, err
	}

	rows, err := s.stmtGetChain.QueryContext(ctx, fromID)
	if err != nil {
		return nil, 0, err
	}

	type link struct {
		toID int64
		freq uint32
	}
	var links []link
	for rows.Next() {
		var l link
		if err = rows.Scan(&l.toID, &l.freq); err != nil {
			_ = rows.Close()
			return nil, 0, err
		}
		links = append(links, l)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	// Token text is resolved after the rows are closed so this works on a
	// single-connection pool.
	tokens := make([]ChainToken, 0, len(links))
	var total uint64
	for _, l := range links {
		tok, err := s.token(ctx, l.toID)
		if err != nil {
			return nil, 0, err
		}
		tokens = append(tokens, ChainToken{Token: tok, Freq: l.freq})
		total += uint64(l.freq)
	}
	sortChainTokens(tokens)

	return tokens, total, nil
}

// Sources implements Chain.
func (s *SQLTable) Sources(ctx context.Context) ([]Token, error) {
	rows, err := s.stmtGetSources.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	sources := make([]Token, 0, len(ids))
	for _, id := range ids {
		tok, err := s.token(ctx, id)
		if err != nil {
			return nil, err
		}
		sources = append(sources, tok)
	}
	sortTokens(sources)

	return sources, nil
}

// Stats returns a snapshot of statistics for the stored model.
func (s *SQLTable) Stats(ctx context.Context) (ModelStats, error) {
	var stats ModelStats
	if err := s.stmtCountSources.QueryRowContext(ctx).Scan(&stats.Sources); err != nil {
		return stats, err
	}
	if err := s.stmtCountLinks.QueryRowContext(ctx).Scan(&stats.Transitions); err != nil {
		return stats, err
	}
	var total int64
	if err := s.stmtTotalFreq.QueryRowContext(ctx).Scan(&total); err != nil {
		return stats, err
	}
	stats.TotalFrequency = uint64(total)
	if err := s.stmtCountStarters.QueryRowContext(ctx, boundaryTokenID).Scan(&stats.StartingTokens); err != nil {
		return stats, err
	}
	if err := s.stmtGetVocabLen.QueryRowContext(ctx).Scan(&stats.VocabSize); err != nil {
		return stats, err
	}
	return stats, nil
}

// tokenID returns the ID for tok, inserting it into the vocabulary if needed.
func (s *SQLTable) tokenID(ctx context.Context, tok Token) (int64, error) {
	if tok.boundary {
		return boundaryTokenID, nil
	}
	if id, ok := s.idCache[tok.text]; ok {
		return id, nil
	}
	var id int64
	if err := s.stmtInsertVocab.QueryRowContext(ctx, tok.text).Scan(&id); err != nil {
		return 0, fmt.Errorf("sql insert vocabulary error for token '%s': %w", tok.text, err)
	}
	s.idCache[tok.text] = id
	s.textCache[id] = tok.text
	return id, nil
}

// lookupID returns the ID for tok without inserting it.
func (s *SQLTable) lookupID(ctx context.Context, tok Token) (int64, bool, error) {
	if tok.boundary {
		return boundaryTokenID, true, nil
	}
	if id, ok := s.idCache[tok.text]; ok {
		return id, true, nil
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT token_id FROM markov_vocabulary WHERE token_text = ?;`, tok.text).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// This token has never been seen before, so there are no possible next tokens.
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("could not get token ID for '%s': %w", tok.text, err)
	}
	s.idCache[tok.text] = id
	s.textCache[id] = tok.text
	return id, true, nil
}

// token resolves an ID back to its Token.
func (s *SQLTable) token(ctx context.Context, id int64) (Token, error) {
	if id == boundaryTokenID {
		return Boundary(), nil
	}
	if text, ok := s.textCache[id]; ok {
		return Word(text), nil
	}
	var text string
	if err := s.stmtGetTokenText.QueryRowContext(ctx, id).Scan(&text); err != nil {
		return Token{}, fmt.Errorf("could not get text for token %d: %w", id, err)
	}
	s.textCache[id] = text
	s.idCache[text] = id
	return Word(text), nil
}

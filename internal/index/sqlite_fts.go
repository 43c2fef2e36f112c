package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	maarerrors "github.com/abdobzx/maar/internal/errors"
	"github.com/abdobzx/maar/internal/store"
)

// SQLiteFTS implements LexicalIndex on top of SQLite FTS5. The virtual
// table holds pre-tokenized content so ranking sees the same terms as the
// in-memory backend. FTS5's bm25() ranking uses the Okapi formula with its
// own default parameters, so absolute scores differ from MemoryBM25 while
// relative ordering stays comparable.
//
// The index is derived state and rebuilt from the chunk store, so it lives
// in an in-memory database rather than on disk.
type SQLiteFTS struct {
	mu     sync.RWMutex
	db     *sql.DB
	chunks []*store.Chunk // aligned to rowid-1
	closed bool
}

var _ LexicalIndex = (*SQLiteFTS)(nil)

// NewSQLiteFTS creates an empty FTS5-backed lexical index.
func NewSQLiteFTS() (*SQLiteFTS, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Probe FTS5 availability up front so the factory can fall back
	if _, err := db.Exec(`CREATE VIRTUAL TABLE fts_probe USING fts5(content)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fts5 unavailable: %w", err)
	}
	if _, err := db.Exec(`DROP TABLE fts_probe`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to drop probe table: %w", err)
	}

	return &SQLiteFTS{db: db}, nil
}

// BuildIndex replaces the FTS table with the tokenized corpus.
// Row i+1 in the table corresponds to chunks[i].
func (f *SQLiteFTS) BuildIndex(ctx context.Context, chunks []*store.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return maarerrors.IndexNotReady("fts index is closed")
	}

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS lexical`); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE VIRTUAL TABLE lexical USING fts5(content)`); err != nil {
		return fmt.Errorf("failed to create fts table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lexical (rowid, content) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if c == nil {
			return fmt.Errorf("nil chunk at position %d", i)
		}
		tokenized := strings.Join(Tokenize(c.Content), " ")
		if _, err := stmt.ExecContext(ctx, i+1, tokenized); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	corpus := make([]*store.Chunk, len(chunks))
	copy(corpus, chunks)
	f.chunks = corpus

	return nil
}

// Search matches any query token and ranks by FTS5's bm25() function.
// bm25() reports lower-is-better negative values; scores are negated so
// higher is more relevant, consistent with the other backends.
func (f *SQLiteFTS) Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error) {
	tokens := Tokenize(query)

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, maarerrors.IndexNotReady("fts index is closed")
	}
	if len(tokens) == 0 || len(f.chunks) == 0 {
		return []*LexicalResult{}, nil
	}

	// Tokens contain only word characters, safe to join into a match query
	match := strings.Join(tokens, " OR ")

	rows, err := f.db.QueryContext(ctx, `
		SELECT rowid, bm25(lexical)
		FROM lexical
		WHERE lexical MATCH ?
		ORDER BY bm25(lexical), rowid
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search failed: %w", err)
	}
	defer rows.Close()

	results := make([]*LexicalResult, 0, limit)
	for rows.Next() {
		var rowid int
		var rank float64
		if err := rows.Scan(&rowid, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if rowid < 1 || rowid > len(f.chunks) {
			continue
		}
		results = append(results, &LexicalResult{
			Chunk: f.chunks[rowid-1],
			Score: -rank,
		})
	}

	return results, rows.Err()
}

// Stats reports index size information.
func (f *SQLiteFTS) Stats() *IndexStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return &IndexStats{
		Backend:       "sqlite",
		DocumentCount: len(f.chunks),
	}
}

// Close closes the underlying database. Idempotent.
func (f *SQLiteFTS) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true
	f.chunks = nil
	return f.db.Close()
}

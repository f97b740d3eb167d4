package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
	"github.com/cognicore/keyphrase/pkg/keyphrase/similarity"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures the SQLite store.
type Option func(*sqliteStore)

// WithLogger sets the logger used for skipped rows.
func WithLogger(logger *slog.Logger) Option {
	return func(s *sqliteStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// documents table if needed.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (store.Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &sqliteStore{
		db:     db,
		logger: slog.Default().With("component", "store", "backend", "sqlite"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	keywords TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_label ON documents(label);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Add inserts a document and returns its id.
func (s *sqliteStore) Add(ctx context.Context, keywords []string, label string) (int64, error) {
	encoded, err := encodeKeywords(keywords)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO documents (keywords, label) VALUES (?, ?) RETURNING id`,
		encoded, label,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// Get retrieves a document by ID
func (s *sqliteStore) Get(ctx context.Context, id int64) (store.Document, bool, error) {
	var raw, label string
	err := s.db.QueryRowContext(ctx, `SELECT keywords, label FROM documents WHERE id = ?`, id).Scan(&raw, &label)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, false, nil
	}
	if err != nil {
		return store.Document{}, false, err
	}

	var keywords []string
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		return store.Document{}, false, fmt.Errorf("document %d: malformed keywords: %w", id, err)
	}
	return store.Document{ID: id, Keywords: keywords, Label: label}, true, nil
}

// All returns every document in id order.
func (s *sqliteStore) All(ctx context.Context) ([]store.Document, error) {
	return s.queryDocs(ctx, `SELECT id, keywords, label FROM documents ORDER BY id`)
}

// queryDocs runs a query returning (id, keywords, label) rows. Rows whose
// keywords do not decode are skipped.
func (s *sqliteStore) queryDocs(ctx context.Context, query string, args ...any) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var (
			id         int64
			raw, label string
		)
		if err := rows.Scan(&id, &raw, &label); err != nil {
			return nil, err
		}
		var keywords []string
		if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
			s.logger.Warn("skipping document with malformed keywords", "id", id, "err", err)
			continue
		}
		docs = append(docs, store.Document{ID: id, Keywords: keywords, Label: label})
	}
	return docs, rows.Err()
}

// SearchByKeyword returns documents whose keyword list contains keyword.
func (s *sqliteStore) SearchByKeyword(ctx context.Context, keyword string) ([]store.Document, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.Document
	for _, d := range docs {
		if store.HasKeyword(d.Keywords, keyword) {
			out = append(out, d)
		}
	}
	return out, nil
}

// SearchBySimilarity scores every document against query.
func (s *sqliteStore) SearchBySimilarity(ctx context.Context, query []string, threshold float64, scorer similarity.Scorer) ([]store.ScoredDocument, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return store.ScoreDocuments(ctx, docs, query, threshold, scorer), nil
}

// SearchByFuzzy returns documents sharing at least minMatches keywords with
// query.
func (s *sqliteStore) SearchByFuzzy(ctx context.Context, query []string, minMatches int) ([]store.MatchedDocument, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return store.MatchDocuments(docs, query, minMatches), nil
}

// SearchByLabel returns documents whose label equals label, or contains it
// when exact is false.
func (s *sqliteStore) SearchByLabel(ctx context.Context, label string, exact bool) ([]store.Document, error) {
	if exact {
		return s.queryDocs(ctx, `SELECT id, keywords, label FROM documents WHERE label = ? ORDER BY id`, label)
	}
	// instr is case-sensitive, unlike LIKE.
	return s.queryDocs(ctx, `SELECT id, keywords, label FROM documents WHERE instr(label, ?) > 0 ORDER BY id`, label)
}

// Update changes the keywords and/or the label of a document.
func (s *sqliteStore) Update(ctx context.Context, id int64, keywords []string, label *string) (bool, error) {
	if keywords == nil && label == nil {
		return false, nil
	}

	var (
		sets []string
		args []any
	)
	if keywords != nil {
		encoded, err := encodeKeywords(keywords)
		if err != nil {
			return false, err
		}
		sets = append(sets, "keywords = ?")
		args = append(args, encoded)
	}
	if label != nil {
		sets = append(sets, "label = ?")
		args = append(args, *label)
	}
	args = append(args, id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE documents SET %s WHERE id = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

// Delete removes a document.
func (s *sqliteStore) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

// KeywordStats counts keyword occurrences across all documents.
func (s *sqliteStore) KeywordStats(ctx context.Context) ([]store.KeywordCount, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return store.CountKeywords(docs), nil
}

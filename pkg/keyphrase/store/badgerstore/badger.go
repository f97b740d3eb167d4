// Package badgerstore implements store.Store on BadgerDB.
//
// Documents are JSON values under "doc/<zero-padded id>" keys so that a
// prefix scan returns them in id order. Ids come from a badger sequence.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
	"github.com/cognicore/keyphrase/pkg/keyphrase/similarity"
	"github.com/cognicore/keyphrase/pkg/keyphrase/store"
)

const (
	docPrefix         = "doc/"
	docIDSeq          = "seq/doc"
	sequenceBandwidth = 100
)

func docKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", docPrefix, id))
}

func parseDocKey(key []byte) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(string(key), docPrefix), 10, 64)
}

// record is the stored value of a document.
type record struct {
	Keywords []string `json:"keywords"`
	Label    string   `json:"label"`
}

// Store is a BadgerDB-backed document store.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

type settings struct {
	inMemory bool
	logger   *slog.Logger
}

// Option configures Open.
type Option func(*settings)

// InMemory keeps the database in memory; the path is ignored.
func InMemory() Option {
	return func(s *settings) { s.inMemory = true }
}

// WithLogger sets the logger for the store and for badger itself.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (l *badgerLogger) Warningf(msg string, items ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (l *badgerLogger) Infof(msg string, items ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (l *badgerLogger) Debugf(msg string, items ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

// Open opens or creates a database in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	cfg := settings{logger: slog.Default().With("component", "store", "backend", "badger")}
	for _, opt := range opts {
		opt(&cfg)
	}

	var bopts badger.Options
	if cfg.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("badger dir %s: %w: %v", dir, internalerr.ErrStoreUnavailable, err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts.Logger = &badgerLogger{logger: cfg.logger}
	bopts.Compression = options.None

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w: %v", dir, internalerr.ErrStoreUnavailable, err)
	}
	seq, err := db.GetSequence([]byte(docIDSeq), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, seq: seq, logger: cfg.logger}, nil
}

// Close releases the id sequence and closes the database.
func (s *Store) Close() error {
	return errors.Join(s.seq.Release(), s.db.Close())
}

func (s *Store) nextID() (int64, error) {
	id, err := s.seq.Next()
	if err != nil {
		return 0, err
	}
	// Sequences start at 0; ids start at 1.
	if id == 0 {
		if id, err = s.seq.Next(); err != nil {
			return 0, err
		}
	}
	return int64(id), nil
}

func putRecord(txn *badger.Txn, id int64, rec record) error {
	if rec.Keywords == nil {
		rec.Keywords = []string{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(docKey(id), data)
}

// getRecord reads one document; ok is false when it does not exist.
func getRecord(txn *badger.Txn, id int64) (rec record, ok bool, err error) {
	item, err := txn.Get(docKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return record{}, false, nil
	}
	if err != nil {
		return record{}, false, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return record{}, false, fmt.Errorf("document %d: malformed record: %w", id, err)
	}
	return rec, true, nil
}

// Add inserts a document and returns its id.
func (s *Store) Add(ctx context.Context, keywords []string, label string) (int64, error) {
	id, err := s.nextID()
	if err != nil {
		return 0, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return putRecord(txn, id, record{Keywords: keywords, Label: label})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get retrieves a document by ID.
func (s *Store) Get(ctx context.Context, id int64) (store.Document, bool, error) {
	var (
		rec record
		ok  bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, ok, err = getRecord(txn, id)
		return err
	})
	if err != nil || !ok {
		return store.Document{}, false, err
	}
	return store.Document{ID: id, Keywords: rec.Keywords, Label: rec.Label}, true, nil
}

// All returns every document in id order. Malformed records are skipped.
func (s *Store) All(ctx context.Context) ([]store.Document, error) {
	var docs []store.Document
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id, err := parseDocKey(item.Key())
			if err != nil {
				s.logger.Warn("skipping malformed key", "key", string(item.Key()), "err", err)
				continue
			}
			var rec record
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
				s.logger.Warn("skipping document with malformed record", "id", id, "err", err)
				continue
			}
			docs = append(docs, store.Document{ID: id, Keywords: rec.Keywords, Label: rec.Label})
		}
		return nil
	})
	return docs, err
}

// SearchByKeyword returns documents whose keyword list contains keyword.
func (s *Store) SearchByKeyword(ctx context.Context, keyword string) ([]store.Document, error) {
	return s.filter(ctx, func(d store.Document) bool {
		return store.HasKeyword(d.Keywords, keyword)
	})
}

// SearchBySimilarity scores every document against query.
func (s *Store) SearchBySimilarity(ctx context.Context, query []string, threshold float64, scorer similarity.Scorer) ([]store.ScoredDocument, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return store.ScoreDocuments(ctx, docs, query, threshold, scorer), nil
}

// SearchByFuzzy returns documents sharing at least minMatches keywords with
// query.
func (s *Store) SearchByFuzzy(ctx context.Context, query []string, minMatches int) ([]store.MatchedDocument, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return store.MatchDocuments(docs, query, minMatches), nil
}

// SearchByLabel returns documents whose label equals label, or contains it
// when exact is false.
func (s *Store) SearchByLabel(ctx context.Context, label string, exact bool) ([]store.Document, error) {
	return s.filter(ctx, func(d store.Document) bool {
		return store.LabelMatches(d.Label, label, exact)
	})
}

func (s *Store) filter(ctx context.Context, keep func(store.Document) bool) ([]store.Document, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.Document
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Update changes the keywords and/or the label of a document.
func (s *Store) Update(ctx context.Context, id int64, keywords []string, label *string) (bool, error) {
	if keywords == nil && label == nil {
		return false, nil
	}

	var found bool
	err := s.db.Update(func(txn *badger.Txn) error {
		rec, ok, err := getRecord(txn, id)
		if err != nil || !ok {
			return err
		}
		found = true
		if keywords != nil {
			rec.Keywords = keywords
		}
		if label != nil {
			rec.Label = *label
		}
		return putRecord(txn, id, rec)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(docKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return txn.Delete(docKey(id))
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// KeywordStats counts keyword occurrences across all documents.
func (s *Store) KeywordStats(ctx context.Context) ([]store.KeywordCount, error) {
	docs, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return store.CountKeywords(docs), nil
}

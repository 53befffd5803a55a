package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"modmigrate/pkg/logger"
	"modmigrate/pkg/models"
)

const logKeyPrefix = "log:"

// PebbleStore is a Store backed by a local Pebble database.
type PebbleStore struct {
	db   *pebble.DB
	path string
}

// OpenPebble opens (or creates) the document database at path.
func OpenPebble(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("open document store %s: %w", path, err)
	}
	logger.Info("pebble_opened", "path", path)
	return &PebbleStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *PebbleStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Insert persists one document under its key. The key is the document's
// public identifier; colliding with an existing key is an error, never an
// overwrite.
func (s *PebbleStore) Insert(ctx context.Context, doc models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Key == "" {
		return fmt.Errorf("document has no key")
	}
	key := []byte(logKeyPrefix + doc.Key)

	if _, closer, err := s.db.Get(key); err == nil {
		closer.Close()
		insertFailures.Inc()
		return fmt.Errorf("%w: %s", ErrDuplicateKey, doc.Key)
	} else if !errors.Is(err, pebble.ErrNotFound) {
		insertFailures.Inc()
		return fmt.Errorf("check document key %s: %w", doc.Key, err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		insertFailures.Inc()
		return fmt.Errorf("marshal document %s: %w", doc.Key, err)
	}
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		insertFailures.Inc()
		logger.Error("document_insert_failed", "key", doc.Key, "error", err)
		return fmt.Errorf("insert document %s: %w", doc.Key, err)
	}
	documentsInserted.Inc()
	logger.Debug("document_inserted", "key", doc.Key)
	return nil
}

// Get loads one document by key.
func (s *PebbleStore) Get(ctx context.Context, key string) (models.Document, error) {
	if err := ctx.Err(); err != nil {
		return models.Document{}, err
	}
	data, closer, err := s.db.Get([]byte(logKeyPrefix + key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return models.Document{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return models.Document{}, fmt.Errorf("get document %s: %w", key, err)
	}
	defer closer.Close()
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Document{}, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc, nil
}

// Count returns the number of stored documents.
func (s *PebbleStore) Count() (int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(logKeyPrefix),
		UpperBound: []byte(logKeyPrefix + "\xff"),
	})
	if err != nil {
		return 0, fmt.Errorf("iterate documents: %w", err)
	}
	defer iter.Close()
	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}

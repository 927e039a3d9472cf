// Package history records packaging and reconciliation runs in a local
// Badger store so operators can audit what each run staged and deleted.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Operation identifies the kind of run a record describes.
type Operation string

const (
	// OpGenerate is a patch packaging run.
	OpGenerate Operation = "generate"

	// OpReconcile is a tree reconciliation run.
	OpReconcile Operation = "reconcile"
)

// Record is one completed run.
type Record struct {
	ID           string        `json:"id"`
	Time         time.Time     `json:"time"`
	Operation    Operation     `json:"operation"`
	FilesStaged  int           `json:"files_staged,omitempty"`
	FilesDeleted int           `json:"files_deleted"`
	BytesStaged  uint64        `json:"bytes_staged,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

// ErrNotFound is returned when a record doesn't exist.
var ErrNotFound = errors.New("history record not found")

// Store wraps Badger for run-history operations.
type Store struct {
	db *badger.DB
}

// Open opens or creates a history store at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores a new record. A zero ID or Time is filled in.
func (s *Store) Append(rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encoding history record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(rec), value)
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns records sorted newest first. If limit is 0 or negative, all
// records are returned.
func (s *Store) List(limit int) ([]Record, error) {
	var records []Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					// Skip records that can't be parsed
					return nil
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.After(records[j].Time)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(id string) (Record, error) {
	records, err := s.List(0)
	if err != nil {
		return Record{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// makeKey builds a time-ordered key so iteration roughly follows run order.
func makeKey(rec Record) []byte {
	return []byte(rec.Time.UTC().Format(time.RFC3339Nano) + "/" + rec.ID)
}

// Package ledger keeps a local record of the last upload to every destination.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound indicates no upload was recorded for a destination.
var ErrNotFound = errors.New("not found")

const keyPrefix = "upload/"

// Record is one completed upload.
type Record struct {
	Destination string    `json:"destination"`
	Source      string    `json:"source"`
	Bytes       int64     `json:"bytes"`
	RunLabel    string    `json:"run_label,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type Ledger struct {
	db *badger.DB
}

// Open opens (or creates) a ledger in dir. An empty dir keeps it in memory.
func Open(dir string) (*Ledger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

func key(destination string) []byte {
	return []byte(keyPrefix + path.Clean(destination))
}

// Put stores r, replacing any previous record for the same destination.
// Destinations naming the same file share one record.
func (l *Ledger) Put(r Record) error {
	r.Destination = path.Clean(r.Destination)
	if r.UploadedAt.IsZero() {
		r.UploadedAt = time.Now().UTC()
	}
	v, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(r.Destination), v)
	})
}

func (l *Ledger) Get(destination string) (Record, error) {
	var r Record
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(destination))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &r) })
	})
	return r, err
}

// List returns every record ordered by destination.
func (l *Ledger) List() ([]Record, error) {
	var out []Record
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var r Record
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &r) }); err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

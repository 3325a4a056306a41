// Package storage keeps an append-only journal of served predictions.
// It uses BoltDB as the underlying storage engine; entries are keyed by
// timestamp so that recent-first listing and time-range queries are cursor
// scans.
//
// The journal is optional. Writes happen after the response value is known and
// never influence it.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const (
	predictionsBucket = "predictions" // Bucket name for journal entries
	dbFileName        = "predictions.db"
)

// Entry is one served prediction.
type Entry struct {
	ID             string                 `json:"id"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	Features       map[string]interface{} `json:"features"`
	PredictedPrice float64                `json:"predicted_price"`
	ModelVersion   string                 `json:"model_version,omitempty"`
	Cached         bool                   `json:"cached,omitempty"`
}

// Store provides persistent storage for the prediction journal.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) predictions.db under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, dbFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append stores e, filling in ID and Timestamp when unset. The stored entry
// is returned.
func (s *Store) Append(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal entry: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		return b.Put(entryKey(e.Timestamp, e.ID), data)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("store entry: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	entries := []Entry{}
	if limit <= 0 {
		return entries, nil
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue // Skip malformed records
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Range returns the entries with start <= timestamp <= end, oldest first.
func (s *Store) Range(start, end time.Time) ([]Entry, error) {
	entries := []Entry{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		startKey := timePrefix(start)
		endKey := timePrefix(end.Add(time.Nanosecond))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) < 0; k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

// Keys sort by time: a fixed-width nanosecond timestamp, then the entry ID
// to keep same-instant entries distinct.
func entryKey(ts time.Time, id string) []byte {
	return append(timePrefix(ts), []byte("_"+id)...)
}

func timePrefix(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", ts.UnixNano()))
}

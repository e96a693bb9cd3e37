// Package history keeps past transcriptions in a local badger store.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrEmpty = errors.New("history is empty")

var prefix = []byte("tx/")

type Entry struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Raw      string        `json:"raw,omitempty"` // before refinement
	Language string        `json:"language"`
	Engine   string        `json:"engine"`
	Audio    time.Duration `json:"audio_ns"`
	At       time.Time     `json:"at"`
}

type Store struct {
	db         *badger.DB
	maxEntries int
}

// Open opens or creates the store in dir. maxEntries <= 0 keeps
// everything.
func Open(dir string, maxEntries int, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{logger})
	return open(opts, maxEntries)
}

func OpenInMemory(maxEntries int) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return open(opts, maxEntries)
}

func open(opts badger.Options, maxEntries int) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return &Store{db: db, maxEntries: maxEntries}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores e under a fresh time-ordered key and trims the oldest
// entries past the limit.
func (s *Store) Add(e Entry) (Entry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Entry{}, err
	}
	e.ID = id.String()
	if e.At.IsZero() {
		e.At = time.Now()
	}
	val, err := json.Marshal(e)
	if err != nil {
		return Entry{}, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e.ID), val)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("add history: %w", err)
	}
	if s.maxEntries > 0 {
		if err := s.trim(); err != nil {
			return e, err
		}
	}
	return e, nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.Valid() && len(out) < n; it.Next() {
			var e Entry
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &e)
			})
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return out, nil
}

func (s *Store) Last() (Entry, error) {
	entries, err := s.Recent(1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return entries[0], nil
}

func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (s *Store) trim() error {
	n, err := s.Count()
	if err != nil || n <= s.maxEntries {
		return err
	}
	excess := n - s.maxEntries
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var stale [][]byte
		for it.Rewind(); it.Valid() && len(stale) < excess; it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func key(id string) []byte {
	return append(append([]byte{}, prefix...), id...)
}

// badgerLogger routes badger's chatter into the diagnostics log.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error().Str("component", "badger").Msgf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn().Str("component", "badger").Msgf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug().Str("component", "badger").Msgf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug().Str("component", "badger").Msgf(format, args...)
}

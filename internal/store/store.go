// Package store persists records in a bbolt database, JSON-encoded with the
// ugorji codec.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ugorji/go/codec"
	"go.etcd.io/bbolt"
)

var (
	ErrNotFound = errors.New("store: record not found")
	ErrEmptyID  = errors.New("store: empty id")
)

var jh codec.JsonHandle

// Identifiable records return their unique key.
type Identifiable interface {
	ID() string
}

// DB is an open database file.
type DB struct {
	bolt *bbolt.DB
}

// Open creates dir if needed and opens dir/boa.bbolt.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, "boa.bbolt")
	b, err := bbolt.Open(path, 0o666, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DB{bolt: b}, nil
}

// Close releases the database file.
func (db *DB) Close() error { return db.bolt.Close() }

// Dump writes every bucket as a JSON object keyed by bucket name and then
// by record id.
func (db *DB) Dump(w io.Writer) error {
	return db.bolt.View(func(tx *bbolt.Tx) error {
		if _, err := io.WriteString(w, "{"); err != nil {
			return err
		}
		first := true
		err := tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			sep := ","
			if first {
				sep, first = "", false
			}
			key, err := jsonString(name)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n  %s: {", sep, key); err != nil {
				return err
			}
			firstRecord := true
			c := b.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				sep := ","
				if firstRecord {
					sep, firstRecord = "", false
				}
				key, err := jsonString(k)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(w, "%s\n    %s: %s", sep, key, v); err != nil {
					return err
				}
			}
			_, err = io.WriteString(w, "\n  }")
			return err
		})
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, "\n}\n")
		return err
	})
}

// jsonString encodes b as a JSON string literal.
func jsonString(b []byte) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, &jh).Encode(string(b)); err != nil {
		return nil, err
	}
	return out, nil
}

// Store is a typed view of one bucket.
type Store[T Identifiable] struct {
	db     *bbolt.DB
	bucket []byte
}

// Bucket returns the store for records of type T kept in bucket name.
func Bucket[T Identifiable](db *DB, name string) *Store[T] {
	return &Store[T]{db: db.bolt, bucket: []byte(name)}
}

// Put inserts or replaces v under v.ID().
func (s *Store[T]) Put(v T) error {
	id := v.ID()
	if id == "" {
		return ErrEmptyID
	}
	var data []byte
	if err := codec.NewEncoderBytes(&data, &jh).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
}

// Get loads the record stored under id.
func (s *Store[T]) Get(id string) (T, error) {
	var out T
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(id)); v != nil {
			// Values are only valid for the life of the transaction.
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return out, err
	}
	if data == nil {
		return out, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err := codec.NewDecoderBytes(data, &jh).Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s: %w", id, err)
	}
	return out, nil
}

// Delete removes the record stored under id.
func (s *Store[T]) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil || b.Get([]byte(id)) == nil {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
}

// List returns every record in key order.
func (s *Store[T]) List() ([]T, error) {
	var result []T
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		result = make([]T, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			var rec T
			if err := codec.NewDecoderBytes(v, &jh).Decode(&rec); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			result = append(result, rec)
			return nil
		})
	})
	return result, err
}

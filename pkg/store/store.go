// Package store provides the persistent command history store, backed by a
// bolt database file.
package store

import (
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store gives access to the command history kept in a bolt database file.
// A database file belongs to one process at a time; the file lock makes a
// second opener wait and then fail.
type Store struct {
	db *bolt.DB
}

// NewStore opens the database file at path, creating the file and the
// buckets Kelp uses if they do not exist yet.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCmd))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db}, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

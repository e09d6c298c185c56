package storage

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// boltBucket is the single bucket all CLI state lives in.
var boltBucket = []byte("studentdesk")

// Bolt is a file-backed Store used by studentctl. One file holds the state of
// one local user, the same way a browser's local storage belongs to one profile.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt file %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the file lock.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Get returns the value for key or ErrNotFound.
func (b *Bolt) Get(_ context.Context, key string) (string, error) {
	var val string
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction.
		val = string(v)
		return nil
	})
	return val, err
}

// Set stores value under key.
func (b *Bolt) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), []byte(value))
	})
}

// Delete removes key.
func (b *Bolt) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

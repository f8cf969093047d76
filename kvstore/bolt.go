package kvstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BucketName is the single top-level bbolt bucket all rededup keys
// live in. Keeping every key space (c:, h:, m:) in one bucket lets
// prefix iteration see a globally ordered key space, matching the flat
// keyspace described by the index schema.
var BucketName = []byte("rededup")

// Bolt is a Store backed by a go.etcd.io/bbolt database file.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) a bbolt database at path and
// ensures the rededup bucket exists.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(BucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: initialize bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(BucketName).Get(key)
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (b *Bolt) Put(_ context.Context, key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketName).Put(key, value)
	})
}

func (b *Bolt) Delete(_ context.Context, key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketName).Delete(key)
	})
}

func (b *Bolt) Batch(_ context.Context, ops []Op) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketName)
		for _, op := range ops {
			if op.Delete {
				if err := bucket.Delete(op.Key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(op.Key, op.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bolt) IterPrefix(_ context.Context, prefix []byte) (Iterator, error) {
	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &boltIterator{tx: tx, cursor: tx.Bucket(BucketName).Cursor(), prefix: prefix, started: false}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

// boltIterator walks a bbolt cursor constrained to a key prefix within
// a single read-only transaction, giving the snapshot consistency the
// Store interface requires.
type boltIterator struct {
	tx      *bolt.Tx
	cursor  *bolt.Cursor
	prefix  []byte
	started bool
	key     []byte
	value   []byte
	err     error
}

func (it *boltIterator) Next() bool {
	var k, v []byte
	if !it.started {
		it.started = true
		k, v = it.cursor.Seek(it.prefix)
	} else {
		k, v = it.cursor.Next()
	}

	if k == nil || !bytes.HasPrefix(k, it.prefix) {
		it.key, it.value = nil, nil
		return false
	}

	it.key = append([]byte(nil), k...)
	it.value = append([]byte(nil), v...)
	return true
}

func (it *boltIterator) Key() []byte   { return it.key }
func (it *boltIterator) Value() []byte { return it.value }
func (it *boltIterator) Err() error    { return it.err }
func (it *boltIterator) Close() error  { return it.tx.Rollback() }

// Package kvstore defines the opaque ordered key/value store interface
// the rest of rededup is built on, and an implementation backed by
// go.etcd.io/bbolt.
//
// The store exposes a narrow surface: point get/put/delete,
// prefix-ranged iteration in lexicographic key order, and atomic
// batch writes. Everything above
// this package works purely in terms of byte keys and byte values; no
// caller depends on bbolt directly.
package kvstore

import "context"

// KV is a single key/value pair returned by iteration.
type KV struct {
	Key   []byte
	Value []byte
}

// Op is one operation within a Batch: a Put (Delete false) or a
// Delete (Delete true).
type Op struct {
	Key   []byte
	Value []byte
	// Delete marks this Op as a deletion; Value is ignored when true.
	Delete bool
}

// Put builds an Op that stores value at key.
func Put(key, value []byte) Op {
	return Op{Key: key, Value: value}
}

// Del builds an Op that removes key.
func Del(key []byte) Op {
	return Op{Key: key, Delete: true}
}

// Iterator walks a snapshot-consistent range of key/value pairs in
// ascending lexicographic key order. Callers must call Close when
// done, even after exhausting Next.
type Iterator interface {
	// Next advances the iterator and reports whether a pair is
	// available via Key/Value.
	Next() bool
	Key() []byte
	Value() []byte
	// Err returns any error encountered during iteration.
	Err() error
	Close() error
}

// Store is the ordered key/value store rededup's index is built on.
// Implementations must make iteration snapshot-consistent with respect
// to writes issued through the same Store instance, and Batch must
// apply its operations atomically.
type Store interface {
	// Get returns the value stored at key, or (nil, false, nil) if
	// absent.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)

	// Put stores value at key, overwriting any existing value.
	Put(ctx context.Context, key, value []byte) error

	// Delete removes key. It is not an error if key is absent.
	Delete(ctx context.Context, key []byte) error

	// IterPrefix returns an Iterator over all keys sharing the given
	// prefix, in ascending order.
	IterPrefix(ctx context.Context, prefix []byte) (Iterator, error)

	// Batch applies every Op atomically: either all of them are
	// visible to subsequent readers, or none are.
	Batch(ctx context.Context, ops []Op) error

	// Close releases any resources (file handles, locks) held by the
	// store.
	Close() error
}

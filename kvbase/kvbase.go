// Package kvbase wraps a kvstore.Store the way
// distribution/registry/storage/driver/base.Base wraps a StorageDriver:
// it validates arguments common to every call and logs call duration,
// proxying everything else straight through to the embedded store.
//
// The canonical way to use this package is to embed Base in whichever
// concrete store is in play:
//
//	bolt, err := kvstore.OpenBolt(path)
//	if err != nil {
//		return err
//	}
//	store := kvbase.Wrap(bolt)
package kvbase

import (
	"context"
	"errors"
	"time"

	"github.com/sherwoodwang/rededup/internal/dcontext"
	"github.com/sherwoodwang/rededup/kvstore"
)

// ErrEmptyKey is returned by Get/Put/Delete/IterPrefix when called
// with a zero-length key or prefix.
var ErrEmptyKey = errors.New("kvbase: empty key")

// Base wraps an underlying kvstore.Store, adding key validation and
// debug-level duration logging around every call.
type Base struct {
	kvstore.Store
}

// Wrap returns a Base embedding the given store.
func Wrap(store kvstore.Store) *Base {
	return &Base{Store: store}
}

func durationLog(ctx context.Context, method string) func() {
	start := time.Now()
	return func() {
		dcontext.GetLoggerWithField(ctx, "duration", time.Since(start)).Debugf("kvstore.%s", method)
	}
}

func (b *Base) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if len(key) == 0 {
		return nil, false, ErrEmptyKey
	}
	defer durationLog(ctx, "Get")()
	return b.Store.Get(ctx, key)
}

func (b *Base) Put(ctx context.Context, key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	defer durationLog(ctx, "Put")()
	return b.Store.Put(ctx, key, value)
}

func (b *Base) Delete(ctx context.Context, key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	defer durationLog(ctx, "Delete")()
	return b.Store.Delete(ctx, key)
}

func (b *Base) IterPrefix(ctx context.Context, prefix []byte) (kvstore.Iterator, error) {
	if len(prefix) == 0 {
		return nil, ErrEmptyKey
	}
	defer durationLog(ctx, "IterPrefix")()
	return b.Store.IterPrefix(ctx, prefix)
}

func (b *Base) Batch(ctx context.Context, ops []kvstore.Op) error {
	for _, op := range ops {
		if len(op.Key) == 0 {
			return ErrEmptyKey
		}
	}
	defer durationLog(ctx, "Batch")()
	return b.Store.Batch(ctx, ops)
}

package indexer

import (
	"context"
	"fmt"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/recindex"
)

// Rebuild implements the index's truncation protocol: marks the index as
// truncating, deletes every h:/m:/c: entry except the truncating
// marker, re-writes c:hash-algorithm from alg, then refreshes from an
// empty index. The truncating marker is cleared only once the
// post-truncation refresh completes successfully, so a crash mid-
// rebuild is unambiguously diagnosable on reopen.
func Rebuild(ctx context.Context, store kvstore.Store, root string, alg hasher.Algorithm) error {
	if !alg.Available() {
		return fmt.Errorf("indexer: unsupported hash algorithm %q", alg)
	}

	if err := store.Put(ctx, recindex.ConfigKey(recindex.ConfigTruncating), []byte(recindex.TruncatingMarkerValue)); err != nil {
		return fmt.Errorf("indexer: write truncating marker: %w", err)
	}

	if err := truncate(ctx, store); err != nil {
		return err
	}

	if err := store.Put(ctx, recindex.ConfigKey(recindex.ConfigHashAlgorithm), []byte(alg)); err != nil {
		return fmt.Errorf("indexer: write hash algorithm: %w", err)
	}

	if err := Refresh(ctx, store, root, alg); err != nil {
		return err
	}

	if err := store.Delete(ctx, recindex.ConfigKey(recindex.ConfigTruncating)); err != nil {
		return fmt.Errorf("indexer: clear truncating marker: %w", err)
	}

	return nil
}

// truncate deletes every h: and m: entry and every c: entry except
// the truncating marker, which is cleared separately once refresh
// completes.
func truncate(ctx context.Context, store kvstore.Store) error {
	if err := deletePrefix(ctx, store, recindex.SignaturePrefix()); err != nil {
		return err
	}
	if err := deletePrefix(ctx, store, recindex.BucketPrefixAll()); err != nil {
		return err
	}
	return deleteConfigExceptTruncating(ctx, store)
}

// deletePrefix collects every key under prefix before closing its
// iterator and only then issuing the batch delete: a bbolt read
// transaction left open across a write on the same goroutine deadlocks
// once the database needs to re-mmap itself, so the iterator must be
// closed before store.Batch runs.
func deletePrefix(ctx context.Context, store kvstore.Store, prefix []byte) error {
	it, err := store.IterPrefix(ctx, prefix)
	if err != nil {
		return fmt.Errorf("indexer: iterate %q for truncation: %w", prefix, err)
	}

	var ops []kvstore.Op
	for it.Next() {
		ops = append(ops, kvstore.Del(append([]byte(nil), it.Key()...)))
	}
	iterErr := it.Err()
	if err := it.Close(); err != nil {
		return err
	}
	if iterErr != nil {
		return iterErr
	}
	if len(ops) == 0 {
		return nil
	}
	return store.Batch(ctx, ops)
}

// deleteConfigExceptTruncating mirrors deletePrefix's close-before-write
// discipline: the iterator is fully drained and closed before the
// batch delete is issued.
func deleteConfigExceptTruncating(ctx context.Context, store kvstore.Store) error {
	it, err := store.IterPrefix(ctx, recindex.ConfigPrefix())
	if err != nil {
		return fmt.Errorf("indexer: iterate config for truncation: %w", err)
	}

	truncatingKey := string(recindex.ConfigKey(recindex.ConfigTruncating))

	var ops []kvstore.Op
	for it.Next() {
		if string(it.Key()) == truncatingKey {
			continue
		}
		ops = append(ops, kvstore.Del(append([]byte(nil), it.Key()...)))
	}
	iterErr := it.Err()
	if err := it.Close(); err != nil {
		return err
	}
	if iterErr != nil {
		return iterErr
	}
	if len(ops) == 0 {
		return nil
	}
	return store.Batch(ctx, ops)
}

// Package indexer drives the walker/hasher/resolver pipeline that
// builds and refreshes a repository's index: parallel hashing feeding
// a single serialized writer.
package indexer

import (
	"context"
	"fmt"

	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/pathcodec"
	"github.com/sherwoodwang/rededup/recindex"
)

// request is one unit of work handed to the writer goroutine; every
// store mutation made while indexing passes through one of these so
// the single-writer discipline holds without locks inside the store
// itself.
type request struct {
	run  func(ctx context.Context) error
	done chan error
}

// Writer serializes every mutation made while building or refreshing
// an index onto one goroutine, while hashing and byte-comparison
// continue to run in parallel across worker goroutines. It owns the
// resolver, since resolution is itself a store mutation.
type Writer struct {
	store    kvstore.Store
	resolver *recindex.Resolver
	requests chan request
}

// NewWriter returns a Writer that mutates store through resolver.
func NewWriter(store kvstore.Store, resolver *recindex.Resolver) *Writer {
	return &Writer{
		store:    store,
		resolver: resolver,
		requests: make(chan request),
	}
}

// Run drains requests, running each one serially, until ctx is
// cancelled or Close is called. It is meant to be started in its own
// goroutine before any worker submits work.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.requests:
			if !ok {
				return
			}
			req.done <- req.run(ctx)
		}
	}
}

// Close stops the writer from accepting further requests. Callers
// must stop submitting work before calling Close.
func (w *Writer) Close() {
	close(w.requests)
}

// submit hands fn to the writer goroutine and blocks for its result,
// honoring cancellation at submission and at completion, the "start
// of a resolver call" safe point.
func (w *Writer) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	select {
	case w.requests <- request{run: fn, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarkPending writes the mid-operation placeholder signature for a
// file about to be hashed: digest unknown, ec_id cleared, matching
// what the discover phase finds.
func (w *Writer) MarkPending(ctx context.Context, relPath string, mtimeNS int64) error {
	return w.submit(ctx, func(ctx context.Context) error {
		encodedPath, err := pathcodec.EncodePath(relPath)
		if err != nil {
			return fmt.Errorf("indexer: encode path %q: %w", relPath, err)
		}
		encoded, err := recindex.EncodeSignature(recindex.Signature{MtimeNS: mtimeNS})
		if err != nil {
			return fmt.Errorf("indexer: encode signature: %w", err)
		}
		return w.store.Put(ctx, recindex.SignatureKey(encodedPath), encoded)
	})
}

// Resolve assigns digest's equivalent class via the resolver and
// commits the completed signature (digest, mtimeNS, ec_id) for
// relPath, as one writer-owned operation.
func (w *Writer) Resolve(ctx context.Context, relPath string, digest []byte, mtimeNS int64, content recindex.ContentSource) (uint32, error) {
	var ecID uint32
	err := w.submit(ctx, func(ctx context.Context) error {
		id, err := w.resolver.Resolve(ctx, digest, relPath, content)
		if err != nil {
			return err
		}
		ecID = id

		encodedPath, err := pathcodec.EncodePath(relPath)
		if err != nil {
			return fmt.Errorf("indexer: encode path %q: %w", relPath, err)
		}
		encoded, err := recindex.EncodeSignature(recindex.Signature{Digest: digest, MtimeNS: mtimeNS, ECID: &id})
		if err != nil {
			return fmt.Errorf("indexer: encode signature: %w", err)
		}
		return w.store.Put(ctx, recindex.SignatureKey(encodedPath), encoded)
	})
	return ecID, err
}

// DeletePending removes the signature for relPath, used when a file
// becomes unreadable between phase 1 and phase 2 and resolution never
// completes for it.
func (w *Writer) DeletePending(ctx context.Context, relPath string) error {
	return w.submit(ctx, func(ctx context.Context) error {
		encodedPath, err := pathcodec.EncodePath(relPath)
		if err != nil {
			return fmt.Errorf("indexer: encode path %q: %w", relPath, err)
		}
		return w.store.Delete(ctx, recindex.SignatureKey(encodedPath))
	})
}

// Prune removes a signature whose file no longer exists on disk, and
// removes its path from the corresponding bucket, deleting the bucket
// if it becomes empty.
func (w *Writer) Prune(ctx context.Context, relPath string, sig recindex.Signature) error {
	return w.submit(ctx, func(ctx context.Context) error {
		encodedPath, err := pathcodec.EncodePath(relPath)
		if err != nil {
			return fmt.Errorf("indexer: encode path %q: %w", relPath, err)
		}
		if err := w.store.Delete(ctx, recindex.SignatureKey(encodedPath)); err != nil {
			return fmt.Errorf("indexer: delete stale signature: %w", err)
		}

		if !sig.HasECID() {
			return nil
		}

		key := recindex.BucketKey(sig.Digest, *sig.ECID)
		value, ok, err := w.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("indexer: read bucket for prune: %w", err)
		}
		if !ok {
			return nil
		}
		bucket, err := recindex.DecodeBucket(value)
		if err != nil {
			return fmt.Errorf("indexer: decode bucket for prune: %w", err)
		}
		bucket = bucket.WithoutPath(relPath)
		if bucket.Empty() {
			return w.store.Delete(ctx, key)
		}
		encoded, err := recindex.EncodeBucket(bucket)
		if err != nil {
			return fmt.Errorf("indexer: encode bucket for prune: %w", err)
		}
		return w.store.Put(ctx, key, encoded)
	})
}

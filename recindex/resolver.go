package recindex

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/sherwoodwang/rededup/internal/dcontext"
	"github.com/sherwoodwang/rededup/kvstore"
)

// Opener re-opens the content of a repository-relative path for
// comparison. It is supplied by the caller (the index builder or
// importer) so that this package never touches the filesystem
// directly.
type Opener func(relPath string) (io.ReadCloser, error)

// ContentSource re-opens the content of one specific candidate file,
// independent of any repository path. The index builder binds this to
// the file currently being hashed; the resolver calls it once per
// bucket it needs to compare against, since a stream can only be read
// once.
type ContentSource func() (io.ReadCloser, error)

// Resolver implements the equivalent-class resolution protocol: given
// a newly-hashed file, it places it in the correct equivalent class
// (existing or new) by byte comparison against bucket representatives,
// maintaining the "h:" bucket invariants described by the index
// schema. All of its methods are meant to run on a single serialized
// writer, never concurrently with another Resolver call against the
// same store.
type Resolver struct {
	store kvstore.Store
	open  Opener
}

// NewResolver returns a Resolver that mutates store and opens
// candidate/representative content through open.
func NewResolver(store kvstore.Store, open Opener) *Resolver {
	return &Resolver{store: store, open: open}
}

const compareChunkSize = 256 * 1024

// Resolve assigns path, whose content hashes to digest and can be
// re-opened via content, to an equivalent class, returning its ec_id.
// It implements the procedure of the resolver's four steps: enumerate
// existing buckets ascending by ec_id, byte-compare against one
// representative per bucket, join on first match, otherwise allocate
// the smallest unused ec_id for a new bucket.
func (r *Resolver) Resolve(ctx context.Context, digest []byte, path string, content ContentSource) (uint32, error) {
	candidates, used, err := r.loadBuckets(ctx, digest)
	if err != nil {
		return 0, err
	}

	for _, c := range candidates {
		matched, repaired, pruned, err := r.compareAgainstBucket(ctx, c.bucket, path, content)
		if err != nil {
			return 0, err
		}
		bucket := repaired

		if matched {
			bucket = bucket.WithPath(path)
			if err := r.writeBucket(ctx, digest, c.ecID, bucket); err != nil {
				return 0, err
			}
			return c.ecID, nil
		}

		if bucket.Empty() {
			if err := r.store.Delete(ctx, BucketKey(digest, c.ecID)); err != nil {
				return 0, fmt.Errorf("recindex: delete emptied bucket: %w", err)
			}
			delete(used, c.ecID)
		} else if pruned {
			if err := r.writeBucket(ctx, digest, c.ecID, bucket); err != nil {
				return 0, err
			}
		}
	}

	ecID := smallestUnused(used)
	bucket := Bucket{Paths: []string{path}}
	if err := r.writeBucket(ctx, digest, ecID, bucket); err != nil {
		return 0, err
	}
	return ecID, nil
}

// bucketCandidate is one decoded bucket sharing digest, read out of the
// store before any write for that digest is issued.
type bucketCandidate struct {
	ecID   uint32
	bucket Bucket
}

// loadBuckets reads and decodes every existing bucket for digest,
// closing its iterator before returning so the caller is free to
// Put/Delete against the store afterward. Holding a bbolt read
// transaction open across a write on the same goroutine deadlocks once
// the database needs to re-mmap itself, so no write may be issued while
// this iterator is still open.
func (r *Resolver) loadBuckets(ctx context.Context, digest []byte) ([]bucketCandidate, map[uint32]struct{}, error) {
	it, err := r.store.IterPrefix(ctx, BucketPrefix(digest))
	if err != nil {
		return nil, nil, fmt.Errorf("recindex: iterate buckets for digest: %w", err)
	}
	defer it.Close()

	used := make(map[uint32]struct{})
	var candidates []bucketCandidate

	for it.Next() {
		digestLen := len(digest)
		_, ecID, ok := SplitBucketKey(it.Key(), digestLen)
		if !ok {
			continue
		}
		used[ecID] = struct{}{}

		bucket, err := DecodeBucket(it.Value())
		if err != nil {
			return nil, nil, fmt.Errorf("recindex: decode bucket %x/%d: %w", digest, ecID, err)
		}
		candidates = append(candidates, bucketCandidate{ecID: ecID, bucket: bucket})
	}
	if err := it.Err(); err != nil {
		return nil, nil, err
	}

	return candidates, used, nil
}

// compareAgainstBucket finds the first representative member of
// bucket that can still be read, byte-compares it against content, and
// returns whether they matched. Unreadable representatives are pruned
// from the returned bucket, repairing invariant 2 lazily as described
// by the resolver's edge-case handling; pruned reports whether any
// pruning happened, since an unchanged bucket need not be rewritten.
func (r *Resolver) compareAgainstBucket(ctx context.Context, bucket Bucket, candidatePath string, content ContentSource) (matched bool, repaired Bucket, pruned bool, err error) {
	repaired = bucket
	for _, repPath := range bucket.Paths {
		repReader, err := r.open(repPath)
		if err != nil {
			dcontext.GetLoggerWithField(ctx, "path", repPath).Warnf("recindex: representative unreadable, pruning: %v", err)
			repaired = repaired.WithoutPath(repPath)
			pruned = true
			continue
		}

		eq, err := bytesEqual(repReader, content)
		repReader.Close()
		if err != nil {
			return false, repaired, pruned, err
		}
		return eq, repaired, pruned, nil
	}
	return false, repaired, pruned, nil
}

func bytesEqual(a io.ReadCloser, openB ContentSource) (bool, error) {
	b, err := openB()
	if err != nil {
		return false, fmt.Errorf("recindex: reopen candidate content: %w", err)
	}
	defer b.Close()

	ar := bufio.NewReaderSize(a, compareChunkSize)
	br := bufio.NewReaderSize(b, compareChunkSize)

	bufA := make([]byte, compareChunkSize)
	bufB := make([]byte, compareChunkSize)

	for {
		na, errA := io.ReadFull(ar, bufA)
		nb, errB := io.ReadFull(br, bufB)

		if na != nb {
			return false, nil
		}
		if na > 0 && string(bufA[:na]) != string(bufB[:nb]) {
			return false, nil
		}

		doneA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		doneB := errB == io.EOF || errB == io.ErrUnexpectedEOF

		if doneA != doneB {
			return false, nil
		}
		if doneA && doneB {
			return true, nil
		}
		if errA != nil && !doneA {
			return false, errA
		}
		if errB != nil && !doneB {
			return false, errB
		}
	}
}

func (r *Resolver) writeBucket(ctx context.Context, digest []byte, ecID uint32, bucket Bucket) error {
	encoded, err := EncodeBucket(bucket)
	if err != nil {
		return fmt.Errorf("recindex: encode bucket: %w", err)
	}
	if err := r.store.Put(ctx, BucketKey(digest, ecID), encoded); err != nil {
		return fmt.Errorf("recindex: write bucket: %w", err)
	}
	return nil
}

// smallestUnused returns the smallest non-negative integer not present
// in used.
func smallestUnused(used map[uint32]struct{}) uint32 {
	var id uint32
	for {
		if _, ok := used[id]; !ok {
			return id
		}
		id++
	}
}

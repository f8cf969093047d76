package recindex

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/stretchr/testify/require"
)

// memFiles backs an Opener/ContentSource pair over an in-memory map,
// standing in for the repository filesystem in these tests.
type memFiles map[string][]byte

func (f memFiles) opener(path string) (io.ReadCloser, error) {
	data, ok := f[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f memFiles) source(path string) ContentSource {
	return func() (io.ReadCloser, error) {
		return f.opener(path)
	}
}

func TestResolveNewDigestCreatesECZero(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMem()
	files := memFiles{"a": []byte("hello")}
	r := NewResolver(store, files.opener)

	ecID, err := r.Resolve(ctx, []byte{0xaa}, "a", files.source("a"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), ecID)

	v, ok, err := store.Get(ctx, BucketKey([]byte{0xaa}, 0))
	require.NoError(t, err)
	require.True(t, ok)
	bucket, err := DecodeBucket(v)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, bucket.Paths)
}

func TestResolveIdenticalFileJoinsExistingBucket(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMem()
	files := memFiles{"a": []byte("hello"), "b": []byte("hello")}
	r := NewResolver(store, files.opener)

	digest := []byte{0xaa}
	ecA, err := r.Resolve(ctx, digest, "a", files.source("a"))
	require.NoError(t, err)

	ecB, err := r.Resolve(ctx, digest, "b", files.source("b"))
	require.NoError(t, err)
	require.Equal(t, ecA, ecB)

	v, ok, err := store.Get(ctx, BucketKey(digest, ecA))
	require.NoError(t, err)
	require.True(t, ok)
	bucket, err := DecodeBucket(v)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, bucket.Paths)
}

func TestResolveHashCollisionOpensSecondBucket(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMem()
	files := memFiles{"a": []byte("hello"), "b": []byte("world, this differs")}
	r := NewResolver(store, files.opener)

	digest := []byte{0xaa}
	ecA, err := r.Resolve(ctx, digest, "a", files.source("a"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), ecA)

	ecB, err := r.Resolve(ctx, digest, "b", files.source("b"))
	require.NoError(t, err)
	require.Equal(t, uint32(1), ecB)

	for ec, path := range map[uint32]string{0: "a", 1: "b"} {
		v, ok, err := store.Get(ctx, BucketKey(digest, ec))
		require.NoError(t, err)
		require.True(t, ok)
		bucket, err := DecodeBucket(v)
		require.NoError(t, err)
		require.Equal(t, []string{path}, bucket.Paths)
	}
}

func TestResolvePrunesUnreadableRepresentative(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMem()
	files := memFiles{"a": []byte("hello"), "b": []byte("hello")}
	r := NewResolver(store, files.opener)

	digest := []byte{0xaa}
	ecA, err := r.Resolve(ctx, digest, "a", files.source("a"))
	require.NoError(t, err)

	// "a" disappears from the filesystem before the next refresh sees "b".
	delete(files, "a")

	ecB, err := r.Resolve(ctx, digest, "b", files.source("b"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), ecB)
	require.Equal(t, ecA, ecB)

	v, ok, err := store.Get(ctx, BucketKey(digest, ecB))
	require.NoError(t, err)
	require.True(t, ok)
	bucket, err := DecodeBucket(v)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, bucket.Paths)
}

func TestResolveDeletesBucketEmptiedByPruning(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMem()
	files := memFiles{"a": []byte("hello"), "b": []byte("totally different content")}
	r := NewResolver(store, files.opener)

	digest := []byte{0xaa}
	_, err := r.Resolve(ctx, digest, "a", files.source("a"))
	require.NoError(t, err)

	// "a" vanishes, and "b" (a different digest collision) comes along
	// with no remaining representative left to compare against: the
	// stale bucket for "a" should be deleted rather than left behind
	// empty, and "b" gets a fresh bucket of its own.
	delete(files, "a")

	ecB, err := r.Resolve(ctx, digest, "b", files.source("b"))
	require.NoError(t, err)

	// Once its bucket is deleted, ec_id 0 is no longer used by any
	// bucket of this digest, so it is the smallest unused id and "b"
	// takes it; no second bucket is opened alongside it.
	require.Equal(t, uint32(0), ecB)

	_, ok, err := store.Get(ctx, BucketKey(digest, 1))
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := store.Get(ctx, BucketKey(digest, ecB))
	require.NoError(t, err)
	require.True(t, ok)
	bucket, err := DecodeBucket(v)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, bucket.Paths)
}

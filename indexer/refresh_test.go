package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/recindex"
	"github.com/stretchr/testify/require"
)

// TestRefreshDetectsDeletion covers end-to-end scenario 6.
func TestRefreshDetectsDeletion(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeTestFile(t, root, "a", "hello")
	writeTestFile(t, root, "b/c", "hello")
	writeTestFile(t, root, "b/d", "hello")

	store := kvstore.NewMem()
	require.NoError(t, Rebuild(ctx, store, root, hasher.SHA256))

	require.NoError(t, os.Remove(filepath.Join(root, "b", "d")))
	require.NoError(t, Refresh(ctx, store, root, hasher.SHA256))

	_, ok, err := store.Get(ctx, recindex.SignatureKey(mustEncodePath(t, "b/d")))
	require.NoError(t, err)
	require.False(t, ok)

	digest, err := hasher.Hash(hasher.SHA256, stringsReader("hello"))
	require.NoError(t, err)

	v, ok, err := store.Get(ctx, recindex.BucketKey(digest, 0))
	require.NoError(t, err)
	require.True(t, ok)
	bucket, err := recindex.DecodeBucket(v)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b/c"}, bucket.Paths)
}

// TestRebuildThenRefreshIsNoOp covers the round-trip law: rebuilding and
// then refreshing an unchanged tree leaves the index unchanged.
func TestRebuildThenRefreshIsNoOp(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeTestFile(t, root, "a", "hello")
	writeTestFile(t, root, "b", "world")

	store := kvstore.NewMem()
	require.NoError(t, Rebuild(ctx, store, root, hasher.SHA256))

	before := snapshotStore(t, store)

	require.NoError(t, Refresh(ctx, store, root, hasher.SHA256))

	after := snapshotStore(t, store)
	require.Equal(t, before, after)
}

// TestTwoRefreshesWithNoChangeIsNoOp covers the round-trip law for
// back-to-back refreshes.
func TestTwoRefreshesWithNoChangeIsNoOp(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeTestFile(t, root, "a", "hello")

	store := kvstore.NewMem()
	require.NoError(t, Rebuild(ctx, store, root, hasher.SHA256))
	require.NoError(t, Refresh(ctx, store, root, hasher.SHA256))

	before := snapshotStore(t, store)
	require.NoError(t, Refresh(ctx, store, root, hasher.SHA256))
	after := snapshotStore(t, store)

	require.Equal(t, before, after)
}

// TestRefreshPicksUpModifiedFile ensures a changed mtime triggers
// re-hashing and a new signature.
func TestRefreshPicksUpModifiedFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeTestFile(t, root, "a", "hello")

	store := kvstore.NewMem()
	require.NoError(t, Rebuild(ctx, store, root, hasher.SHA256))

	// Ensure a distinguishable mtime tick on filesystems with coarse
	// resolution.
	future := time.Now().Add(2 * time.Second)
	writeTestFile(t, root, "a", "goodbye")
	require.NoError(t, os.Chtimes(filepath.Join(root, "a"), future, future))

	require.NoError(t, Refresh(ctx, store, root, hasher.SHA256))

	sig := getSignature(t, store, "a")
	require.True(t, sig.HasECID())

	digest, err := hasher.Hash(hasher.SHA256, stringsReader("goodbye"))
	require.NoError(t, err)
	require.Equal(t, digest, sig.Digest)
}

func snapshotStore(t *testing.T, store kvstore.Store) map[string]string {
	t.Helper()
	ctx := context.Background()
	it, err := store.IterPrefix(ctx, []byte(""))
	require.NoError(t, err)
	defer it.Close()

	out := make(map[string]string)
	for it.Next() {
		out[string(it.Key())] = string(it.Value())
	}
	require.NoError(t, it.Err())
	return out
}

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/indexer"
	"github.com/sherwoodwang/rededup/rerrcode"
	"github.com/stretchr/testify/require"
)

func TestDiscoverExplicitPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rededup"), 0o755))

	found, err := Discover(root)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	wantResolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	require.Equal(t, wantResolved, resolved)
}

func TestDiscoverAscendsFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rededup"), 0o755))
	sub := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	found, err := Discover(sub)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	wantResolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	require.Equal(t, wantResolved, resolved)
}

func TestDiscoverViaEnvironmentVariable(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rededup"), 0o755))
	t.Setenv(EnvRepository, root)

	found, err := Discover("")
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	wantResolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	require.Equal(t, wantResolved, resolved)
}

func TestDiscoverNotFound(t *testing.T) {
	root := t.TempDir()
	_, err := Discover(root)
	require.Error(t, err)

	coder, ok := err.(rerrcode.ErrorCoder)
	require.True(t, ok)
	require.Equal(t, rerrcode.ErrorCodeRepositoryNotFound, coder.ErrorCode())
}

func TestOpenAcquiresLockAndRejectsSecondOpener(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rededup"), 0o755))

	repo, err := Open(context.Background(), root)
	require.NoError(t, err)
	defer repo.Close()

	_, err = Open(context.Background(), root)
	require.Error(t, err)
}

func TestOpenRefusesTruncatingRepository(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	repo, err := Init(root)
	require.NoError(t, err)
	require.NoError(t, indexer.Rebuild(ctx, repo.Store, repo.Root, hasher.SHA256))
	require.NoError(t, repo.Store.Put(ctx, []byte("c:truncating"), []byte("truncate")))
	require.NoError(t, repo.Close())

	_, err = Open(ctx, root)
	require.Error(t, err)
	coder, ok := err.(rerrcode.ErrorCoder)
	require.True(t, ok)
	require.Equal(t, rerrcode.ErrorCodeTruncating, coder.ErrorCode())
}

func TestCheckHashAlgorithmMismatch(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	repo, err := Init(root)
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, indexer.Rebuild(ctx, repo.Store, repo.Root, hasher.SHA256))

	_, err = repo.CheckHashAlgorithm(ctx, hasher.SHA512)
	require.Error(t, err)

	alg, err := repo.CheckHashAlgorithm(ctx, hasher.SHA256)
	require.NoError(t, err)
	require.Equal(t, hasher.SHA256, alg)
}

func TestInitThenOpenAllowingTruncatingSucceeds(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	repo, err := Init(root)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo2, err := OpenAllowingTruncating(ctx, root)
	require.NoError(t, err)
	require.NoError(t, repo2.Close())
}

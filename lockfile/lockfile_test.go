package lockfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	root := t.TempDir()

	lock, err := Acquire(root)
	require.NoError(t, err)
	require.NotEmpty(t, lock.Token())

	require.NoError(t, lock.Release())
}

func TestAcquireFailsWhileHeld(t *testing.T) {
	root := t.TempDir()

	lock, err := Acquire(root)
	require.NoError(t, err)
	defer lock.Release()

	_, err = Acquire(root)
	require.Error(t, err)
}

func TestAcquireAgainAfterRelease(t *testing.T) {
	root := t.TempDir()

	lock, err := Acquire(root)
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	lock2, err := Acquire(root)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}

func TestTokensAreUnique(t *testing.T) {
	root1 := t.TempDir()
	root2 := t.TempDir()

	lock1, err := Acquire(root1)
	require.NoError(t, err)
	defer lock1.Release()

	lock2, err := Acquire(root2)
	require.NoError(t, err)
	defer lock2.Release()

	require.NotEqual(t, lock1.Token(), lock2.Token())
}

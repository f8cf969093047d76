package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(rel), 0o644))
}

func TestWalkVisitsDepthFirstSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/file")
	writeFile(t, root, "a/file")
	writeFile(t, root, "a.txt")

	var visited []string
	require.NoError(t, Walk(context.Background(), root, func(e Entry) error {
		visited = append(visited, e.RelPath)
		return nil
	}))

	require.Equal(t, []string{"a", "a/file", "a.txt", "b", "b/file"}, visited)
}

func TestWalkSkipsDotRededupAtRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".rededup/index.db")
	writeFile(t, root, "kept")

	var visited []string
	require.NoError(t, Walk(context.Background(), root, func(e Entry) error {
		visited = append(visited, e.RelPath)
		return nil
	}))

	require.Equal(t, []string{"kept"}, visited)
}

func TestWalkRespectsSkipDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "skip/file")
	writeFile(t, root, "keep/file")

	var visited []string
	require.NoError(t, Walk(context.Background(), root, func(e Entry) error {
		visited = append(visited, e.RelPath)
		if e.IsDir && e.RelPath == "skip" {
			return ErrSkipDir
		}
		return nil
	}))

	require.Equal(t, []string{"keep", "keep/file", "skip"}, visited)
}

func TestWalkDoesNotFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "real")
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")))

	var visited []string
	require.NoError(t, Walk(context.Background(), root, func(e Entry) error {
		visited = append(visited, e.RelPath)
		return nil
	}))

	require.Equal(t, []string{"real"}, visited)
}

func TestWalkOnEmptyDir(t *testing.T) {
	root := t.TempDir()

	var visited []string
	require.NoError(t, Walk(context.Background(), root, func(e Entry) error {
		visited = append(visited, e.RelPath)
		return nil
	}))

	require.Empty(t, visited)
}

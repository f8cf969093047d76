package describe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sherwoodwang/rededup/analyzer"
	"github.com/stretchr/testify/require"
)

func TestDescribeFindsEnclosingReport(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bar")
	require.NoError(t, os.WriteFile(target, []byte("C"), 0o644))

	records := []analyzer.DuplicateRecord{
		{RepositoryPath: "foo", ECID: 0, Identical: true, Size: 1},
		{RepositoryPath: "baz", ECID: 1, Identical: false, Size: 1},
	}
	require.NoError(t, analyzer.WriteFileReport(target, "/repo", analyzer.DefaultPolicy(), 1000, records))

	report, err := Describe(target, Options{All: true, SortBy: SortByPath})
	require.NoError(t, err)
	require.Len(t, report.FileRecords, 2)
	require.Equal(t, "baz", report.FileRecords[0].RepositoryPath)
	require.Equal(t, "foo", report.FileRecords[1].RepositoryPath)
}

func TestDescribeFiltersNonIdenticalByDefault(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bar")
	require.NoError(t, os.WriteFile(target, []byte("C"), 0o644))

	records := []analyzer.DuplicateRecord{
		{RepositoryPath: "foo", ECID: 0, Identical: true, Size: 1},
		{RepositoryPath: "baz", ECID: 1, Identical: false, Size: 1},
	}
	require.NoError(t, analyzer.WriteFileReport(target, "/repo", analyzer.DefaultPolicy(), 1000, records))

	report, err := Describe(target, Options{})
	require.NoError(t, err)
	require.Len(t, report.FileRecords, 1)
	require.Equal(t, "foo", report.FileRecords[0].RepositoryPath)
}

func TestDescribeFromNestedPathSearchesUpward(t *testing.T) {
	dir := t.TempDir()
	analyzedDir := filepath.Join(dir, "copy")
	nested := filepath.Join(analyzedDir, "sub", "deeper.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	require.NoError(t, os.WriteFile(nested, []byte("C"), 0o644))

	require.NoError(t, analyzer.WriteDirectoryReport(analyzedDir, "/repo", analyzer.DefaultPolicy(), 1000, analyzer.Tree{}))

	report, err := Describe(nested, Options{All: true})
	require.NoError(t, err)
	require.True(t, report.Meta.IsDirectory)
}

func TestDescribeLimit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bar")
	require.NoError(t, os.WriteFile(target, []byte("C"), 0o644))

	records := []analyzer.DuplicateRecord{
		{RepositoryPath: "a", Identical: true, Size: 3},
		{RepositoryPath: "b", Identical: true, Size: 1},
		{RepositoryPath: "c", Identical: true, Size: 2},
	}
	require.NoError(t, analyzer.WriteFileReport(target, "/repo", analyzer.DefaultPolicy(), 1000, records))

	report, err := Describe(target, Options{All: true, SortBy: SortBySize, Limit: 2})
	require.NoError(t, err)
	require.Len(t, report.FileRecords, 2)
	require.Equal(t, "a", report.FileRecords[0].RepositoryPath)
	require.Equal(t, "c", report.FileRecords[1].RepositoryPath)
}

func TestDescribeDirectoryExpandsChildren(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "copy")
	require.NoError(t, os.MkdirAll(target, 0o755))

	tree := analyzer.Tree{
		Files: map[string][]analyzer.DuplicateRecord{
			"a.txt": {{RepositoryPath: "lib/a.txt", Identical: true, Size: 3}},
			"b.txt": {{RepositoryPath: "lib/b.txt", Identical: true, Size: 3}},
		},
		Dirs: []analyzer.DirRecord{
			{RepositoryDir: "lib", DuplicatedItems: 2, DuplicatedSize: 6, Identical: true},
		},
	}
	require.NoError(t, analyzer.WriteDirectoryReport(target, "/repo", analyzer.DefaultPolicy(), 1000, tree))

	report, err := Describe(target, Options{All: true, Directory: true, SortChildren: SortChildrenName})
	require.NoError(t, err)
	require.Len(t, report.DirRecords, 1)
	require.Len(t, report.Children, 2)
	require.Equal(t, "a.txt", report.Children[0].RelPath)
	require.Equal(t, "b.txt", report.Children[1].RelPath)
}

func TestDescribeNoReportFound(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bar")
	require.NoError(t, os.WriteFile(target, []byte("C"), 0o644))

	_, err := Describe(target, Options{})
	require.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	require.NotEmpty(t, FormatBytes(1024))
}

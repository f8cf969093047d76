package analyzer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// Meta is the serialized "meta" file of a report directory.
type Meta struct {
	CreatedAtNS    int64           `cbor:"created_at_ns"`
	AnalyzedPath   string          `cbor:"analyzed_path"`
	RepositoryRoot string          `cbor:"repository_root"`
	Policy         map[string]bool `cbor:"policy"`
	IsDirectory    bool            `cbor:"is_directory"`
}

// WriteFileReport persists a report for a file input at
// <inputPath>.report/.
func WriteFileReport(inputPath, repoRoot string, policy PolicyOptions, createdAtNS int64, records []DuplicateRecord) error {
	dir := inputPath + ".report"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("analyzer: create report dir: %w", err)
	}

	meta := Meta{
		CreatedAtNS:    createdAtNS,
		AnalyzedPath:   inputPath,
		RepositoryRoot: repoRoot,
		Policy:         PolicyFields(policy),
	}
	if err := writeCBOR(filepath.Join(dir, "meta"), meta); err != nil {
		return err
	}
	return writeCBOR(filepath.Join(dir, "duplicates"), records)
}

// WriteDirectoryReport persists a report for a directory input at
// <inputPath>.report/, including the per-file "files/" mirror tree.
func WriteDirectoryReport(inputPath, repoRoot string, policy PolicyOptions, createdAtNS int64, tree Tree) error {
	dir := inputPath + ".report"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("analyzer: create report dir: %w", err)
	}

	meta := Meta{
		CreatedAtNS:    createdAtNS,
		AnalyzedPath:   inputPath,
		RepositoryRoot: repoRoot,
		Policy:         PolicyFields(policy),
		IsDirectory:    true,
	}
	if err := writeCBOR(filepath.Join(dir, "meta"), meta); err != nil {
		return err
	}
	if err := writeCBOR(filepath.Join(dir, "duplicates"), tree.Dirs); err != nil {
		return err
	}

	filesDir := filepath.Join(dir, "files")
	for relPath, records := range tree.Files {
		leaf := filepath.Join(filesDir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(leaf), 0o755); err != nil {
			return fmt.Errorf("analyzer: create files mirror dir: %w", err)
		}
		if err := writeCBOR(leaf, records); err != nil {
			return err
		}
	}
	return nil
}

func writeCBOR(path string, v any) error {
	encoded, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("analyzer: encode %q: %w", path, err)
	}
	return os.WriteFile(path, encoded, 0o644)
}

// Package importer copies index entries between repositories whose
// roots are related by ancestry, applying a prefix-shift to relocate
// paths, and feeding copied entries through the same resolver package indexer
// uses so that a collision between a source and destination file
// merges equivalent classes by byte comparison.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sherwoodwang/rededup/indexer"
	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/pathcodec"
	"github.com/sherwoodwang/rededup/recindex"
)

// relationship describes how a source repository's root relates to
// the destination's.
type relationship int

const (
	unrelated relationship = iota
	descendant             // source is nested inside destination
	ancestor               // destination is nested inside source
)

// relocator rewrites a source-relative path to its destination-
// relative form.
type relocator struct {
	kind relationship
	rel  string // "/"-separated, empty only when roots are equal
}

func (r relocator) apply(oldRelPath string) (string, bool) {
	switch r.kind {
	case descendant:
		if r.rel == "" {
			return oldRelPath, true
		}
		return r.rel + "/" + oldRelPath, true
	case ancestor:
		if r.rel == "" {
			return oldRelPath, true
		}
		prefix := r.rel + "/"
		if !strings.HasPrefix(oldRelPath, prefix) {
			return "", false
		}
		return strings.TrimPrefix(oldRelPath, prefix), true
	default:
		return "", false
	}
}

// Import copies entries from the repository rooted at srcRoot (backed
// by srcStore) into the repository rooted at dstRoot (backed by
// dstStore). srcRoot must be a descendant or ancestor of dstRoot; any
// other relationship is rejected.
func Import(ctx context.Context, srcStore kvstore.Store, srcRoot string, dstStore kvstore.Store, dstRoot string) error {
	rel, err := prefixShift(srcRoot, dstRoot)
	if err != nil {
		return err
	}

	entries, err := sourceEntries(ctx, srcStore, rel)
	if err != nil {
		return err
	}

	resolver := recindex.NewResolver(dstStore, func(relPath string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dstRoot, filepath.FromSlash(relPath)))
	})
	writer := indexer.NewWriter(dstStore, resolver)

	writerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		writer.Run(writerCtx)
	}()

	runErr := importEntries(ctx, writer, dstRoot, entries)

	writer.Close()
	wg.Wait()

	return runErr
}

// prefixShift classifies the relationship between srcRoot and dstRoot
// and returns the relocator that implements the corresponding path rewrite.
func prefixShift(srcRoot, dstRoot string) (relocator, error) {
	srcAbs, err := filepath.Abs(srcRoot)
	if err != nil {
		return relocator{}, fmt.Errorf("importer: resolve source root: %w", err)
	}
	dstAbs, err := filepath.Abs(dstRoot)
	if err != nil {
		return relocator{}, fmt.Errorf("importer: resolve destination root: %w", err)
	}

	if srcAbs == dstAbs {
		return relocator{}, fmt.Errorf("importer: source and destination repository are the same")
	}
	if rel, ok := under(dstAbs, srcAbs); ok {
		return relocator{kind: descendant, rel: rel}, nil
	}
	if rel, ok := under(srcAbs, dstAbs); ok {
		return relocator{kind: ancestor, rel: rel}, nil
	}
	return relocator{}, fmt.Errorf("importer: source repository %q is neither an ancestor nor a descendant of the destination", srcRoot)
}

// under reports whether child lies strictly under parent, returning
// the "/"-separated relative path from parent to child.
func under(parent, child string) (string, bool) {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// copyEntry is one source signature rewritten for the destination.
type copyEntry struct {
	newRelPath string
	sig        recindex.Signature
}

// sourceEntries reads every completed signature in store, applies
// rel, and drops entries outside the relationship's scope. Entries
// still in the mid-operation "no ec_id" state are not copied.
func sourceEntries(ctx context.Context, store kvstore.Store, rel relocator) ([]copyEntry, error) {
	it, err := store.IterPrefix(ctx, recindex.SignaturePrefix())
	if err != nil {
		return nil, fmt.Errorf("importer: iterate source signatures: %w", err)
	}
	defer it.Close()

	var out []copyEntry
	for it.Next() {
		oldRelPath, err := pathcodec.DecodePath(recindex.SignaturePathSuffix(it.Key()))
		if err != nil {
			return nil, fmt.Errorf("importer: decode source path: %w", err)
		}
		sig, err := recindex.DecodeSignature(it.Value())
		if err != nil {
			return nil, fmt.Errorf("importer: decode source signature %q: %w", oldRelPath, err)
		}
		if !sig.HasECID() {
			continue
		}

		newRelPath, ok := rel.apply(oldRelPath)
		if !ok {
			continue
		}

		out = append(out, copyEntry{newRelPath: newRelPath, sig: sig})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, k int) bool { return out[i].newRelPath < out[k].newRelPath })
	return out, nil
}

// importEntries hands each entry to the writer in order. Each call
// resolves and commits atomically with respect to the writer's single
// goroutine, so a run interrupted partway through still leaves the
// destination store internally consistent.
func importEntries(ctx context.Context, writer *indexer.Writer, dstRoot string, entries []copyEntry) error {
	for _, e := range entries {
		relPath := e.newRelPath
		content := func() (io.ReadCloser, error) {
			return os.Open(filepath.Join(dstRoot, filepath.FromSlash(relPath)))
		}

		if _, err := writer.Resolve(ctx, relPath, e.sig.Digest, e.sig.MtimeNS, content); err != nil {
			return fmt.Errorf("importer: resolve %q: %w", relPath, err)
		}
	}
	return ctx.Err()
}

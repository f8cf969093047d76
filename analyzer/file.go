package analyzer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/recindex"
)

const compareChunkSize = 256 * 1024

// DuplicateRecord is one row of a file-input report's "duplicates"
// sequence: a single repository path whose content matches the
// analyzed file.
type DuplicateRecord struct {
	RepositoryPath string `cbor:"repository_path"`
	ECID           uint32 `cbor:"ec_id"`
	Identical      bool   `cbor:"identical"`
	Size           int64  `cbor:"size"`
}

// AnalyzeFile hashes the file at absPath, probes the repository's
// index for every bucket sharing its digest, and returns one
// DuplicateRecord per member path of every such bucket.
// Identical is true only when the member's content matches (the
// bucket's representative byte-compares equal to absPath) and its
// metadata matches per policy; a digest match whose representative
// byte-compares unequal — possible only on a hash collision — still
// produces a record, with Identical false, for completeness.
func AnalyzeFile(ctx context.Context, store kvstore.Store, repoRoot string, absPath string, alg hasher.Algorithm, policy PolicyOptions) ([]DuplicateRecord, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("analyzer: open %q: %w", absPath, err)
	}
	digest, err := hasher.Hash(alg, f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("analyzer: hash %q: %w", absPath, err)
	}

	inputInfo, inputSys, err := statFile(absPath)
	if err != nil {
		return nil, err
	}

	it, err := store.IterPrefix(ctx, recindex.BucketPrefix(digest))
	if err != nil {
		return nil, fmt.Errorf("analyzer: iterate buckets: %w", err)
	}
	defer it.Close()

	var records []DuplicateRecord
	for it.Next() {
		_, ecID, ok := recindex.SplitBucketKey(it.Key(), len(digest))
		if !ok {
			continue
		}
		bucket, err := recindex.DecodeBucket(it.Value())
		if err != nil {
			return nil, fmt.Errorf("analyzer: decode bucket: %w", err)
		}

		contentEqual, err := bucketRepresentativeMatches(repoRoot, bucket, absPath)
		if err != nil {
			return nil, err
		}

		for _, memberPath := range bucket.Paths {
			memberAbs := filepath.Join(repoRoot, filepath.FromSlash(memberPath))
			memberInfo, memberSys, err := statFile(memberAbs)
			if err != nil {
				continue
			}

			identical := contentEqual && MetadataMatches(inputInfo, memberInfo, inputSys, memberSys, policy)
			records = append(records, DuplicateRecord{
				RepositoryPath: memberPath,
				ECID:           ecID,
				Identical:      identical,
				Size:           memberInfo.Size(),
			})
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, k int) bool { return records[i].RepositoryPath < records[k].RepositoryPath })
	return records, nil
}

func statFile(absPath string) (os.FileInfo, *syscall.Stat_t, error) {
	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("analyzer: stat %q: %w", absPath, err)
	}
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, nil, fmt.Errorf("analyzer: unsupported platform stat for %q", absPath)
	}
	return info, sys, nil
}

// bucketRepresentativeMatches byte-compares the first readable member
// of bucket against the file at candidateAbs, mirroring the resolver's
// "first representative that reads successfully" rule.
func bucketRepresentativeMatches(repoRoot string, bucket recindex.Bucket, candidateAbs string) (bool, error) {
	for _, repPath := range bucket.Paths {
		repAbs := filepath.Join(repoRoot, filepath.FromSlash(repPath))
		repFile, err := os.Open(repAbs)
		if err != nil {
			continue
		}
		eq, err := bytesEqualFiles(repFile, candidateAbs)
		repFile.Close()
		if err != nil {
			return false, err
		}
		return eq, nil
	}
	return false, nil
}

func bytesEqualFiles(a io.Reader, candidateAbs string) (bool, error) {
	b, err := os.Open(candidateAbs)
	if err != nil {
		return false, fmt.Errorf("analyzer: reopen candidate: %w", err)
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

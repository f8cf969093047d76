package indexer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/internal/dcontext"
	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/pathcodec"
	"github.com/sherwoodwang/rededup/recindex"
	"github.com/sherwoodwang/rededup/walker"
)

// hashRetries bounds the re-hash attempts made when a file's mtime
// keeps changing while it is being read, guaranteeing forward
// progress under the bounded-retry-at-least-once policy for a file
// that keeps changing under us.
const hashRetries = 2

// job is one file queued for phase 2 after phase 1 determined it
// needs (re)hashing.
type job struct {
	relPath string
	absPath string
	mtimeNS int64
}

// staleSignature is an "m:" entry whose file no longer exists on
// disk.
type staleSignature struct {
	relPath string
	sig     recindex.Signature
}

// Refresh walks root, hashes every new or changed file, resolves its
// equivalent class, and prunes signatures whose file has disappeared,
// following a discover-then-resolve two-phase procedure. alg must match the
// repository's configured c:hash-algorithm.
func Refresh(ctx context.Context, store kvstore.Store, root string, alg hasher.Algorithm) error {
	jobs, stale, err := discover(ctx, store, root)
	if err != nil {
		return err
	}

	resolver := recindex.NewResolver(store, func(relPath string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(root, filepath.FromSlash(relPath)))
	})
	writer := NewWriter(store, resolver)

	writerCtx, cancelWriter := context.WithCancel(ctx)
	defer cancelWriter()

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		writer.Run(writerCtx)
	}()

	runErr := runPhases(ctx, writer, alg, root, jobs, stale)

	writer.Close()
	writerWG.Wait()

	return runErr
}

// discover performs phase 1: it walks the filesystem, compares
// against existing "m:" signatures, and returns the set of files that
// need (re)hashing along with signatures whose file has disappeared.
func discover(ctx context.Context, store kvstore.Store, root string) (jobs []job, stale []staleSignature, err error) {
	disk := make(map[string]job)

	walkErr := walker.Walk(ctx, root, func(e walker.Entry) error {
		if e.IsDir {
			return nil
		}
		disk[e.RelPath] = job{
			relPath: e.RelPath,
			absPath: filepath.Join(root, filepath.FromSlash(e.RelPath)),
			mtimeNS: e.Info.ModTime().UnixNano(),
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("indexer: walk repository: %w", walkErr)
	}

	seen := make(map[string]struct{}, len(disk))

	it, err := store.IterPrefix(ctx, recindex.SignaturePrefix())
	if err != nil {
		return nil, nil, fmt.Errorf("indexer: iterate signatures: %w", err)
	}
	defer it.Close()

	for it.Next() {
		relPath, err := pathcodec.DecodePath(recindex.SignaturePathSuffix(it.Key()))
		if err != nil {
			return nil, nil, fmt.Errorf("indexer: decode signature path: %w", err)
		}
		sig, err := recindex.DecodeSignature(it.Value())
		if err != nil {
			return nil, nil, fmt.Errorf("indexer: decode signature %q: %w", relPath, err)
		}

		seen[relPath] = struct{}{}

		j, onDisk := disk[relPath]
		if !onDisk {
			stale = append(stale, staleSignature{relPath: relPath, sig: sig})
			continue
		}
		if sig.HasECID() && sig.MtimeNS == j.mtimeNS {
			continue
		}
		jobs = append(jobs, j)
	}
	if err := it.Err(); err != nil {
		return nil, nil, err
	}

	for relPath, j := range disk {
		if _, ok := seen[relPath]; ok {
			continue
		}
		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(i, k int) bool { return jobs[i].relPath < jobs[k].relPath })
	sort.Slice(stale, func(i, k int) bool { return stale[i].relPath < stale[k].relPath })

	return jobs, stale, nil
}

// runPhases prunes stale signatures and then drives phase 2: a worker
// pool sized runtime.GOMAXPROCS(0) hashes each job and hands the
// result to the writer for resolution.
func runPhases(ctx context.Context, writer *Writer, alg hasher.Algorithm, root string, jobs []job, stale []staleSignature) error {
	for _, s := range stale {
		if err := writer.Prune(ctx, s.relPath, s.sig); err != nil {
			return err
		}
	}

	for _, j := range jobs {
		if err := writer.MarkPending(ctx, j.relPath, j.mtimeNS); err != nil {
			return err
		}
	}

	if len(jobs) == 0 {
		return nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	jobCh := make(chan job)
	errCh := make(chan error, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if err := hashAndResolve(ctx, writer, alg, j); err != nil {
					select {
					case errCh <- err:
					default:
					}
				}
			}
		}()
	}

feed:
	for _, j := range jobs {
		select {
		case jobCh <- j:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

// hashAndResolve hashes one job's file, retrying a bounded number of
// times if the mtime keeps moving out from under it, then hands the
// result to the writer. I/O errors on this one file are logged and
// its pending signature is deleted rather than aborting the refresh.
func hashAndResolve(ctx context.Context, writer *Writer, alg hasher.Algorithm, j job) error {
	log := dcontext.GetLoggerWithField(ctx, "path", j.relPath)

	preMtime := j.mtimeNS
	var digest []byte
	var converged bool

	for attempt := 0; attempt < hashRetries; attempt++ {
		f, err := os.Open(j.absPath)
		if err != nil {
			log.Warnf("indexer: file unreadable during refresh: %v", err)
			return writer.DeletePending(ctx, j.relPath)
		}

		digest, err = hasher.Hash(alg, f)
		f.Close()
		if err != nil {
			log.Warnf("indexer: hashing failed: %v", err)
			return writer.DeletePending(ctx, j.relPath)
		}

		info, err := os.Lstat(j.absPath)
		if err != nil {
			log.Warnf("indexer: file vanished after hashing: %v", err)
			return writer.DeletePending(ctx, j.relPath)
		}
		postMtime := info.ModTime().UnixNano()

		if postMtime == preMtime {
			converged = true
			break
		}
		preMtime = postMtime
	}

	if !converged {
		log.Warnf("indexer: mtime kept changing after %d attempts, leaving unresolved", hashRetries)
		return nil
	}

	content := func() (io.ReadCloser, error) {
		return os.Open(j.absPath)
	}

	_, err := writer.Resolve(ctx, j.relPath, digest, preMtime, content)
	return err
}

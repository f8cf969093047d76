// Package repository implements repository discovery: locating the
// directory tree a rededup index is rooted at, opening its store, and
// acquiring the advisory lock that guards it against concurrent
// mutation.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/kvbase"
	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/lockfile"
	"github.com/sherwoodwang/rededup/recindex"
	"github.com/sherwoodwang/rededup/rerrcode"
)

const (
	dotDir     = ".rededup"
	dbFileName = "index.db"
	// EnvRepository is the environment variable consulted after an
	// explicit --repository flag and before ascent from the working
	// directory.
	EnvRepository = "REDEDUP_REPOSITORY"
)

// Repository is an opened, locked rededup repository: its root
// directory, its key-value store, and the advisory lock held over it
// for the lifetime of the process.
type Repository struct {
	Root  string
	Store kvstore.Store

	lock *lockfile.Lock
}

// Discover resolves the repository root following the documented
// precedence: an explicit path (as given on the command line), then
// the REDEDUP_REPOSITORY environment variable, then ascent from the
// current working directory until a ".rededup" directory is found.
func Discover(explicit string) (string, error) {
	if explicit != "" {
		return findUpward(explicit)
	}
	if env := os.Getenv(EnvRepository); env != "" {
		return findUpward(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("repository: getwd: %w", err)
	}
	return findUpward(cwd)
}

// findUpward returns start if it already contains a ".rededup"
// directory, otherwise ascends start's ancestors until it finds one
// that does.
func findUpward(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("repository: resolve %q: %w", start, err)
	}

	for candidate := abs; ; {
		info, err := os.Stat(filepath.Join(candidate, dotDir))
		if err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", rerrcode.ErrorCodeRepositoryNotFound.WithArgs(abs)
		}
		candidate = parent
	}
}

// Open discovers the repository root, opens its bbolt-backed store,
// and acquires the advisory lock. It refuses to open a repository
// left in a truncating state — only the rebuild command, via Init,
// may proceed through that state. The caller
// must call Close when done.
func Open(ctx context.Context, explicit string) (*Repository, error) {
	repo, err := OpenAllowingTruncating(ctx, explicit)
	if err != nil {
		return nil, err
	}
	if err := checkNotTruncating(ctx, repo.Store, repo.Root); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// OpenAllowingTruncating is like Open, but does not refuse a
// repository left in a truncating state. The rebuild command, the
// operation that clears that state, opens the repository the same way
// through Init.
func OpenAllowingTruncating(ctx context.Context, explicit string) (*Repository, error) {
	root, err := Discover(explicit)
	if err != nil {
		return nil, err
	}
	return openAt(root)
}

// Init creates a new repository rooted at explicit (or the current
// directory if explicit is empty), initializing its ".rededup"
// directory if one is not already present, and opens it exactly as
// OpenAllowingTruncating would. Only the rebuild command uses this:
// every other command operates on a repository that must already
// exist, via Open.
func Init(explicit string) (*Repository, error) {
	root := explicit
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("repository: getwd: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("repository: resolve %q: %w", root, err)
	}
	if err := os.MkdirAll(filepath.Join(abs, dotDir), 0o755); err != nil {
		return nil, rerrcode.ErrorCodeIO.WithArgs(err.Error())
	}
	return openAt(abs)
}

func openAt(root string) (*Repository, error) {
	lock, err := lockfile.Acquire(root)
	if err != nil {
		return nil, rerrcode.ErrorCodeIO.WithArgs(err.Error())
	}

	dbPath := filepath.Join(root, dotDir, dbFileName)
	bolt, err := kvstore.OpenBolt(dbPath)
	if err != nil {
		lock.Release()
		return nil, rerrcode.ErrorCodeIO.WithArgs(err.Error())
	}

	return &Repository{Root: root, Store: kvbase.Wrap(bolt), lock: lock}, nil
}

func checkNotTruncating(ctx context.Context, store kvstore.Store, root string) error {
	_, ok, err := store.Get(ctx, recindex.ConfigKey(recindex.ConfigTruncating))
	if err != nil {
		return rerrcode.ErrorCodeIO.WithArgs(err.Error())
	}
	if ok {
		return rerrcode.ErrorCodeTruncating.WithArgs(root)
	}
	return nil
}

// Close releases the advisory lock and closes the underlying store.
func (r *Repository) Close() error {
	var firstErr error
	if closer, ok := r.Store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if err := r.lock.Release(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// CheckHashAlgorithm verifies that requested, if non-empty, matches
// the repository's configured hash algorithm, returning
// ErrorCodeHashAlgorithmMismatch on conflict. It is a no-op (returning
// requested unmodified) when the repository has no configured
// algorithm yet, as happens before the first rebuild.
func (r *Repository) CheckHashAlgorithm(ctx context.Context, requested hasher.Algorithm) (hasher.Algorithm, error) {
	raw, ok, err := r.Store.Get(ctx, recindex.ConfigKey(recindex.ConfigHashAlgorithm))
	if err != nil {
		return "", rerrcode.ErrorCodeIO.WithArgs(err.Error())
	}
	if !ok {
		return requested, nil
	}

	configured := hasher.Algorithm(raw)
	if requested != "" && requested != configured {
		return "", rerrcode.ErrorCodeHashAlgorithmMismatch.WithArgs(string(requested), string(configured))
	}
	return configured, nil
}

// Package lockfile provides the advisory per-repository lock named in
// the "shared resources" requirement: a single OS-level file lock over
// a repository's ".rededup" directory, guarding against two rededup
// processes mutating the same index concurrently.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const fileName = "lock"

// Lock holds an acquired advisory lock over a repository directory.
type Lock struct {
	flock *flock.Flock
	path  string
	token string
}

// Acquire takes the advisory lock for the repository rooted at root
// (its ".rededup" directory), failing immediately rather than
// blocking if another process already holds it. The lock file content
// records the holding process's PID and a time-ordered session token,
// so a failed acquisition can report who holds it.
func Acquire(root string) (*Lock, error) {
	dir := filepath.Join(root, ".rededup")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("lockfile: create %q: %w", dir, err)
	}

	path := filepath.Join(dir, fileName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lockfile: acquire %q: %w", path, err)
	}
	if !ok {
		holder := readHolder(path)
		return nil, fmt.Errorf("lockfile: repository %q is locked by %s", root, holder)
	}

	token := uuid.Must(uuid.NewV7()).String()
	content := fmt.Sprintf("pid=%d token=%s\n", os.Getpid(), token)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("lockfile: write %q: %w", path, err)
	}

	return &Lock{flock: fl, path: path, token: token}, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("lockfile: release %q: %w", l.path, err)
	}
	return nil
}

// Token returns this lock holder's session token, the value diagnostic
// messages use to identify "who holds the lock".
func (l *Lock) Token() string {
	return l.token
}

// readHolder best-efforts a diagnostic description of whoever
// currently holds the lock file, for the error a failed Acquire
// returns. A failure to read or parse it degrades to "unknown holder"
// rather than masking the original lock-contention error.
func readHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown holder"
	}
	line := strings.TrimSpace(string(data))
	if line == "" {
		return "unknown holder"
	}

	var pid, token string
	for _, field := range strings.Fields(line) {
		if v, ok := strings.CutPrefix(field, "pid="); ok {
			pid = v
		}
		if v, ok := strings.CutPrefix(field, "token="); ok {
			token = v
		}
	}
	if pid == "" {
		return "unknown holder"
	}
	if _, err := strconv.Atoi(pid); err != nil {
		return "unknown holder"
	}
	return fmt.Sprintf("pid %s (token %s)", pid, token)
}

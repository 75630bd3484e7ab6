// Package runlock serializes runs that write the same output.
package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"castcut/internal/fileutil"
	"castcut/internal/services"
)

// Lock is a held run lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock for output inside dir without blocking. A second
// run for the same output path fails with services.ErrRunInProgress; outputs
// that only share a file name lock independently.
func Acquire(dir, output string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	path, err := lockPath(dir, output)
	if err != nil {
		return nil, err
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked by another run", services.ErrRunInProgress, output)
	}
	return &Lock{path: path, lock: fl}, nil
}

// lockPath names the lock file after the output's base name, for people
// browsing the lock directory, plus a digest of its absolute path.
func lockPath(dir, output string) (string, error) {
	abs, err := filepath.Abs(output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	name := fileutil.SanitizeName(filepath.Base(abs)) + "-" + hex.EncodeToString(sum[:6]) + ".lock"
	return filepath.Join(dir, name), nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks. The lock file stays behind: removing it would let a run
// that opened the old inode before the unlink hold a lock nobody else sees.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

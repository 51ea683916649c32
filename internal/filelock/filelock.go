// Package filelock provides cross-process locking for workspace runs and
// atomic writes for configuration files.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock serializes orchestration runs against one workspace. It wraps a
// flock on a lock file in the workspace root so two cyrus processes cannot
// drive the same member tree at the same time.
type RunLock struct {
	flock *flock.Flock
	path  string
}

// NewRunLock creates a run lock backed by the given lock file path.
func NewRunLock(path string) *RunLock {
	return &RunLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Acquire takes the lock without blocking. It returns a release function on
// success and an error if another run already holds the lock.
func (l *RunLock) Acquire() (release func(), err error) {
	ok, err := l.flock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %s: %w", l.path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another run is already in progress (lock held on %s)", l.path)
	}
	return func() { _ = l.flock.Unlock() }, nil
}

// Lock acquires the lock, blocking until it is available.
func (l *RunLock) Lock() error {
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire run lock %s: %w", l.path, err)
	}
	return nil
}

// Unlock releases the lock.
func (l *RunLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release run lock %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to path via a temp file and rename so readers never
// observe a partially written descriptor.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Temp file in the target directory keeps the rename on one filesystem.
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tempFile = nil

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// FileLock serializes writers to one document: a mutex inside the process
// and an advisory lock on a sidecar file across processes sharing the
// storage directory.
type FileLock struct {
	path string

	mu   sync.Mutex
	held *os.File
}

// NewFileLock creates a lock for the document at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path + ".lock"}
}

// Lock blocks until the lock is held.
func (l *FileLock) Lock() error {
	l.mu.Lock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		l.mu.Unlock()
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	l.held = f
	return nil
}

// Unlock releases the lock and removes the sidecar file. Unlocking a lock
// that is not held is a no-op.
func (l *FileLock) Unlock() error {
	f := l.held
	if f == nil {
		return nil
	}
	l.held = nil
	defer l.mu.Unlock()

	err := errors.Join(unlockFile(f), f.Close())
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) {
		err = errors.Join(err, rmErr)
	}
	return err
}

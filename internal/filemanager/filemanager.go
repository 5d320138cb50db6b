// Package filemanager provides the raw file operations behind inboxes and
// outboxes: idempotent creation, single-write line appends with optional
// process-level locking, and whole-file line reads.
package filemanager

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLockTimeout is returned when acquiring a file lock times out
var ErrLockTimeout = errors.New("timeout acquiring file lock")

// Touch creates path as an empty file if it does not exist. Existing
// content is never truncated. Missing parent directories are created.
func Touch(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f.Close()
}

// Appender appends records to files. It holds no file handles between
// calls; every Append is a complete open-write-sync-close cycle.
type Appender struct {
	// lockTimeout is the maximum time to wait for a file lock
	lockTimeout time.Duration
}

// DefaultLockTimeout bounds lock acquisition when no timeout is given
const DefaultLockTimeout = 5 * time.Second

// NewAppender creates an Appender waiting at most timeout for a file lock.
// A non-positive timeout means DefaultLockTimeout.
func NewAppender(timeout time.Duration) *Appender {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &Appender{
		lockTimeout: timeout,
	}
}

// Append writes data to the end of path in a single write call, creating
// the file first if needed. With lock set, an exclusive advisory lock is
// held for the duration of the write so cooperating processes cannot
// interleave records. ctx only bounds lock acquisition: cancelling it
// abandons a pending lock wait, but once the write has started it runs to
// completion.
func (a *Appender) Append(ctx context.Context, path string, data []byte, lock bool) error {
	if err := Touch(path); err != nil {
		return err
	}

	if lock {
		fl := createLock(path)
		defer cleanupLockFile(path)

		lockCtx, cancel := context.WithTimeout(ctx, a.lockTimeout)
		defer cancel()

		locked, err := fl.TryLockContext(lockCtx, 10*time.Millisecond)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return ErrLockTimeout
			}
			return fmt.Errorf("failed to acquire append lock: %w", err)
		}
		if !locked {
			return ErrLockTimeout
		}
		defer func() { _ = fl.Unlock() }()
	}

	f, err := openAppend(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for append: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// ReadLines returns every newline-terminated record in path without the
// terminator. A trailing unterminated fragment is ignored since a writer
// may still be completing it.
func ReadLines(path string) ([]string, error) {
	data, err := readFileWithRetry(path)
	if err != nil {
		return nil, err
	}

	if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
		data = data[:i+1]
	} else {
		return nil, nil
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return lines, nil
}

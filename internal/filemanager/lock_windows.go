//go:build windows

package filemanager

import (
	"os"
	"time"

	"github.com/gofrs/flock"
)

// createLock uses a sibling .lock file. Windows byte-range locks on the
// target would block the append itself.
func createLock(path string) *flock.Flock {
	return flock.New(getLockPath(path))
}

// cleanupLockFile removes a stale sibling lock file.
func cleanupLockFile(path string) {
	lockPath := getLockPath(path)
	info, err := os.Stat(lockPath)
	if err == nil && time.Since(info.ModTime()) > 5*time.Second {
		_ = os.Remove(lockPath)
	}
}

func getLockPath(path string) string {
	return path + ".lock"
}

//go:build !windows

package filemanager

import "github.com/gofrs/flock"

// createLock locks the target file itself. Appends go through O_APPEND on
// a separate descriptor, so the flock does not get in their way.
func createLock(path string) *flock.Flock {
	return flock.New(path)
}

// cleanupLockFile is a no-op on Unix since no side file is created.
func cleanupLockFile(path string) {}

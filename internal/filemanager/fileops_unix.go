//go:build !windows

package filemanager

import "os"

// openAppend opens path write-only with O_APPEND so every write lands at
// the current end of file.
func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
}

// readFileWithRetry on Unix just delegates to os.ReadFile
func readFileWithRetry(path string) ([]byte, error) {
	return os.ReadFile(path)
}

//go:build windows

package filemanager

import (
	"os"
	"strings"
	"time"
)

// openAppend opens path for appending, retrying briefly while another
// process holds a conflicting handle.
func openAppend(path string) (*os.File, error) {
	var f *os.File
	var err error
	for i := 0; i < 5; i++ {
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			return f, nil
		}
		if !os.IsPermission(err) && !isFileLocked(err) {
			return nil, err
		}
		time.Sleep(time.Duration(10*(1<<uint(i))) * time.Millisecond)
	}
	return nil, err
}

// readFileWithRetry reads path, backing off on sharing violations.
func readFileWithRetry(path string) ([]byte, error) {
	var data []byte
	var err error
	for i := 0; i < 5; i++ {
		data, err = os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if os.IsPermission(err) || isFileLocked(err) {
			time.Sleep(time.Duration(10*(1<<uint(i))) * time.Millisecond)
			continue
		}
		return nil, err
	}
	return nil, err
}

func isFileLocked(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "being used by another process") ||
		strings.Contains(msg, "The process cannot access")
}

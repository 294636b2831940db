//go:build windows

package utils

// SyncDir is a no-op on Windows, where directories cannot be opened for fsync.
func SyncDir(path string) error {
	return nil
}

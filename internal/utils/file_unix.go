//go:build unix

package utils

import "os"

// SyncDir flushes directory metadata so created, renamed and removed files
// survive a crash.
func SyncDir(path string) error {
	d, err := os.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sync()
}

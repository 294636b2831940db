package utils

import (
	"fmt"
	"os"
)

// TruncateAt cuts f at offset and syncs it so the shorter length survives a
// crash.
func TruncateAt(f *os.File, offset int64) error {
	if err := f.Truncate(offset); err != nil {
		return fmt.Errorf("truncate %s at %d: %w", f.Name(), offset, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s after truncate: %w", f.Name(), err)
	}
	return nil
}

// PathExists reports whether path names an existing file or directory.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

//go:build windows

package lock

import (
	"fmt"
	"os"
	"path/filepath"
)

// LockDirectory creates the LOCK file inside path exclusively. An existing
// file means another instance owns the directory.
func LockDirectory(path string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(path, FileName), os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	return f, nil
}

// UnlockDirectory closes and removes the lock file. Call it exactly once per
// successful LockDirectory.
func UnlockDirectory(f *os.File) {
	if f == nil {
		return
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
}

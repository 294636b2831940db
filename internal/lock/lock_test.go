package lock_test

import (
	"errors"
	"testing"

	"github.com/XDXX/PNA/internal/lock"
)

func TestLockDirectory(t *testing.T) {
	t.Run("second lock on the same directory fails while the first is held", func(t *testing.T) {
		dir := t.TempDir()

		f, err := lock.LockDirectory(dir)
		if err != nil {
			t.Fatalf("could not take initial lock: %v", err)
		}
		defer lock.UnlockDirectory(f)

		f2, err := lock.LockDirectory(dir)
		if err == nil {
			lock.UnlockDirectory(f2)
			t.Fatal("second lock was not supposed to succeed")
		}
		if !errors.Is(err, lock.ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}
	})

	t.Run("directory can be locked again after unlock", func(t *testing.T) {
		dir := t.TempDir()

		f, err := lock.LockDirectory(dir)
		if err != nil {
			t.Fatalf("could not take lock: %v", err)
		}
		lock.UnlockDirectory(f)

		f2, err := lock.LockDirectory(dir)
		if err != nil {
			t.Fatalf("lock was supposed to be free again: %v", err)
		}
		lock.UnlockDirectory(f2)
	})
}

// Package lock guards a data directory against concurrent use by more than
// one store.
package lock

import "errors"

// ErrLocked is returned when another process already holds the directory.
var ErrLocked = errors.New("directory already in use by another kvs instance")

// FileName is the lock file created inside the guarded directory.
const FileName = "LOCK"

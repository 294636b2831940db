package core

// Engine is the capability set every storage backend provides. The server
// only ever talks to an Engine, never to a concrete store type.
//
// Implementations must be safe for concurrent use.
type Engine interface {
	// Set stores value under key, replacing any previous value.
	Set(key, value []byte) error

	// Get returns the value stored under key. A missing key is reported with
	// ok == false, not with an error.
	Get(key []byte) (value []byte, ok bool, err error)

	// Remove deletes key. It fails with ErrKeyNotFound if the key is absent.
	Remove(key []byte) error

	// Keys returns every live key in ascending byte order.
	Keys() ([][]byte, error)

	Close() error
}

func validate(key, value []byte) error {
	if len(key) > MaxKeySize {
		return ErrKeyTooLarge
	}
	if len(value) > MaxValueSize {
		return ErrValueTooLarge
	}
	return nil
}

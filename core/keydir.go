package core

import (
	"bytes"
	"slices"
)

// KeyDirEntry locates the latest Set record of a key on disk.
type KeyDirEntry struct {
	Generation uint64 // Generation file containing the record
	Offset     int64  // Byte offset in the generation where the record starts
	Length     uint32 // Total size of the record on disk (header + key + value)
}

// KeyDir is the in-memory index mapping keys to their latest on-disk entries.
//
// Each entry points to the newest Set record of a key across all
// generations. Removed keys have no entry. Shadowed records stay on disk
// until compaction. The KeyDir is rebuilt on startup by replaying every
// generation oldest to newest.
//
// A KeyDir is not safe for concurrent use; the owning store guards it.
type KeyDir struct {
	entries       map[string]KeyDirEntry
	perGeneration map[uint64]int
}

func NewKeyDir(capacity int) *KeyDir {
	return &KeyDir{
		entries:       make(map[string]KeyDirEntry, capacity),
		perGeneration: make(map[uint64]int),
	}
}

// Insert points key at entry and returns the entry it replaced, if any.
func (kd *KeyDir) Insert(key []byte, entry KeyDirEntry) (KeyDirEntry, bool) {
	prev, ok := kd.entries[string(key)]
	if ok {
		kd.release(prev.Generation)
	}

	kd.entries[string(key)] = entry
	kd.perGeneration[entry.Generation]++

	return prev, ok
}

// Remove deletes key and returns the entry it had, if any.
func (kd *KeyDir) Remove(key []byte) (KeyDirEntry, bool) {
	prev, ok := kd.entries[string(key)]
	if !ok {
		return KeyDirEntry{}, false
	}

	delete(kd.entries, string(key))
	kd.release(prev.Generation)

	return prev, true
}

func (kd *KeyDir) Get(key []byte) (KeyDirEntry, bool) {
	entry, ok := kd.entries[string(key)]
	return entry, ok
}

func (kd *KeyDir) Len() int {
	return len(kd.entries)
}

// References reports whether any entry points into generation.
func (kd *KeyDir) References(generation uint64) bool {
	return kd.perGeneration[generation] > 0
}

// Keys returns all keys in ascending byte order.
func (kd *KeyDir) Keys() [][]byte {
	keys := make([][]byte, 0, len(kd.entries))
	for k := range kd.entries {
		keys = append(keys, []byte(k))
	}
	slices.SortFunc(keys, bytes.Compare)
	return keys
}

func (kd *KeyDir) release(generation uint64) {
	kd.perGeneration[generation]--
	if kd.perGeneration[generation] <= 0 {
		delete(kd.perGeneration, generation)
	}
}

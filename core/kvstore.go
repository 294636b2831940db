package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/XDXX/PNA/internal/lock"
	"github.com/XDXX/PNA/internal/record"
	"github.com/XDXX/PNA/internal/segment"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
)

const kvsEngineName = "kvs"

// KvStore is the log-structured storage engine.
//
// Every Set and Remove is appended to the active generation and reflected in
// an in-memory KeyDir; Get reads exactly one record through the KeyDir. When
// the stale bytes left behind by overwrites and removals exceed the
// configured threshold, all live records are rewritten into a fresh
// generation and the old ones are deleted.
//
// A single RWMutex guards the KeyDir and the segment manager. Set, Remove and
// compaction hold it exclusively; Get and Keys share it. Readers therefore
// never see an entry that points into a generation compaction has deleted.
type KvStore struct {
	mu sync.RWMutex

	dir        string
	lockFile   *os.File
	segments   *segment.Manager
	keyDir     *KeyDir
	staleBytes uint64
	failedAt   uint64     // stale bytes at the last failed automatic compaction, 0 if none
	cache      *lru.Cache // KeyDirEntry -> []byte
	closed     bool

	opts   Options
	logger log.FieldLogger

	syncCancel context.CancelFunc
	syncDone   chan struct{}
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Keys             int
	StaleBytes       uint64
	Generations      []uint64
	ActiveGeneration uint64
	DiskBytes        int64
}

// Open opens the store in dir, replaying its log to rebuild the index.
func Open(dir string, opts ...Option) (*KvStore, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = log.WithField("component", "kvstore")
	}
	if options.CompactionThreshold == 0 {
		return nil, errors.New("compaction threshold must be positive")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	lf, err := lock.LockDirectory(dir)
	if err != nil {
		return nil, err
	}

	segments, err := segment.Open(filepath.Join(dir, DataDirName), options.Logger.WithField("component", "segments"))
	if err != nil {
		lock.UnlockDirectory(lf)
		return nil, err
	}

	s := &KvStore{
		dir:      dir,
		lockFile: lf,
		segments: segments,
		keyDir:   NewKeyDir(0),
		opts:     options,
		logger:   options.Logger,
	}

	if options.CacheSize > 0 {
		s.cache, err = lru.New(options.CacheSize)
		if err != nil {
			s.abortOpen()
			return nil, err
		}
	}

	if err := s.recover(); err != nil {
		s.abortOpen()
		return nil, err
	}

	if err := segments.Activate(); err != nil {
		s.abortOpen()
		return nil, err
	}

	s.updateGauges()

	if options.SyncInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.syncCancel = cancel
		s.syncDone = make(chan struct{})
		go s.syncDiskInterval(ctx, options.SyncInterval)
	}

	return s, nil
}

func (s *KvStore) abortOpen() {
	s.segments.Close()
	lock.UnlockDirectory(s.lockFile)
}

// Set stores value under key.
func (s *KvStore) Set(key, value []byte) error {
	defer observe(kvsEngineName, SetOperation, time.Now())

	if err := validate(key, value); err != nil {
		return err
	}

	encoded, err := record.Encode(record.NewSet(key, value))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	gen, offset, err := s.segments.Append(encoded)
	if err != nil {
		return fmt.Errorf("set: append: %w", err)
	}

	entry := KeyDirEntry{Generation: gen, Offset: offset, Length: uint32(len(encoded))}
	if prev, ok := s.keyDir.Insert(key, entry); ok {
		s.staleBytes += uint64(prev.Length)
		s.uncache(prev)
	}
	s.cacheValue(entry, value)

	if err := s.syncIfNeeded(); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	s.maybeCompact()
	s.updateGauges()
	return nil
}

// Get returns the value stored under key.
func (s *KvStore) Get(key []byte) ([]byte, bool, error) {
	defer observe(kvsEngineName, GetOperation, time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrClosed
	}

	entry, ok := s.keyDir.Get(key)
	if !ok {
		return nil, false, nil
	}

	if value, ok := s.cachedValue(entry); ok {
		EngineCacheHits.Inc()
		return value, true, nil
	}

	data, err := s.segments.ReadAt(entry.Generation, entry.Offset, entry.Length)
	if err != nil {
		return nil, false, fmt.Errorf("get: %w", err)
	}

	rec, err := record.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("get: generation %d offset %d: %w", entry.Generation, entry.Offset, err)
	}
	if rec.Kind != record.KindSet || !bytes.Equal(rec.Key, key) {
		return nil, false, fmt.Errorf("get: generation %d offset %d: %w: index points at a %v record for %q",
			entry.Generation, entry.Offset, ErrCorruptRecord, rec.Kind, rec.Key)
	}

	EngineDiskHits.Inc()
	s.cacheValue(entry, rec.Value)

	return rec.Value, true, nil
}

// Remove deletes key, failing with ErrKeyNotFound if it is absent.
func (s *KvStore) Remove(key []byte) error {
	defer observe(kvsEngineName, RemoveOperation, time.Now())

	if len(key) > MaxKeySize {
		return ErrKeyTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	prev, ok := s.keyDir.Get(key)
	if !ok {
		return ErrKeyNotFound
	}

	encoded, err := record.Encode(record.NewRemove(key))
	if err != nil {
		return err
	}

	if _, _, err := s.segments.Append(encoded); err != nil {
		return fmt.Errorf("remove: append: %w", err)
	}

	s.keyDir.Remove(key)
	s.staleBytes += uint64(prev.Length) + uint64(len(encoded))
	s.uncache(prev)

	if err := s.syncIfNeeded(); err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	s.maybeCompact()
	s.updateGauges()
	return nil
}

// Keys returns every live key in ascending order.
func (s *KvStore) Keys() ([][]byte, error) {
	defer observe(kvsEngineName, ScanOperation, time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	return s.keyDir.Keys(), nil
}

// Stats reports the current index and disk usage.
func (s *KvStore) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Stats{}, ErrClosed
	}

	size, err := s.segments.TotalSize()
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Keys:             s.keyDir.Len(),
		StaleBytes:       s.staleBytes,
		Generations:      s.segments.Generations(),
		ActiveGeneration: s.segments.ActiveID(),
		DiskBytes:        size,
	}, nil
}

// Close stops background work, syncs the active generation and releases the
// directory lock.
func (s *KvStore) Close() error {
	if s.syncCancel != nil {
		s.syncCancel()
		<-s.syncDone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.segments.Close()
	lock.UnlockDirectory(s.lockFile)

	if s.cache != nil {
		s.cache.Purge()
	}

	s.logger.Debug("store closed")
	return err
}

func (s *KvStore) syncIfNeeded() error {
	if !s.opts.SyncOnWrite {
		return nil
	}
	if err := s.segments.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

func (s *KvStore) syncDiskInterval(ctx context.Context, interval time.Duration) {
	defer close(s.syncDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()

			s.mu.Lock()
			var err error
			if !s.closed {
				err = s.segments.Sync()
			}
			s.mu.Unlock()

			observe(kvsEngineName, SyncOperation, start)
			if err != nil {
				s.logger.WithError(err).Error("error syncing active generation")
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *KvStore) cachedValue(entry KeyDirEntry) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	v, ok := s.cache.Get(entry)
	if !ok {
		return nil, false
	}

	return bytes.Clone(v.([]byte)), true
}

func (s *KvStore) cacheValue(entry KeyDirEntry, value []byte) {
	if s.cache == nil {
		return
	}
	s.cache.Add(entry, bytes.Clone(value))
}

func (s *KvStore) uncache(entry KeyDirEntry) {
	if s.cache == nil {
		return
	}
	s.cache.Remove(entry)
}

func (s *KvStore) updateGauges() {
	EngineKeys.Set(float64(s.keyDir.Len()))
	EngineStaleBytes.Set(float64(s.staleBytes))
}

var _ Engine = (*KvStore)(nil)

// IsLocked reports whether Open failed because another process holds dir.
func IsLocked(err error) bool {
	return errors.Is(err, lock.ErrLocked)
}

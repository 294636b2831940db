package core

import (
	"fmt"
	"time"

	"github.com/XDXX/PNA/internal/record"
	"github.com/XDXX/PNA/internal/segment"
	log "github.com/sirupsen/logrus"
)

// Compact rewrites all live records into a fresh generation and deletes every
// older one.
func (s *KvStore) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	err := s.compact()
	s.updateGauges()
	return err
}

// maybeCompact runs compaction once stale bytes exceed the threshold. A
// failed compaction leaves the previous generations authoritative, so the
// write that triggered it still succeeds. After a failure the next attempt
// waits until another threshold's worth of stale bytes has accumulated.
func (s *KvStore) maybeCompact() {
	if s.staleBytes <= s.opts.CompactionThreshold {
		return
	}
	if s.failedAt > 0 && s.staleBytes-s.failedAt <= s.opts.CompactionThreshold {
		return
	}

	if err := s.compact(); err != nil {
		s.failedAt = s.staleBytes
		s.logger.WithError(err).WithField("stale_bytes", s.staleBytes).Error("compaction aborted")
	}
}

// compact must be called with s.mu held exclusively.
//
// Order of effects:
//  1. live records are copied into generation C and synced;
//  2. C is installed and a new active generation C+1 is opened;
//  3. the KeyDir is swapped to point into C;
//  4. every generation older than C is deleted, oldest first.
//
// A crash before step 2 leaves an extra generation whose records are all
// duplicates of live ones, so replay yields the same state. A crash during
// step 4 leaves a suffix of history that still replays to the same state
// because C holds every live value.
func (s *KvStore) compact() (err error) {
	start := time.Now()
	defer func() {
		observe(kvsEngineName, CompactOperation, start)

		status := "ok"
		if err != nil {
			status = "aborted"
		}
		EngineCompactions.WithLabelValues(status).Inc()
	}()

	before, err := s.segments.TotalSize()
	if err != nil {
		return err
	}

	obsolete := s.segments.Generations()

	w, keyDir, err := s.writeCompactedGeneration()
	if err != nil {
		return err
	}

	if err := s.segments.Install(w); err != nil {
		w.Abort()
		return fmt.Errorf("install compacted generation %d: %w", w.ID(), err)
	}

	if _, err := s.segments.Rotate(); err != nil {
		if derr := s.segments.Discard(w.ID()); derr != nil {
			s.logger.WithError(derr).WithField("generation", w.ID()).Error("unable to discard compacted generation")
		}
		return fmt.Errorf("open generation after compaction: %w", err)
	}

	s.keyDir = keyDir
	s.staleBytes = 0
	s.failedAt = 0
	if s.cache != nil {
		s.cache.Purge()
	}

	for _, id := range obsolete {
		if err := s.segments.RemoveGeneration(id, s.keyDir.References); err != nil {
			// Stop here so the surviving generations stay a suffix of history.
			s.logger.WithError(err).WithField("generation", id).Error("unable to remove compacted generation")
			break
		}
	}

	after, err := s.segments.TotalSize()
	if err != nil {
		return err
	}
	if before > after {
		EngineReclaimedBytes.Add(float64(before - after))
	}

	s.logger.WithFields(log.Fields{
		"generation":   w.ID(),
		"keys":         s.keyDir.Len(),
		"bytes_before": before,
		"bytes_after":  after,
		"took":         time.Since(start),
	}).Info("compaction finished")

	return nil
}

// writeCompactedGeneration copies the latest record of every live key, in
// key order, into a new generation that is not yet visible. Records are
// verified before being copied so corruption is never carried forward.
func (s *KvStore) writeCompactedGeneration() (*segment.Writer, *KeyDir, error) {
	w, err := s.segments.CreateGeneration(s.segments.NextID())
	if err != nil {
		return nil, nil, fmt.Errorf("create compacted generation: %w", err)
	}

	keyDir := NewKeyDir(s.keyDir.Len())

	for _, key := range s.keyDir.Keys() {
		entry, _ := s.keyDir.Get(key)

		data, err := s.segments.ReadAt(entry.Generation, entry.Offset, entry.Length)
		if err != nil {
			w.Abort()
			return nil, nil, err
		}

		if _, err := record.Decode(data); err != nil {
			w.Abort()
			return nil, nil, fmt.Errorf("generation %d offset %d: %w", entry.Generation, entry.Offset, err)
		}

		offset, err := w.Append(data)
		if err != nil {
			w.Abort()
			return nil, nil, err
		}

		keyDir.Insert(key, KeyDirEntry{Generation: w.ID(), Offset: offset, Length: entry.Length})
	}

	if err := w.Sync(); err != nil {
		w.Abort()
		return nil, nil, err
	}

	return w, keyDir, nil
}

package core

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/XDXX/PNA/internal/record"
	log "github.com/sirupsen/logrus"
)

// recover rebuilds the KeyDir and the stale byte count by replaying every
// generation from oldest to newest.
//
// A frame cut short by the end of a file is a write that never completed and
// is truncated away. A frame that is complete but fails its checksum is only
// tolerated as the very last bytes of the newest generation, where it is
// indistinguishable from a torn write. Corruption anywhere else is fatal.
func (s *KvStore) recover() error {
	defer observe(kvsEngineName, RecoverOperation, time.Now())

	ids := s.segments.Generations()
	for i, id := range ids {
		if err := s.replayGeneration(id, i == len(ids)-1); err != nil {
			return err
		}
	}

	s.logger.WithFields(log.Fields{
		"generations": len(ids),
		"keys":        s.keyDir.Len(),
		"stale_bytes": s.staleBytes,
	}).Info("rebuilt index from log")

	return nil
}

func (s *KvStore) replayGeneration(id uint64, newest bool) error {
	r, size, err := s.segments.OpenReader(id)
	if err != nil {
		return err
	}

	rd := record.NewReader(r)
	for {
		frame, err := rd.Next()
		switch {
		case err == nil:
			s.apply(id, frame)

		case errors.Is(err, io.EOF):
			return nil

		case errors.Is(err, record.ErrTruncated):
			return s.segments.Truncate(id, frame.Offset)

		case errors.Is(err, record.ErrCorruptRecord) && newest && frame.Size > 0 && frame.End() == size:
			s.logger.WithFields(log.Fields{"generation": id, "offset": frame.Offset}).
				Warn("dropping torn record at the end of the log")
			return s.segments.Truncate(id, frame.Offset)

		default:
			return fmt.Errorf("replay generation %d at offset %d: %w", id, frame.Offset, err)
		}
	}
}

func (s *KvStore) apply(generation uint64, frame record.Frame) {
	key := frame.Record.Key

	switch frame.Record.Kind {
	case record.KindSet:
		entry := KeyDirEntry{Generation: generation, Offset: frame.Offset, Length: frame.Size}
		if prev, ok := s.keyDir.Insert(key, entry); ok {
			s.staleBytes += uint64(prev.Length)
		}

	case record.KindRemove:
		if prev, ok := s.keyDir.Remove(key); ok {
			s.staleBytes += uint64(prev.Length)
		}
		s.staleBytes += uint64(frame.Size)
	}
}

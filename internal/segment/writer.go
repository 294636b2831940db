package segment

import (
	"errors"
	"fmt"
	"os"

	"github.com/XDXX/PNA/internal/utils"
)

// Writer fills a generation that is not yet visible to readers. Compaction
// writes live records through a Writer and either installs or aborts it.
type Writer struct {
	id     uint64
	path   string
	f      *os.File
	offset int64
}

// CreateGeneration starts a new, invisible generation with the given id.
func (m *Manager) CreateGeneration(id uint64) (*Writer, error) {
	if _, ok := m.readers[id]; ok {
		return nil, fmt.Errorf("generation %d already exists", id)
	}

	path := m.path(id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	return &Writer{id: id, path: path, f: f}, nil
}

func (w *Writer) ID() uint64 {
	return w.id
}

// Append writes data and returns the offset it was written at.
func (w *Writer) Append(data []byte) (int64, error) {
	n, err := w.f.WriteAt(data, w.offset)
	if err != nil {
		return 0, err
	}

	offset := w.offset
	w.offset += int64(n)
	return offset, nil
}

func (w *Writer) Sync() error {
	return w.f.Sync()
}

// Abort closes and deletes the unfinished generation.
func (w *Writer) Abort() error {
	cerr := w.f.Close()
	rerr := os.Remove(w.path)
	if rerr != nil && os.IsNotExist(rerr) {
		rerr = nil
	}
	return errors.Join(cerr, rerr)
}

// Install makes a fully written and synced generation visible to ReadAt.
// The writer must not be used afterwards.
func (m *Manager) Install(w *Writer) error {
	if err := w.f.Sync(); err != nil {
		return err
	}
	if err := w.f.Close(); err != nil {
		return err
	}

	r, err := os.Open(w.path)
	if err != nil {
		return err
	}

	if err := utils.SyncDir(m.dir); err != nil {
		r.Close()
		return err
	}

	m.readers[w.id] = r
	return nil
}

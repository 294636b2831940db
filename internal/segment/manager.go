// Package segment manages the ordered set of append-only generation files
// that make up a store's durable history.
//
// Generation files are named gen_<id>.data. Only the newest generation is
// open for writes; every generation, including the active one, has a
// read-only handle used for positional reads.
//
// A Manager is not safe for concurrent use, except that ReadAt may be called
// concurrently with other ReadAt calls. Callers serialize everything else.
package segment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/XDXX/PNA/internal/utils"
	log "github.com/sirupsen/logrus"
)

const (
	DataFilePrefix = "gen_"
	DataFileExt    = ".data"
)

var (
	// ErrGenerationInUse means a generation is still referenced and cannot be removed.
	ErrGenerationInUse = errors.New("generation in use")

	ErrUnknownGeneration = errors.New("unknown generation")
)

type Manager struct {
	dir     string
	readers map[uint64]*os.File

	active   *os.File
	activeID uint64
	offset   int64

	logger log.FieldLogger
}

// FileName returns the file name of generation id.
func FileName(id uint64) string {
	return fmt.Sprintf("%s%d%s", DataFilePrefix, id, DataFileExt)
}

// ParseFileName extracts the generation id from a data file name.
func ParseFileName(name string) (uint64, bool) {
	if filepath.Ext(name) != DataFileExt || !strings.HasPrefix(name, DataFilePrefix) {
		return 0, false
	}

	numberStr := strings.TrimSuffix(strings.TrimPrefix(name, DataFilePrefix), DataFileExt)
	id, err := strconv.ParseUint(numberStr, 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}

// Open scans dir for generation files, creating dir if needed. No generation
// is writable until Activate is called.
func Open(dir string, logger log.FieldLogger) (*Manager, error) {
	if logger == nil {
		logger = log.WithField("component", "segments")
	}

	if !utils.PathExists(dir) {
		logger.WithField("dir", dir).Info("data directory does not exist, creating it")
	}

	// 0 (special bit - ignored), 7 (rwx - owner), 5 (r-x - user group), 5 (r-x - others)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		dir:     dir,
		readers: make(map[uint64]*os.File),
		logger:  logger,
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		id, ok := ParseFileName(entry.Name())
		if !ok {
			continue
		}

		f, err := os.Open(m.path(id))
		if err != nil {
			m.Close()
			return nil, err
		}
		m.readers[id] = f
	}

	return m, nil
}

func (m *Manager) path(id uint64) string {
	return filepath.Join(m.dir, FileName(id))
}

// Dir returns the directory holding the generation files.
func (m *Manager) Dir() string {
	return m.dir
}

// Generations returns the ids of all known generations in ascending order.
func (m *Manager) Generations() []uint64 {
	ids := make([]uint64, 0, len(m.readers))
	for id := range m.readers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ActiveID is the generation currently receiving appends.
func (m *Manager) ActiveID() uint64 {
	return m.activeID
}

// NextID is the id the next created generation will get.
func (m *Manager) NextID() uint64 {
	ids := m.Generations()
	if len(ids) == 0 {
		return 0
	}
	return ids[len(ids)-1] + 1
}

// OpenReader returns a sequential reader over generation id and its size.
func (m *Manager) OpenReader(id uint64) (io.Reader, int64, error) {
	f, ok := m.readers[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownGeneration, id)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}

	return io.NewSectionReader(f, 0, info.Size()), info.Size(), nil
}

// Truncate cuts generation id at offset. It is used by recovery to drop a
// partially written trailing record and must run before Activate.
func (m *Manager) Truncate(id uint64, offset int64) error {
	if _, ok := m.readers[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGeneration, id)
	}

	f, err := os.OpenFile(m.path(id), os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	m.logger.WithFields(log.Fields{"generation": id, "offset": offset}).Warn("truncating partial trailing record")
	return utils.TruncateAt(f, offset)
}

// Activate opens the newest generation for appends, creating generation 0
// in an empty directory.
func (m *Manager) Activate() error {
	if m.active != nil {
		return errors.New("segment manager already active")
	}

	var id uint64
	if ids := m.Generations(); len(ids) > 0 {
		id = ids[len(ids)-1]
	}

	return m.openActive(id)
}

func (m *Manager) openActive(id uint64) error {
	f, err := os.OpenFile(m.path(id), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}

	// Sets the offset to the end of the active datafile
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return err
	}

	if _, ok := m.readers[id]; !ok {
		r, err := os.Open(m.path(id))
		if err != nil {
			f.Close()
			return err
		}
		m.readers[id] = r

		if err := utils.SyncDir(m.dir); err != nil {
			m.logger.WithError(err).Warn("unable to sync data directory")
		}
	}

	m.active = f
	m.activeID = id
	m.offset = offset
	return nil
}

// Append writes data at the end of the active generation and returns where
// it landed. A failed write is rolled back so the file never keeps a partial
// record in the middle of the log.
func (m *Manager) Append(data []byte) (uint64, int64, error) {
	if m.active == nil {
		return 0, 0, errors.New("no active generation")
	}

	n, err := m.active.WriteAt(data, m.offset)
	if err != nil {
		if n > 0 {
			if terr := m.active.Truncate(m.offset); terr != nil {
				m.logger.WithError(terr).Error("unable to roll back partial append")
			}
		}
		return 0, 0, err
	}

	offset := m.offset
	m.offset += int64(n)
	return m.activeID, offset, nil
}

// Sync flushes the active generation to stable storage.
func (m *Manager) Sync() error {
	if m.active == nil {
		return nil
	}
	return m.active.Sync()
}

// Rotate closes the active generation and starts a new one with the next id.
// The new file is created before the old one is closed, so on failure the
// previous generation stays active.
func (m *Manager) Rotate() (uint64, error) {
	prev := m.active
	if err := m.Sync(); err != nil {
		return 0, err
	}

	if err := m.openActive(m.NextID()); err != nil {
		return 0, err
	}

	if prev != nil {
		if err := prev.Close(); err != nil {
			m.logger.WithError(err).Warn("error while closing the previous active generation")
		}
	}

	m.logger.WithField("generation", m.activeID).Debug("rotated active generation")
	return m.activeID, nil
}

// ReadAt reads length bytes at offset of generation id.
func (m *Manager) ReadAt(id uint64, offset int64, length uint32) ([]byte, error) {
	f, ok := m.readers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGeneration, id)
	}

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("read generation %d at %d: %w", id, offset, err)
	}

	return buf, nil
}

// RemoveGeneration deletes a superseded generation. inUse reports whether
// anything still references a generation; the active generation is always
// in use.
func (m *Manager) RemoveGeneration(id uint64, inUse func(uint64) bool) error {
	f, ok := m.readers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGeneration, id)
	}

	if (m.active != nil && id == m.activeID) || (inUse != nil && inUse(id)) {
		return fmt.Errorf("%w: %d", ErrGenerationInUse, id)
	}

	return m.discard(id, f)
}

// Discard drops a generation regardless of references. It is only meant for
// undoing a generation that was never made visible.
func (m *Manager) Discard(id uint64) error {
	f, ok := m.readers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGeneration, id)
	}
	if m.active != nil && id == m.activeID {
		return fmt.Errorf("%w: %d", ErrGenerationInUse, id)
	}

	return m.discard(id, f)
}

func (m *Manager) discard(id uint64, f *os.File) error {
	f.Close()
	delete(m.readers, id)

	if err := os.Remove(m.path(id)); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := utils.SyncDir(m.dir); err != nil {
		m.logger.WithError(err).Warn("unable to sync data directory")
	}
	return nil
}

// TotalSize is the combined size of all generation files.
func (m *Manager) TotalSize() (int64, error) {
	var total int64
	for _, f := range m.readers {
		info, err := f.Stat()
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Close syncs the active generation and closes every handle.
func (m *Manager) Close() error {
	var errs []error

	if m.active != nil {
		if err := m.active.Sync(); err != nil {
			errs = append(errs, err)
		}
		if err := m.active.Close(); err != nil {
			errs = append(errs, err)
		}
		m.active = nil
	}

	for id, f := range m.readers {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(m.readers, id)
	}

	return errors.Join(errs...)
}

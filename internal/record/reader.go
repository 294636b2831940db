package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Frame is a record together with its position in the stream it was read from.
type Frame struct {
	Record *Record
	Offset int64  // Byte offset where the frame starts
	Size   uint32 // Total size of the frame (header + key + value)
}

// End returns the offset just past the frame.
func (f Frame) End() int64 {
	return f.Offset + int64(f.Size)
}

// Reader decodes consecutive frames from an append-only log.
type Reader struct {
	r      *bufio.Reader
	offset int64
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Offset is the position of the next frame.
func (rd *Reader) Offset() int64 {
	return rd.offset
}

// Next decodes the next frame.
//
// It returns io.EOF when the stream ends exactly on a frame boundary and
// ErrTruncated when it ends inside a frame. A complete frame that fails
// validation yields ErrCorruptRecord; in that case the returned Frame still
// carries Offset and, when the header was readable, the declared Size.
func (rd *Reader) Next() (Frame, error) {
	frame := Frame{Offset: rd.offset}

	hb := make([]byte, HeaderSize)
	if _, err := io.ReadFull(rd.r, hb); err != nil {
		if err == io.EOF {
			return frame, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return frame, fmt.Errorf("%w: partial header at offset %d", ErrTruncated, frame.Offset)
		}
		return frame, err
	}

	h, err := parseHeader(hb)
	if err != nil {
		return frame, err
	}
	frame.Size = h.frameSize()

	payload := make([]byte, h.keySize+h.valueSize)
	if _, err := io.ReadFull(rd.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return frame, fmt.Errorf("%w: partial payload at offset %d", ErrTruncated, frame.Offset)
		}
		return frame, err
	}

	rec, err := h.record(payload)
	if err != nil {
		return frame, err
	}

	rd.offset += int64(frame.Size)
	frame.Record = rec
	return frame, nil
}

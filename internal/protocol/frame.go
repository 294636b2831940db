// Package protocol implements the framing between kvs clients and servers.
//
// Every message is a msgpack-encoded body preceded by its length:
//
//	<body_len:uint32 big-endian><body>
//
// A request body is a Request and a response body is a Response. Decoding
// failures are reported as ErrMalformedFrame; a connection closed cleanly
// between frames is reported as io.EOF.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerSize = 4

	// MaxRequestSize bounds a request body. The largest valid request is a
	// Set with a maximum key and value plus msgpack overhead.
	MaxRequestSize = 16 * 1024

	// MaxResponseSize bounds a response body, which for Scan carries every key.
	MaxResponseSize = 256 * 1024 * 1024
)

// ErrMalformedFrame is returned when a frame cannot be decoded.
var ErrMalformedFrame = errors.New("malformed frame")

func encodeFrame(body []byte) []byte {
	buf := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[headerSize:], body)
	return buf
}

// readFrame reads one frame body of at most limit bytes.
func readFrame(r io.Reader, limit uint32) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: partial header", ErrMalformedFrame)
		}
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > limit {
		return nil, fmt.Errorf("%w: %d byte body exceeds limit of %d", ErrMalformedFrame, size, limit)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: partial body", ErrMalformedFrame)
		}
		return nil, err
	}

	return body, nil
}

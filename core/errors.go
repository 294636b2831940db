package core

import (
	"errors"

	"github.com/XDXX/PNA/internal/record"
	"github.com/XDXX/PNA/internal/segment"
)

var (
	ErrKeyTooLarge   = errors.New("key cannot be larger than 256B")
	ErrValueTooLarge = errors.New("value cannot be larger than 4KB")
	ErrKeyNotFound   = errors.New("key not found")

	// ErrCorruptRecord is returned when a record other than a trailing
	// partial write cannot be decoded.
	ErrCorruptRecord = record.ErrCorruptRecord

	// ErrGenerationInUse signals a compaction bug: a generation was about to
	// be removed while the index still pointed into it.
	ErrGenerationInUse = segment.ErrGenerationInUse

	ErrClosed         = errors.New("store is closed")
	ErrEngineMismatch = errors.New("data directory belongs to a different engine")
)

// Error codes carried over the wire so clients can rebuild sentinel errors.
const (
	CodeKeyTooLarge     = "KEY_TOO_LARGE"
	CodeValueTooLarge   = "VALUE_TOO_LARGE"
	CodeKeyNotFound     = "KEY_NOT_FOUND"
	CodeCorruptRecord   = "CORRUPT_RECORD"
	CodeGenerationInUse = "GENERATION_IN_USE"
	CodeClosed          = "CLOSED"
	CodeIO              = "IO"
)

var codes = []struct {
	code string
	err  error
}{
	{CodeKeyTooLarge, ErrKeyTooLarge},
	{CodeValueTooLarge, ErrValueTooLarge},
	{CodeKeyNotFound, ErrKeyNotFound},
	{CodeCorruptRecord, ErrCorruptRecord},
	{CodeGenerationInUse, ErrGenerationInUse},
	{CodeClosed, ErrClosed},
}

// ErrorCode classifies err for the wire. Anything unrecognised is an I/O failure.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeIO
}

// RemoteError is an error reported by a server.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Unwrap maps the code back to the matching sentinel, if any.
func (e *RemoteError) Unwrap() error {
	for _, c := range codes {
		if c.code == e.Code {
			return c.err
		}
	}
	return nil
}

// ErrorFromCode rebuilds an error received over the wire.
func ErrorFromCode(code, message string) error {
	return &RemoteError{Code: code, Message: message}
}

package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Kind tags a log record as either a write or a deletion.
type Kind uint8

const (
	KindSet    Kind = 1
	KindRemove Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindRemove:
		return "remove"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

const (
	MaxKeySize   = 256
	MaxValueSize = 4096
)

// CRC (4) + Kind (1) + KeySize (4) + ValueSize (4)
const HeaderSize = 13

var (
	// ErrCorruptRecord is returned for a complete frame whose contents cannot be trusted.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrTruncated is returned when the input ends in the middle of a frame.
	ErrTruncated = errors.New("truncated record")
)

// Record is a single entry of the log.
//
// A Remove record never carries a value.
type Record struct {
	Kind  Kind
	Key   []byte
	Value []byte
}

func NewSet(key, value []byte) *Record {
	return &Record{Kind: KindSet, Key: key, Value: value}
}

func NewRemove(key []byte) *Record {
	return &Record{Kind: KindRemove, Key: key}
}

// EncodedSize is the number of bytes Encode produces for r.
func (r *Record) EncodedSize() int {
	return HeaderSize + len(r.Key) + len(r.Value)
}

// Encode serializes a record into its on-disk frame:
//
//	<crc:uint32><kind:uint8><key_len:uint32><val_len:uint32><key><value>
//
// Integers are little-endian. The CRC covers kind, key and value.
func Encode(r *Record) ([]byte, error) {
	if r.Kind != KindSet && r.Kind != KindRemove {
		return nil, fmt.Errorf("encode: unknown %v", r.Kind)
	}
	if r.Kind == KindRemove && len(r.Value) != 0 {
		return nil, errors.New("encode: remove record with a value")
	}
	if len(r.Key) > MaxKeySize || len(r.Value) > MaxValueSize {
		return nil, errors.New("encode: record exceeds size limits")
	}

	buf := make([]byte, r.EncodedSize())
	binary.LittleEndian.PutUint32(buf[0:4], CalculateCRC(r.Kind, r.Key, r.Value))
	buf[4] = byte(r.Kind)
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(r.Key)))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(r.Value)))
	copy(buf[HeaderSize:], r.Key)
	copy(buf[HeaderSize+len(r.Key):], r.Value)

	return buf, nil
}

// Decode parses exactly one frame. Any mismatch between the declared and the
// actual length is reported as ErrCorruptRecord, since callers only pass
// frames whose extent they already know.
func Decode(data []byte) (*Record, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d byte frame is shorter than the header", ErrCorruptRecord, len(data))
	}

	h, err := parseHeader(data[:HeaderSize])
	if err != nil {
		return nil, err
	}

	if int(h.frameSize()) != len(data) {
		return nil, fmt.Errorf("%w: frame declares %d bytes, got %d", ErrCorruptRecord, h.frameSize(), len(data))
	}

	return h.record(data[HeaderSize:])
}

type header struct {
	crc       uint32
	kind      Kind
	keySize   uint32
	valueSize uint32
}

func (h header) frameSize() uint32 {
	return HeaderSize + h.keySize + h.valueSize
}

func parseHeader(b []byte) (header, error) {
	h := header{
		crc:       binary.LittleEndian.Uint32(b[0:4]),
		kind:      Kind(b[4]),
		keySize:   binary.LittleEndian.Uint32(b[5:9]),
		valueSize: binary.LittleEndian.Uint32(b[9:13]),
	}

	switch {
	case h.kind != KindSet && h.kind != KindRemove:
		return h, fmt.Errorf("%w: unknown %v", ErrCorruptRecord, h.kind)
	case h.keySize > MaxKeySize:
		return h, fmt.Errorf("%w: key size %d", ErrCorruptRecord, h.keySize)
	case h.valueSize > MaxValueSize:
		return h, fmt.Errorf("%w: value size %d", ErrCorruptRecord, h.valueSize)
	case h.kind == KindRemove && h.valueSize != 0:
		return h, fmt.Errorf("%w: remove record with %d byte value", ErrCorruptRecord, h.valueSize)
	}

	return h, nil
}

// record builds the Record from the key+value payload and checks the CRC.
func (h header) record(payload []byte) (*Record, error) {
	key := make([]byte, h.keySize)
	copy(key, payload[:h.keySize])

	var value []byte
	if h.kind == KindSet {
		value = make([]byte, h.valueSize)
		copy(value, payload[h.keySize:])
	}

	if !ValidateCRC(h.kind, key, value, h.crc) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptRecord)
	}

	return &Record{Kind: h.kind, Key: key, Value: value}, nil
}

package protocol

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Op is the operation a request asks for.
type Op uint8

const (
	OpSet Op = iota + 1
	OpGet
	OpRemove
	OpScan
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpGet:
		return "get"
	case OpRemove:
		return "remove"
	case OpScan:
		return "scan"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Request is a decoded client request. Value is only meaningful for OpSet
// and Key is ignored by OpScan.
type Request struct {
	Op    Op     `msgpack:"op"`
	Key   []byte `msgpack:"key"`
	Value []byte `msgpack:"value,omitempty"`
}

// EncodeRequest serializes req into a frame ready to be written to a
// connection.
func EncodeRequest(req *Request) ([]byte, error) {
	body, err := msgpack.Marshal(req)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxRequestSize {
		return nil, fmt.Errorf("request of %d bytes exceeds limit of %d", len(body), MaxRequestSize)
	}

	return encodeFrame(body), nil
}

// DecodeRequest blocks until one request frame has been read from r.
func DecodeRequest(r io.Reader) (*Request, error) {
	body, err := readFrame(r, MaxRequestSize)
	if err != nil {
		return nil, err
	}

	var req Request
	if err := msgpack.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch req.Op {
	case OpSet, OpGet, OpRemove, OpScan:
	default:
		return nil, fmt.Errorf("%w: unknown %v", ErrMalformedFrame, req.Op)
	}

	return &req, nil
}

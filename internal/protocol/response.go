package protocol

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

type Status uint8

const (
	StatusOK Status = iota + 1
	StatusErr
)

// Response answers one Request.
//
// For Get, Found tells a missing key apart from an empty value and Payload
// holds the value. For Scan, Keys holds every live key. For StatusErr,
// Payload holds the error message and Code classifies it.
type Response struct {
	Status  Status   `msgpack:"status"`
	Payload []byte   `msgpack:"payload,omitempty"`
	Found   bool     `msgpack:"found,omitempty"`
	Keys    [][]byte `msgpack:"keys,omitempty"`
	Code    string   `msgpack:"code,omitempty"`
}

func OK() *Response {
	return &Response{Status: StatusOK}
}

func Value(value []byte, found bool) *Response {
	return &Response{Status: StatusOK, Payload: value, Found: found}
}

func KeyList(keys [][]byte) *Response {
	return &Response{Status: StatusOK, Keys: keys}
}

func Error(code, message string) *Response {
	return &Response{Status: StatusErr, Payload: []byte(message), Code: code}
}

// EncodeResponse serializes resp into a frame.
func EncodeResponse(resp *Response) ([]byte, error) {
	body, err := msgpack.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response of %d bytes exceeds limit of %d", len(body), MaxResponseSize)
	}

	return encodeFrame(body), nil
}

// DecodeResponse blocks until one response frame has been read from r.
func DecodeResponse(r io.Reader) (*Response, error) {
	body, err := readFrame(r, MaxResponseSize)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := msgpack.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch resp.Status {
	case StatusOK, StatusErr:
	default:
		return nil, fmt.Errorf("%w: unknown status %d", ErrMalformedFrame, resp.Status)
	}

	return &resp, nil
}

package protocol_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/XDXX/PNA/internal/protocol"
)

func frame(body []byte) []byte {
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[4:], body)
	return buf
}

func TestEncodeDecodeRequest(t *testing.T) {
	tests := []struct {
		name string
		req  protocol.Request
	}{
		{"set", protocol.Request{Op: protocol.OpSet, Key: []byte("foo"), Value: []byte("bar")}},
		{"get", protocol.Request{Op: protocol.OpGet, Key: []byte("hello")}},
		{"remove", protocol.Request{Op: protocol.OpRemove, Key: []byte("gone")}},
		{"scan", protocol.Request{Op: protocol.OpScan}},
		{"value with spaces", protocol.Request{Op: protocol.OpSet, Key: []byte("city"), Value: []byte("new york")}},
		{"unicode value", protocol.Request{Op: protocol.OpSet, Key: []byte("emoji"), Value: []byte("🚀🔥")}},
		{"binary value", protocol.Request{Op: protocol.OpSet, Key: []byte{0, 1, 2}, Value: bytes.Repeat([]byte{0xFF}, 4096)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			payload, err := protocol.EncodeRequest(&tt.req)
			if err != nil {
				t.Fatalf("EncodeRequest failed: %v", err)
			}

			go func() {
				_, _ = client.Write(payload)
			}()

			req, err := protocol.DecodeRequest(server)
			if err != nil {
				t.Fatalf("DecodeRequest failed: %v", err)
			}

			if req.Op != tt.req.Op {
				t.Errorf("Op mismatch: got %v, want %v", req.Op, tt.req.Op)
			}
			if !bytes.Equal(req.Key, tt.req.Key) {
				t.Errorf("Key mismatch: got %q, want %q", req.Key, tt.req.Key)
			}
			if !bytes.Equal(req.Value, tt.req.Value) {
				t.Errorf("Value mismatch: got %q, want %q", req.Value, tt.req.Value)
			}
		})
	}
}

func TestEncodeRequestIsDeterministic(t *testing.T) {
	req := &protocol.Request{Op: protocol.OpSet, Key: []byte("k"), Value: []byte("v")}

	a, _ := protocol.EncodeRequest(req)
	b, _ := protocol.EncodeRequest(req)
	if !bytes.Equal(a, b) {
		t.Fatal("encoding the same request twice produced different bytes")
	}
}

func TestDecodeRequestCleanEOF(t *testing.T) {
	if _, err := protocol.DecodeRequest(bytes.NewReader(nil)); err != io.EOF {
		t.Fatalf("expected io.EOF on a closed connection, got %v", err)
	}
}

func TestDecodeRequestMalformed(t *testing.T) {
	valid, err := protocol.EncodeRequest(&protocol.Request{Op: protocol.OpSet, Key: []byte("key"), Value: []byte("value")})
	if err != nil {
		t.Fatal(err)
	}

	oversized := make([]byte, 4)
	binary.BigEndian.PutUint32(oversized, protocol.MaxRequestSize+1)

	tests := []struct {
		name string
		data []byte
	}{
		{"partial header", valid[:2]},
		{"truncated payload", valid[:len(valid)/2]},
		{"oversized frame", oversized},
		{"garbage body", frame([]byte{0xc1, 0xc1, 0xc1})},
		{"unknown op", frame([]byte{0x81, 0xa2, 'o', 'p', 0x09})},
		{"missing op", frame([]byte{0x80})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.DecodeRequest(bytes.NewReader(tt.data))
			if !errors.Is(err, protocol.ErrMalformedFrame) {
				t.Fatalf("expected ErrMalformedFrame, got %v", err)
			}
		})
	}
}

func TestEncodeRequestRejectsOversizedBody(t *testing.T) {
	req := &protocol.Request{Op: protocol.OpSet, Key: []byte("k"), Value: []byte(strings.Repeat("v", protocol.MaxRequestSize))}
	if _, err := protocol.EncodeRequest(req); err == nil {
		t.Fatal("expected an error for an oversized request")
	}
}

func TestDecodeRequestBlocksUntilComplete(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload, err := protocol.EncodeRequest(&protocol.Request{Op: protocol.OpGet, Key: []byte("foo")})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	done := make(chan struct{})

	go func() {
		_, _ = protocol.DecodeRequest(server)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("DecodeRequest returned early")
	case <-time.After(50 * time.Millisecond):
	}

	_, _ = client.Write(payload)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("DecodeRequest did not return after full payload")
	}
}

func TestOpString(t *testing.T) {
	if protocol.OpRemove.String() != "remove" {
		t.Errorf("unexpected name %q", protocol.OpRemove.String())
	}
	if protocol.Op(42).String() != "op(42)" {
		t.Errorf("unexpected name %q", protocol.Op(42).String())
	}
}

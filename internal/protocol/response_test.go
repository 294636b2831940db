package protocol_test

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/XDXX/PNA/internal/protocol"
)

func TestEncodeDecodeResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *protocol.Response
	}{
		{"ok", protocol.OK()},
		{"found value", protocol.Value([]byte("bar"), true)},
		{"not found", protocol.Value(nil, false)},
		{"keys", protocol.KeyList([][]byte{[]byte("a"), []byte("b")})},
		{"error", protocol.Error("KEY_NOT_FOUND", "key not found")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			payload, err := protocol.EncodeResponse(tt.resp)
			if err != nil {
				t.Fatalf("EncodeResponse failed: %v", err)
			}

			go func() {
				_, _ = server.Write(payload)
			}()

			resp, err := protocol.DecodeResponse(client)
			if err != nil {
				t.Fatalf("DecodeResponse failed: %v", err)
			}

			if resp.Status != tt.resp.Status {
				t.Errorf("Status mismatch: got %d, want %d", resp.Status, tt.resp.Status)
			}
			if resp.Found != tt.resp.Found {
				t.Errorf("Found mismatch: got %v, want %v", resp.Found, tt.resp.Found)
			}
			if !bytes.Equal(resp.Payload, tt.resp.Payload) {
				t.Errorf("Payload mismatch: got %q, want %q", resp.Payload, tt.resp.Payload)
			}
			if resp.Code != tt.resp.Code {
				t.Errorf("Code mismatch: got %q, want %q", resp.Code, tt.resp.Code)
			}
			if len(resp.Keys) != len(tt.resp.Keys) {
				t.Fatalf("Keys mismatch: got %d, want %d", len(resp.Keys), len(tt.resp.Keys))
			}
			for i := range resp.Keys {
				if !bytes.Equal(resp.Keys[i], tt.resp.Keys[i]) {
					t.Errorf("key %d: got %q, want %q", i, resp.Keys[i], tt.resp.Keys[i])
				}
			}
		})
	}
}

func TestDecodeResponseRejectsUnknownStatus(t *testing.T) {
	// {"status": 7}
	body := []byte{0x81, 0xa6, 's', 't', 'a', 't', 'u', 's', 0x07}

	_, err := protocol.DecodeResponse(bytes.NewReader(frame(body)))
	if !errors.Is(err, protocol.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

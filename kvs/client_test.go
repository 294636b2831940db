package kvs_test

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/XDXX/PNA/core"
	"github.com/XDXX/PNA/internal/pool"
	"github.com/XDXX/PNA/internal/protocol"
	"github.com/XDXX/PNA/internal/server"
	"github.com/XDXX/PNA/kvs"
	log "github.com/sirupsen/logrus"
)

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// startTestServer runs a real server over engine and returns its address.
func startTestServer(t *testing.T, engine core.Engine) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start listener: %v", err)
	}

	p := pool.NewNaivePool(quietLogger())
	srv := server.New(engine, p, server.WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx, ln)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		p.Shutdown()
		engine.Close()
	})

	return ln.Addr().String()
}

func mustConnect(t *testing.T, addr string) *kvs.Client {
	t.Helper()

	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	client, err := kvs.Connect(kvs.WithHost(host), kvs.WithPort(port))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func TestConnectFailsWithoutServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	if _, err := kvs.Connect(kvs.WithHost("127.0.0.1"), kvs.WithPort(port)); err == nil {
		t.Fatal("expected Connect to fail")
	}
}

func TestClientSetGetRemove(t *testing.T) {
	client := mustConnect(t, startTestServer(t, core.NewMemoryStore()))

	if err := client.Set("foo", "bar"); err != nil {
		t.Fatal(err)
	}

	val, ok, err := client.Get("foo")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || val != "bar" {
		t.Fatalf("unexpected response: %q (%v)", val, ok)
	}

	if err := client.Remove("foo"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := client.Get("foo"); ok {
		t.Fatal("foo should be gone")
	}

	err = client.Remove("foo")
	if !errors.Is(err, core.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	var remote *core.RemoteError
	if !errors.As(err, &remote) || remote.Code != core.CodeKeyNotFound {
		t.Fatalf("expected a RemoteError with code %s, got %#v", core.CodeKeyNotFound, err)
	}
}

func TestClientValueTooLarge(t *testing.T) {
	client := mustConnect(t, startTestServer(t, core.NewMemoryStore()))

	err := client.Set("k", string(make([]byte, core.MaxValueSize+1)))
	if !errors.Is(err, core.ErrValueTooLarge) {
		t.Fatalf("expected ErrValueTooLarge, got %v", err)
	}
}

func TestClientKeys(t *testing.T) {
	client := mustConnect(t, startTestServer(t, core.NewMemoryStore()))

	for _, k := range []string{"b", "c", "a"} {
		if err := client.Set(k, k); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := client.Keys()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}

func TestClientExecute(t *testing.T) {
	client := mustConnect(t, startTestServer(t, core.NewMemoryStore()))

	tests := []struct {
		name    string
		cmd     string
		key     string
		value   string
		want    string
		wantErr error
	}{
		{"set", "set", "city", "new york", "", nil},
		{"get", "GET", "city", "", "new york", nil},
		{"get missing", "get", "nope", "", kvs.KeyNotFoundMessage, nil},
		{"scan", "scan", "", "", "city", nil},
		{"rm", "rm", "city", "", "", nil},
		{"rm missing", "rm", "city", "", "", core.ErrKeyNotFound},
		{"missing key", "get", "", "", "", kvs.ErrMissingKey},
		{"unknown", "ping", "", "", "", kvs.ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.Execute(tt.cmd, tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClientAgainstPersistentStore(t *testing.T) {
	dir := t.TempDir()

	store, err := core.Open(dir, core.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	client := mustConnect(t, startTestServer(t, store))

	if err := client.Set("b", "x"); err != nil {
		t.Fatal(err)
	}
	client.Close()

	// Closing the store releases its directory; the first server's cleanup
	// closing it again is a no-op.
	t.Run("restart", func(t *testing.T) {
		store.Close()

		reopened, err := core.Open(dir, core.WithLogger(quietLogger()))
		if err != nil {
			t.Fatal(err)
		}
		client := mustConnect(t, startTestServer(t, reopened))

		val, ok, err := client.Get("b")
		if err != nil || !ok || val != "x" {
			t.Fatalf("expected x after restart, got %q (%v) %v", val, ok, err)
		}
	})
}

func TestClientReportsMalformedResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if _, err := protocol.DecodeRequest(conn); err != nil {
			return
		}
		conn.Write([]byte{0, 0, 0, 1, 0xc1})
	}()

	client := mustConnect(t, ln.Addr().String())

	if err := client.Set("a", "1"); !errors.Is(err, protocol.ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

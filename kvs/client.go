package kvs

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/XDXX/PNA/core"
	"github.com/XDXX/PNA/internal"
	"github.com/XDXX/PNA/internal/protocol"
)

// KeyNotFoundMessage is what Execute prints for a missing key.
const KeyNotFoundMessage = "Key not found"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingKey     = errors.New("missing key")
)

type Client struct {
	conn    net.Conn
	timeout time.Duration
}

func Connect(opts ...Option) (*Client, error) {
	cfg := internal.DefaultConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	conn, err := net.DialTimeout("tcp", cfg.Addr(), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, timeout: cfg.Timeout}, nil
}

func (c *Client) Set(key, value string) error {
	_, err := c.send(&protocol.Request{Op: protocol.OpSet, Key: []byte(key), Value: []byte(value)})
	return err
}

// Get returns the value of key and whether it exists.
func (c *Client) Get(key string) (string, bool, error) {
	resp, err := c.send(&protocol.Request{Op: protocol.OpGet, Key: []byte(key)})
	if err != nil {
		return "", false, err
	}

	return string(resp.Payload), resp.Found, nil
}

// Remove deletes key. Removing a missing key yields an error matching
// core.ErrKeyNotFound.
func (c *Client) Remove(key string) error {
	_, err := c.send(&protocol.Request{Op: protocol.OpRemove, Key: []byte(key)})
	return err
}

// Keys lists every key in the store in ascending order.
func (c *Client) Keys() ([]string, error) {
	resp, err := c.send(&protocol.Request{Op: protocol.OpScan})
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(resp.Keys))
	for i, k := range resp.Keys {
		keys[i] = string(k)
	}
	return keys, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute runs a command typed into the CLI and returns the text to print.
func (c *Client) Execute(cmd, key, value string) (string, error) {
	switch strings.ToLower(cmd) {
	case "set":
		if key == "" {
			return "", ErrMissingKey
		}
		return "", c.Set(key, value)

	case "get":
		if key == "" {
			return "", ErrMissingKey
		}
		v, ok, err := c.Get(key)
		if err != nil {
			return "", err
		}
		if !ok {
			return KeyNotFoundMessage, nil
		}
		return v, nil

	case "rm", "remove":
		if key == "" {
			return "", ErrMissingKey
		}
		return "", c.Remove(key)

	case "scan", "keys":
		keys, err := c.Keys()
		if err != nil {
			return "", err
		}
		return strings.Join(keys, "\n"), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

func (c *Client) send(req *protocol.Request) (*protocol.Response, error) {
	payload, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
	}

	if _, err := c.conn.Write(payload); err != nil {
		return nil, err
	}

	resp, err := protocol.DecodeResponse(c.conn)
	if err != nil {
		return nil, err
	}

	if resp.Status == protocol.StatusErr {
		return nil, core.ErrorFromCode(resp.Code, string(resp.Payload))
	}

	return resp, nil
}

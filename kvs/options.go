package kvs

import (
	"time"

	"github.com/XDXX/PNA/internal"
)

type Option func(*internal.Config)

func WithHost(host string) Option {
	return func(c *internal.Config) {
		c.Host = host
	}
}

func WithPort(port int) Option {
	return func(c *internal.Config) {
		c.Port = port
	}
}

// WithTimeout bounds dialing and every request round trip. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *internal.Config) {
		c.Timeout = d
	}
}

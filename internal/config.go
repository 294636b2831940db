package internal

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	OneKilobyte = 1024
	OneMegabyte = 1024 * OneKilobyte
)

// Config is the client-side connection configuration.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

const DEFAULT_HOST = "127.0.0.1"
const DEFAULT_PORT = 4000
const DEFAULT_TIMEOUT = 5 * time.Second

func DefaultConfig() *Config {
	return &Config{
		Host:    DEFAULT_HOST,
		Port:    DEFAULT_PORT,
		Timeout: DEFAULT_TIMEOUT,
	}
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ServerConfig holds everything kvs-server needs to start.
type ServerConfig struct {
	Addr                string
	DataDir             string
	Engine              string // kvs, memory or auto
	Pool                string // shared or naive
	Workers             int
	QueueSize           int
	CompactionThreshold uint64
	SyncInterval        time.Duration
	SyncOnWrite         bool
	IdleTimeout         time.Duration
	MetricsAddr         string
	LogLevel            string
	LogFormat           string
}

const (
	DefaultServerAddr          = "127.0.0.1:4000"
	DefaultDataDir             = "./"
	DefaultEngine              = "auto"
	DefaultPool                = "shared"
	DefaultWorkers             = 8
	DefaultQueueSize           = 128
	DefaultCompactionThreshold = 1 * OneMegabyte
	DefaultSyncInterval        = time.Second
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:                DefaultServerAddr,
		DataDir:             DefaultDataDir,
		Engine:              DefaultEngine,
		Pool:                DefaultPool,
		Workers:             DefaultWorkers,
		QueueSize:           DefaultQueueSize,
		CompactionThreshold: DefaultCompactionThreshold,
		SyncInterval:        DefaultSyncInterval,
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
	}
}

// Validate reports the first invalid setting.
func (c *ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", c.Addr, err)
	}
	if c.DataDir == "" {
		return errors.New("data directory must not be empty")
	}

	switch c.Engine {
	case "kvs", "memory", "auto":
	default:
		return fmt.Errorf("unknown engine %q (want kvs, memory or auto)", c.Engine)
	}

	switch c.Pool {
	case "shared", "naive":
	default:
		return fmt.Errorf("unknown pool %q (want shared or naive)", c.Pool)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue size must not be negative, got %d", c.QueueSize)
	}
	if c.CompactionThreshold == 0 {
		return errors.New("compaction threshold must be positive")
	}
	if c.SyncInterval < 0 || c.IdleTimeout < 0 {
		return errors.New("durations must not be negative")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}

	return nil
}

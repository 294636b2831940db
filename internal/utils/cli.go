package utils

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/XDXX/PNA/internal"
	"github.com/kballard/go-shellquote"
)

// HandleCLIInputs parses the kvs-server flags from the process arguments.
func HandleCLIInputs() (*internal.ServerConfig, error) {
	return ParseServerFlags(os.Args[0], os.Args[1:])
}

func ParseServerFlags(name string, args []string) (*internal.ServerConfig, error) {
	cfg := internal.DefaultServerConfig()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	var thresholdKB uint64
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "IP:PORT the server listens on")
	fs.StringVar(&cfg.DataDir, "dir", cfg.DataDir, "Directory Path to be used for this instance")
	fs.StringVar(&cfg.Engine, "engine", cfg.Engine, "Storage engine: kvs, memory or auto")
	fs.StringVar(&cfg.Pool, "pool", cfg.Pool, "Thread pool: shared or naive")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of workers in the shared pool")
	fs.IntVar(&cfg.QueueSize, "queue", cfg.QueueSize, "Pending task queue size of the shared pool")
	fs.Uint64Var(&thresholdKB, "compaction-threshold", cfg.CompactionThreshold/internal.OneKilobyte, "Stale bytes (in KB) that trigger compaction")
	fs.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "Interval between fsyncs of the active generation (0 disables)")
	fs.BoolVar(&cfg.SyncOnWrite, "sync-on-write", cfg.SyncOnWrite, "fsync after every write")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Close client sessions idle for this long (0 disables)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg.CompactionThreshold = thresholdKB * internal.OneKilobyte

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SplitStringIntoCommandAndArguments splits a line typed into the client CLI
// into a command, a key and a value. Quoting follows shell rules so values may
// contain spaces: set city "new york".
func SplitStringIntoCommandAndArguments(line string) (cmd, key, value string, err error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", "", "", err
	}

	if len(words) == 0 {
		return "", "", "", errors.New("empty command")
	}
	if len(words) > 3 {
		return "", "", "", fmt.Errorf("too many arguments for %q", words[0])
	}

	cmd = strings.ToLower(words[0])
	if len(words) > 1 {
		key = words[1]
	}
	if len(words) > 2 {
		value = words[2]
	}

	return cmd, key, value, nil
}

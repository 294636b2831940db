package utils

import (
	"testing"
	"time"
)

func TestSplitStringIntoCommandAndArguments(t *testing.T) {
	tests := []struct {
		line  string
		cmd   string
		key   string
		value string
	}{
		{"get foo", "get", "foo", ""},
		{"SET foo bar", "set", "foo", "bar"},
		{`set city "new york"`, "set", "city", "new york"},
		{`set 'quoted key' v`, "set", "quoted key", "v"},
		{"scan", "scan", "", ""},
		{`set k ""`, "set", "k", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, key, value, err := SplitStringIntoCommandAndArguments(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd != tt.cmd || key != tt.key || value != tt.value {
				t.Fatalf("got (%q, %q, %q), want (%q, %q, %q)", cmd, key, value, tt.cmd, tt.key, tt.value)
			}
		})
	}
}

func TestSplitStringIntoCommandAndArgumentsErrors(t *testing.T) {
	for _, line := range []string{"", "   ", `set k "unterminated`, "set a b c"} {
		if _, _, _, err := SplitStringIntoCommandAndArguments(line); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestParseServerFlags(t *testing.T) {
	cfg, err := ParseServerFlags("kvs-server", []string{
		"--addr", "0.0.0.0:5000",
		"--engine", "memory",
		"--pool", "naive",
		"--compaction-threshold", "64",
		"--idle-timeout", "30s",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != "0.0.0.0:5000" || cfg.Engine != "memory" || cfg.Pool != "naive" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.CompactionThreshold != 64*1024 {
		t.Fatalf("threshold = %d, want %d", cfg.CompactionThreshold, 64*1024)
	}
	if cfg.IdleTimeout != 30*time.Second {
		t.Fatalf("idle timeout = %v", cfg.IdleTimeout)
	}
}

func TestParseServerFlagsRejectsInvalid(t *testing.T) {
	if _, err := ParseServerFlags("kvs-server", []string{"--engine", "sled"}); err == nil {
		t.Fatal("expected error for unknown engine")
	}
	if _, err := ParseServerFlags("kvs-server", []string{"extra"}); err == nil {
		t.Fatal("expected error for positional arguments")
	}
}

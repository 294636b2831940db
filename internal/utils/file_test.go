package utils

import (
	"os"
	"strings"
	"path/filepath"
	"testing"
)

func TestTruncateAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := TruncateAt(f, 5); err != nil {
		t.Fatalf("TruncateAt failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "hello" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestPathExistsAndSyncDir(t *testing.T) {
	dir := t.TempDir()

	if !PathExists(dir) {
		t.Fatal("temp dir should exist")
	}
	if PathExists(filepath.Join(dir, "missing")) {
		t.Fatal("missing path reported as existing")
	}
	if err := SyncDir(dir); err != nil {
		t.Fatalf("SyncDir failed: %v", err)
	}
}

func TestTruncateAtReportsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path) // read-only, truncate must fail
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	err = TruncateAt(f, 5)
	if err == nil {
		t.Fatal("expected truncating a read-only file to fail")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error does not name the file: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "hello world" {
		t.Fatalf("file was modified: %q", data)
	}
}

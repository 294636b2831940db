package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Engine kinds accepted by ResolveEngineKind and OpenEngine.
const (
	EngineAuto   = "auto"
	EngineKvs    = "kvs"
	EngineMemory = "memory"
)

// ResolveEngineKind decides which engine serves dir.
//
// The first engine to use a directory records its kind in an "engine" file.
// Later requests must either ask for the same kind or for "auto", which
// resolves to whatever was recorded, or to kvs in a fresh directory.
func ResolveEngineKind(dir, requested string) (string, error) {
	switch requested {
	case EngineAuto, EngineKvs, EngineMemory:
	default:
		return "", fmt.Errorf("unknown engine %q", requested)
	}

	path := filepath.Join(dir, EngineKindFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		persisted := strings.TrimSpace(string(data))
		if requested == EngineAuto || requested == persisted {
			return persisted, nil
		}
		return "", fmt.Errorf("%w: %s was created by %q, requested %q", ErrEngineMismatch, dir, persisted, requested)
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	kind := requested
	if kind == EngineAuto {
		kind = EngineKvs
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(kind+"\n"), 0644); err != nil {
		return "", err
	}

	return kind, nil
}

// OpenEngine opens the engine of the given resolved kind in dir.
func OpenEngine(dir, kind string, opts ...Option) (Engine, error) {
	switch kind {
	case EngineKvs:
		return Open(dir, opts...)
	case EngineMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", kind)
	}
}

package core

import (
	"github.com/XDXX/PNA/internal"
	"github.com/XDXX/PNA/internal/record"
)

const (
	MaxKeySize   = record.MaxKeySize   // 256 bytes
	MaxValueSize = record.MaxValueSize // 4KB

	DataDirName        = "data"   // Name of the generation directory inside a store
	EngineKindFileName = "engine" // Records which backend owns a directory

	DefaultCompactionThreshold = 1 * internal.OneMegabyte
	DefaultCacheSize           = 1024
)

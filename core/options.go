package core

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Options configures a KvStore.
type Options struct {
	CompactionThreshold uint64        // stale bytes that trigger compaction, must be positive
	SyncOnWrite         bool          // fsync after every Set and Remove
	SyncInterval        time.Duration // background fsync period, 0 disables
	CacheSize           int           // number of values cached in memory, 0 disables
	Logger              log.FieldLogger
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		CompactionThreshold: DefaultCompactionThreshold,
		CacheSize:           DefaultCacheSize,
		Logger:              log.WithField("component", "kvstore"),
	}
}

func WithCompactionThreshold(bytes uint64) Option {
	return func(o *Options) {
		o.CompactionThreshold = bytes
	}
}

func WithSyncOnWrite(enabled bool) Option {
	return func(o *Options) {
		o.SyncOnWrite = enabled
	}
}

func WithSyncInterval(d time.Duration) Option {
	return func(o *Options) {
		o.SyncInterval = d
	}
}

func WithCacheSize(entries int) Option {
	return func(o *Options) {
		o.CacheSize = entries
	}
}

func WithLogger(logger log.FieldLogger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

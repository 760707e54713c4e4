// Package kv provides the local persistent key-value store: a SQLite-backed
// primary with a plain file-per-key fallback used when the embedded database
// cannot be opened. Failures at this boundary degrade to "value not
// available"; callers never see storage errors as crashes.
package kv

import (
	"context"
	"log/slog"
)

// Store is the key-value contract consumed by higher layers.
// All operations may fail; callers treat failure as absence.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
	DeleteMany(ctx context.Context, keys []string) error
	Close() error
}

// Open creates the store for the given data directory: SQLite when
// available, file fallback otherwise. The returned store is wrapped in a
// read-through LRU cache.
func Open(dataDir string) Store {
	s, err := NewSQLiteStore(dataDir)
	if err != nil {
		slog.Warn("kv: sqlite unavailable, falling back to file store", "error", err)
		return NewCached(NewFileStore(dataDir), defaultCacheSize)
	}
	return NewCached(s, defaultCacheSize)
}

package kv

import (
	"context"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore is the fallback backend: one file per key under dataDir/kv.
// Key names are hex-encoded so arbitrary key strings stay filesystem-safe.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

func NewFileStore(dataDir string) *FileStore {
	dir := filepath.Join(dataDir, "kv")
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("kv: create file store dir failed", "dir", dir, "error", err)
	}
	return &FileStore{dir: dir}
}

func (f *FileStore) keyPath(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key))+".val")
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.keyPath(key))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("kv: file get failed", "key", key, "error", err)
		}
		return "", false
	}
	return string(data), true
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Write-then-rename so a crash never leaves a half-written value.
	path := f.keyPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.keyPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileStore) ListKeys(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".val") {
			continue
		}
		decoded, err := hex.DecodeString(strings.TrimSuffix(name, ".val"))
		if err != nil {
			continue
		}
		keys = append(keys, string(decoded))
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileStore) DeleteMany(ctx context.Context, keys []string) error {
	var firstErr error
	for _, k := range keys {
		if err := f.Delete(ctx, k); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FileStore) Close() error { return nil }

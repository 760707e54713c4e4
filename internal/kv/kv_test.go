package kv

import (
	"context"
	"reflect"
	"testing"
)

func TestFileStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	defer s.Close()

	if _, ok := s.Get(ctx, "missing"); ok {
		t.Error("Get on missing key returned ok")
	}

	if err := s.Set(ctx, "navi_app_state", `{"v":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := s.Get(ctx, "navi_app_state")
	if !ok || v != `{"v":1}` {
		t.Errorf("Get = %q, %t", v, ok)
	}

	// Overwrite.
	if err := s.Set(ctx, "navi_app_state", `{"v":2}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, _ := s.Get(ctx, "navi_app_state"); v != `{"v":2}` {
		t.Errorf("Get after overwrite = %q", v)
	}
}

func TestFileStore_KeysWithUnsafeChars(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	defer s.Close()

	key := "weird/key with spaces:and*stars"
	if err := s.Set(ctx, key, "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := s.Get(ctx, key); !ok || v != "value" {
		t.Errorf("Get = %q, %t", v, ok)
	}

	keys, err := s.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Errorf("keys = %v", keys)
	}
}

func TestFileStore_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())
	defer s.Close()

	for _, k := range []string{"b", "a", "c"} {
		if err := s.Set(ctx, k, k); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	keys, err := s.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Errorf("keys = %v, want sorted a b c", keys)
	}

	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete on missing key: %v", err)
	}
	if err := s.DeleteMany(ctx, []string{"a", "c"}); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	keys, _ = s.ListKeys(ctx)
	if !reflect.DeepEqual(keys, []string{"b"}) {
		t.Errorf("keys after DeleteMany = %v", keys)
	}
}

func TestSQLiteStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if err := s.Set(ctx, "k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k2", "v2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := s.Get(ctx, "k1"); !ok || v != "v1" {
		t.Errorf("Get k1 = %q, %t", v, ok)
	}

	// Upsert keeps a single row per key.
	if err := s.Set(ctx, "k1", "v1b"); err != nil {
		t.Fatalf("Set upsert: %v", err)
	}
	keys, err := s.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("keys = %v, want 2 entries", keys)
	}

	if err := s.DeleteMany(ctx, []string{"k1", "k2"}); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if _, ok := s.Get(ctx, "k1"); ok {
		t.Error("k1 survived DeleteMany")
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Set(ctx, "persist", "survives"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s2, err := NewSQLiteStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, ok := s2.Get(ctx, "persist"); !ok || v != "survives" {
		t.Errorf("Get after reopen = %q, %t", v, ok)
	}
}

// countingStore tracks backend reads to verify the cache short-circuits them.
type countingStore struct {
	Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, key string) (string, bool) {
	c.gets++
	return c.Store.Get(ctx, key)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: NewFileStore(t.TempDir())}
	s := NewCached(backend, 8)
	defer s.Close()

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Set populated the cache, so reads never hit the backend.
	for i := 0; i < 3; i++ {
		if v, ok := s.Get(ctx, "k"); !ok || v != "v" {
			t.Fatalf("Get = %q, %t", v, ok)
		}
	}
	if backend.gets != 0 {
		t.Errorf("backend gets = %d, want 0", backend.gets)
	}

	// Delete invalidates; the next read misses and falls through.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("deleted key still readable")
	}
	if backend.gets != 1 {
		t.Errorf("backend gets = %d, want 1 after invalidation", backend.gets)
	}
}

func TestOpen_ReturnsUsableStore(t *testing.T) {
	ctx := context.Background()
	s := Open(t.TempDir())
	defer s.Close()

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := s.Get(ctx, "k"); !ok || v != "v" {
		t.Errorf("Get = %q, %t", v, ok)
	}
}

package memory

import (
	"context"
	"testing"

	"github.com/navigrow/navicore/internal/kv"
)

func TestManager_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	store := kv.NewFileStore(t.TempDir())
	defer store.Close()

	mgr := NewManager(ctx, store)
	mgr.RunCompaction(ctx, []RawMemoryItem{
		rawItem(TypeGoal, "Run a marathon by June", 2),
	}, nil, nil)

	// A fresh manager over the same store sees the compacted blocks.
	mgr2 := NewManager(ctx, store)
	ltm := mgr2.Snapshot()

	if len(ltm.Blocks) != 1 {
		t.Fatalf("expected 1 block after reload, got %d", len(ltm.Blocks))
	}
	if ltm.CompactionRuns != 1 {
		t.Errorf("compactionRuns = %d, want 1", ltm.CompactionRuns)
	}
	if ltm.TotalRawCount != 1 {
		t.Errorf("totalRawCount = %d, want 1", ltm.TotalRawCount)
	}
}

func TestManager_CompactIfDue(t *testing.T) {
	ctx := context.Background()
	store := kv.NewFileStore(t.TempDir())
	defer store.Close()

	mgr := NewManager(ctx, store)

	items := []RawMemoryItem{
		rawItem(TypeGoal, "Run a marathon by June", 1),
		rawItem(TypeWin, "Completed first training week", 2),
	}

	if mgr.CompactIfDue(ctx, items, nil, nil, 5) {
		t.Error("compaction ran below threshold")
	}
	if !mgr.CompactIfDue(ctx, items, nil, nil, 2) {
		t.Error("compaction did not run at threshold")
	}
	// Same inputs again: nothing new accumulated.
	if mgr.CompactIfDue(ctx, items, nil, nil, 2) {
		t.Error("compaction re-ran without new material")
	}
}

func TestManager_Reset(t *testing.T) {
	ctx := context.Background()
	store := kv.NewFileStore(t.TempDir())
	defer store.Close()

	mgr := NewManager(ctx, store)
	mgr.RunCompaction(ctx, []RawMemoryItem{
		rawItem(TypeGoal, "Run a marathon by June", 1),
	}, nil, nil)

	if err := mgr.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if blocks := mgr.Blocks(); len(blocks) != 0 {
		t.Errorf("blocks after reset = %d, want 0", len(blocks))
	}
	if _, ok := store.Get(ctx, LTMKey); ok {
		t.Error("persisted value survived reset")
	}
}

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/navigrow/navicore/internal/kv"
)

// LTMKey is the fixed key the serialized long-term memory lives under.
const LTMKey = "navi_long_term_memory"

// ltmVersion is bumped when the serialized shape changes.
const ltmVersion = 1

// Manager owns the long-term memory store: loaded once at startup, held in
// memory, written back after every compaction pass. Single-writer in
// practice; the mutex guards against accidental concurrent compaction.
type Manager struct {
	store kv.Store

	mu  sync.Mutex
	ltm LongTermMemory
	// compactedRawCount tracks how many raw items the last pass consumed,
	// so CompactIfDue only fires on new material.
	compactedRawCount int
}

// NewManager loads the long-term memory from the store. A missing or
// unreadable value starts from empty rather than failing.
func NewManager(ctx context.Context, store kv.Store) *Manager {
	m := &Manager{store: store}

	raw, ok := store.Get(ctx, LTMKey)
	if !ok {
		slog.Info("memory: no long-term memory found, starting empty")
		m.ltm = LongTermMemory{Version: ltmVersion}
		return m
	}
	if err := json.Unmarshal([]byte(raw), &m.ltm); err != nil {
		slog.Warn("memory: long-term memory unreadable, starting empty", "error", err)
		m.ltm = LongTermMemory{Version: ltmVersion}
		return m
	}
	m.ltm.Version = ltmVersion
	m.compactedRawCount = m.ltm.LastRawCount
	slog.Info("memory: long-term memory loaded",
		"blocks", len(m.ltm.Blocks), "runs", m.ltm.CompactionRuns)
	return m
}

// Blocks returns a copy of the current compressed blocks.
func (m *Manager) Blocks() []CompressedMemoryBlock {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CompressedMemoryBlock, len(m.ltm.Blocks))
	copy(out, m.ltm.Blocks)
	return out
}

// Snapshot returns a copy of the whole long-term memory aggregate.
func (m *Manager) Snapshot() LongTermMemory {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.ltm
	snap.Blocks = make([]CompressedMemoryBlock, len(m.ltm.Blocks))
	copy(snap.Blocks, m.ltm.Blocks)
	return snap
}

// RunCompaction folds the given sources into the block set and persists
// the result. Persistence failure is logged, not returned: the in-memory
// state stays authoritative and the next pass retries the write.
func (m *Manager) RunCompaction(ctx context.Context, items []RawMemoryItem, relationships []RelationshipMemory, sessions []SessionSummary) []CompressedMemoryBlock {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ltm.Blocks = Compact(items, relationships, sessions, m.ltm.Blocks)
	m.ltm.LastCompaction = time.Now()
	m.ltm.TotalRawCount += len(items) + len(relationships)
	m.ltm.CompactionRuns++
	m.ltm.LastRawCount = len(items) + len(relationships)
	m.compactedRawCount = m.ltm.LastRawCount

	m.persist(ctx)

	slog.Info("memory: compaction complete",
		"blocks", len(m.ltm.Blocks),
		"raw", len(items), "relationships", len(relationships), "sessions", len(sessions),
		"runs", m.ltm.CompactionRuns)

	out := make([]CompressedMemoryBlock, len(m.ltm.Blocks))
	copy(out, m.ltm.Blocks)
	return out
}

// CompactIfDue runs a compaction pass only when at least threshold new raw
// sources have accumulated since the last pass. Returns true if it ran.
func (m *Manager) CompactIfDue(ctx context.Context, items []RawMemoryItem, relationships []RelationshipMemory, sessions []SessionSummary, threshold int) bool {
	if threshold <= 0 {
		threshold = 1
	}
	m.mu.Lock()
	pending := len(items) + len(relationships) - m.compactedRawCount
	m.mu.Unlock()

	if pending < threshold {
		return false
	}
	m.RunCompaction(ctx, items, relationships, sessions)
	return true
}

// persist writes the store back under the fixed key. Caller holds m.mu.
func (m *Manager) persist(ctx context.Context) {
	data, err := json.Marshal(m.ltm)
	if err != nil {
		slog.Error("memory: marshal long-term memory failed", "error", err)
		return
	}
	if err := m.store.Set(ctx, LTMKey, string(data)); err != nil {
		slog.Warn("memory: persist long-term memory failed", "error", err)
	}
}

// Reset clears the long-term memory (used by the CLI for a fresh start).
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ltm = LongTermMemory{Version: ltmVersion}
	m.compactedRawCount = 0
	if err := m.store.Delete(ctx, LTMKey); err != nil {
		return fmt.Errorf("delete long-term memory: %w", err)
	}
	return nil
}

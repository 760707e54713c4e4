// Package app wires the navicore services together: local state held over
// the key-value store, the long-term memory manager, and the sync engine.
// One App is constructed at startup and passed to consumers; nothing here
// is ambient or global.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/navigrow/navicore/internal/backend"
	"github.com/navigrow/navicore/internal/config"
	"github.com/navigrow/navicore/internal/kv"
	"github.com/navigrow/navicore/internal/memory"
	"github.com/navigrow/navicore/internal/snapshot"
	"github.com/navigrow/navicore/internal/state"
	enginesync "github.com/navigrow/navicore/internal/sync"
)

// stateKey is the fixed key the serialized application state lives under.
const stateKey = "navi_app_state"

// App owns the application state and the services operating on it.
// It implements sync.Source for the engine.
type App struct {
	cfg    *config.Config
	store  kv.Store
	Memory *memory.Manager
	Engine *enginesync.Engine

	mu     sync.RWMutex
	st     state.AppState
	loaded bool
}

// New opens the local store, loads persisted state and long-term memory,
// and constructs the sync engine. Local storage failures start from empty
// state rather than failing.
func New(ctx context.Context, cfg *config.Config) *App {
	store := kv.Open(cfg.DataDir)

	a := &App{cfg: cfg, store: store}
	a.loadLocal(ctx)
	a.Memory = memory.NewManager(ctx, store)

	a.Engine = enginesync.NewEngine(enginesync.Config{
		UserID:         cfg.Sync.UserID,
		Transport:      backend.NewClient(cfg.Sync.BackendURL),
		Source:         a,
		DebounceWindow: cfg.Sync.DebounceWindow,
		BackoffDelay:   time.Duration(cfg.Sync.BackoffSeconds) * time.Second,
		TickInterval:   time.Duration(cfg.Sync.TickSeconds) * time.Second,
		MaxRetries:     cfg.Sync.MaxRetries,
		PushRPM:        cfg.Sync.PushRPM,
	})

	return a
}

// Close stops the engine and the store.
func (a *App) Close() {
	a.Engine.Stop()
	if err := a.store.Close(); err != nil {
		slog.Warn("app: store close failed", "error", err)
	}
}

// Snapshot returns a copy of the current state for the sync engine.
func (a *App) Snapshot() *state.AppState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap := a.st
	return &snap
}

// Loaded reports whether local state has been initialized.
func (a *App) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded
}

// Mutate applies fn to the state, persists locally, and schedules a
// debounced sync. This is the single entry point for state-affecting
// events.
func (a *App) Mutate(ctx context.Context, fn func(*state.AppState)) {
	a.mu.Lock()
	fn(&a.st)
	a.mu.Unlock()

	a.saveLocal(ctx)
	a.Engine.RequestSync()
}

// RecordAssistantReply appends the assistant message to the thread,
// extracts any tagged memories from the reply, and runs compaction when
// enough new material has accumulated. Returns the reply with memory tags
// stripped.
func (a *App) RecordAssistantReply(ctx context.Context, threadID, reply string) string {
	items, cleaned := memory.ExtractMemories(reply)

	a.Mutate(ctx, func(s *state.AppState) {
		thread := s.Thread(threadID)
		if thread == nil {
			s.ChatThreads = append(s.ChatThreads, state.ChatThread{ID: threadID})
			thread = &s.ChatThreads[len(s.ChatThreads)-1]
		}
		thread.Messages = append(thread.Messages, state.ChatMessage{
			ID:        uuid.NewString(),
			Role:      "assistant",
			Content:   cleaned,
			Timestamp: time.Now(),
		})
		s.Memories = append(s.Memories, items...)
		s.Companion.InteractionCount++
	})

	a.mu.RLock()
	mems := a.st.Memories
	rels := a.st.RelationshipMemories
	sessions := a.st.SessionSummaries
	a.mu.RUnlock()

	if a.Memory.CompactIfDue(ctx, mems, rels, sessions, a.memoryConfig().CompactionThreshold) {
		a.Engine.RequestSync()
	}
	return cleaned
}

// AgentContext renders the prompt context for the conversational agent,
// within the configured token budget.
func (a *App) AgentContext() string {
	snap := a.Snapshot()
	return snapshot.BuildWithinBudget(snap, a.Memory.Blocks(), a.memoryConfig().ContextBudgetTokens)
}

// Persona returns the configured companion persona, or the default when no
// persona file is set or it cannot be read.
func (a *App) Persona() *config.Persona {
	a.mu.RLock()
	path := a.cfg.PersonaPath
	a.mu.RUnlock()

	if path == "" {
		return config.DefaultPersona()
	}
	p, err := config.LoadPersona(path)
	if err != nil {
		slog.Warn("app: persona load failed, using default", "path", path, "error", err)
		return config.DefaultPersona()
	}
	return p
}

// SystemPrompt renders the persona prompt followed by the state context.
func (a *App) SystemPrompt() string {
	return a.Persona().Prompt + "\n\n" + a.AgentContext()
}

// ApplyConfig applies the hot-reloadable subset of a freshly loaded
// configuration. Storage and sync settings take effect on restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	a.cfg.Memory = cfg.Memory
	a.cfg.PersonaPath = cfg.PersonaPath
	a.mu.Unlock()

	slog.Info("app: config applied",
		"compactionThreshold", cfg.Memory.CompactionThreshold,
		"contextBudgetTokens", cfg.Memory.ContextBudgetTokens)
}

func (a *App) memoryConfig() config.MemoryConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.Memory
}

// PullFromBackend loads remote state and merges the returned patch.
func (a *App) PullFromBackend(ctx context.Context) error {
	patch, err := a.Engine.LoadFromBackend(ctx)
	if err != nil {
		return fmt.Errorf("load from backend: %w", err)
	}
	if patch == nil {
		return nil
	}

	a.mu.Lock()
	state.Merge(&a.st, patch)
	a.mu.Unlock()

	a.saveLocal(ctx)
	slog.Info("app: backend state merged")
	return nil
}

func (a *App) loadLocal(ctx context.Context) {
	defer func() {
		a.mu.Lock()
		a.loaded = true
		a.mu.Unlock()
	}()

	raw, ok := a.store.Get(ctx, stateKey)
	if !ok {
		slog.Info("app: no local state, starting fresh", "user", a.cfg.Sync.UserID)
		a.st = state.AppState{User: state.UserProfile{ID: a.cfg.Sync.UserID}}
		return
	}

	var st state.AppState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		slog.Warn("app: local state unreadable, starting fresh", "error", err)
		a.st = state.AppState{User: state.UserProfile{ID: a.cfg.Sync.UserID}}
		return
	}
	a.st = st
}

func (a *App) saveLocal(ctx context.Context) {
	a.mu.RLock()
	data, err := json.Marshal(a.st)
	a.mu.RUnlock()
	if err != nil {
		slog.Error("app: marshal state failed", "error", err)
		return
	}
	if err := a.store.Set(ctx, stateKey, string(data)); err != nil {
		slog.Warn("app: persist state failed", "error", err)
	}
}

// Package sync implements the local-first synchronization engine: change
// detection by state hashing, debounced push scheduling, retry/backoff with
// a circuit breaker, and reconciliation of backend loads into local state.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/navigrow/navicore/internal/backend"
	"github.com/navigrow/navicore/internal/state"
)

const (
	// DefaultDebounceWindow collapses bursts of rapid local mutations into
	// one network round trip.
	DefaultDebounceWindow = 3 * time.Second

	// DefaultBackoffDelay is how long a network failure marks the backend
	// unavailable before the optimistic re-probe.
	DefaultBackoffDelay = 60 * time.Second

	// DefaultTickInterval is the periodic fallback push for changes that
	// accumulated while offline.
	DefaultTickInterval = 120 * time.Second

	// DefaultMaxRetries is the circuit breaker cap on consecutive
	// network-class failures.
	DefaultMaxRetries = 3
)

// ErrBackendUnavailable is returned by LoadFromBackend when the circuit
// breaker is open.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Transport is the remote sync service surface consumed by the engine.
type Transport interface {
	FullStateSync(ctx context.Context, userID string, st *state.AppState) (*backend.SyncResult, error)
	ChatSync(ctx context.Context, userID, threadID string, messages []state.ChatMessage) (*backend.ChatSyncResult, error)
	FullStateLoad(ctx context.Context, userID string) (*backend.LoadResult, error)
}

// Source provides the engine read access to application state. The engine
// never mutates it; reconciliation patches are applied by the caller.
type Source interface {
	Snapshot() *state.AppState
	Loaded() bool
}

// Status is the externally visible sync state.
type Status struct {
	IsSyncing        bool
	LastSyncTime     string
	SyncError        string
	IsOnline         bool
	PendingSyncCount int
	BackendAvailable bool
	BackendChecked   bool
	RetryCount       int
	LastSyncedHash   string
}

// Config configures an Engine. Zero durations and counts take defaults.
type Config struct {
	UserID         string
	Transport      Transport
	Source         Source
	DebounceWindow time.Duration
	BackoffDelay   time.Duration
	TickInterval   time.Duration
	MaxRetries     int
	PushRPM        int // optional cap on outgoing pushes, 0 = unlimited
}

// Engine owns sync scheduling and backend reconciliation. Constructed once
// at startup and passed to consumers; all mutable sync state is private
// instance state behind the mutex. At most one push is in flight at any
// time.
type Engine struct {
	cfg     Config
	limiter *rate.Limiter

	mu               sync.Mutex
	isSyncing        bool
	lastSyncTime     string
	syncError        string
	isOnline         bool
	pendingSyncCount int
	backendAvailable bool
	backendChecked   bool
	retryCount       int
	lastSyncedHash   string

	debounceTimer *time.Timer
	backoffTimer  *time.Timer
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewEngine creates a sync engine. The backend starts optimistically
// available but unchecked; the first round trip settles it.
func NewEngine(cfg Config) *Engine {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}
	if cfg.BackoffDelay <= 0 {
		cfg.BackoffDelay = DefaultBackoffDelay
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	e := &Engine{
		cfg:              cfg,
		backendAvailable: true,
		stopCh:           make(chan struct{}),
	}
	if cfg.PushRPM > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(float64(cfg.PushRPM)/60.0), 1)
	}
	return e
}

// Start launches the periodic background tick. Safe to skip in tests.
func (e *Engine) Start() {
	go e.tickLoop()
}

// Stop halts the tick loop and cancels any pending timers.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
		e.debounceTimer = nil
	}
	if e.backoffTimer != nil {
		e.backoffTimer.Stop()
		e.backoffTimer = nil
	}
}

// Status returns a copy of the current sync state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		IsSyncing:        e.isSyncing,
		LastSyncTime:     e.lastSyncTime,
		SyncError:        e.syncError,
		IsOnline:         e.isOnline,
		PendingSyncCount: e.pendingSyncCount,
		BackendAvailable: e.backendAvailable,
		BackendChecked:   e.backendChecked,
		RetryCount:       e.retryCount,
		LastSyncedHash:   e.lastSyncedHash,
	}
}

// RequestSync registers a state-affecting event and (re)schedules the
// debounced push. Only the most recent request in any debounce window
// actually fires.
func (e *Engine) RequestSync() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pendingSyncCount++

	// Cancel-then-reschedule: the previous timer must never fire once a
	// newer request supersedes it.
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
	}
	e.debounceTimer = time.AfterFunc(e.cfg.DebounceWindow, func() {
		e.Sync(context.Background())
	})
}

// Sync attempts a full-state push immediately, subject to the guards.
// Returns without error on every guarded no-op.
func (e *Engine) Sync(ctx context.Context) {
	e.mu.Lock()

	if !e.cfg.Source.Loaded() {
		e.mu.Unlock()
		return
	}
	if e.isSyncing {
		e.mu.Unlock()
		return
	}
	if e.circuitOpenLocked() {
		e.mu.Unlock()
		slog.Debug("sync: push suppressed, circuit open", "retries", e.retryCount)
		return
	}

	snap := e.cfg.Source.Snapshot()
	hash := StateHash(snap)
	if hash == e.lastSyncedHash {
		e.mu.Unlock()
		slog.Debug("sync: state unchanged, push skipped")
		return
	}

	if e.limiter != nil && !e.limiter.Allow() {
		e.mu.Unlock()
		slog.Debug("sync: push rate limited, left pending")
		return
	}

	e.isSyncing = true
	e.mu.Unlock()

	result, err := e.cfg.Transport.FullStateSync(ctx, e.cfg.UserID, snap)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.isSyncing = false

	if err != nil {
		e.handleFailureLocked(err)
		return
	}

	e.lastSyncTime = result.Timestamp
	e.syncError = ""
	e.pendingSyncCount = 0
	e.backendAvailable = true
	e.backendChecked = true
	e.retryCount = 0
	e.lastSyncedHash = hash
	e.isOnline = true

	slog.Info("sync: full state pushed", "timestamp", result.Timestamp)
}

// ForceSync resets the retry counter, clears the last-synced hash so the
// push happens even if nothing changed, cancels any pending debounce, and
// pushes immediately.
func (e *Engine) ForceSync(ctx context.Context) {
	e.mu.Lock()
	e.retryCount = 0
	e.lastSyncedHash = ""
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
		e.debounceTimer = nil
	}
	e.mu.Unlock()

	e.Sync(ctx)
}

// SyncChat pushes a single chat thread. Same guards and circuit breaker as
// the full push, but no hashing: it always sends when the guards pass.
func (e *Engine) SyncChat(ctx context.Context, threadID string) {
	e.mu.Lock()

	if !e.cfg.Source.Loaded() || e.isSyncing || e.circuitOpenLocked() {
		e.mu.Unlock()
		return
	}

	snap := e.cfg.Source.Snapshot()
	thread := snap.Thread(threadID)
	if thread == nil {
		e.mu.Unlock()
		return
	}

	e.isSyncing = true
	e.mu.Unlock()

	result, err := e.cfg.Transport.ChatSync(ctx, e.cfg.UserID, threadID, thread.Messages)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.isSyncing = false

	if err != nil {
		e.handleFailureLocked(err)
		return
	}

	e.syncError = ""
	e.backendAvailable = true
	e.backendChecked = true
	e.retryCount = 0
	e.isOnline = true

	slog.Info("sync: chat thread pushed", "thread", threadID, "messages", result.MessageCount)
}

// LoadFromBackend pulls the stored state and returns a partial patch for
// the caller to merge. Nil patch with nil error means no remote state
// exists yet.
func (e *Engine) LoadFromBackend(ctx context.Context) (*state.Patch, error) {
	e.mu.Lock()
	if e.circuitOpenLocked() {
		e.mu.Unlock()
		return nil, ErrBackendUnavailable
	}
	e.mu.Unlock()

	result, err := e.cfg.Transport.FullStateLoad(ctx, e.cfg.UserID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.handleFailureLocked(err)
		return nil, err
	}

	e.backendAvailable = true
	e.backendChecked = true
	e.retryCount = 0
	e.isOnline = true

	if !result.Exists {
		slog.Info("sync: no remote state for user")
		return nil, nil
	}
	return &result.Patch, nil
}

// circuitOpenLocked reports whether automatic attempts are suppressed:
// the backend has been checked, is marked unavailable, and the retry
// counter has reached its cap. Caller holds e.mu.
func (e *Engine) circuitOpenLocked() bool {
	return e.backendChecked && !e.backendAvailable && e.retryCount >= e.cfg.MaxRetries
}

// handleFailureLocked applies the failure taxonomy. Network-class failures
// mark the backend unavailable and, while retries remain, schedule a
// one-shot backoff re-probe that optimistically flips availability back.
// Application-class failures only surface as a sync error string. Caller
// holds e.mu.
func (e *Engine) handleFailureLocked(err error) {
	e.isOnline = false

	if !isNetworkError(err) {
		e.syncError = err.Error()
		slog.Warn("sync: push rejected", "error", err)
		return
	}

	e.backendAvailable = false
	e.backendChecked = true
	e.retryCount++
	slog.Warn("sync: backend unreachable", "retries", e.retryCount, "error", err)

	if e.retryCount < e.cfg.MaxRetries {
		if e.backoffTimer != nil {
			e.backoffTimer.Stop()
		}
		e.backoffTimer = time.AfterFunc(e.cfg.BackoffDelay, func() {
			e.mu.Lock()
			e.backendAvailable = true
			e.mu.Unlock()
			slog.Info("sync: backoff elapsed, backend optimistically available")
		})
	}
}

// tickLoop is the periodic fallback: re-attempt a push only when the
// backend is marked available and changes are pending.
func (e *Engine) tickLoop() {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.mu.Lock()
			due := e.backendAvailable && e.pendingSyncCount > 0
			e.mu.Unlock()
			if due {
				e.Sync(context.Background())
			}
		}
	}
}

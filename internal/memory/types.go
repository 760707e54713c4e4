// Package memory provides the long-term memory system for navicore:
// raw observation records extracted from companion conversations, and the
// compaction engine that folds them into a bounded set of categorized
// knowledge blocks suitable for re-injection into the agent's context.
package memory

import "time"

// MemoryType tags a raw memory item with what kind of fact it records.
type MemoryType string

const (
	TypeGoal         MemoryType = "goal"
	TypePreference   MemoryType = "preference"
	TypePattern      MemoryType = "pattern"
	TypeIdentity     MemoryType = "identity"
	TypeRelationship MemoryType = "relationship"
	TypeWin          MemoryType = "win"
	TypeStruggle     MemoryType = "struggle"
)

// Category identifies a compressed memory block. At most one block exists
// per category; the LTM store is keyed by category, not by block id.
type Category string

const (
	CategoryIdentity      Category = "identity"
	CategoryGoals         Category = "goals"
	CategoryPreferences   Category = "preferences"
	CategoryRelationships Category = "relationships"
	CategoryStruggles     Category = "struggles"
	CategoryAchievements  Category = "achievements"
	CategoryPatterns      Category = "patterns"
	CategoryContext       Category = "context"
)

// RawMemoryItem is an atomic observation extracted from conversation.
// Immutable once created; never deleted, only folded into blocks.
type RawMemoryItem struct {
	ID              string     `json:"id"`
	Type            MemoryType `json:"type"`
	Content         string     `json:"content"`
	ImportanceScore int        `json:"importanceScore"` // 1..3
	Sources         []string   `json:"sources,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// RelationshipMemory is a looser-typed observation with a free-text
// category. Categorized by keyword match rather than a fixed type tag.
type RelationshipMemory struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Detail     string    `json:"detail"`
	Importance int       `json:"importance"` // 1..5
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SessionSummary is a textual summary of one interaction session.
// Append-only; compaction only considers the most recent 10.
type SessionSummary struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Summary   string    `json:"summary"`
	KeyEvents string    `json:"keyEvents"`
	Timestamp time.Time `json:"timestamp"`
}

// CompressedMemoryBlock is the unit of long-term memory: one bounded,
// deduplicated detail list per category.
type CompressedMemoryBlock struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	Summary     string    `json:"summary"`
	Details     []string  `json:"details"`
	Importance  int       `json:"importance"`
	SourceCount int       `json:"sourceCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LongTermMemory is the persisted aggregate written back after every
// compaction pass.
type LongTermMemory struct {
	Version        int                     `json:"version"`
	LastCompaction time.Time               `json:"lastCompaction"`
	Blocks         []CompressedMemoryBlock `json:"blocks"`
	TotalRawCount  int                     `json:"totalRawCount"`
	// LastRawCount is the raw source list length the last pass consumed,
	// used to detect new material after a restart.
	LastRawCount   int `json:"lastRawCount"`
	CompactionRuns int `json:"compactionRuns"`
}

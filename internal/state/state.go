// Package state defines the application state aggregate shared between the
// UI layer and the sync engine, plus the partial-state patch used when
// reconciling backend loads. The sync engine only reads this state; it
// never mutates it except by merging a backend patch.
package state

import (
	"time"

	"github.com/navigrow/navicore/internal/memory"
)

// UserProfile is the local user's identity and progression.
type UserProfile struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	AssessmentComplete bool   `json:"assessmentComplete"`
	CharacterLevel     int    `json:"characterLevel"`
}

// Quest is a user-defined or generated growth task.
type Quest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	XP          int        `json:"xp"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Skill tracks progression in one user skill.
type Skill struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
	XP    int    `json:"xp"`
}

// VaultEntry is a saved note or resource in the user's vault.
type VaultEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessage is one message in a companion chat thread.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatThread groups messages for one conversation.
type ChatThread struct {
	ID       string        `json:"id"`
	Messages []ChatMessage `json:"messages"`
}

// Companion is the persistent companion persona's progression state.
type Companion struct {
	Name               string   `json:"name"`
	InteractionCount   int      `json:"interactionCount"`
	BondLevel          int      `json:"bondLevel"`
	XP                 int      `json:"xp"`
	Level              int      `json:"level"`
	UnlockedEvolutions []string `json:"unlockedEvolutions,omitempty"`
}

// CompanionProfile is the user-facing companion configuration held in
// settings (name, personality, appearance).
type CompanionProfile struct {
	Name        string `json:"name"`
	Personality string `json:"personality,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// Settings is the user-adjustable configuration synced with the backend.
type Settings struct {
	Theme                string           `json:"theme"`
	Companion            CompanionProfile `json:"companion"`
	NotificationsEnabled bool             `json:"notificationsEnabled"`
}

// Stat is one character attribute tracked on the stats screen.
type Stat struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

// JournalEntry is one dated journal record.
type JournalEntry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CheckIn is a daily mood/energy check-in.
type CheckIn struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Mood   string    `json:"mood"`
	Energy int       `json:"energy"`
	Note   string    `json:"note,omitempty"`
}

// StoredFile is a user-attached file reference.
type StoredFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// GeneratedImage is a companion-generated image reference.
type GeneratedImage struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

// CouncilMember is one custom advisor persona the user has defined.
type CouncilMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// AppState is the full application state aggregate. Owned by the UI/state
// layer; the sync engine reads it and hashes a fixed field subset.
type AppState struct {
	User                 UserProfile                 `json:"user"`
	Companion            Companion                   `json:"companion"`
	Settings             Settings                    `json:"settings"`
	Quests               []Quest                     `json:"quests"`
	Skills               []Skill                     `json:"skills"`
	Vault                []VaultEntry                `json:"vault"`
	Stats                []Stat                      `json:"stats"`
	ChatThreads          []ChatThread                `json:"chatThreads"`
	Journal              []JournalEntry              `json:"journal"`
	CheckIns             []CheckIn                   `json:"checkIns"`
	Memories             []memory.RawMemoryItem      `json:"memories"`
	RelationshipMemories []memory.RelationshipMemory `json:"relationshipMemories"`
	SessionSummaries     []memory.SessionSummary     `json:"sessionSummaries"`
	Files                []StoredFile                `json:"files"`
	Images               []GeneratedImage            `json:"images"`
	Council              []CouncilMember             `json:"council"`
	Leaderboard          map[string]int              `json:"leaderboard,omitempty"`
}

// ChatMessageCount returns the total message count across all threads.
func (s *AppState) ChatMessageCount() int {
	n := 0
	for _, t := range s.ChatThreads {
		n += len(t.Messages)
	}
	return n
}

// Thread returns the chat thread with the given id, or nil.
func (s *AppState) Thread(id string) *ChatThread {
	for i := range s.ChatThreads {
		if s.ChatThreads[i].ID == id {
			return &s.ChatThreads[i]
		}
	}
	return nil
}

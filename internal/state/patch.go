package state

import "github.com/navigrow/navicore/internal/memory"

// Patch is a partial application state assembled from a backend load.
// Every field is independently optional: nil means the backend did not
// return it, and the merge leaves the local value (or an empty collection)
// in place rather than assuming presence.
type Patch struct {
	User                 *UserProfile                `json:"user,omitempty"`
	Companion            *Companion                  `json:"companion,omitempty"`
	Settings             *Settings                   `json:"settings,omitempty"`
	CompanionProfile     *CompanionProfile           `json:"companionProfile,omitempty"` // legacy payloads only
	Quests               []Quest                     `json:"quests,omitempty"`
	Skills               []Skill                     `json:"skills,omitempty"`
	Vault                []VaultEntry                `json:"vault,omitempty"`
	Stats                []Stat                      `json:"stats,omitempty"`
	ChatThreads          []ChatThread                `json:"chatThreads,omitempty"`
	Journal              []JournalEntry              `json:"journal,omitempty"`
	CheckIns             []CheckIn                   `json:"checkIns,omitempty"`
	Memories             []memory.RawMemoryItem      `json:"memories,omitempty"`
	RelationshipMemories []memory.RelationshipMemory `json:"relationshipMemories,omitempty"`
	SessionSummaries     []memory.SessionSummary     `json:"sessionSummaries,omitempty"`
	Files                []StoredFile                `json:"files,omitempty"`
	Images               []GeneratedImage            `json:"images,omitempty"`
	Council              []CouncilMember             `json:"council,omitempty"`
	Leaderboard          map[string]int              `json:"leaderboard,omitempty"`
}

// Merge applies a backend patch to the state. Collections present in the
// patch replace the local ones wholesale (the backend copy is the restore
// source); missing collections are defaulted to empty only when local has
// none. Settings are special-cased: a full settings object replaces local
// settings wholesale; otherwise a legacy companion-profile field is
// spliced into the existing settings' companion sub-object.
func Merge(s *AppState, p *Patch) {
	if p == nil {
		return
	}

	if p.User != nil {
		s.User = *p.User
	}
	if p.Companion != nil {
		s.Companion = *p.Companion
	}

	switch {
	case p.Settings != nil:
		s.Settings = *p.Settings
	case p.CompanionProfile != nil:
		s.Settings.Companion = *p.CompanionProfile
	}

	s.Quests = orEmpty(p.Quests, s.Quests)
	s.Skills = orEmpty(p.Skills, s.Skills)
	s.Vault = orEmpty(p.Vault, s.Vault)
	s.Stats = orEmpty(p.Stats, s.Stats)
	s.ChatThreads = orEmpty(p.ChatThreads, s.ChatThreads)
	s.Journal = orEmpty(p.Journal, s.Journal)
	s.CheckIns = orEmpty(p.CheckIns, s.CheckIns)
	s.Memories = orEmpty(p.Memories, s.Memories)
	s.RelationshipMemories = orEmpty(p.RelationshipMemories, s.RelationshipMemories)
	s.SessionSummaries = orEmpty(p.SessionSummaries, s.SessionSummaries)
	s.Files = orEmpty(p.Files, s.Files)
	s.Images = orEmpty(p.Images, s.Images)
	s.Council = orEmpty(p.Council, s.Council)
	if p.Leaderboard != nil {
		s.Leaderboard = p.Leaderboard
	}
}

// orEmpty picks the patch collection when present, else keeps local,
// else an empty (non-nil) slice.
func orEmpty[T any](patch, local []T) []T {
	if patch != nil {
		return patch
	}
	if local != nil {
		return local
	}
	return []T{}
}

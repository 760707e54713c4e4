package sync

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/navigrow/navicore/internal/state"
)

// stateProjection is the fixed field subset the change-detection hash is
// computed over. Deliberately not the whole state tree: counts and a few
// scalar fields change exactly when something the backend stores changes,
// while high-churn fields irrelevant to sync are ignored. Field names are
// fixed so two states with identical projected values hash identically.
type stateProjection struct {
	QuestCount          int    `json:"quests"`
	SkillCount          int    `json:"skills"`
	VaultCount          int    `json:"vault"`
	MemoryCount         int    `json:"memories"`
	ChatMessageCount    int    `json:"chatMessages"`
	InteractionCount    int    `json:"interactions"`
	BondLevel           int    `json:"bond"`
	CompanionXP         int    `json:"companionXp"`
	CompanionLevel      int    `json:"companionLevel"`
	JournalCount        int    `json:"journal"`
	CheckInCount        int    `json:"checkIns"`
	SessionSummaryCount int    `json:"sessionSummaries"`
	RelationshipCount   int    `json:"relationshipMemories"`
	FileCount           int    `json:"files"`
	ImageCount          int    `json:"images"`
	CouncilCount        int    `json:"council"`
	LeaderboardXP       int    `json:"leaderboardXp"`
	UserName            string `json:"userName"`
	AssessmentComplete  bool   `json:"assessmentComplete"`
	CharacterLevel      int    `json:"characterLevel"`
	StatsFingerprint    string `json:"stats"`
	Theme               string `json:"theme"`
	EvolutionCount      int    `json:"evolutions"`
}

// StateHash returns the change-detection fingerprint for a state.
// Pure and deterministic over the projected fields only; cryptographic
// strength is not required, this is a change heuristic.
func StateHash(s *state.AppState) string {
	p := stateProjection{
		QuestCount:          len(s.Quests),
		SkillCount:          len(s.Skills),
		VaultCount:          len(s.Vault),
		MemoryCount:         len(s.Memories),
		ChatMessageCount:    s.ChatMessageCount(),
		InteractionCount:    s.Companion.InteractionCount,
		BondLevel:           s.Companion.BondLevel,
		CompanionXP:         s.Companion.XP,
		CompanionLevel:      s.Companion.Level,
		JournalCount:        len(s.Journal),
		CheckInCount:        len(s.CheckIns),
		SessionSummaryCount: len(s.SessionSummaries),
		RelationshipCount:   len(s.RelationshipMemories),
		FileCount:           len(s.Files),
		ImageCount:          len(s.Images),
		CouncilCount:        len(s.Council),
		LeaderboardXP:       s.Leaderboard[s.User.ID],
		UserName:            s.User.Name,
		AssessmentComplete:  s.User.AssessmentComplete,
		CharacterLevel:      s.User.CharacterLevel,
		StatsFingerprint:    statsFingerprint(s.Stats),
		Theme:               s.Settings.Theme,
		EvolutionCount:      len(s.Companion.UnlockedEvolutions),
	}

	data, _ := json.Marshal(p)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:16])
}

// statsFingerprint renders stats as "id:value|id:value|..." in slice order.
func statsFingerprint(stats []state.Stat) string {
	parts := make([]string, len(stats))
	for i, st := range stats {
		parts[i] = fmt.Sprintf("%s:%d", st.ID, st.Value)
	}
	return strings.Join(parts, "|")
}

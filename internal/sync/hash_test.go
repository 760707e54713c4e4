package sync

import (
	"testing"

	"github.com/navigrow/navicore/internal/state"
)

func testState() *state.AppState {
	return &state.AppState{
		User: state.UserProfile{ID: "u1", Name: "Alex", CharacterLevel: 4},
		Companion: state.Companion{
			Name: "Navi", InteractionCount: 12, BondLevel: 3, XP: 450, Level: 2,
		},
		Settings: state.Settings{Theme: "dark"},
		Quests:   []state.Quest{{ID: "q1", Title: "Morning run"}},
		Stats:    []state.Stat{{ID: "focus", Value: 7}, {ID: "energy", Value: 5}},
		Leaderboard: map[string]int{
			"u1": 1200,
			"u2": 900,
		},
	}
}

func TestStateHash_Stable(t *testing.T) {
	s := testState()
	if StateHash(s) != StateHash(s) {
		t.Error("hash not deterministic for identical state")
	}
}

func TestStateHash_ChangesOnSelectedField(t *testing.T) {
	s := testState()
	before := StateHash(s)

	s.Quests = append(s.Quests, state.Quest{ID: "q2", Title: "Read"})
	if StateHash(s) == before {
		t.Error("quest count change did not change the hash")
	}
}

func TestStateHash_IgnoresUnselectedFields(t *testing.T) {
	s := testState()
	before := StateHash(s)

	// Fields outside the projection: quest title text, notification toggle.
	s.Quests[0].Title = "Evening run"
	s.Settings.NotificationsEnabled = true
	if StateHash(s) != before {
		t.Error("unselected field change altered the hash")
	}
}

func TestStateHash_StatsFingerprint(t *testing.T) {
	s := testState()
	before := StateHash(s)

	s.Stats[0].Value = 8
	if StateHash(s) == before {
		t.Error("stat value change did not change the hash")
	}
}

func TestStateHash_LeaderboardLocalUserOnly(t *testing.T) {
	s := testState()
	before := StateHash(s)

	// Another user's XP is outside the projection.
	s.Leaderboard["u2"] = 1500
	if StateHash(s) != before {
		t.Error("other user's leaderboard XP altered the hash")
	}

	s.Leaderboard["u1"] = 1300
	if StateHash(s) == before {
		t.Error("local user's leaderboard XP did not change the hash")
	}
}

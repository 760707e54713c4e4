package snapshot

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/navigrow/navicore/internal/memory"
	"github.com/navigrow/navicore/internal/state"
)

func buildState() *state.AppState {
	s := &state.AppState{
		User:      state.UserProfile{Name: "Alex", CharacterLevel: 3},
		Companion: state.Companion{Name: "Navi", Level: 2, XP: 120, BondLevel: 4},
	}
	for i := 0; i < 25; i++ {
		s.Vault = append(s.Vault, state.VaultEntry{
			ID:    fmt.Sprintf("v%d", i),
			Title: fmt.Sprintf("Entry %d", i),
		})
	}
	for i := 0; i < 8; i++ {
		s.Journal = append(s.Journal, state.JournalEntry{
			ID:        fmt.Sprintf("j%d", i),
			Content:   fmt.Sprintf("journal entry %d", i),
			CreatedAt: time.Now(),
		})
	}
	for i := 0; i < 14; i++ {
		s.Quests = append(s.Quests, state.Quest{
			ID:        fmt.Sprintf("q%d", i),
			Title:     fmt.Sprintf("Quest %d", i),
			Completed: true,
		})
	}
	return s
}

func TestBuildAgentContext_Sections(t *testing.T) {
	out := BuildAgentContext(buildState(), []memory.CompressedMemoryBlock{
		{Category: memory.CategoryGoals, Summary: "Active goals & aspirations (1 items)", Details: []string{"Run a marathon"}},
	})

	for _, header := range []string{"--- USER PROFILE ---", "--- NAVI PROFILE ---", "--- QUESTS ---", "--- VAULT ---", "--- JOURNAL ---", "--- LONG-TERM MEMORY ---"} {
		if !strings.Contains(out, header) {
			t.Errorf("missing section header %q", header)
		}
	}
	if !strings.Contains(out, "Run a marathon") {
		t.Error("memory detail missing from context")
	}
}

func TestBuildAgentContext_Caps(t *testing.T) {
	out := BuildAgentContext(buildState(), nil)

	// First 20 vault entries only.
	if !strings.Contains(out, "Entry 19") || strings.Contains(out, "Entry 20") {
		t.Error("vault cap not applied (want first 20)")
	}
	// Last 5 journal entries only.
	if strings.Contains(out, "journal entry 2\n") || !strings.Contains(out, "journal entry 7") {
		t.Error("journal cap not applied (want last 5)")
	}
	// Last 10 completed quests only.
	if strings.Contains(out, "Done: Quest 3\n") || !strings.Contains(out, "Done: Quest 13") {
		t.Error("completed quest cap not applied (want last 10)")
	}
}

func TestBuildAgentContext_TruncatesLongContent(t *testing.T) {
	s := &state.AppState{
		Vault: []state.VaultEntry{{Title: "Long", Content: strings.Repeat("x", 500)}},
	}
	out := BuildAgentContext(s, nil)

	if strings.Contains(out, strings.Repeat("x", 201)) {
		t.Error("vault content not truncated to 200 chars")
	}
	if !strings.Contains(out, "...") {
		t.Error("truncation marker missing")
	}
}

func TestBuildAgentContext_MultibyteTruncation(t *testing.T) {
	s := &state.AppState{
		Vault: []state.VaultEntry{{Title: "Notes", Content: strings.Repeat("überlegt 思考 ", 40)}},
	}
	out := BuildAgentContext(s, nil)

	if !utf8.ValidString(out) {
		t.Error("truncation produced invalid UTF-8")
	}
	if !strings.Contains(out, "...") {
		t.Error("truncation marker missing")
	}
}

func TestBuildCompactMemoryContext(t *testing.T) {
	many := make([]string, 20)
	for i := range many {
		many[i] = fmt.Sprintf("detail %d", i)
	}

	blocks := []memory.CompressedMemoryBlock{
		{Category: memory.CategoryContext, Summary: "Session context & history (20 items)", Importance: 1, Details: many},
		{Category: memory.CategoryGoals, Summary: "Active goals & aspirations (20 items)", Importance: 3, Details: many},
	}

	out := BuildCompactMemoryContext(blocks)

	// Sorted by descending importance: goals first.
	goalsIdx := strings.Index(out, "[GOALS]")
	ctxIdx := strings.Index(out, "[CONTEXT]")
	if goalsIdx < 0 || ctxIdx < 0 || goalsIdx > ctxIdx {
		t.Errorf("blocks not sorted by importance: goals@%d context@%d", goalsIdx, ctxIdx)
	}

	// Importance >= 3 renders 10 details, lower renders 5.
	goalsSection := out[goalsIdx:ctxIdx]
	if !strings.Contains(goalsSection, "detail 9") || strings.Contains(goalsSection, "detail 10") {
		t.Error("high-importance block should render 10 details")
	}
	ctxSection := out[ctxIdx:]
	if !strings.Contains(ctxSection, "detail 4") || strings.Contains(ctxSection, "detail 5") {
		t.Error("low-importance block should render 5 details")
	}
}

func TestBuildWithinBudget(t *testing.T) {
	s := buildState()
	blocks := []memory.CompressedMemoryBlock{
		{Category: memory.CategoryGoals, Summary: "Active goals & aspirations (1 items)", Details: []string{"Run a marathon"}},
	}

	full := BuildWithinBudget(s, blocks, 0)
	if !strings.Contains(full, "--- USER PROFILE ---") {
		t.Error("zero budget should render the full context")
	}

	compact := BuildWithinBudget(s, blocks, 10)
	if strings.Contains(compact, "--- USER PROFILE ---") {
		t.Error("tiny budget should fall back to compact rendering")
	}
	if !strings.Contains(compact, "--- LONG-TERM MEMORY ---") {
		t.Error("compact rendering missing memory section")
	}
}

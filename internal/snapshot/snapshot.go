// Package snapshot renders application state and long-term memory into the
// plain-text context block injected into the companion agent's prompt.
// Output is newline-delimited with fixed section headers; agent
// integrations treat it as an opaque prompt fragment.
package snapshot

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/navigrow/navicore/internal/memory"
	"github.com/navigrow/navicore/internal/state"
)

// Truncation caps keep the output bounded regardless of history size.
const (
	maxContentLen      = 200
	maxJournalLen      = 150
	maxVaultEntries    = 20
	maxCompletedQuests = 10
	maxJournalEntries  = 5
	maxBlockDetails    = 15
)

// BuildAgentContext renders the full state snapshot plus memory blocks.
// Pure function of its inputs.
func BuildAgentContext(s *state.AppState, blocks []memory.CompressedMemoryBlock) string {
	var b strings.Builder

	b.WriteString("--- USER PROFILE ---\n")
	fmt.Fprintf(&b, "Name: %s\n", s.User.Name)
	fmt.Fprintf(&b, "Character level: %d\n", s.User.CharacterLevel)
	fmt.Fprintf(&b, "Assessment complete: %t\n", s.User.AssessmentComplete)
	for _, st := range s.Stats {
		fmt.Fprintf(&b, "Stat %s: %d\n", st.ID, st.Value)
	}

	b.WriteString("\n--- NAVI PROFILE ---\n")
	fmt.Fprintf(&b, "Name: %s\n", s.Companion.Name)
	fmt.Fprintf(&b, "Level: %d, XP: %d, Bond: %d\n", s.Companion.Level, s.Companion.XP, s.Companion.BondLevel)
	fmt.Fprintf(&b, "Interactions: %d\n", s.Companion.InteractionCount)
	if len(s.Companion.UnlockedEvolutions) > 0 {
		fmt.Fprintf(&b, "Evolutions: %s\n", strings.Join(s.Companion.UnlockedEvolutions, ", "))
	}

	writeQuests(&b, s.Quests)
	writeSkills(&b, s.Skills)
	writeVault(&b, s.Vault)
	writeJournal(&b, s.Journal)
	writeCheckIns(&b, s.CheckIns)
	writeMemoryBlocks(&b, blocks, maxBlockDetails)

	return b.String()
}

// BuildCompactMemoryContext renders only the memory blocks, sorted by
// descending importance, with a per-block detail cap that scales with
// importance. Used when the full snapshot would blow the context budget.
func BuildCompactMemoryContext(blocks []memory.CompressedMemoryBlock) string {
	sorted := make([]memory.CompressedMemoryBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Importance > sorted[j].Importance
	})

	var b strings.Builder
	b.WriteString("--- LONG-TERM MEMORY ---\n")
	for _, block := range sorted {
		cap := 5
		if block.Importance >= 3 {
			cap = 10
		}
		fmt.Fprintf(&b, "[%s] %s\n", strings.ToUpper(string(block.Category)), block.Summary)
		for i, d := range block.Details {
			if i >= cap {
				break
			}
			fmt.Fprintf(&b, "- %s\n", truncate(d, maxContentLen))
		}
	}
	return b.String()
}

func writeQuests(b *strings.Builder, quests []state.Quest) {
	var active, completed []state.Quest
	for _, q := range quests {
		if q.Completed {
			completed = append(completed, q)
		} else {
			active = append(active, q)
		}
	}

	b.WriteString("\n--- QUESTS ---\n")
	for _, q := range active {
		fmt.Fprintf(b, "Active: %s (%d XP)\n", truncate(q.Title, maxContentLen), q.XP)
	}
	// Only the most recent completions matter for context.
	if len(completed) > maxCompletedQuests {
		completed = completed[len(completed)-maxCompletedQuests:]
	}
	for _, q := range completed {
		fmt.Fprintf(b, "Done: %s\n", truncate(q.Title, maxContentLen))
	}
}

func writeSkills(b *strings.Builder, skills []state.Skill) {
	if len(skills) == 0 {
		return
	}
	b.WriteString("\n--- SKILLS ---\n")
	for _, sk := range skills {
		fmt.Fprintf(b, "%s: level %d (%d XP)\n", sk.Name, sk.Level, sk.XP)
	}
}

func writeVault(b *strings.Builder, vault []state.VaultEntry) {
	if len(vault) == 0 {
		return
	}
	b.WriteString("\n--- VAULT ---\n")
	entries := vault
	if len(entries) > maxVaultEntries {
		entries = entries[:maxVaultEntries]
	}
	for _, v := range entries {
		fmt.Fprintf(b, "%s: %s\n", v.Title, truncate(v.Content, maxContentLen))
	}
}

func writeJournal(b *strings.Builder, journal []state.JournalEntry) {
	if len(journal) == 0 {
		return
	}
	b.WriteString("\n--- JOURNAL ---\n")
	entries := journal
	if len(entries) > maxJournalEntries {
		entries = entries[len(entries)-maxJournalEntries:]
	}
	for _, j := range entries {
		fmt.Fprintf(b, "[%s] %s\n", j.CreatedAt.Format("2006-01-02"), truncate(j.Content, maxJournalLen))
	}
}

func writeCheckIns(b *strings.Builder, checkIns []state.CheckIn) {
	if len(checkIns) == 0 {
		return
	}
	b.WriteString("\n--- CHECK-INS ---\n")
	recent := checkIns
	if len(recent) > maxJournalEntries {
		recent = recent[len(recent)-maxJournalEntries:]
	}
	for _, c := range recent {
		fmt.Fprintf(b, "[%s] mood=%s energy=%d %s\n",
			c.Date.Format(time.DateOnly), c.Mood, c.Energy, truncate(c.Note, maxJournalLen))
	}
}

func writeMemoryBlocks(b *strings.Builder, blocks []memory.CompressedMemoryBlock, detailCap int) {
	if len(blocks) == 0 {
		return
	}
	b.WriteString("\n--- LONG-TERM MEMORY ---\n")
	for _, block := range blocks {
		fmt.Fprintf(b, "[%s] %s\n", strings.ToUpper(string(block.Category)), block.Summary)
		for i, d := range block.Details {
			if i >= detailCap {
				break
			}
			fmt.Fprintf(b, "- %s\n", truncate(d, maxContentLen))
		}
	}
}

// truncate caps s at maxLen characters, never splitting a rune.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

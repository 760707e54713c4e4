package memory

import (
	"fmt"
	"strings"
	"time"
)

const (
	// maxDetailsPerBlock caps each block's detail list; oldest entries are
	// evicted first, so growth is bounded at O(categories * 50) regardless
	// of how many raw facts are ever produced.
	maxDetailsPerBlock = 50

	// minContentLen filters noise: trimmed content shorter than this is skipped.
	minContentLen = 5

	// dupPrefixLen is the prefix length for the near-duplicate heuristic.
	dupPrefixLen = 30

	// maxSessionSummaries is how many recent session summaries are folded.
	maxSessionSummaries = 10
)

// typeCategory maps a raw memory type to its block category.
// Unmapped types fall through to CategoryContext.
var typeCategory = map[MemoryType]Category{
	TypeGoal:         CategoryGoals,
	TypePreference:   CategoryPreferences,
	TypeIdentity:     CategoryIdentity,
	TypeRelationship: CategoryRelationships,
	TypeStruggle:     CategoryStruggles,
	TypeWin:          CategoryAchievements,
	TypePattern:      CategoryPatterns,
}

// categoryKeywords classifies a relationship memory's free-text category.
// First matching set wins; no match falls through to CategoryContext.
var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryGoals, []string{"goal", "plan", "want"}},
	{CategoryPreferences, []string{"prefer", "like", "love", "hate"}},
	{CategoryRelationships, []string{"relation", "friend", "family", "partner"}},
	{CategoryIdentity, []string{"identity", "value", "belief", "self"}},
	{CategoryStruggles, []string{"struggle", "fear", "worry", "stress"}},
	{CategoryAchievements, []string{"achieve", "win", "success", "proud"}},
	{CategoryPatterns, []string{"pattern", "habit", "routine"}},
}

// summaryTemplates generate the one-line block summary from the detail count.
var summaryTemplates = map[Category]string{
	CategoryIdentity:      "Core identity & values (%d items)",
	CategoryGoals:         "Active goals & aspirations (%d items)",
	CategoryPreferences:   "Known preferences (%d items)",
	CategoryRelationships: "People & relationships (%d items)",
	CategoryStruggles:     "Current struggles (%d items)",
	CategoryAchievements:  "Wins & achievements (%d items)",
	CategoryPatterns:      "Behavioral patterns (%d items)",
	CategoryContext:       "Session context & history (%d items)",
}

// Compact folds raw memory items, relationship memories and session
// summaries into the previous block set, returning the updated blocks.
// At most one block exists per category. Pure: no I/O, no errors; empty
// or malformed inputs degrade to no-ops.
func Compact(items []RawMemoryItem, relationships []RelationshipMemory, sessions []SessionSummary, prev []CompressedMemoryBlock) []CompressedMemoryBlock {
	now := time.Now()

	// Seed from existing blocks so accumulated history survives across runs.
	blocks := make(map[Category]*CompressedMemoryBlock, len(prev))
	order := make([]Category, 0, len(prev))
	for i := range prev {
		b := prev[i]
		if _, ok := blocks[b.Category]; ok {
			continue
		}
		blocks[b.Category] = &b
		order = append(order, b.Category)
	}

	add := func(cat Category, detail string, importance int) {
		b, ok := blocks[cat]
		if !ok {
			blocks[cat] = &CompressedMemoryBlock{
				ID:          fmt.Sprintf("%s-%d", cat, now.UnixMilli()),
				Category:    cat,
				Summary:     fmt.Sprintf(summaryTemplates[cat], 1),
				Details:     []string{detail},
				Importance:  importance,
				SourceCount: 1,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			order = append(order, cat)
			return
		}
		if isDuplicateDetail(b.Details, detail) {
			return
		}
		b.Details = append(b.Details, detail)
		b.SourceCount++
		if importance > b.Importance {
			b.Importance = importance
		}
		b.UpdatedAt = now
	}

	for _, item := range items {
		content := strings.TrimSpace(item.Content)
		if len(content) < minContentLen {
			continue
		}
		cat, ok := typeCategory[item.Type]
		if !ok {
			cat = CategoryContext
		}
		add(cat, content, item.ImportanceScore)
	}

	for _, rel := range relationships {
		detail := strings.TrimSpace(rel.Detail)
		if len(detail) < minContentLen {
			continue
		}
		// Provenance: keep the original free-text category in the detail.
		add(keywordCategory(rel.Category), fmt.Sprintf("[%s] %s", rel.Category, detail), rel.Importance)
	}

	foldSessions(blocks, &order, sessions, now)

	out := make([]CompressedMemoryBlock, 0, len(blocks))
	for _, cat := range order {
		b := blocks[cat]
		if len(b.Details) > maxDetailsPerBlock {
			b.Details = b.Details[len(b.Details)-maxDetailsPerBlock:]
		}
		b.Summary = fmt.Sprintf(summaryTemplates[b.Category], len(b.Details))
		out = append(out, *b)
	}
	return out
}

// foldSessions merges the most recent session summaries into the context
// block. Dedupe is keyed on session id rather than text overlap: a summary
// is a duplicate if any existing detail already contains its id.
func foldSessions(blocks map[Category]*CompressedMemoryBlock, order *[]Category, sessions []SessionSummary, now time.Time) {
	if len(sessions) == 0 {
		return
	}
	recent := sessions
	if len(recent) > maxSessionSummaries {
		recent = recent[len(recent)-maxSessionSummaries:]
	}

	b, ok := blocks[CategoryContext]
	if !ok {
		b = &CompressedMemoryBlock{
			ID:        fmt.Sprintf("%s-%d", CategoryContext, now.UnixMilli()),
			Category:  CategoryContext,
			Summary:   fmt.Sprintf(summaryTemplates[CategoryContext], 0),
			CreatedAt: now,
			UpdatedAt: now,
		}
		blocks[CategoryContext] = b
		*order = append(*order, CategoryContext)
	}

	for _, s := range recent {
		if s.SessionID != "" && containsSessionID(b.Details, s.SessionID) {
			continue
		}
		// The session id goes into the rendered detail so the dedupe above
		// can find it on later passes.
		header := s.SessionID
		if header == "" {
			header = s.Timestamp.Format(time.RFC3339)
		}
		b.Details = append(b.Details, fmt.Sprintf("[Session %s] %s | %s",
			header, s.Summary, s.KeyEvents))
		b.SourceCount++
		b.UpdatedAt = now
	}
}

// isDuplicateDetail reports whether detail is a near-duplicate of any
// existing detail: either string contains the other's first-30-character
// prefix, case-insensitive, checked in both directions.
func isDuplicateDetail(existing []string, detail string) bool {
	dl := strings.ToLower(detail)
	dp := prefix(dl, dupPrefixLen)
	for _, e := range existing {
		el := strings.ToLower(e)
		if strings.Contains(el, dp) || strings.Contains(dl, prefix(el, dupPrefixLen)) {
			return true
		}
	}
	return false
}

func containsSessionID(details []string, sessionID string) bool {
	for _, d := range details {
		if strings.Contains(d, sessionID) {
			return true
		}
	}
	return false
}

// keywordCategory maps a free-text category to a block category by
// case-insensitive substring match against keyword sets.
func keywordCategory(raw string) Category {
	lower := strings.ToLower(raw)
	for _, set := range categoryKeywords {
		for _, w := range set.words {
			if strings.Contains(lower, w) {
				return set.category
			}
		}
	}
	return CategoryContext
}

// prefix returns the first n characters of s on rune boundaries.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package memory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Assistant replies may carry durable memories as tagged lines:
//
//	[MEMORY:goal] Run a marathon by June
//	[MEMORY:preference:3] Prefers morning check-ins
//
// The optional trailing field is an importance score 1..3 (default 1).
// Everything else in the reply is conversational text and is ignored.

const memoryTagPrefix = "[MEMORY:"

// ExtractMemories scans assistant output for tagged memory lines and
// returns them as raw memory items. Unknown type tags and too-short
// content are dropped; the reply with tag lines removed is returned so
// the tags never reach the user.
func ExtractMemories(reply string) (items []RawMemoryItem, cleaned string) {
	var kept []string
	now := time.Now()

	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, memoryTagPrefix) {
			kept = append(kept, line)
			continue
		}

		end := strings.Index(trimmed, "]")
		if end < 0 {
			kept = append(kept, line)
			continue
		}

		tag := trimmed[len(memoryTagPrefix):end]
		content := strings.TrimSpace(trimmed[end+1:])
		if len(content) < minContentLen {
			continue
		}

		memType, importance := parseMemoryTag(tag)
		if memType == "" {
			continue
		}

		items = append(items, RawMemoryItem{
			ID:              uuid.NewString(),
			Type:            memType,
			Content:         content,
			ImportanceScore: importance,
			Sources:         []string{"assistant"},
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	return items, strings.TrimSpace(strings.Join(kept, "\n"))
}

// parseMemoryTag splits "type" or "type:importance" and validates both.
func parseMemoryTag(tag string) (MemoryType, int) {
	typePart := tag
	importance := 1

	if i := strings.Index(tag, ":"); i >= 0 {
		typePart = tag[:i]
		switch tag[i+1:] {
		case "1":
			importance = 1
		case "2":
			importance = 2
		case "3":
			importance = 3
		default:
			return "", 0
		}
	}

	memType := MemoryType(strings.ToLower(strings.TrimSpace(typePart)))
	if _, ok := typeCategory[memType]; !ok {
		return "", 0
	}
	return memType, importance
}

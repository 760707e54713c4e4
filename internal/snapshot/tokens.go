package snapshot

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/navigrow/navicore/internal/memory"
	"github.com/navigrow/navicore/internal/state"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// TokenCount estimates the token footprint of a context block using the
// cl100k_base encoding. Falls back to a chars/4 heuristic if the encoding
// cannot be loaded (offline first run).
func TokenCount(text string) int {
	encOnce.Do(func() {
		var err error
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("snapshot: tiktoken unavailable, using char heuristic", "error", err)
		}
	})

	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// BuildWithinBudget renders the agent context, falling back to the compact
// memory-only rendering when the full snapshot exceeds the token budget.
func BuildWithinBudget(s *state.AppState, blocks []memory.CompressedMemoryBlock, budgetTokens int) string {
	full := BuildAgentContext(s, blocks)
	if budgetTokens <= 0 || TokenCount(full) <= budgetTokens {
		return full
	}
	slog.Debug("snapshot: full context over budget, using compact rendering",
		"budget", budgetTokens)
	return BuildCompactMemoryContext(blocks)
}

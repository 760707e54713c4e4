package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/navigrow/navicore/internal/app"
	"github.com/navigrow/navicore/internal/memory"
	"github.com/navigrow/navicore/internal/state"
)

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Long-term memory: compact, show, add, reset",
	}
	cmd.AddCommand(memoryCompactCmd())
	cmd.AddCommand(memoryShowCmd())
	cmd.AddCommand(memoryAddCmd())
	cmd.AddCommand(memoryResetCmd())
	return cmd
}

func memoryCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Run a compaction pass over accumulated raw memories",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := app.New(ctx, loadConfig())
			defer a.Close()

			snap := a.Snapshot()
			blocks := a.Memory.RunCompaction(ctx, snap.Memories, snap.RelationshipMemories, snap.SessionSummaries)
			fmt.Printf("Compacted into %d blocks\n", len(blocks))
		},
	}
}

func memoryShowCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the compressed memory blocks",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := app.New(ctx, loadConfig())
			defer a.Close()

			ltm := a.Memory.Snapshot()

			if jsonOutput {
				data, _ := json.MarshalIndent(ltm, "", "  ")
				fmt.Println(string(data))
				return
			}

			fmt.Printf("Compaction runs: %d, raw memories folded: %d\n\n", ltm.CompactionRuns, ltm.TotalRawCount)
			for _, b := range ltm.Blocks {
				fmt.Printf("[%s] %s (importance %d, sources %d)\n", b.Category, b.Summary, b.Importance, b.SourceCount)
				for _, d := range b.Details {
					fmt.Printf("  - %s\n", d)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func memoryAddCmd() *cobra.Command {
	var memType string
	var importance int
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Record a raw memory item",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := app.New(ctx, loadConfig())
			defer a.Close()

			if importance < 1 || importance > 3 {
				fmt.Fprintln(os.Stderr, "importance must be 1..3")
				os.Exit(1)
			}

			now := time.Now()
			a.Mutate(ctx, func(s *state.AppState) {
				s.Memories = append(s.Memories, memory.RawMemoryItem{
					ID:              uuid.NewString(),
					Type:            memory.MemoryType(memType),
					Content:         args[0],
					ImportanceScore: importance,
					Sources:         []string{"cli"},
					CreatedAt:       now,
					UpdatedAt:       now,
				})
			})
			fmt.Println("Memory recorded")
		},
	}
	cmd.Flags().StringVar(&memType, "type", "pattern", "memory type (goal|preference|pattern|identity|relationship|win|struggle)")
	cmd.Flags().IntVar(&importance, "importance", 1, "importance score 1..3")
	return cmd
}

func memoryResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the long-term memory store",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := app.New(ctx, loadConfig())
			defer a.Close()

			if err := a.Memory.Reset(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Reset failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Long-term memory cleared")
		},
	}
}

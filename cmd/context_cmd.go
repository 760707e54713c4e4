package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/navigrow/navicore/internal/app"
	"github.com/navigrow/navicore/internal/snapshot"
)

func contextCmd() *cobra.Command {
	var compact, system bool
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Render the agent prompt context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := app.New(ctx, loadConfig())
			defer a.Close()

			switch {
			case compact:
				fmt.Print(snapshot.BuildCompactMemoryContext(a.Memory.Blocks()))
			case system:
				fmt.Print(a.SystemPrompt())
			default:
				fmt.Print(a.AgentContext())
			}
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "render only the memory blocks")
	cmd.Flags().BoolVar(&system, "system", false, "prepend the persona prompt")
	return cmd
}

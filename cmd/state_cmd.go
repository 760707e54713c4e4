package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/navigrow/navicore/internal/app"
	enginesync "github.com/navigrow/navicore/internal/sync"
)

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Local application state: export, hash",
	}
	cmd.AddCommand(stateExportCmd())
	cmd.AddCommand(stateHashCmd())
	return cmd
}

func stateExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the local state as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := app.New(ctx, loadConfig())
			defer a.Close()

			data, err := json.MarshalIndent(a.Snapshot(), "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		},
	}
}

func stateHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Print the change-detection hash of the local state",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := app.New(ctx, loadConfig())
			defer a.Close()

			fmt.Println(enginesync.StateHash(a.Snapshot()))
		},
	}
}

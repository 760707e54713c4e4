package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/navigrow/navicore/internal/app"
	"github.com/navigrow/navicore/internal/telemetry"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Backend synchronization: push, pull, status",
	}
	cmd.AddCommand(syncNowCmd())
	cmd.AddCommand(syncPullCmd())
	cmd.AddCommand(syncStatusCmd())
	return cmd
}

func syncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force an immediate full-state push",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			cfg := loadConfig()

			shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: telemetry setup failed: %v\n", err)
			} else {
				defer shutdown(ctx)
			}

			a := app.New(ctx, cfg)
			defer a.Close()

			a.Engine.ForceSync(ctx)

			st := a.Engine.Status()
			if st.SyncError != "" {
				fmt.Fprintf(os.Stderr, "Sync error: %s\n", st.SyncError)
				os.Exit(1)
			}
			if !st.IsOnline {
				fmt.Fprintln(os.Stderr, "Backend unreachable; changes remain local")
				os.Exit(1)
			}
			fmt.Printf("Synced at %s\n", st.LastSyncTime)
		},
	}
}

func syncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Load state from the backend and merge it locally",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			cfg := loadConfig()
			a := app.New(ctx, cfg)
			defer a.Close()

			if err := a.PullFromBackend(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Pull failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Backend state merged")
		},
	}
}

func syncStatusCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync engine status",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			cfg := loadConfig()
			a := app.New(ctx, cfg)
			defer a.Close()

			st := a.Engine.Status()

			if jsonOutput {
				data, _ := json.MarshalIndent(map[string]any{
					"isOnline":         st.IsOnline,
					"backendAvailable": st.BackendAvailable,
					"backendChecked":   st.BackendChecked,
					"pendingSyncCount": st.PendingSyncCount,
					"retryCount":       st.RetryCount,
					"lastSyncTime":     st.LastSyncTime,
					"syncError":        st.SyncError,
				}, "", "  ")
				fmt.Println(string(data))
				return
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Online:\t%t\n", st.IsOnline)
			fmt.Fprintf(w, "Backend available:\t%t\n", st.BackendAvailable)
			fmt.Fprintf(w, "Backend checked:\t%t\n", st.BackendChecked)
			fmt.Fprintf(w, "Pending changes:\t%d\n", st.PendingSyncCount)
			fmt.Fprintf(w, "Retries:\t%d\n", st.RetryCount)
			fmt.Fprintf(w, "Last sync:\t%s\n", st.LastSyncTime)
			if st.SyncError != "" {
				fmt.Fprintf(w, "Last error:\t%s\n", st.SyncError)
			}
			w.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

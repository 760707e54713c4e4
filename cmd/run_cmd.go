package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/navigrow/navicore/internal/app"
	"github.com/navigrow/navicore/internal/config"
	"github.com/navigrow/navicore/internal/telemetry"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync engine until interrupted",
		Long: "Starts the engine with its periodic push loop and watches the\n" +
			"config file for changes. Stops cleanly on SIGINT or SIGTERM.",
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
			a.Engine.Start()

			watcher, err := config.NewWatcher(resolveConfigPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: config watch unavailable: %v\n", err)
			} else {
				watcher.OnChange(a.ApplyConfig)
				if err := watcher.Start(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: config watch failed: %v\n", err)
				}
				defer watcher.Stop()
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			fmt.Fprintln(os.Stderr, "Shutting down")
		},
	}
}

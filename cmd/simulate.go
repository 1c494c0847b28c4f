package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineloss/app"
)

var maxCycles int

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Jitter the base dataset on a timer and publish live data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("cycles") {
			cfg.Simulator.MaxCycles = maxCycles
			if err := cfg.Simulator.Validate(); err != nil {
				return fmt.Errorf("simulator: %w", err)
			}
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			return svc.Simulate(ctx)
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("live") {
			live, _ := cmd.Flags().GetBool("live")
			cfg.Dashboard.UseLive = live
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Dashboard.Addr = addr
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			return svc.Serve(ctx)
		})
	},
}

var seedDB string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy the base dataset and its results into a SQLite database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			n, err := svc.Seed(ctx, seedDB)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d lines written to %s\n", n, seedDB)
			return err
		})
	},
}

func init() {
	simulateCmd.Flags().IntVar(&maxCycles, "cycles", 0, "stop after this many cycles (0 runs until interrupted)")
	serveCmd.Flags().Bool("live", false, "read the simulator output instead of the base dataset")
	serveCmd.Flags().String("addr", "", "listen address, overrides dashboard.addr")
	seedCmd.Flags().StringVar(&seedDB, "db", "data/lines.db", "SQLite database path")
	rootCmd.AddCommand(simulateCmd, serveCmd, seedCmd)
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineloss/app"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Compute losses for the base dataset and save the results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			_, err := svc.Calculate(ctx, cmd.OutOrStdout())
			return err
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank lines, list problem areas and price the losses of the saved results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			_, err := svc.Analyze(ctx, cmd.OutOrStdout())
			return err
		})
	},
}

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the computed base dataset as JSON or CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			return svc.Export(ctx, cmd.OutOrStdout(), exportFormat)
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(calculateCmd, analyzeCmd, exportCmd)
}

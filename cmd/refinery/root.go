package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refinery/internal/logging"
)

func newRootCommand() *cobra.Command {
	var envFileFlag string

	ctx := newCommandContext(&envFileFlag)

	rootCmd := &cobra.Command{
		Use:           "refinery",
		Short:         "Clean spreadsheets: dedupe, trim, drop empty rows, fix case",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// Batch commands write data to stdout, so logs go to stderr.
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Environment file to load (default: .env when present)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))
	rootCmd.AddCommand(newPreviewCommand(ctx))
	rootCmd.AddCommand(newOpsCommand())

	return rootCmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refinery/internal/logging"
	"github.com/JonMunkholm/refinery/internal/transform"
)

func newOpsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the available cleaning operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ops := transform.All()

			if logging.IsTerminal(out) {
				rows := make([][]string, len(ops))
				for i, op := range ops {
					rows[i] = []string{op.ID, op.Label, op.Description}
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Label", "Description"}, rows, nil))
				return nil
			}

			for _, op := range ops {
				fmt.Fprintf(out, "%s\t%s\t%s\n", op.ID, op.Label, op.Description)
			}
			return nil
		},
	}
}

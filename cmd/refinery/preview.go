package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/logging"
)

const (
	outputAuto  = "auto"
	outputTable = "table"
	outputCSV   = "csv"
)

type previewOptions struct {
	ops    []string
	rows   int
	output string
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var opts previewOptions

	cmd := &cobra.Command{
		Use:   "preview <input>",
		Short: "Print the leading rows of a file after applying operations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			exec := newExecutor(cfg)
			if err := startEngine(cmd.Context(), exec); err != nil {
				return err
			}
			ctrl := newController(cfg, exec, exportOptions(cfg))
			return runPreview(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), ctrl, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.ops, "op", nil, "Operation id to apply first (repeatable)")
	cmd.Flags().IntVarP(&opts.rows, "rows", "n", core.DefaultPreviewRows, "Number of rows to show")
	cmd.Flags().StringVar(&opts.output, "output", outputAuto, "Output style: auto (table on a terminal, CSV otherwise), table or csv")
	return cmd
}

func runPreview(ctx context.Context, stdout, stderr io.Writer, ctrl *core.Controller, input string, opts previewOptions) error {
	if err := loadFile(ctx, ctrl, input); err != nil {
		return err
	}
	for _, id := range opts.ops {
		out, err := ctrl.Apply(ctx, id)
		if err != nil {
			return describe(id, err)
		}
		fmt.Fprintf(stderr, "%s: %s\n", id, out.Message)
	}

	snap := ctrl.Preview(opts.rows)
	style := opts.output
	if style == outputAuto {
		style = outputCSV
		if logging.IsTerminal(stdout) {
			style = outputTable
		}
	}

	switch style {
	case outputTable:
		fmt.Fprintln(stdout, renderTable(snap.Headers, records(snap), columnAlignments(snap)))
		fmt.Fprintln(stdout, previewCaption(snap))
		return nil
	case outputCSV:
		cw := csv.NewWriter(stdout)
		if err := cw.Write(snap.Headers); err != nil {
			return err
		}
		if err := cw.WriteAll(records(snap)); err != nil {
			return err
		}
		return cw.Error()
	default:
		return fmt.Errorf("unknown output style %q (want auto, table or csv)", opts.output)
	}
}

func records(snap core.Snapshot) [][]string {
	out := make([][]string, len(snap.Rows))
	for i, row := range snap.Rows {
		rec := make([]string, len(snap.Headers))
		for j, h := range snap.Headers {
			rec[j] = row[h].String()
		}
		out[i] = rec
	}
	return out
}

// columnAlignments right-aligns columns whose shown values are all numbers.
func columnAlignments(snap core.Snapshot) []columnAlignment {
	aligns := make([]columnAlignment, len(snap.Headers))
	for i, h := range snap.Headers {
		numeric := len(snap.Rows) > 0
		for _, row := range snap.Rows {
			if row[h].Kind() != dataset.KindNumber {
				numeric = false
				break
			}
		}
		if numeric {
			aligns[i] = alignRight
		}
	}
	return aligns
}

func previewCaption(snap core.Snapshot) string {
	if snap.Truncated() {
		return fmt.Sprintf("Showing first %d rows of %d records", len(snap.Rows), snap.TotalRows)
	}
	return fmt.Sprintf("%d records", snap.TotalRows)
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refinery/internal/config"
	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/recipe"
	"github.com/JonMunkholm/refinery/internal/tabular"
)

type cleanOptions struct {
	ops        []string
	recipePath string
	output     string
	format     string
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var opts cleanOptions

	cmd := &cobra.Command{
		Use:   "clean <input>",
		Short: "Apply operations to a file and write the cleaned result",
		Long: "Apply operations to a file and write the cleaned result.\n\n" +
			"Recipe operations run first, then every --op in the order given. The result\n" +
			"is written next to the input as <name>_refined.<format> unless -o is set;\n" +
			"-o - writes to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runClean(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.ops, "op", nil, "Operation id to apply (repeatable, see `refinery ops`)")
	cmd.Flags().StringVar(&opts.recipePath, "recipe", "", "TOML recipe listing operations and output settings")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output path, or - for stdout")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: xlsx or csv (default from -o extension, recipe, then xlsx)")
	return cmd
}

func runClean(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, input string, opts cleanOptions) error {
	export := exportOptions(cfg)
	ops := opts.ops
	var recipeFormat string

	if opts.recipePath != "" {
		rec, err := recipe.Load(opts.recipePath)
		if err != nil {
			return err
		}
		export = rec.ExportOptions(export)
		recipeFormat = rec.Output.Format
		ops = append(append([]string{}, rec.Operations...), ops...)
	}

	format, err := resolveFormat(opts.format, opts.output, recipeFormat)
	if err != nil {
		return err
	}

	exec := newExecutor(cfg)
	if err := startEngine(ctx, exec); err != nil {
		return err
	}
	ctrl := newController(cfg, exec, export)

	if err := loadFile(ctx, ctrl, input); err != nil {
		return err
	}
	for _, id := range ops {
		out, err := ctrl.Apply(ctx, id)
		if err != nil {
			return describe(id, err)
		}
		fmt.Fprintf(stderr, "%s: %s\n", id, out.Message)
	}

	var buf bytes.Buffer
	name, err := ctrl.Export(ctx, &buf, format)
	if err != nil {
		return describe("export", err)
	}

	switch opts.output {
	case "-":
		_, err = buf.WriteTo(stdout)
		return err
	case "":
		opts.output = filepath.Join(filepath.Dir(input), name)
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(stderr, "Wrote %d rows to %s\n", ctrl.Dataset().Len(), opts.output)
	return nil
}

// loadFile opens path and loads it into ctrl.
func loadFile(ctx context.Context, ctrl *core.Controller, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	if err := ctrl.Load(ctx, filepath.Base(path), f); err != nil {
		return describe(path, err)
	}
	return nil
}

// resolveFormat picks the output format: the flag, then the output file's
// extension, then the recipe, then xlsx.
func resolveFormat(flag, output, fromRecipe string) (tabular.Format, error) {
	if flag != "" {
		return tabular.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".csv":
		return tabular.FormatCSV, nil
	case ".xlsx":
		return tabular.FormatXLSX, nil
	}
	return tabular.ParseFormat(fromRecipe)
}

// describe prefixes err with its user message and code when it has one,
// keeping the chain intact for errors.Is.
func describe(prefix string, err error) error {
	if !core.IsUserFacing(err) {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	return fmt.Errorf("%s: %w (%s)", prefix, core.NewUserError(err), core.MapError(err).Code)
}

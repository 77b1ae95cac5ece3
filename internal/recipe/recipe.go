// Package recipe reads batch cleaning recipes from TOML files.
//
// A recipe names the operations to apply, in order, and optionally how the
// result should be written:
//
//	name = "crm-export"
//	operations = ["deep-clean", "drop-empty", "dedupe"]
//
//	[output]
//	format = "xlsx"
//	sheet  = "Contacts"
package recipe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/JonMunkholm/refinery/internal/tabular"
	"github.com/JonMunkholm/refinery/internal/transform"
)

// ErrInvalidRecipe is wrapped by every validation failure.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe is an ordered list of operations plus output preferences.
type Recipe struct {
	Name       string   `toml:"name"`
	Operations []string `toml:"operations"`
	Output     Output   `toml:"output"`
}

// Output controls how a recipe's result is written. Empty fields fall back
// to the export defaults.
type Output struct {
	Format string `toml:"format"`
	Sheet  string `toml:"sheet"`
}

// Load reads and validates the recipe at path.
func Load(path string) (*Recipe, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recipe: %w", err)
	}
	defer file.Close()

	r, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Decode parses a recipe from r and validates it.
func Decode(r io.Reader) (*Recipe, error) {
	var rec Recipe
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&rec); err != nil {
		return nil, fmt.Errorf("parse recipe: %w", err)
	}

	rec.normalize()
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Recipe) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	for i, id := range r.Operations {
		r.Operations[i] = strings.ToLower(strings.TrimSpace(id))
	}
	r.Output.Format = strings.ToLower(strings.TrimSpace(r.Output.Format))
	r.Output.Sheet = strings.TrimSpace(r.Output.Sheet)
}

// Validate checks that every operation is registered and the output section
// names a supported format. All problems are reported together.
func (r *Recipe) Validate() error {
	var errs []string

	if len(r.Operations) == 0 {
		errs = append(errs, "operations must list at least one operation")
	}
	for _, id := range r.Operations {
		if _, ok := transform.Get(id); !ok {
			errs = append(errs, fmt.Sprintf("unknown operation %q (known: %s)", id, strings.Join(transform.IDs(), ", ")))
		}
	}
	if r.Output.Format != "" {
		if _, err := tabular.ParseFormat(r.Output.Format); err != nil {
			errs = append(errs, fmt.Sprintf("output.format: %v", err))
		}
	}
	if len(r.Output.Sheet) > 31 {
		errs = append(errs, "output.sheet must be at most 31 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidRecipe, strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExportOptions overlays the recipe's output preferences onto base.
func (r *Recipe) ExportOptions(base tabular.ExportOptions) tabular.ExportOptions {
	if r.Output.Format != "" {
		if f, err := tabular.ParseFormat(r.Output.Format); err == nil {
			base.Format = f
		}
	}
	if r.Output.Sheet != "" {
		base.SheetName = r.Output.Sheet
	}
	return base
}

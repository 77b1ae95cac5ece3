// Package transform holds the cleaning operations that can be applied to a dataset.
//
// Operations are pure: they receive a [dataset.Dataset] and return a new one
// together with a short human-readable summary. They register themselves at
// init time so callers (the widget controller, the CLI, script executors)
// only ever refer to them by id.
package transform

import (
	"errors"

	"github.com/JonMunkholm/refinery/internal/dataset"
)

// ErrUnknownOperation is returned when an operation id is not registered.
var ErrUnknownOperation = errors.New("unknown operation")

// ApplyFunc maps one dataset to another. It must not mutate its input.
type ApplyFunc func(ds dataset.Dataset) Outcome

// Operation is a named, registered cleaning action.
type Operation struct {
	ID          string // Stable identifier: "dedupe"
	Label       string // Button text: "Dedupe"
	Description string // One-line explanation for listings
	Apply       ApplyFunc
}

// Outcome is the result of applying an operation.
type Outcome struct {
	Dataset  dataset.Dataset
	Affected int    // Rows removed or changed, depending on the operation
	Message  string // User-facing summary
	Noop     bool   // True when nothing changed and the summary is informational
}

// nothingToDo is the outcome for any operation applied to an empty dataset.
func nothingToDo(ds dataset.Dataset) Outcome {
	return Outcome{Dataset: ds, Message: "Nothing to do: no rows loaded.", Noop: true}
}

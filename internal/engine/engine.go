// Package engine runs transform operations on behalf of the widget controller.
//
// Two executors exist. LocalExecutor applies the registered Go operations
// in-process and is always ready. ScriptExecutor hands the dataset to an
// external interpreter (python3 by default) that must be bootstrapped first.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/transform"
)

// ErrNotReady is returned by Run before an executor has finished bootstrapping.
var ErrNotReady = errors.New("execution engine is not ready")

// Executor applies an operation to a dataset.
type Executor interface {
	Ready() bool
	Run(ctx context.Context, ds dataset.Dataset, opID string) (transform.Outcome, error)
}

// Bootstrapper is implemented by executors that need a one-time start.
// Bootstrap returns immediately; progress is reported through Status.
type Bootstrapper interface {
	Bootstrap(ctx context.Context)
}

// StatusReporter is implemented by executors that expose readiness detail.
type StatusReporter interface {
	Status() Status
}

// Status is a point-in-time view of executor readiness.
type Status struct {
	Name    string `json:"name"`
	Ready   bool   `json:"ready"`
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// StatusOf returns e's status, deriving one from Ready when e does not report its own.
func StatusOf(e Executor) Status {
	if sr, ok := e.(StatusReporter); ok {
		return sr.Status()
	}
	return Status{Name: fmt.Sprintf("%T", e), Ready: e.Ready()}
}

// ExecutionError describes a failed script run.
type ExecutionError struct {
	OpID     string
	ExitCode int    // -1 when the process never exited normally
	Stderr   string // Trailing stderr output, trimmed
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "operation %s failed", e.OpID)
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		b.WriteString(": ")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

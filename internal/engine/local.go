package engine

import (
	"context"

	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/transform"
)

// LocalExecutor applies registered operations in-process.
type LocalExecutor struct{}

// NewLocalExecutor returns an executor backed by the transform registry.
func NewLocalExecutor() *LocalExecutor { return &LocalExecutor{} }

// Ready always reports true.
func (*LocalExecutor) Ready() bool { return true }

// Status reports the local executor as ready.
func (*LocalExecutor) Status() Status { return Status{Name: "local", Ready: true} }

// Run applies opID to ds. Unknown ids fail with transform.ErrUnknownOperation.
func (*LocalExecutor) Run(ctx context.Context, ds dataset.Dataset, opID string) (transform.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return transform.Outcome{}, err
	}
	return transform.Run(opID, ds)
}

var _ Executor = (*LocalExecutor)(nil)

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/logging"
	"github.com/JonMunkholm/refinery/internal/transform"
)

var commandContext = exec.CommandContext

// Script executor defaults.
const (
	DefaultInterpreter = "python3"
	DefaultScriptDir   = "scripts"
	maxStderr          = 2048
)

// DefaultProbeArgs checks that the interpreter can import pandas.
var DefaultProbeArgs = []string{"-c", "import pandas"}

var opIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ScriptOption configures a ScriptExecutor.
type ScriptOption func(*ScriptExecutor)

// WithInterpreter overrides the interpreter binary.
func WithInterpreter(bin string) ScriptOption {
	return func(s *ScriptExecutor) {
		if bin != "" {
			s.interpreter = bin
		}
	}
}

// WithProbeArgs overrides the arguments used to check the interpreter during Bootstrap.
func WithProbeArgs(args ...string) ScriptOption {
	return func(s *ScriptExecutor) {
		if len(args) > 0 {
			s.probeArgs = append([]string(nil), args...)
		}
	}
}

// WithScriptDir sets the directory holding <opID>.py scripts.
func WithScriptDir(dir string) ScriptOption {
	return func(s *ScriptExecutor) {
		if dir != "" {
			s.scriptDir = dir
		}
	}
}

// ScriptExecutor runs operations as external scripts. The dataset is written
// to the script's stdin as JSON and the transformed dataset is read back from
// stdout.
type ScriptExecutor struct {
	interpreter string
	probeArgs   []string
	scriptDir   string

	mu      sync.RWMutex
	ready   bool
	loading bool
	err     error
	done    chan struct{}
}

// NewScriptExecutor constructs an executor that is not yet bootstrapped.
func NewScriptExecutor(opts ...ScriptOption) *ScriptExecutor {
	s := &ScriptExecutor{
		interpreter: DefaultInterpreter,
		probeArgs:   append([]string(nil), DefaultProbeArgs...),
		scriptDir:   DefaultScriptDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap probes the interpreter in the background. Calls while a probe is
// running or after success are ignored; a failed probe may be retried.
// The probe outlives ctx's cancellation so a finished HTTP request does not abort it.
func (s *ScriptExecutor) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	if s.ready || s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.err = nil
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	logger := logging.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer close(done)

		start := time.Now()
		err := s.probe(ctx)

		s.mu.Lock()
		s.loading = false
		s.ready = err == nil
		s.err = err
		s.mu.Unlock()

		if err != nil {
			logger.Error("script engine bootstrap failed",
				"interpreter", s.interpreter,
				"error", err,
			)
			return
		}
		logger.Info("script engine ready",
			"interpreter", s.interpreter,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()
}

func (s *ScriptExecutor) probe(ctx context.Context) error {
	var stderr bytes.Buffer
	cmd := commandContext(ctx, s.interpreter, s.probeArgs...) //nolint:gosec
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := tail(stderr.String()); msg != "" {
			return fmt.Errorf("probe %s: %w: %s", s.interpreter, err, msg)
		}
		return fmt.Errorf("probe %s: %w", s.interpreter, err)
	}
	return nil
}

// Wait blocks until the current bootstrap attempt finishes or ctx ends.
// It returns the bootstrap error, or ErrNotReady if Bootstrap was never called.
func (s *ScriptExecutor) Wait(ctx context.Context) error {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	if done == nil {
		return ErrNotReady
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Ready reports whether Bootstrap has succeeded.
func (s *ScriptExecutor) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Status reports bootstrap progress.
func (s *ScriptExecutor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Name: "script", Ready: s.ready, Loading: s.loading}
	if s.err != nil {
		st.Err = s.err.Error()
	}
	return st
}

// Run executes <scriptDir>/<opID>.py. There is no timeout beyond ctx.
func (s *ScriptExecutor) Run(ctx context.Context, ds dataset.Dataset, opID string) (transform.Outcome, error) {
	if !s.Ready() {
		return transform.Outcome{}, ErrNotReady
	}
	if !opIDPattern.MatchString(opID) {
		return transform.Outcome{}, fmt.Errorf("%w: %s", transform.ErrUnknownOperation, opID)
	}

	script := filepath.Join(s.scriptDir, opID+".py")
	if _, err := os.Stat(script); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return transform.Outcome{}, fmt.Errorf("%w: %s", transform.ErrUnknownOperation, opID)
		}
		return transform.Outcome{}, fmt.Errorf("stat script: %w", err)
	}

	in, err := encodePayload(ds, opID)
	if err != nil {
		return transform.Outcome{}, fmt.Errorf("encode dataset: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := commandContext(ctx, s.interpreter, script) //nolint:gosec
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return transform.Outcome{}, &ExecutionError{
			OpID:     opID,
			ExitCode: exitCode,
			Stderr:   tail(stderr.String()),
			Err:      err,
		}
	}

	out, err := decodeResult(stdout.Bytes(), opID)
	if err != nil {
		return transform.Outcome{}, &ExecutionError{
			OpID:   opID,
			Stderr: tail(stderr.String()),
			Err:    err,
		}
	}

	logging.FromContext(ctx).Debug("script operation finished",
		"op", opID,
		"rows_in", ds.Len(),
		"rows_out", out.Dataset.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// tail keeps the last maxStderr bytes of s, trimmed.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = "..." + s[len(s)-maxStderr:]
	}
	return s
}

var (
	_ Executor       = (*ScriptExecutor)(nil)
	_ Bootstrapper   = (*ScriptExecutor)(nil)
	_ StatusReporter = (*ScriptExecutor)(nil)
)

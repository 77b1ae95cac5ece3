package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/transform"
)

// useHelper routes every spawned process to TestHelperProcess in the given mode.
func useHelper(t *testing.T, mode string) *[]string {
	t.Helper()

	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string{name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "REFINERY_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

// readyExecutor returns a bootstrapped executor whose script dir holds opID.py.
func readyExecutor(t *testing.T, opID string) *ScriptExecutor {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, opID+".py"), []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	useHelper(t, "probe-ok")
	s := NewScriptExecutor(WithScriptDir(dir))
	s.Bootstrap(context.Background())
	if err := waitReady(t, s); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	return s
}

func waitReady(t *testing.T, s *ScriptExecutor) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Wait(ctx)
}

func TestNewScriptExecutorOptions(t *testing.T) {
	s := NewScriptExecutor(WithInterpreter("/usr/bin/python3.12"), WithProbeArgs("-c", "import polars"), WithScriptDir("/opt/ops"))
	if s.interpreter != "/usr/bin/python3.12" {
		t.Errorf("interpreter = %q", s.interpreter)
	}
	if strings.Join(s.probeArgs, " ") != "-c import polars" {
		t.Errorf("probeArgs = %v", s.probeArgs)
	}
	if s.scriptDir != "/opt/ops" {
		t.Errorf("scriptDir = %q", s.scriptDir)
	}

	d := NewScriptExecutor(WithInterpreter(""))
	if d.interpreter != DefaultInterpreter {
		t.Errorf("empty interpreter override should keep default, got %q", d.interpreter)
	}
}

func TestScriptExecutorBootstrap(t *testing.T) {
	captured := useHelper(t, "probe-ok")

	s := NewScriptExecutor()
	if s.Ready() {
		t.Fatal("executor should not be ready before Bootstrap")
	}

	s.Bootstrap(context.Background())
	if err := waitReady(t, s); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}

	if !s.Ready() {
		t.Error("executor should be ready after a successful probe")
	}
	st := s.Status()
	if !st.Ready || st.Loading || st.Err != "" {
		t.Errorf("Status() = %+v", st)
	}
	if got := strings.Join(*captured, " "); got != "python3 -c import pandas" {
		t.Errorf("probe command = %q", got)
	}
}

func TestScriptExecutorBootstrapFailure(t *testing.T) {
	useHelper(t, "probe-fail")

	s := NewScriptExecutor()
	s.Bootstrap(context.Background())
	err := waitReady(t, s)
	if err == nil {
		t.Fatal("expected bootstrap error")
	}
	if !strings.Contains(err.Error(), "No module named") {
		t.Errorf("error should carry stderr, got %v", err)
	}

	st := s.Status()
	if st.Ready || st.Loading || st.Err == "" {
		t.Errorf("Status() = %+v, want failed", st)
	}

	// A failed probe can be retried.
	useHelper(t, "probe-ok")
	s.Bootstrap(context.Background())
	if err := waitReady(t, s); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !s.Ready() {
		t.Error("executor should be ready after retry")
	}
}

func TestScriptExecutorWaitWithoutBootstrap(t *testing.T) {
	if err := NewScriptExecutor().Wait(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Wait() = %v, want ErrNotReady", err)
	}
}

func TestScriptExecutorRunNotReady(t *testing.T) {
	_, err := NewScriptExecutor().Run(context.Background(), dataset.Dataset{}, "dedupe")
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestScriptExecutorRun(t *testing.T) {
	s := readyExecutor(t, "reverse")
	captured := useHelper(t, "reverse")

	ds := dataset.New([]string{"Name", "N"}, []dataset.Row{
		{"Name": dataset.Str("a"), "N": dataset.Num(1)},
		{"Name": dataset.Str("b"), "N": dataset.Bool(true)},
	})

	out, err := s.Run(context.Background(), ds, "reverse")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := strings.Join(out.Dataset.Headers, ","); got != "Name,N" {
		t.Errorf("headers = %s, want Name,N", got)
	}
	if out.Dataset.Cell(0, "Name").String() != "b" || !out.Dataset.Cell(0, "N").Equal(dataset.Bool(true)) {
		t.Errorf("row 0 = %v", out.Dataset.Record(0))
	}
	if out.Affected != 2 || out.Message != "Reversed 2 rows." {
		t.Errorf("outcome = %d %q", out.Affected, out.Message)
	}
	if len(*captured) != 2 || filepath.Base((*captured)[1]) != "reverse.py" {
		t.Errorf("command = %v", *captured)
	}
	if ds.Cell(0, "Name").String() != "a" {
		t.Error("input dataset was mutated")
	}
}

func TestScriptExecutorRunKeyOrder(t *testing.T) {
	s := readyExecutor(t, "reorder")
	useHelper(t, "no-headers")

	out, err := s.Run(context.Background(), dataset.New([]string{"A"}, nil), "reorder")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.Join(out.Dataset.Headers, ","); got != "Zeta,Alpha,Mid" {
		t.Errorf("headers = %s, want object key order Zeta,Alpha,Mid", got)
	}
	if out.Message != "Applied reorder." {
		t.Errorf("default message = %q", out.Message)
	}
	if v := out.Dataset.Cell(0, "Mid"); !v.Equal(dataset.Str("")) {
		t.Errorf("missing cell = %#v, want empty string", v)
	}
}

func TestScriptExecutorRunFailures(t *testing.T) {
	tests := []struct {
		mode     string
		exitCode int
		contains string
	}{
		{"crash", 2, "Traceback"},
		{"garbage", 0, "malformed script output"},
		{"nested", 0, "nested value"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			s := readyExecutor(t, "op")
			useHelper(t, tt.mode)

			_, err := s.Run(context.Background(), dataset.New([]string{"A"}, nil), "op")

			var execErr *ExecutionError
			if !errors.As(err, &execErr) {
				t.Fatalf("err = %v, want *ExecutionError", err)
			}
			if execErr.OpID != "op" {
				t.Errorf("OpID = %q", execErr.OpID)
			}
			if execErr.ExitCode != tt.exitCode {
				t.Errorf("ExitCode = %d, want %d", execErr.ExitCode, tt.exitCode)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should contain %q", err, tt.contains)
			}
		})
	}
}

func TestScriptExecutorRunUnknownScript(t *testing.T) {
	s := readyExecutor(t, "dedupe")

	for _, id := range []string{"missing", "../etc/passwd", ""} {
		_, err := s.Run(context.Background(), dataset.Dataset{}, id)
		if !errors.Is(err, transform.ErrUnknownOperation) {
			t.Errorf("Run(%q) err = %v, want ErrUnknownOperation", id, err)
		}
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("REFINERY_HELPER_MODE") {
	case "probe-ok":
		os.Exit(0)
	case "probe-fail":
		fmt.Fprintln(os.Stderr, "ModuleNotFoundError: No module named 'pandas'")
		os.Exit(1)
	case "reverse":
		var in struct {
			Headers []string         `json:"headers"`
			Rows    []map[string]any `json:"rows"`
		}
		data, _ := io.ReadAll(os.Stdin)
		if err := json.Unmarshal(data, &in); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(3)
		}
		for i, j := 0, len(in.Rows)-1; i < j; i, j = i+1, j-1 {
			in.Rows[i], in.Rows[j] = in.Rows[j], in.Rows[i]
		}
		out := map[string]any{
			"headers":  in.Headers,
			"rows":     in.Rows,
			"affected": len(in.Rows),
			"message":  fmt.Sprintf("Reversed %d rows.", len(in.Rows)),
		}
		_ = json.NewEncoder(os.Stdout).Encode(out)
		os.Exit(0)
	case "no-headers":
		_, _ = io.Copy(io.Discard, os.Stdin)
		fmt.Println(`{"rows":[{"Zeta":1,"Alpha":"x"},{"Alpha":"y","Mid":null}]}`)
		os.Exit(0)
	case "crash":
		_, _ = io.Copy(io.Discard, os.Stdin)
		fmt.Fprintln(os.Stderr, "Traceback (most recent call last):\nValueError: boom")
		os.Exit(2)
	case "garbage":
		_, _ = io.Copy(io.Discard, os.Stdin)
		fmt.Println("not json")
		os.Exit(0)
	case "nested":
		_, _ = io.Copy(io.Discard, os.Stdin)
		fmt.Println(`{"rows":[{"A":[1,2]}]}`)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

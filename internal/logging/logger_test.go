package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.Info("loaded", "rows", 3)
	logger.Debug("hidden")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %q", buf.String())
	}
	if entry["msg"] != "loaded" || entry["rows"] != float64(3) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug", "text").Debug("shown", "op", "dedupe")

	if !strings.Contains(buf.String(), "msg=shown") || !strings.Contains(buf.String(), "op=dedupe") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestNew_AutoWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "auto").Info("x")

	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("auto format on a buffer should be JSON, got %q", buf.String())
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is never a terminal")
	}
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	var ctx context.Context
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	FromContext(ctx).Info("hello")
	WithFields(context.Background(), "op", "dedupe").Info("bare")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"request_id"`) {
		t.Errorf("first line should carry request_id: %s", lines[0])
	}
	if strings.Contains(lines[1], `"request_id"`) || !strings.Contains(lines[1], `"op":"dedupe"`) {
		t.Errorf("second line = %s", lines[1])
	}
}

package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/engine"
	"github.com/JonMunkholm/refinery/internal/transform"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func loadedSnapshot(rows, total int) core.Snapshot {
	snap := core.Snapshot{
		State:       core.StateLoaded,
		DisplayName: "q3 <sales>",
		Headers:     []string{"Name", "Score"},
		TotalRows:   total,
		Engine:      engine.Status{Name: "local", Ready: true},
	}
	for i := 0; i < rows; i++ {
		snap.Rows = append(snap.Rows, dataset.Row{"Name": dataset.Str("Ann & Bob"), "Score": dataset.Num(1.5)})
	}
	return snap
}

func TestWidget_Empty(t *testing.T) {
	html := render(t, Widget(WidgetParams{Snapshot: core.Snapshot{State: core.StateEmpty, Engine: engine.Status{Ready: true}}}))

	assert.Contains(t, html, `data-state="empty"`)
	assert.Contains(t, html, `hx-post="/api/load"`)
	assert.Contains(t, html, `name="file"`)
	assert.NotContains(t, html, "<table>")
}

func TestWidget_Loaded(t *testing.T) {
	html := render(t, Widget(WidgetParams{
		Snapshot: loadedSnapshot(2, 2),
		Ops:      transform.All(),
	}))

	assert.Contains(t, html, "q3 &lt;sales&gt;", "display name is escaped")
	assert.Contains(t, html, "<th>Name</th><th>Score</th>")
	assert.Contains(t, html, "<td>Ann &amp; Bob</td><td>1.5</td>")
	assert.Contains(t, html, "2 records")
	for _, op := range transform.All() {
		assert.Contains(t, html, `hx-post="/api/ops/`+op.ID+`"`)
	}
	assert.NotContains(t, html, " disabled>")
	assert.NotContains(t, html, "every 1s")
}

func TestWidget_NoRowsShowsUploadZone(t *testing.T) {
	html := render(t, Widget(WidgetParams{Snapshot: loadedSnapshot(0, 0), Ops: transform.All()}))

	assert.Contains(t, html, `data-state="loaded"`)
	assert.Contains(t, html, `hx-post="/api/load"`)
	assert.NotContains(t, html, `href="/api/export"`)
	assert.NotContains(t, html, "<table>")
}

func TestToolbar_NoRowsDisablesExport(t *testing.T) {
	snap := loadedSnapshot(0, 0)
	snap.State = core.StateProcessing

	html := render(t, Toolbar(snap, transform.All()))

	assert.Contains(t, html, `<button type="button" disabled>Export</button>`)
	assert.NotContains(t, html, `href="/api/export"`)
}

func TestWidget_ProcessingDisablesButtons(t *testing.T) {
	snap := loadedSnapshot(1, 1)
	snap.State = core.StateProcessing
	snap.RunningOp = transform.OpDedupe

	html := render(t, Widget(WidgetParams{Snapshot: snap, Ops: transform.All()}))

	assert.Equal(t, len(transform.All())+1, strings.Count(html, " disabled>"), "every op button plus clear")
	assert.Contains(t, html, "Working&hellip;")
	assert.Contains(t, html, `hx-trigger="every 1s"`)
}

func TestPreviewFooter(t *testing.T) {
	assert.Equal(t, "Showing first 50 rows of 120 records", PreviewFooter(loadedSnapshot(50, 120)))
	assert.Equal(t, "3 records", PreviewFooter(loadedSnapshot(3, 3)))
}

func TestEngineStatus(t *testing.T) {
	assert.Empty(t, render(t, EngineStatus(engine.Status{Ready: true})))
	assert.Contains(t, render(t, EngineStatus(engine.Status{Loading: true})), "Starting the processing engine")

	failed := render(t, EngineStatus(engine.Status{Err: "pandas <missing>"}))
	assert.Contains(t, failed, "pandas &lt;missing&gt;")
	assert.Contains(t, failed, `hx-post="/api/engine/bootstrap"`)
}

func TestToast(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := &core.Notification{
		ID:        uuid.MustParse("9b2f4a3e-1c1d-4f7a-9a55-3c3f5a0e2b11"),
		Message:   "No data to export!",
		Kind:      core.NotifyInfo,
		Code:      "EXP001",
		CreatedAt: now,
		ExpiresAt: now.Add(3 * time.Second),
	}

	html := render(t, Toast(n, now.Add(time.Second)))

	assert.Contains(t, html, `class="toast" data-kind="info"`)
	assert.Contains(t, html, "No data to export!")
	assert.Contains(t, html, "(EXP001)")
	assert.Contains(t, html, `data-ttl="2000"`)
	assert.Contains(t, html, "/api/notifications/9b2f4a3e-1c1d-4f7a-9a55-3c3f5a0e2b11/dismiss")
}

func TestPage(t *testing.T) {
	html := render(t, Page(WidgetParams{Snapshot: core.Snapshot{State: core.StateEmpty}}))

	assert.True(t, strings.HasPrefix(strings.ToLower(html), "<!doctype html>"))
	assert.Contains(t, html, `<script src="https://unpkg.com/htmx.org@1.9.12"></script>`)
	assert.Contains(t, html, "function dropFile")
	assert.Contains(t, html, `id="widget"`)
	assert.True(t, strings.HasSuffix(html, "</html>"))
}

func TestErrorAlert(t *testing.T) {
	html := render(t, ErrorAlert("Bad <file>", "Try again", "FILE002"))
	assert.Contains(t, html, "Bad &lt;file&gt;")
	assert.Contains(t, html, "Error code: FILE002")
}

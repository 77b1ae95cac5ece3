package core

import (
	"time"

	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/engine"
)

// Snapshot is a read-only view of the controller for rendering.
type Snapshot struct {
	State        State           `json:"state"`
	DisplayName  string          `json:"display_name,omitempty"`
	Revision     string          `json:"revision,omitempty"`
	LoadedAt     *time.Time      `json:"loaded_at,omitempty"`
	RunningOp    string          `json:"running_op,omitempty"`
	Headers      []string        `json:"headers"`
	Rows         []dataset.Row   `json:"rows"`
	TotalRows    int             `json:"total_rows"`
	PreviewLimit int             `json:"preview_limit"`
	Notification *Notification   `json:"notification,omitempty"`
	Engine       engine.Status   `json:"engine"`
	Limiter      OpLimiterStatus `json:"limiter"`
}

// Truncated reports whether the preview shows fewer rows than the dataset has.
func (s Snapshot) Truncated() bool {
	return len(s.Rows) < s.TotalRows
}

// Snapshot returns a view with the default preview size.
func (c *Controller) Snapshot() Snapshot {
	return c.Preview(c.previewRows)
}

// Preview returns a view holding at most limit leading rows.
// A non-positive limit uses the default preview size.
func (c *Controller) Preview(limit int) Snapshot {
	if limit <= 0 {
		limit = c.previewRows
	}

	c.mu.Lock()
	snap := Snapshot{
		State:        c.state,
		DisplayName:  c.displayName,
		RunningOp:    c.runningOp,
		Headers:      append([]string{}, c.ds.Headers...),
		Rows:         append([]dataset.Row{}, c.ds.Head(limit)...),
		TotalRows:    c.ds.Len(),
		PreviewLimit: limit,
		Notification: c.currentNote(),
	}
	if c.state != StateEmpty {
		snap.Revision = c.revision.String()
		loadedAt := c.loadedAt
		snap.LoadedAt = &loadedAt
	}
	c.mu.Unlock()

	snap.Engine = c.Engine()
	snap.Limiter = c.limiter.Status()
	return snap
}

// Package templates renders the widget's HTML as templ components.
//
// Components live in .templ files; run `templ generate` after editing them.
package templates

//go:generate templ generate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/transform"
)

// WidgetParams is everything the widget needs to render.
type WidgetParams struct {
	Snapshot core.Snapshot
	Ops      []transform.Operation
	Now      time.Time
}

// PreviewFooter is the caption under the preview table.
func PreviewFooter(snap core.Snapshot) string {
	if snap.Truncated() {
		return fmt.Sprintf("Showing first %d rows of %d records", len(snap.Rows), snap.TotalRows)
	}
	return fmt.Sprintf("%d records", snap.TotalRows)
}

// showUploadZone is true until there are rows to preview. A running
// operation keeps the toolbar so its progress stays visible.
func showUploadZone(snap core.Snapshot) bool {
	if snap.State == core.StateEmpty {
		return true
	}
	return snap.TotalRows == 0 && snap.State != core.StateProcessing
}

// polling is true while the engine starts or an operation runs.
func polling(snap core.Snapshot) bool {
	return snap.Engine.Loading || snap.State == core.StateProcessing
}

func busy(snap core.Snapshot) bool {
	return snap.State == core.StateProcessing
}

func toastID(n *core.Notification) string {
	return "toast-" + n.ID.String()
}

func ttlMillis(n *core.Notification, now time.Time) string {
	return strconv.FormatInt(n.Remaining(now).Milliseconds(), 10)
}

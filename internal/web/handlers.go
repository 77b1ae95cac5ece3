package web

import (
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/engine"
	"github.com/JonMunkholm/refinery/internal/logging"
	"github.com/JonMunkholm/refinery/internal/transform"
	"github.com/JonMunkholm/refinery/internal/web/templates"
)

// ActionResponse is the JSON body for successful state-changing requests.
type ActionResponse struct {
	Message  string        `json:"message,omitempty"`
	Affected int           `json:"affected,omitempty"`
	Noop     bool          `json:"noop,omitempty"`
	Snapshot core.Snapshot `json:"snapshot"`
}

// OperationInfo describes a registered operation for listings.
type OperationInfo struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string        `json:"status"`
	State  core.State    `json:"state"`
	Engine engine.Status `json:"engine"`
}

func operations() []transform.Operation {
	return transform.All()
}

// handlePage renders the full widget page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderComponent(w, r, templates.Page(s.widgetParams()))
}

// handleHealth reports liveness plus the controller and engine state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		State:  s.ctrl.State(),
		Engine: s.ctrl.Engine(),
	})
}

// handleState returns the widget fragment for htmx polling, or a JSON
// snapshot. The rows query parameter overrides the preview size.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		s.renderComponent(w, r, templates.Widget(s.widgetParams()))
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Preview(parseIntParam(r, "rows", 0)))
}

// handleListOps lists the registered operations in toolbar order.
func (s *Server) handleListOps(w http.ResponseWriter, r *http.Request) {
	ops := operations()
	resp := make([]OperationInfo, len(ops))
	for i, op := range ops {
		resp[i] = OperationInfo{ID: op.ID, Label: op.Label, Description: op.Description}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBootstrap starts the executor's setup without waiting for it.
func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	started := s.ctrl.BootstrapEngine(r.Context())
	logging.FromContext(r.Context()).Info("engine bootstrap requested", "started", started)

	if isHTMX(r) {
		s.renderComponent(w, r, templates.Widget(s.widgetParams()))
		return
	}
	status := http.StatusOK
	if started {
		status = http.StatusAccepted
	}
	writeJSON(w, status, s.ctrl.Engine())
}

// handleEngineStatus reports whether the executor can run operations.
func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Engine())
}

// respondAction answers a successful state change in the client's format.
func (s *Server) respondAction(w http.ResponseWriter, r *http.Request, resp ActionResponse) {
	switch {
	case isHTMX(r):
		s.renderComponent(w, r, templates.Widget(s.widgetParams()))
	case wantsPage(r):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		resp.Snapshot = s.ctrl.Snapshot()
		if resp.Message == "" && resp.Snapshot.Notification != nil {
			resp.Message = resp.Snapshot.Notification.Message
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// renderComponent writes c as an HTML response.
func (s *Server) renderComponent(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

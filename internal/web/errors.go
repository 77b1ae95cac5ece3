package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is logged with its technical detail and request id, then
// answered in the shape the client asked for:
//   - HTMX requests get the re-rendered widget with the error toast, status 200
//     so htmx swaps it in
//   - plain browser navigations are redirected back to the page, where the
//     controller's notification is shown; failed downloads get 204 instead
//   - everything else gets a JSON ErrorResponse with a matching status code

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/engine"
	"github.com/JonMunkholm/refinery/internal/logging"
	"github.com/JonMunkholm/refinery/internal/tabular"
	"github.com/JonMunkholm/refinery/internal/transform"
	"github.com/JonMunkholm/refinery/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError logs err and answers with a user-friendly message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg, status := logRequestError(r, err)

	switch {
	case isHTMX(r):
		s.renderWidgetError(w, r, err, userMsg)
	case wantsPage(r):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case wantsJSON(r):
		respondErrorJSON(w, r, userMsg, status)
	default:
		respondErrorHTML(w, r, userMsg, status)
	}
}

// respondDownloadError answers a failed download. A download link followed
// by the browser gets 204 No Content, which leaves the page in place and
// saves nothing; the controller's notification shows on the next render.
func (s *Server) respondDownloadError(w http.ResponseWriter, r *http.Request, err error) {
	if !wantsPage(r) {
		s.respondError(w, r, err)
		return
	}
	userMsg, _ := logRequestError(r, err)
	if n := s.ctrl.Notification(); n == nil || n.Code != userMsg.Code {
		s.ctrl.Report(err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// logRequestError logs err with its request context and returns its user
// message and status code.
func logRequestError(r *http.Request, err error) (core.UserMessage, int) {
	userMsg := core.MapError(err)
	status := statusFor(err)

	logger := logging.FromContext(r.Context())
	logArgs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", logArgs...)
	} else {
		logger.Warn("request error", logArgs...)
	}
	return userMsg, status
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var execErr *engine.ExecutionError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, tabular.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, tabular.ErrLegacyFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, tabular.ErrDecode), errors.Is(err, tabular.ErrNoRows):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrBusy), errors.Is(err, core.ErrInvalidState), errors.Is(err, tabular.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, transform.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.As(err, &execErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg.Message,
		Message:   msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// respondErrorHTML writes a standalone HTML error block.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error alert", "error", err)
	}
}

// renderWidgetError re-renders the widget with msg as the toast, raising it
// on the controller when the failure never reached it (e.g. a malformed form).
func (s *Server) renderWidgetError(w http.ResponseWriter, r *http.Request, err error, msg core.UserMessage) {
	if n := s.ctrl.Notification(); n == nil || n.Code != msg.Code {
		s.ctrl.Report(err)
	}
	s.renderComponent(w, r, templates.Widget(s.widgetParams()))
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsPage reports a plain browser navigation or form post, which should
// land back on the page rather than on a raw API response.
func wantsPage(r *http.Request) bool {
	return !isHTMX(r) && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

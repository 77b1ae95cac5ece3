package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/logging"
	"github.com/JonMunkholm/refinery/internal/tabular"
)

// maxMultipartMemory is how much of an upload is held in memory before
// spilling to a temporary file.
const maxMultipartMemory = 32 << 20

// handleLoad reads the multipart "file" field into the controller.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, fmt.Errorf("%w: %v", tabular.ErrTooLarge, err))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer file.Close()

	if err := s.ctrl.Load(r.Context(), header.Filename, file); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondAction(w, r, ActionResponse{})
}

// handleApply runs one operation against the loaded dataset.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	opID := chi.URLParam(r, "opID")

	out, err := s.ctrl.Apply(r.Context(), opID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondAction(w, r, ActionResponse{
		Message:  out.Message,
		Affected: out.Affected,
		Noop:     out.Noop,
	})
}

// handleExport downloads the dataset as an attachment. The format query
// parameter picks xlsx (default) or csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := tabular.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondDownloadError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}

	// Headers need the file name, which is only known once the export succeeded.
	var buf bytes.Buffer
	name, err := s.ctrl.Export(r.Context(), &buf, format)
	if err != nil {
		s.respondDownloadError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		// Can't change status code after writing, just log
		logging.FromContext(r.Context()).Warn("export download interrupted", "file", name, "error", err)
	}
}

// handleClear discards the loaded dataset.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Clear(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, r, ActionResponse{Message: "Cleared."})
}

// handleDismiss hides the current notification if the id still matches.
func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: notification id: %v", core.ErrInvalidRequest, err))
		return
	}

	s.ctrl.DismissNotification(id)
	if isHTMX(r) {
		// hx-swap="delete" removes the toast; the body is ignored.
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

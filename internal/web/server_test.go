package web

import (
	"bytes"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/refinery/internal/config"
	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/transform"
)

const peopleCSV = "Name,City\nAnn,Oslo\nAnn,Oslo\n,\nBob,Rome\n"

func newTestServer(t *testing.T, maxSize int64) (*Server, *core.Controller) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upload.MaxFileSize = maxSize
	cfg.Security.EnableCSP = true

	ctrl := core.NewController(core.Options{MaxFileSize: maxSize})
	return NewServer(ctrl, cfg), ctrl
}

func uploadRequest(t *testing.T, field, name, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/load", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func loadPeople(t *testing.T, s *Server) {
	t.Helper()
	rec := serve(s, uploadRequest(t, "file", "people.csv", peopleCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, core.StateEmpty, resp.State)
	assert.True(t, resp.Engine.Ready)
}

func TestPage_SecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Body.String(), `id="widget"`)
	assert.Contains(t, rec.Body.String(), "Drop a spreadsheet here")
}

func TestLoad_JSON(t *testing.T) {
	s, ctrl := newTestServer(t, 1<<20)

	rec := serve(s, uploadRequest(t, "file", "people.csv", peopleCSV))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ActionResponse](t, rec)
	assert.Equal(t, "Loaded 4 rows successfully!", resp.Message)
	assert.Equal(t, core.StateLoaded, resp.Snapshot.State)
	assert.Equal(t, "people", resp.Snapshot.DisplayName)
	assert.Equal(t, 4, resp.Snapshot.TotalRows)
	assert.Equal(t, core.StateLoaded, ctrl.State())
}

func TestLoad_HTMXReturnsWidget(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	req := uploadRequest(t, "file", "people.csv", peopleCSV)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<section id="widget" data-state="loaded">`))
	assert.Contains(t, body, "<th>Name</th><th>City</th>")
	assert.Contains(t, body, "Loaded 4 rows successfully!")
}

func TestLoad_BrowserFormRedirects(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	req := uploadRequest(t, "file", "people.csv", peopleCSV)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := serve(s, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		maxSize  int64
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing file field",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "other", "x.csv", "a\n1\n") },
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE004",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/load", strings.NewReader("a,b"))
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ003",
		},
		{
			name:     "empty file",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "file", "empty.csv", "") },
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "FILE005",
		},
		{
			name:     "file over the limit",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "file", "big.csv", strings.Repeat("a,b\n", 64)) },
			maxSize:  100,
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "FILE001",
		},
		{
			name:     "legacy workbook",
			req:      func(t *testing.T) *http.Request { return uploadRequest(t, "file", "old.xls", "whatever") },
			wantCode: http.StatusUnsupportedMediaType,
			wantErr:  "FILE003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = 1 << 20
			}
			s, ctrl := newTestServer(t, maxSize)

			rec := serve(s, tt.req(t))

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, decode[ErrorResponse](t, rec).Code)
			assert.Equal(t, core.StateEmpty, ctrl.State())
		})
	}
}

func TestLoad_HTMXErrorShowsToast(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	req := uploadRequest(t, "other", "x.csv", "a\n1\n")
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-kind="error"`)
	assert.Contains(t, rec.Body.String(), "(FILE004)")
}

func TestApply(t *testing.T) {
	s, ctrl := newTestServer(t, 1<<20)
	loadPeople(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/ops/dedupe", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ActionResponse](t, rec)
	assert.Equal(t, "Removed 1 duplicate rows.", resp.Message)
	assert.Equal(t, 1, resp.Affected)
	assert.Equal(t, 3, resp.Snapshot.TotalRows)
	assert.Equal(t, 3, ctrl.Dataset().Len())
}

func TestApply_Errors(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/ops/dedupe", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "STATE001", decode[ErrorResponse](t, rec).Code)

	loadPeople(t, s)
	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/ops/sparkle", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "OP003", decode[ErrorResponse](t, rec).Code)
}

func TestExport(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	loadPeople(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/export?format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, "people_refined.csv", params["filename"])
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Name,City\n"))
}

func TestExport_Workbook(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	loadPeople(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "people_refined.xlsx", params["filename"])
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK\x03\x04")))
}

func TestExport_Errors(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EXP001", decode[ErrorResponse](t, rec).Code)

	link := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	link.Header.Set("Accept", "text/html")
	rec = serve(s, link)
	assert.Equal(t, http.StatusNoContent, rec.Code, "a download link saves nothing")
	assert.Empty(t, rec.Header().Get("Content-Disposition"))

	loadPeople(t, s)
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "REQ003", decode[ErrorResponse](t, rec).Code)
}

func TestExport_HeaderOnlyLinkSavesNothing(t *testing.T) {
	s, ctrl := newTestServer(t, 1<<20)
	rec := serve(s, uploadRequest(t, "file", "headers.csv", "Name,City\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, core.StateLoaded, ctrl.State())

	link := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	link.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec = serve(s, link)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Zero(t, rec.Body.Len())

	n := ctrl.Notification()
	require.NotNil(t, n)
	assert.Equal(t, "EXP001", n.Code)
	assert.Equal(t, core.NotifyInfo, n.Kind)

	page := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, page.Body.String(), "Drop a spreadsheet here", "no rows shows the upload zone")
	assert.NotContains(t, page.Body.String(), `href="/api/export"`)
}

func TestClear(t *testing.T) {
	s, ctrl := newTestServer(t, 1<<20)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/clear", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	loadPeople(t, s)
	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.StateEmpty, decode[ActionResponse](t, rec).Snapshot.State)
	assert.Equal(t, core.StateEmpty, ctrl.State())
}

func TestState(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	loadPeople(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/state?rows=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[core.Snapshot](t, rec)
	assert.Equal(t, []string{"Name", "City"}, snap.Headers)
	assert.Len(t, snap.Rows, 2)
	assert.Equal(t, 4, snap.TotalRows)
	assert.Equal(t, "Ann", snap.Rows[0]["Name"].String())

	poll := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	poll.Header.Set("HX-Request", "true")
	rec = serve(s, poll)
	assert.Contains(t, rec.Body.String(), `id="widget"`)
}

func TestListOps(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/ops", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	ops := decode[[]OperationInfo](t, rec)
	require.Len(t, ops, len(transform.All()))
	assert.Equal(t, transform.IDs()[0], ops[0].ID)
	assert.NotEmpty(t, ops[0].Label)
}

func TestDismissNotification(t *testing.T) {
	s, ctrl := newTestServer(t, 1<<20)
	loadPeople(t, s)
	n := ctrl.Notification()
	require.NotNil(t, n)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/notifications/not-a-uuid/dismiss", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/notifications/"+n.ID.String()+"/dismiss", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, ctrl.Notification())
}

func TestEngineEndpoints(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/engine/bootstrap", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "the local executor needs no bootstrap")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/engine/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"local","ready":true,"loading":false}`, rec.Body.String())
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notegraph/application/session"
	"notegraph/pkg/common"
)

func newTestSession() *session.Session {
	opts := session.DefaultOptions()
	opts.TickInterval = 2 * time.Millisecond
	return session.NewSession(opts, nil, zap.NewNop(), nil)
}

func postDocuments(t *testing.T, h *DocumentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.LoadDocuments(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) common.APIResponse {
	t.Helper()
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDocumentHandler_LoadDocuments(t *testing.T) {
	sess := newTestSession()
	h := NewDocumentHandler(sess, zap.NewNop())

	body := `{"documents": [
		{"slug": "alpha", "title": "Alpha", "body": "[[beta]]", "home_display": true},
		{"slug": "beta", "title": "Beta", "body": "[[alpha]]", "home_display": true}
	]}`

	rec := postDocuments(t, h, body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	var summary LoadDocumentsResponse
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 2, summary.Documents)
	assert.Equal(t, 1, summary.BidirectionalPairs)
	assert.Equal(t, 2, summary.TotalConnections)
}

func TestDocumentHandler_RejectsMalformedJSON(t *testing.T) {
	h := NewDocumentHandler(newTestSession(), zap.NewNop())

	rec := postDocuments(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_BODY", resp.Error.Code)
}

func TestDocumentHandler_RejectsEmptySet(t *testing.T) {
	h := NewDocumentHandler(newTestSession(), zap.NewNop())

	rec := postDocuments(t, h, `{"documents": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION", resp.Error.Code)
}

func TestDocumentHandler_DuplicateSlugConflict(t *testing.T) {
	h := NewDocumentHandler(newTestSession(), zap.NewNop())

	body := `{"documents": [
		{"slug": "My Doc", "title": "a"},
		{"slug": "my-doc", "title": "b"}
	]}`

	rec := postDocuments(t, h, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_SLUG", resp.Error.Code)
}

func TestGraphHandler_BeforeFirstLoad(t *testing.T) {
	sess := newTestSession()
	h := NewGraphHandler(sess, zap.NewNop())

	rec := httptest.NewRecorder()
	h.GetGraph(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.GetDiagnostics(rec, httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraphHandler_DiagnosticsReport(t *testing.T) {
	sess := newTestSession()
	docHandler := NewDocumentHandler(sess, zap.NewNop())
	h := NewGraphHandler(sess, zap.NewNop())

	body := `{"documents": [
		{"slug": "alpha", "title": "Alpha", "body": "[[ghost]] and [[alpha]]", "home_display": true}
	]}`
	require.Equal(t, http.StatusOK, postDocuments(t, docHandler, body).Code)

	rec := httptest.NewRecorder()
	h.GetDiagnostics(rec, httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	var report DiagnosticsReport
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &report))

	assert.NotEmpty(t, report.ReportID)
	assert.Len(t, report.Diagnostics, 2)
	assert.Equal(t, 1, report.Totals["unresolved_target"])
	assert.Equal(t, 1, report.Totals["self_link"])
}

func TestGraphHandler_GetGraphAfterLoad(t *testing.T) {
	sess := newTestSession()
	docHandler := NewDocumentHandler(sess, zap.NewNop())
	h := NewGraphHandler(sess, zap.NewNop())

	body := `{"documents": [
		{"slug": "alpha", "title": "Alpha", "body": "[[beta]]", "home_display": true},
		{"slug": "beta", "title": "Beta", "home_display": true}
	]}`
	require.Equal(t, http.StatusOK, postDocuments(t, docHandler, body).Code)

	rec := httptest.NewRecorder()
	h.GetGraph(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var snapshot struct {
		TotalConnections int `json:"total_connections"`
		DirectLinks      int `json:"direct_links"`
	}
	require.NoError(t, json.Unmarshal(raw, &snapshot))
	assert.Equal(t, 1, snapshot.TotalConnections)
	assert.Equal(t, 1, snapshot.DirectLinks)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notegraph/application/session"
	"notegraph/domain/services"
	"notegraph/pkg/common"
)

// GraphHandler serves the pipeline boundary artifacts: the graph snapshot
// for diagnostics/readers and the exclusion report for the external
// validator.
type GraphHandler struct {
	session *session.Session
	logger  *zap.Logger
}

// NewGraphHandler creates a graph handler
func NewGraphHandler(sess *session.Session, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		session: sess,
		logger:  logger,
	}
}

// GetGraph returns the current graph snapshot
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	snapshot := h.session.Snapshot()
	if snapshot == nil {
		common.RespondError(w, http.StatusNotFound, "NO_GRAPH", "no document set has been loaded")
		return
	}
	common.RespondJSON(w, http.StatusOK, snapshot)
}

// DiagnosticsReport is the validation report for the last pipeline run
type DiagnosticsReport struct {
	ReportID    string                `json:"report_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Totals      map[string]int        `json:"totals"`
	Diagnostics []services.Diagnostic `json:"diagnostics"`
}

// GetDiagnostics returns every reference excluded from the last build
func (h *GraphHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	if h.session.Snapshot() == nil {
		common.RespondError(w, http.StatusNotFound, "NO_GRAPH", "no document set has been loaded")
		return
	}

	diagnostics := h.session.Diagnostics()
	totals := make(map[string]int)
	for _, d := range diagnostics {
		totals[string(d.Reason)]++
	}

	common.RespondJSON(w, http.StatusOK, DiagnosticsReport{
		ReportID:    uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Totals:      totals,
		Diagnostics: diagnostics,
	})
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"notegraph/application/session"
	"notegraph/domain/core/entities"
	"notegraph/pkg/common"
	pkgerrors "notegraph/pkg/errors"
)

// DocumentHandler is the ingestion boundary: the collaborator that owns
// front-matter parsing and file I/O pushes plain DocumentRecords here.
type DocumentHandler struct {
	session  *session.Session
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDocumentHandler creates a document handler
func NewDocumentHandler(sess *session.Session, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		session:  sess,
		validate: validator.New(),
		logger:   logger,
	}
}

// LoadDocumentsRequest is the ingestion payload
type LoadDocumentsRequest struct {
	Documents []entities.DocumentRecord `json:"documents" validate:"required,min=1,dive"`
}

// LoadDocumentsResponse summarizes the rebuild
type LoadDocumentsResponse struct {
	Documents          int `json:"documents"`
	TotalConnections   int `json:"total_connections"`
	BidirectionalPairs int `json:"bidirectional_pairs"`
	DirectLinks        int `json:"direct_links"`
	Diagnostics        int `json:"diagnostics"`
}

// LoadDocuments replaces the active document set and rebuilds the graph
func (h *DocumentHandler) LoadDocuments(w http.ResponseWriter, r *http.Request) {
	var req LoadDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION",
			fmt.Sprintf("invalid document set: %v", err))
		return
	}

	snapshot, err := h.session.LoadDocuments(req.Documents)
	if err != nil {
		h.logger.Warn("document load rejected", zap.Error(err))
		switch {
		case pkgerrors.IsConflict(err):
			common.RespondError(w, http.StatusConflict, "DUPLICATE_SLUG", err.Error())
		case pkgerrors.IsValidation(err):
			common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		default:
			common.RespondError(w, http.StatusInternalServerError, "INTERNAL", "graph build failed")
		}
		return
	}

	common.RespondJSON(w, http.StatusOK, LoadDocumentsResponse{
		Documents:          len(req.Documents),
		TotalConnections:   snapshot.TotalConnections,
		BidirectionalPairs: snapshot.BidirectionalPairs,
		DirectLinks:        snapshot.DirectLinks,
		Diagnostics:        len(h.session.Diagnostics()),
	})
}

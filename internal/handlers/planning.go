package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/openfactory/fabriq/internal/middleware"
	"github.com/openfactory/fabriq/internal/services/planning"
)

// previewRequest carries a hypothetical line set for stateless planning
// previews (e.g. quoting an order before it exists).
type previewRequest struct {
	CompanyID      uint                      `json:"company_id"`
	Lines          []planning.OrderLineInput `json:"lines"`
	ExcludeLineIDs []uint                    `json:"exclude_line_ids,omitempty"`
}

func decodePreview(w http.ResponseWriter, req *http.Request) (*previewRequest, bool) {
	var payload previewRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return nil, false
	}
	if payload.CompanyID == 0 || len(payload.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "company_id and at least one line are required")
		return nil, false
	}
	return &payload, true
}

// previewAvailability computes the availability projection for ad-hoc lines
func (r *Router) previewAvailability(w http.ResponseWriter, req *http.Request) {
	payload, ok := decodePreview(w, req)
	if !ok {
		return
	}

	summary, err := r.engine.ComputeAvailability(req.Context(), payload.CompanyID, payload.Lines, payload.ExcludeLineIDs)
	if err != nil {
		middleware.FromContext(req.Context()).Error("availability preview failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to compute availability")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// previewProcurementPlan computes the vendor-grouped shortage plan for ad-hoc
// lines without persisting anything
func (r *Router) previewProcurementPlan(w http.ResponseWriter, req *http.Request) {
	payload, ok := decodePreview(w, req)
	if !ok {
		return
	}

	plan, err := r.engine.BuildProcurementPlan(req.Context(), payload.CompanyID, payload.Lines, nil, payload.ExcludeLineIDs)
	if err != nil {
		middleware.FromContext(req.Context()).Error("plan preview failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to build procurement plan")
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/affiliate-crm/internal/domain"
	"github.com/ignite/affiliate-crm/internal/pipeline"
)

// ListAffiliates returns the full collection, optionally filtered by stage
// or status query parameters.
//
//	GET /api/affiliates?stage=Good+Fit&status=Fit
func (h *Handlers) ListAffiliates(w http.ResponseWriter, r *http.Request) {
	var affiliates []domain.AffiliateAccount
	switch {
	case r.URL.Query().Has("stage"):
		affiliates = h.pipeline.ByStage(domain.Stage(r.URL.Query().Get("stage")))
	case r.URL.Query().Has("status"):
		affiliates = h.pipeline.ByStatus(domain.Status(r.URL.Query().Get("status")))
	default:
		affiliates = h.store.GetAffiliates()
	}
	if affiliates == nil {
		affiliates = []domain.AffiliateAccount{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"affiliates": affiliates,
		"total":      len(affiliates),
	})
}

// GetAffiliate returns one account by id.
//
//	GET /api/affiliates/{id}
func (h *Handlers) GetAffiliate(w http.ResponseWriter, r *http.Request) {
	affiliate, ok := h.store.GetAffiliate(chi.URLParam(r, "id"))
	if !ok {
		respondServiceError(w, pipeline.ErrAffiliateNotFound)
		return
	}
	respondJSON(w, http.StatusOK, affiliate)
}

// UpdateAffiliateStatus sets the fit status; the stage follows from it.
//
//	PUT /api/affiliates/{id}/status
func (h *Handlers) UpdateAffiliateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status domain.Status `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	affiliate, err := h.pipeline.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, affiliate)
}

// UpdateAffiliateStage moves an account to a specific pipeline stage.
//
//	PUT /api/affiliates/{id}/stage
func (h *Handlers) UpdateAffiliateStage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Stage domain.Stage `json:"stage"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	affiliate, err := h.pipeline.UpdateStage(r.Context(), chi.URLParam(r, "id"), body.Stage)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, affiliate)
}

// ListStages returns the pipeline stages in funnel order.
//
//	GET /api/stages
func (h *Handlers) ListStages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"stages": domain.Stages})
}

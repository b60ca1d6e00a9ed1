package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/affiliate-crm/internal/fields"
	"github.com/ignite/affiliate-crm/internal/importer"
	"github.com/ignite/affiliate-crm/internal/pipeline"
	"github.com/ignite/affiliate-crm/internal/pkg/logger"
	"github.com/ignite/affiliate-crm/internal/store"
)

// Handlers carries the services behind the HTTP API.
type Handlers struct {
	store     *store.Store
	catalog   *fields.Catalog
	wizard    *importer.Wizard
	pipeline  *pipeline.Service
	startTime time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(st *store.Store, catalog *fields.Catalog, wizard *importer.Wizard, pl *pipeline.Service) *Handlers {
	return &Handlers{
		store:     st,
		catalog:   catalog,
		wizard:    wizard,
		pipeline:  pl,
		startTime: time.Now(),
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("could not encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a request body into target, rejecting unknown fields.
func decodeJSON(r *http.Request, target interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// respondServiceError maps known service errors onto HTTP status codes.
// Anything unrecognized is a 500 and gets logged.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, importer.ErrSessionNotFound),
		errors.Is(err, pipeline.ErrAffiliateNotFound),
		errors.Is(err, fields.ErrFieldNotFound),
		errors.Is(err, store.ErrNotificationNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, importer.ErrSessionExpired):
		respondError(w, http.StatusGone, err.Error())

	case errors.Is(err, importer.ErrWrongStage),
		errors.Is(err, importer.ErrCommitBlocked),
		errors.Is(err, importer.ErrAlreadyCommitted),
		errors.Is(err, importer.ErrCommitInProgress):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, importer.ErrInvalidFileType),
		errors.Is(err, importer.ErrFileTooLarge),
		errors.Is(err, importer.ErrDomainUnmapped),
		errors.Is(err, importer.ErrUnknownField),
		errors.Is(err, importer.ErrUnknownHeader),
		errors.Is(err, pipeline.ErrInvalidStatus),
		errors.Is(err, pipeline.ErrInvalidStage),
		errors.Is(err, fields.ErrDefaultField):
		respondError(w, http.StatusBadRequest, err.Error())

	default:
		var parseErr *importer.ParseError
		if errors.As(err, &parseErr) {
			respondError(w, http.StatusUnprocessableEntity, parseErr.Error())
			return
		}
		logger.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

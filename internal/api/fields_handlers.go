package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/affiliate-crm/internal/fields"
)

// ListFields returns the field catalog, optionally scoped to one section.
//
//	GET /api/fields?section=contact
func (h *Handlers) ListFields(w http.ResponseWriter, r *http.Request) {
	var list []fields.Descriptor
	if section := r.URL.Query().Get("section"); section != "" {
		list = h.catalog.FieldsBySection(fields.Section(section))
	} else {
		list = h.catalog.Fields()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"fields": list})
}

// CreateField adds a custom field to the catalog.
//
//	POST /api/fields
func (h *Handlers) CreateField(w http.ResponseWriter, r *http.Request) {
	var field fields.Descriptor
	if err := decodeJSON(r, &field); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if field.Name == "" || field.Type == "" || field.Section == "" {
		respondError(w, http.StatusBadRequest, "name, type and section are required")
		return
	}

	created, err := h.catalog.AddField(field)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateField modifies a custom field. Built-in fields are immutable.
//
//	PUT /api/fields/{id}
func (h *Handlers) UpdateField(w http.ResponseWriter, r *http.Request) {
	var field fields.Descriptor
	if err := decodeJSON(r, &field); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	field.ID = chi.URLParam(r, "id")

	if err := h.catalog.UpdateField(field); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, field)
}

// DeleteField removes a custom field. Built-in fields are immutable.
//
//	DELETE /api/fields/{id}
func (h *Handlers) DeleteField(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteField(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ValidateFieldValue checks one value against a field's type rules and
// returns the display formatting alongside.
//
//	POST /api/fields/{id}/validate
func (h *Handlers) ValidateFieldValue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	field, err := h.catalog.FieldByID(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":     fields.ValidateValue(body.Value, field.Type),
		"formatted": fields.FormatValue(body.Value, field.Type),
	})
}

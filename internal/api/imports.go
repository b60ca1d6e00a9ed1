package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/affiliate-crm/internal/importer"
)

// CreateImport starts a new import session.
//
//	POST /api/imports
func (h *Handlers) CreateImport(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Begin(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// GetImport returns the current state of a session.
//
//	GET /api/imports/{id}
func (h *Handlers) GetImport(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// UploadImportFile accepts the CSV file for an upload-stage session. The
// file arrives as multipart form data under the "file" key.
//
//	POST /api/imports/{id}/file
func (h *Handlers) UploadImportFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "multipart form must include a \"file\" part")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
		return
	}

	session, err := h.wizard.UploadFile(r.Context(), chi.URLParam(r, "id"), header.Filename, string(content))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// SetImportMapping confirms the field mapping and advances to preview.
//
//	PUT /api/imports/{id}/mapping
func (h *Handlers) SetImportMapping(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mapping importer.Mapping `json:"mapping"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	session, err := h.wizard.SetMapping(r.Context(), chi.URLParam(r, "id"), body.Mapping)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// PreviewImport validates the batch and reports per-row outcomes.
//
//	GET /api/imports/{id}/preview
func (h *Handlers) PreviewImport(w http.ResponseWriter, r *http.Request) {
	preview, err := h.wizard.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// CommitImport performs the bulk write for a clean batch.
//
//	POST /api/imports/{id}/commit
func (h *Handlers) CommitImport(w http.ResponseWriter, r *http.Request) {
	result, err := h.wizard.Commit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// StepImportBack moves a session one stage backward.
//
//	POST /api/imports/{id}/back
func (h *Handlers) StepImportBack(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// DownloadTemplate serves the example CSV with every recognized column.
//
//	GET /api/imports/template
func (h *Handlers) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", importer.TemplateFileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, importer.Template()); err != nil {
		return
	}
}

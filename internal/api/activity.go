package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// ListNotifications returns retained notifications, newest first.
//
//	GET /api/notifications
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": h.store.Notifications(),
		"unread":        h.store.UnreadCount(),
	})
}

// MarkNotificationRead marks one notification as read.
//
//	PUT /api/notifications/{id}/read
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.store.MarkRead(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllNotificationsRead marks every notification as read.
//
//	PUT /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.store.MarkAllRead(); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// GetAuditLog returns audit entries, filterable by entity id, entity type,
// or an RFC 3339 time window.
//
//	GET /api/audit?entity_id=...&entity_type=...&start=...&end=...
func (h *Handlers) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if entityID := q.Get("entity_id"); entityID != "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{"entries": h.store.EntityHistory(entityID)})
		return
	}
	if entityType := q.Get("entity_type"); entityType != "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{"entries": h.store.ActionsByType(entityType)})
		return
	}

	var start, end time.Time
	var err error
	if raw := q.Get("start"); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid start time: %v", err))
			return
		}
	}
	if raw := q.Get("end"); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid end time: %v", err))
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": h.store.ExportAuditLog(start, end)})
}

// GetUploadHistory returns the retained import attempts, newest first.
//
//	GET /api/uploads/history
func (h *Handlers) GetUploadHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"uploads": h.store.UploadHistory()})
}

// HealthCheck reports process uptime and collection sizes.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
		"stats":  h.store.Stats(),
	})
}

package store

import (
	"time"

	"github.com/ignite/affiliate-crm/internal/domain"
)

// maxAuditEntries caps how many audit entries are retained, newest first.
const maxAuditEntries = 1000

// Change captures a single field's before/after values in an audit entry.
type Change struct {
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

// AuditEntry records one mutation of a stored entity.
type AuditEntry struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	EntityID   string            `json:"entity_id"`
	EntityType string            `json:"entity_type"`
	Changes    map[string]Change `json:"changes"`
	Timestamp  time.Time         `json:"timestamp"`
}

// LogAction prepends an audit entry and trims the log to the cap.
func (s *Store) LogAction(action, entityID, entityType string, changes map[string]Change) (AuditEntry, error) {
	entry := AuditEntry{
		ID:         domain.NewID(),
		Action:     action,
		EntityID:   entityID,
		EntityType: entityType,
		Changes:    changes,
		Timestamp:  time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLog = append([]AuditEntry{entry}, s.auditLog...)
	if len(s.auditLog) > maxAuditEntries {
		s.auditLog = s.auditLog[:maxAuditEntries]
	}
	return entry, s.persistLocked("audit", s.auditLog)
}

// AuditLog returns all retained audit entries, newest first.
func (s *Store) AuditLog() []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AuditEntry, len(s.auditLog))
	copy(out, s.auditLog)
	return out
}

// EntityHistory returns the audit entries for one entity.
func (s *Store) EntityHistory(entityID string) []AuditEntry {
	var out []AuditEntry
	for _, e := range s.AuditLog() {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

// ActionsByType returns the audit entries for one entity type.
func (s *Store) ActionsByType(entityType string) []AuditEntry {
	var out []AuditEntry
	for _, e := range s.AuditLog() {
		if e.EntityType == entityType {
			out = append(out, e)
		}
	}
	return out
}

// ExportAuditLog returns entries within [start, end]. Zero bounds are open.
func (s *Store) ExportAuditLog(start, end time.Time) []AuditEntry {
	out := make([]AuditEntry, 0)
	for _, e := range s.AuditLog() {
		if !start.IsZero() && e.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && e.Timestamp.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

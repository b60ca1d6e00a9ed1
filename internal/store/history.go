package store

import (
	"time"

	"github.com/ignite/affiliate-crm/internal/domain"
)

// maxUploadRecords caps how many upload history entries are retained.
const maxUploadRecords = 50

// UploadRecord summarizes one CSV import attempt.
type UploadRecord struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	FileName    string    `json:"file_name"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// AddUploadRecord prepends an upload record and trims history to the cap.
func (s *Store) AddUploadRecord(fileName string, recordCount int, success bool, importErr string) (UploadRecord, error) {
	rec := UploadRecord{
		ID:          domain.NewID(),
		Date:        time.Now().UTC(),
		FileName:    fileName,
		RecordCount: recordCount,
		Success:     success,
		Error:       importErr,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadHistory = append([]UploadRecord{rec}, s.uploadHistory...)
	if len(s.uploadHistory) > maxUploadRecords {
		s.uploadHistory = s.uploadHistory[:maxUploadRecords]
	}
	return rec, s.persistLocked("uploads", s.uploadHistory)
}

// UploadHistory returns the retained upload records, newest first.
func (s *Store) UploadHistory() []UploadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UploadRecord, len(s.uploadHistory))
	copy(out, s.uploadHistory)
	return out
}

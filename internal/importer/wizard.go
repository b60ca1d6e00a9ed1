package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/affiliate-crm/internal/config"
	"github.com/ignite/affiliate-crm/internal/domain"
	"github.com/ignite/affiliate-crm/internal/fields"
	"github.com/ignite/affiliate-crm/internal/pkg/distlock"
	"github.com/ignite/affiliate-crm/internal/pkg/logger"
	"github.com/ignite/affiliate-crm/internal/store"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound  = errors.New("import session not found")
	ErrSessionExpired   = errors.New("import session has expired")
	ErrInvalidFileType  = errors.New("only .csv files are accepted")
	ErrFileTooLarge     = errors.New("file exceeds the upload size limit")
	ErrWrongStage       = errors.New("operation not allowed in the current stage")
	ErrDomainUnmapped   = errors.New("the Domain field must be mapped before preview")
	ErrUnknownField     = errors.New("mapping refers to an unknown field")
	ErrUnknownHeader    = errors.New("mapping refers to a header not present in the file")
	ErrCommitBlocked    = errors.New("commit requires a batch with zero errors")
	ErrAlreadyCommitted = errors.New("import session already committed")
	ErrCommitInProgress = errors.New("another import commit is in progress")
)

// Wizard stage names. Linear upload -> match -> preview, with backward
// transitions allowed.
type WizardStage string

const (
	StageUpload  WizardStage = "upload"
	StageMatch   WizardStage = "match"
	StagePreview WizardStage = "preview"
)

// committedSessionTTL keeps a finished session readable for a short while.
const committedSessionTTL = time.Hour

// Session is one in-flight import, persisted in Redis between wizard steps.
type Session struct {
	ID        string      `json:"id"`
	Stage     WizardStage `json:"stage"`
	Filename  string      `json:"filename,omitempty"`
	Headers   []string    `json:"headers,omitempty"`
	Rows      [][]string  `json:"rows,omitempty"`
	Mapping   Mapping     `json:"mapping,omitempty"`
	Committed bool        `json:"committed"`
	LastError string      `json:"last_error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *Session) grid() *RawGrid {
	return &RawGrid{Headers: s.Headers, Rows: s.Rows}
}

// PreviewResult is the validation outcome shown before commit.
type PreviewResult struct {
	Records       []ValidatedRecord `json:"records"`
	TotalCount    int               `json:"total_count"`
	ValidCount    int               `json:"valid_count"`
	ErrorCount    int               `json:"error_count"`
	CommitEnabled bool              `json:"commit_enabled"`
}

// CommitResult summarizes a successful bulk write.
type CommitResult struct {
	ImportedCount int       `json:"imported_count"`
	TotalStored   int       `json:"total_stored"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Wizard drives the three-stage import flow. Session state lives in Redis
// so a session survives server restarts until its TTL runs out; the heavy
// work (tokenize, match, validate, transform) happens synchronously inside
// each step.
type Wizard struct {
	redis       *redis.Client
	store       *store.Store
	catalog     *fields.Catalog
	ttl         time.Duration
	maxFileSize int64
}

// NewWizard creates an import wizard.
func NewWizard(redisClient *redis.Client, st *store.Store, catalog *fields.Catalog, cfg config.ImportConfig) *Wizard {
	return &Wizard{
		redis:       redisClient,
		store:       st,
		catalog:     catalog,
		ttl:         cfg.SessionTTL(),
		maxFileSize: cfg.MaxFileSize(),
	}
}

// Begin creates a fresh session in the upload stage.
func (w *Wizard) Begin(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:        domain.NewID(),
		Stage:     StageUpload,
		CreatedAt: now,
		ExpiresAt: now.Add(w.ttl),
	}
	if err := w.saveSession(ctx, session, w.ttl); err != nil {
		return nil, fmt.Errorf("storing import session: %w", err)
	}

	logger.Info("import session created", "session_id", session.ID)
	return session, nil
}

// Get retrieves a session by id.
func (w *Wizard) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := w.redis.Get(ctx, w.sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// UploadFile ingests one CSV file into an upload-stage session. A failed
// tokenize leaves the session in the upload stage with the parse error
// recorded; success tokenizes the file, runs the auto-matcher to seed the
// mapping suggestions, and advances to the match stage.
func (w *Wizard) UploadFile(ctx context.Context, sessionID, filename, content string) (*Session, error) {
	session, err := w.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != StageUpload {
		return nil, ErrWrongStage
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, ErrInvalidFileType
	}
	if w.maxFileSize > 0 && int64(len(content)) > w.maxFileSize {
		return nil, ErrFileTooLarge
	}

	grid, err := Tokenize(content)
	if err != nil {
		session.LastError = err.Error()
		if saveErr := w.saveSession(ctx, session, w.ttl); saveErr != nil {
			return nil, saveErr
		}
		return nil, err
	}

	session.Filename = filename
	session.Headers = grid.Headers
	session.Rows = grid.Rows
	session.Mapping = AutoMatch(grid.Headers, w.catalog.Fields())
	session.Stage = StageMatch
	session.LastError = ""
	if err := w.saveSession(ctx, session, w.ttl); err != nil {
		return nil, err
	}

	logger.Info("import file accepted",
		"session_id", session.ID,
		"filename", filename,
		"rows", len(grid.Rows),
		"auto_mapped", len(session.Mapping))
	return session, nil
}

// SetMapping confirms the header-to-field mapping and advances to preview.
// Every key must be a catalog field id and every value one of the file's
// headers; the domain field must be mapped for the session to advance.
func (w *Wizard) SetMapping(ctx context.Context, sessionID string, mapping Mapping) (*Session, error) {
	session, err := w.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != StageMatch {
		return nil, ErrWrongStage
	}

	for fieldID, header := range mapping {
		if _, err := w.catalog.FieldByID(fieldID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
		}
		if header == "" {
			continue
		}
		found := false
		for _, h := range session.Headers {
			if h == header {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHeader, header)
		}
	}
	if mapping[fields.DomainFieldID] == "" {
		return nil, ErrDomainUnmapped
	}

	session.Mapping = mapping
	session.Stage = StagePreview
	if err := w.saveSession(ctx, session, w.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// Preview validates the whole batch against the confirmed mapping and the
// store's current domains.
func (w *Wizard) Preview(ctx context.Context, sessionID string) (*PreviewResult, error) {
	session, err := w.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != StagePreview {
		return nil, ErrWrongStage
	}

	records := ValidateBatch(session.grid(), session.Mapping, w.store.ExistingDomains())
	errorCount := CountErrors(records)
	return &PreviewResult{
		Records:       records,
		TotalCount:    CountDataRows(records),
		ValidCount:    CountValid(records),
		ErrorCount:    errorCount,
		CommitEnabled: errorCount == 0,
	}, nil
}

// Commit transforms every valid row and performs one bulk write appending
// the batch to the store. The gate is batch-level: any row error, including
// duplicates, blocks the whole commit. Nothing is ever partially committed.
func (w *Wizard) Commit(ctx context.Context, sessionID string) (*CommitResult, error) {
	session, err := w.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != StagePreview {
		return nil, ErrWrongStage
	}
	if session.Committed {
		return nil, ErrAlreadyCommitted
	}

	// One commit at a time across server instances: the bulk write below is
	// a read-modify-write over the whole collection.
	lock := distlock.NewRedisLock(w.redis, "import:commit", time.Minute)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring commit lock: %w", err)
	}
	if !acquired {
		return nil, ErrCommitInProgress
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			logger.Warn("could not release commit lock", "error", err)
		}
	}()

	records := ValidateBatch(session.grid(), session.Mapping, w.store.ExistingDomains())
	if CountErrors(records) > 0 {
		return nil, ErrCommitBlocked
	}

	imported := make([]domain.AffiliateAccount, 0, len(records))
	for _, rec := range records {
		if !rec.IsValid {
			continue
		}
		imported = append(imported, ToAffiliate(rec))
	}

	existing := w.store.GetAffiliates()
	combined := append(existing, imported...)
	if err := w.store.SaveAffiliates(ctx, combined); err != nil {
		if _, histErr := w.store.AddUploadRecord(session.Filename, len(imported), false, err.Error()); histErr != nil {
			logger.Warn("could not record failed upload", "error", histErr)
		}
		logger.Error("import commit failed", "session_id", session.ID, "error", err)
		return nil, fmt.Errorf("committing import: %w", err)
	}

	if _, err := w.store.AddUploadRecord(session.Filename, len(imported), true, ""); err != nil {
		logger.Warn("could not record upload history", "error", err)
	}
	if _, err := w.store.AddNotification(store.NotifyImportComplete,
		fmt.Sprintf("Imported %d affiliates from %s", len(imported), session.Filename),
		map[string]interface{}{"session_id": session.ID, "count": len(imported)}); err != nil {
		logger.Warn("could not send import notification", "error", err)
	}
	if _, err := w.store.LogAction("csv_import", session.ID, "import", map[string]store.Change{
		"affiliate_count": {Before: len(existing), After: len(combined)},
	}); err != nil {
		logger.Warn("could not write audit entry", "error", err)
	}

	session.Committed = true
	if err := w.saveSession(ctx, session, committedSessionTTL); err != nil {
		logger.Warn("could not finalize import session", "session_id", session.ID, "error", err)
	}

	logger.Info("import committed",
		"session_id", session.ID,
		"filename", session.Filename,
		"imported", len(imported),
		"total_stored", len(combined))
	return &CommitResult{
		ImportedCount: len(imported),
		TotalStored:   len(combined),
		CompletedAt:   time.Now().UTC(),
	}, nil
}

// Back moves one stage backward: preview to match, match to upload. Uploaded
// data and mapping suggestions are kept so moving forward again is cheap.
func (w *Wizard) Back(ctx context.Context, sessionID string) (*Session, error) {
	session, err := w.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Stage {
	case StagePreview:
		session.Stage = StageMatch
	case StageMatch:
		session.Stage = StageUpload
	default:
		return nil, ErrWrongStage
	}

	if err := w.saveSession(ctx, session, w.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

func (w *Wizard) sessionKey(sessionID string) string {
	return fmt.Sprintf("import:session:%s", sessionID)
}

func (w *Wizard) saveSession(ctx context.Context, session *Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return w.redis.Set(ctx, w.sessionKey(session.ID), data, ttl).Err()
}

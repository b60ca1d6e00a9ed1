package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/affiliate-crm/internal/config"
	"github.com/ignite/affiliate-crm/internal/domain"
	"github.com/ignite/affiliate-crm/internal/fields"
	"github.com/ignite/affiliate-crm/internal/store"
)

const sampleCSV = "Domain,Traffic,First Name,Email\n" +
	"example.com,50000,John,john@example.com\n" +
	"other.com,1200,Jane,jane@other.com\n"

func newTestWizard(t *testing.T) (*Wizard, *store.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	st, err := store.New(config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	catalog := fields.NewCatalog(st)
	wizard := NewWizard(client, st, catalog, config.ImportConfig{SessionTTLHours: 24, MaxFileSizeMB: 1})
	return wizard, st, mr
}

func beginSession(t *testing.T, w *Wizard) *Session {
	t.Helper()
	session, err := w.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if session.Stage != StageUpload {
		t.Fatalf("new session stage = %q, want upload", session.Stage)
	}
	return session
}

func TestWizardFullFlow(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)

	session, err := w.UploadFile(ctx, session.ID, "affiliates.csv", sampleCSV)
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if session.Stage != StageMatch {
		t.Fatalf("stage after upload = %q, want match", session.Stage)
	}
	if session.Mapping["domain"] != "Domain" {
		t.Errorf("auto-match missed domain header: %v", session.Mapping)
	}
	if session.Mapping["email"] != "Email" {
		t.Errorf("auto-match missed email header: %v", session.Mapping)
	}

	session, err = w.SetMapping(ctx, session.ID, session.Mapping)
	if err != nil {
		t.Fatalf("SetMapping failed: %v", err)
	}
	if session.Stage != StagePreview {
		t.Fatalf("stage after mapping = %q, want preview", session.Stage)
	}

	preview, err := w.Preview(ctx, session.ID)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if preview.TotalCount != 2 || preview.ValidCount != 2 || preview.ErrorCount != 0 {
		t.Fatalf("preview counts = %d/%d/%d", preview.TotalCount, preview.ValidCount, preview.ErrorCount)
	}
	if !preview.CommitEnabled {
		t.Fatal("commit should be enabled for a clean batch")
	}

	result, err := w.Commit(ctx, session.ID)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if result.ImportedCount != 2 || result.TotalStored != 2 {
		t.Errorf("commit result = %+v", result)
	}

	stored := st.GetAffiliates()
	if len(stored) != 2 {
		t.Fatalf("store holds %d accounts, want 2", len(stored))
	}
	if stored[0].Domain != "example.com" || stored[0].Stage != domain.StageIdentified {
		t.Errorf("first imported account = %+v", stored[0])
	}
	if stored[0].Contacts[0].FirstName != "John" {
		t.Errorf("contact not carried through: %+v", stored[0].Contacts[0])
	}

	history := st.UploadHistory()
	if len(history) != 1 || !history[0].Success || history[0].FileName != "affiliates.csv" {
		t.Errorf("upload history = %+v", history)
	}
	if st.UnreadCount() != 1 {
		t.Errorf("expected an import notification, unread = %d", st.UnreadCount())
	}
	if entries := st.ActionsByType("import"); len(entries) != 1 {
		t.Errorf("expected 1 audit entry, got %d", len(entries))
	}

	if _, err := w.Commit(ctx, session.ID); !errors.Is(err, ErrAlreadyCommitted) {
		t.Errorf("second commit error = %v, want ErrAlreadyCommitted", err)
	}
}

func TestWizardCommitAppendsToExisting(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	seeded := domain.AffiliateAccount{ID: domain.NewID(), Domain: "seeded.com", Stage: domain.StageGoodFit}
	if err := st.SaveAffiliates(ctx, []domain.AffiliateAccount{seeded}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	session := beginSession(t, w)
	if _, err := w.UploadFile(ctx, session.ID, "new.csv", sampleCSV); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := w.SetMapping(ctx, session.ID, Mapping{"domain": "Domain"}); err != nil {
		t.Fatalf("SetMapping failed: %v", err)
	}

	result, err := w.Commit(ctx, session.ID)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if result.ImportedCount != 2 || result.TotalStored != 3 {
		t.Errorf("commit result = %+v", result)
	}

	stored := st.GetAffiliates()
	if len(stored) != 3 || stored[0].Domain != "seeded.com" {
		t.Errorf("pre-existing account lost: %+v", stored)
	}
}

func TestWizardCommitBlockedOnErrors(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	existing := domain.AffiliateAccount{ID: domain.NewID(), Domain: "example.com"}
	if err := st.SaveAffiliates(ctx, []domain.AffiliateAccount{existing}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	session := beginSession(t, w)
	if _, err := w.UploadFile(ctx, session.ID, "dupes.csv", sampleCSV); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := w.SetMapping(ctx, session.ID, Mapping{"domain": "Domain"}); err != nil {
		t.Fatalf("SetMapping failed: %v", err)
	}

	preview, err := w.Preview(ctx, session.ID)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if preview.CommitEnabled || preview.ErrorCount != 1 {
		t.Errorf("preview = %d errors, commit enabled %v", preview.ErrorCount, preview.CommitEnabled)
	}

	if _, err := w.Commit(ctx, session.ID); !errors.Is(err, ErrCommitBlocked) {
		t.Errorf("commit error = %v, want ErrCommitBlocked", err)
	}
	if len(st.GetAffiliates()) != 1 {
		t.Error("blocked commit must not write anything")
	}
}

func TestWizardBlankRowsDoNotBlockCommit(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)

	// Trailing line of bare separators, a common spreadsheet export artifact.
	session, err := w.UploadFile(ctx, session.ID, "affiliates.csv", sampleCSV+",,,\n")
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := w.SetMapping(ctx, session.ID, session.Mapping); err != nil {
		t.Fatalf("SetMapping failed: %v", err)
	}

	preview, err := w.Preview(ctx, session.ID)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if preview.TotalCount != 2 || preview.ValidCount != 2 || preview.ErrorCount != 0 {
		t.Fatalf("preview counts = %d/%d/%d", preview.TotalCount, preview.ValidCount, preview.ErrorCount)
	}
	if !preview.CommitEnabled {
		t.Fatal("blank rows must not disable commit")
	}
	if len(preview.Records) != 3 {
		t.Fatalf("blank row should keep its slot, got %d records", len(preview.Records))
	}

	result, err := w.Commit(ctx, session.ID)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if result.ImportedCount != 2 {
		t.Errorf("imported %d accounts, want 2", result.ImportedCount)
	}
	if len(st.GetAffiliates()) != 2 {
		t.Errorf("store holds %d accounts, want 2", len(st.GetAffiliates()))
	}
}

func TestWizardCommitLockHeld(t *testing.T) {
	w, _, mr := newTestWizard(t)
	ctx := context.Background()

	session := beginSession(t, w)
	if _, err := w.UploadFile(ctx, session.ID, "a.csv", sampleCSV); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := w.SetMapping(ctx, session.ID, Mapping{"domain": "Domain"}); err != nil {
		t.Fatalf("SetMapping failed: %v", err)
	}

	// Another instance holds the commit lock.
	if err := mr.Set("lock:import:commit", "other-owner"); err != nil {
		t.Fatalf("seeding lock: %v", err)
	}

	if _, err := w.Commit(ctx, session.ID); !errors.Is(err, ErrCommitInProgress) {
		t.Errorf("commit error = %v, want ErrCommitInProgress", err)
	}

	mr.Del("lock:import:commit")
	if _, err := w.Commit(ctx, session.ID); err != nil {
		t.Errorf("commit after lock release failed: %v", err)
	}
}

func TestWizardRejectsNonCSV(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)

	if _, err := w.UploadFile(ctx, session.ID, "affiliates.xlsx", sampleCSV); !errors.Is(err, ErrInvalidFileType) {
		t.Errorf("error = %v, want ErrInvalidFileType", err)
	}
}

func TestWizardRejectsOversizedFile(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)

	huge := "Domain\n" + strings.Repeat("a", 2<<20)
	if _, err := w.UploadFile(ctx, session.ID, "huge.csv", huge); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
}

func TestWizardParseFailureKeepsUploadStage(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)

	_, err := w.UploadFile(ctx, session.ID, "bad.csv", "Domain,Traffic\n")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}

	session, err = w.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if session.Stage != StageUpload {
		t.Errorf("stage = %q, want upload after parse failure", session.Stage)
	}
	if session.LastError == "" {
		t.Error("parse error should be recorded on the session")
	}

	// The same session accepts a corrected file.
	session, err = w.UploadFile(ctx, session.ID, "good.csv", sampleCSV)
	if err != nil {
		t.Fatalf("retry upload failed: %v", err)
	}
	if session.Stage != StageMatch || session.LastError != "" {
		t.Errorf("retry left session in %q with error %q", session.Stage, session.LastError)
	}
}

func TestWizardMappingValidation(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)
	if _, err := w.UploadFile(ctx, session.ID, "a.csv", sampleCSV); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	if _, err := w.SetMapping(ctx, session.ID, Mapping{"email": "Email"}); !errors.Is(err, ErrDomainUnmapped) {
		t.Errorf("missing domain mapping: error = %v", err)
	}
	if _, err := w.SetMapping(ctx, session.ID, Mapping{"domain": "Domain", "bogus": "Email"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field: error = %v", err)
	}
	if _, err := w.SetMapping(ctx, session.ID, Mapping{"domain": "No Such Header"}); !errors.Is(err, ErrUnknownHeader) {
		t.Errorf("unknown header: error = %v", err)
	}
}

func TestWizardStageGates(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)

	if _, err := w.Preview(ctx, session.ID); !errors.Is(err, ErrWrongStage) {
		t.Errorf("preview in upload stage: error = %v", err)
	}
	if _, err := w.SetMapping(ctx, session.ID, Mapping{"domain": "Domain"}); !errors.Is(err, ErrWrongStage) {
		t.Errorf("mapping in upload stage: error = %v", err)
	}
	if _, err := w.Back(ctx, session.ID); !errors.Is(err, ErrWrongStage) {
		t.Errorf("back in upload stage: error = %v", err)
	}

	if _, err := w.UploadFile(ctx, session.ID, "a.csv", sampleCSV); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := w.UploadFile(ctx, session.ID, "b.csv", sampleCSV); !errors.Is(err, ErrWrongStage) {
		t.Errorf("second upload: error = %v", err)
	}
}

func TestWizardBackKeepsData(t *testing.T) {
	w, _, _ := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)

	if _, err := w.UploadFile(ctx, session.ID, "a.csv", sampleCSV); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := w.SetMapping(ctx, session.ID, Mapping{"domain": "Domain"}); err != nil {
		t.Fatalf("SetMapping failed: %v", err)
	}

	session, err := w.Back(ctx, session.ID)
	if err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if session.Stage != StageMatch {
		t.Errorf("stage = %q, want match", session.Stage)
	}
	if len(session.Headers) == 0 || len(session.Rows) != 2 {
		t.Error("uploaded data lost on back transition")
	}

	session, err = w.Back(ctx, session.ID)
	if err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if session.Stage != StageUpload {
		t.Errorf("stage = %q, want upload", session.Stage)
	}
	if len(session.Rows) != 2 {
		t.Error("uploaded data lost on second back transition")
	}
}

func TestWizardSessionExpiry(t *testing.T) {
	w, _, mr := newTestWizard(t)
	ctx := context.Background()
	session := beginSession(t, w)

	mr.FastForward(25 * time.Hour)

	if _, err := w.Get(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expired session error = %v, want ErrSessionNotFound", err)
	}
}

func TestWizardUnknownSession(t *testing.T) {
	w, _, _ := newTestWizard(t)
	if _, err := w.Get(context.Background(), "no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

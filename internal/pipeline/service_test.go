package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/affiliate-crm/internal/config"
	"github.com/ignite/affiliate-crm/internal/domain"
	"github.com/ignite/affiliate-crm/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.New(config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func seedAffiliate(t *testing.T, st *store.Store, domainName string) domain.AffiliateAccount {
	t.Helper()
	now := time.Now().UTC()
	a := domain.AffiliateAccount{
		ID:        domain.NewID(),
		Domain:    domainName,
		Stage:     domain.StageIdentified,
		CreatedAt: now,
		UpdatedAt: now,
	}
	existing := st.GetAffiliates()
	if err := st.SaveAffiliates(context.Background(), append(existing, a)); err != nil {
		t.Fatalf("seeding affiliate: %v", err)
	}
	return a
}

func TestStageForStatus(t *testing.T) {
	tests := []struct {
		status domain.Status
		want   domain.Stage
	}{
		{domain.StatusFit, domain.StageGoodFit},
		{domain.StatusNotFit, domain.StageBadFit},
		{domain.StatusUnset, domain.StageIdentified},
	}
	for _, tt := range tests {
		if got := StageForStatus(tt.status); got != tt.want {
			t.Errorf("StageForStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	a := seedAffiliate(t, st, "example.com")

	updated, err := svc.UpdateStatus(ctx, a.ID, domain.StatusFit)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != domain.StatusFit || updated.Stage != domain.StageGoodFit {
		t.Errorf("updated = %q/%q, want Fit/Good Fit", updated.Status, updated.Stage)
	}
	if !updated.UpdatedAt.After(a.UpdatedAt) {
		t.Error("UpdatedAt not advanced")
	}

	stored, ok := st.GetAffiliate(a.ID)
	if !ok || stored.Stage != domain.StageGoodFit {
		t.Errorf("change not persisted: %+v", stored)
	}

	history := st.EntityHistory(a.ID)
	if len(history) != 1 || history[0].Action != "status_change" {
		t.Fatalf("audit history = %+v", history)
	}
	change, ok := history[0].Changes["status"]
	if !ok || change.After != domain.StatusFit {
		t.Errorf("status change = %+v", change)
	}

	notifications := st.Notifications()
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	if notifications[0].Message != `example.com marked "Fit"` {
		t.Errorf("notification message = %q", notifications[0].Message)
	}
}

func TestUpdateStatusClearsEvaluation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	a := seedAffiliate(t, st, "example.com")

	if _, err := svc.UpdateStatus(ctx, a.ID, domain.StatusNotFit); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	updated, err := svc.UpdateStatus(ctx, a.ID, domain.StatusUnset)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != domain.StatusUnset || updated.Stage != domain.StageIdentified {
		t.Errorf("cleared affiliate = %q/%q, want unset/Identified", updated.Status, updated.Stage)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	a := seedAffiliate(t, st, "example.com")

	if _, err := svc.UpdateStatus(ctx, "missing", domain.StatusFit); !errors.Is(err, ErrAffiliateNotFound) {
		t.Errorf("unknown id: error = %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, a.ID, domain.Status("Maybe")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status: error = %v", err)
	}
}

func TestUpdateStage(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	a := seedAffiliate(t, st, "example.com")

	updated, err := svc.UpdateStage(ctx, a.ID, domain.StageNegotiation)
	if err != nil {
		t.Fatalf("UpdateStage failed: %v", err)
	}
	if updated.Stage != domain.StageNegotiation {
		t.Errorf("stage = %q", updated.Stage)
	}
	if updated.Status != domain.StatusUnset {
		t.Errorf("stage move must not touch status, got %q", updated.Status)
	}

	history := st.EntityHistory(a.ID)
	if len(history) != 1 || history[0].Action != "stage_change" {
		t.Errorf("audit history = %+v", history)
	}

	if _, err := svc.UpdateStage(ctx, a.ID, domain.Stage("Limbo")); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("bad stage: error = %v", err)
	}
}

func TestByStageAndByStatus(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	a := seedAffiliate(t, st, "one.com")
	seedAffiliate(t, st, "two.com")
	b := seedAffiliate(t, st, "three.com")

	if _, err := svc.UpdateStatus(ctx, a.ID, domain.StatusFit); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, b.ID, domain.StatusFit); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	goodFit := svc.ByStage(domain.StageGoodFit)
	if len(goodFit) != 2 {
		t.Errorf("ByStage(Good Fit) = %d accounts, want 2", len(goodFit))
	}
	identified := svc.ByStage(domain.StageIdentified)
	if len(identified) != 1 || identified[0].Domain != "two.com" {
		t.Errorf("ByStage(Identified) = %+v", identified)
	}

	fit := svc.ByStatus(domain.StatusFit)
	if len(fit) != 2 {
		t.Errorf("ByStatus(Fit) = %d accounts, want 2", len(fit))
	}
	unset := svc.ByStatus(domain.StatusUnset)
	if len(unset) != 1 {
		t.Errorf("ByStatus(unset) = %d accounts, want 1", len(unset))
	}
}

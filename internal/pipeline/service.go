package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/affiliate-crm/internal/domain"
	"github.com/ignite/affiliate-crm/internal/pkg/logger"
	"github.com/ignite/affiliate-crm/internal/store"
)

var (
	ErrAffiliateNotFound = errors.New("affiliate not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidStage      = errors.New("invalid stage")
)

// Service moves affiliates through the outreach funnel on the pipeline board.
type Service struct {
	store *store.Store
}

// New creates a pipeline service.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// StageForStatus maps a fit evaluation to the pipeline stage it implies:
// Fit to Good Fit, Not a fit to Bad Fit, and an unset status back to
// Identified.
func StageForStatus(status domain.Status) domain.Stage {
	switch status {
	case domain.StatusFit:
		return domain.StageGoodFit
	case domain.StatusNotFit:
		return domain.StageBadFit
	default:
		return domain.StageIdentified
	}
}

// UpdateStatus sets an affiliate's fit status and derives its stage, then
// writes the full collection back. The change lands in the audit log with
// before/after values and raises a status_change notification.
func (s *Service) UpdateStatus(ctx context.Context, affiliateID string, status domain.Status) (*domain.AffiliateAccount, error) {
	if !domain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	affiliates := s.store.GetAffiliates()
	var updated *domain.AffiliateAccount
	var before domain.AffiliateAccount
	for i := range affiliates {
		if affiliates[i].ID != affiliateID {
			continue
		}
		before = affiliates[i]
		affiliates[i].Status = status
		affiliates[i].Stage = StageForStatus(status)
		affiliates[i].UpdatedAt = nowUTC()
		updated = &affiliates[i]
		break
	}
	if updated == nil {
		return nil, ErrAffiliateNotFound
	}

	if err := s.store.SaveAffiliates(ctx, affiliates); err != nil {
		return nil, fmt.Errorf("saving status change: %w", err)
	}

	if _, err := s.store.LogAction("status_change", affiliateID, "affiliate", map[string]store.Change{
		"status": {Before: before.Status, After: updated.Status},
		"stage":  {Before: before.Stage, After: updated.Stage},
	}); err != nil {
		logger.Warn("could not write audit entry", "error", err)
	}
	if _, err := s.store.AddNotification(store.NotifyStatusChange,
		fmt.Sprintf("%s marked %q", updated.Domain, displayStatus(status)),
		map[string]interface{}{"affiliate_id": affiliateID}); err != nil {
		logger.Warn("could not send notification", "error", err)
	}

	result := *updated
	return &result, nil
}

// UpdateStage moves an affiliate to a specific stage without touching its
// fit status, for drag-and-drop moves on the board.
func (s *Service) UpdateStage(ctx context.Context, affiliateID string, stage domain.Stage) (*domain.AffiliateAccount, error) {
	if !domain.ValidStage(stage) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}

	affiliates := s.store.GetAffiliates()
	var updated *domain.AffiliateAccount
	var before domain.Stage
	for i := range affiliates {
		if affiliates[i].ID != affiliateID {
			continue
		}
		before = affiliates[i].Stage
		affiliates[i].Stage = stage
		affiliates[i].UpdatedAt = nowUTC()
		updated = &affiliates[i]
		break
	}
	if updated == nil {
		return nil, ErrAffiliateNotFound
	}

	if err := s.store.SaveAffiliates(ctx, affiliates); err != nil {
		return nil, fmt.Errorf("saving stage change: %w", err)
	}

	if _, err := s.store.LogAction("stage_change", affiliateID, "affiliate", map[string]store.Change{
		"stage": {Before: before, After: stage},
	}); err != nil {
		logger.Warn("could not write audit entry", "error", err)
	}

	result := *updated
	return &result, nil
}

// ByStage returns the affiliates currently at the given pipeline stage.
func (s *Service) ByStage(stage domain.Stage) []domain.AffiliateAccount {
	var out []domain.AffiliateAccount
	for _, a := range s.store.GetAffiliates() {
		if a.Stage == stage {
			out = append(out, a)
		}
	}
	return out
}

// ByStatus returns the affiliates with the given fit status.
func (s *Service) ByStatus(status domain.Status) []domain.AffiliateAccount {
	var out []domain.AffiliateAccount
	for _, a := range s.store.GetAffiliates() {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

func nowUTC() time.Time { return time.Now().UTC() }

func displayStatus(status domain.Status) string {
	if status == domain.StatusUnset {
		return "unevaluated"
	}
	return string(status)
}

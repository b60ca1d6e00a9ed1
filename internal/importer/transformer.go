package importer

import (
	"strconv"
	"time"

	dom "github.com/ignite/affiliate-crm/internal/domain"
)

// ToAffiliate turns one validated record into a new affiliate account with
// freshly generated identifiers for the account and each child. New accounts
// always start at stage Identified with no fit status. The traffic string is
// parsed here; anything non-numeric yields no traffic value rather than an
// error.
func ToAffiliate(rec ValidatedRecord) dom.AffiliateAccount {
	now := time.Now().UTC()
	affiliateID := dom.NewID()

	contact := dom.Contact{
		ID:          dom.NewID(),
		AffiliateID: affiliateID,
		FirstName:   rec.Contact.FirstName,
		LastName:    rec.Contact.LastName,
		Email:       rec.Contact.Email,
		Phone:       rec.Contact.Phone,
		Role:        rec.Contact.Role,
		IsPrimary:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	placements := make([]dom.PlacementOpportunity, 0, len(rec.Placements))
	for _, p := range rec.Placements {
		placements = append(placements, dom.PlacementOpportunity{
			ID:          dom.NewID(),
			AffiliateID: affiliateID,
			Title:       p.Title,
			Type:        p.Type,
			URL:         p.URL,
			Status:      dom.PlacementActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	return dom.AffiliateAccount{
		ID:         affiliateID,
		Domain:     dom.StripPrefixes(rec.Domain),
		Status:     dom.StatusUnset,
		Stage:      dom.StageIdentified,
		Traffic:    parseTraffic(rec.Traffic),
		Notes:      rec.Notes,
		Contacts:   []dom.Contact{contact},
		Placements: placements,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// parseTraffic converts the raw traffic cell to a number. Empty or
// unparseable values mean absent, not zero.
func parseTraffic(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

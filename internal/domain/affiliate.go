package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage is an affiliate's position in the outreach funnel.
type Stage string

const (
	StageIdentified    Stage = "Identified"
	StageGoodFit       Stage = "Good Fit"
	StageBadFit        Stage = "Bad Fit"
	StageInSequence    Stage = "In Sequence"
	StageNoResponse    Stage = "No Response"
	StageNotInterested Stage = "Not Interested"
	StageNegotiation   Stage = "Negotiation"
	StagePlaced        Stage = "Placed"
)

// Status is the fit evaluation for an affiliate. The empty string means
// the affiliate has not been evaluated yet.
type Status string

const (
	StatusFit    Status = "Fit"
	StatusNotFit Status = "Not a fit"
	StatusUnset  Status = ""
)

// Stages lists all pipeline stages in funnel order.
var Stages = []Stage{
	StageIdentified,
	StageGoodFit,
	StageBadFit,
	StageInSequence,
	StageNoResponse,
	StageNotInterested,
	StageNegotiation,
	StagePlaced,
}

// ValidStage reports whether s is a known pipeline stage.
func ValidStage(s Stage) bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known fit status.
func ValidStatus(s Status) bool {
	return s == StatusFit || s == StatusNotFit || s == StatusUnset
}

// Contact is a person attached to exactly one affiliate account.
type Contact struct {
	ID              string    `json:"id"`
	AffiliateID     string    `json:"affiliate_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Role            string    `json:"role,omitempty"`
	IsPrimary       bool      `json:"is_primary"`
	LastContactDate string    `json:"last_contact_date,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PlacementStatus tracks the lifecycle of a placement opportunity.
type PlacementStatus string

const (
	PlacementActive    PlacementStatus = "Active"
	PlacementPending   PlacementStatus = "Pending"
	PlacementCompleted PlacementStatus = "Completed"
	PlacementCancelled PlacementStatus = "Cancelled"
)

// PlacementOpportunity is a potential ad/content placement on an affiliate's site.
type PlacementOpportunity struct {
	ID            string          `json:"id"`
	AffiliateID   string          `json:"affiliate_id"`
	Title         string          `json:"title"`
	Type          string          `json:"type"`
	URL           string          `json:"url,omitempty"`
	Pricing       float64         `json:"pricing,omitempty"`
	AudienceReach int             `json:"audience_reach,omitempty"`
	Status        PlacementStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AffiliateAccount is a prospective or active affiliate partner. An account
// exclusively owns its contacts and placements.
type AffiliateAccount struct {
	ID         string                 `json:"id"`
	Domain     string                 `json:"domain"`
	Status     Status                 `json:"status"`
	Stage      Stage                  `json:"stage"`
	Traffic    *int                   `json:"traffic,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Contacts   []Contact              `json:"contacts"`
	Placements []PlacementOpportunity `json:"placements"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// NewID generates an opaque identifier for a new entity.
func NewID() string {
	return uuid.New().String()
}

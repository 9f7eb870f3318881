package matching

import (
	"time"

	"goalpact/internal/service/partnership"
	"goalpact/internal/service/preference"
)

// Experience thresholds for mapping an expert's years into a level.
const (
	expertAdvancedYears     = 10
	expertIntermediateYears = 5
)

// ExpertAvailability is the expert's scheduling envelope, stored as a JSON
// column on the experts table.
type ExpertAvailability struct {
	TimeSlots  []string `json:"time_slots"`
	Timezone   string   `json:"timezone"`
	MaxClients int      `json:"max_clients"`
}

// ExpertProfile is the matching profile of a domain expert. An expert is
// matchable only while available and under capacity.
type ExpertProfile struct {
	UserID                 string             `json:"user_id"`
	ExpertiseAreas         []string           `json:"expertise_areas"`
	SupportStyles          []string           `json:"support_styles"`
	YearsOfExperience      int                `json:"years_of_experience"`
	HourlyRate             float64            `json:"hourly_rate,omitempty"`
	Availability           ExpertAvailability `json:"availability"`
	Rating                 float64            `json:"rating"`
	TotalClientsHelped     int                `json:"total_clients_helped"`
	IsAvailableForMatching bool               `json:"is_available_for_matching"`
	Timezone               string             `json:"timezone,omitempty"`
	Bio                    string             `json:"bio,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// AtCapacity reports whether the expert cannot take more clients.
func (e *ExpertProfile) AtCapacity() bool {
	return e.Availability.MaxClients > 0 && e.TotalClientsHelped >= e.Availability.MaxClients
}

// Criteria narrows the candidate search. A nil Criteria means browse mode:
// all candidates are returned unfiltered.
type Criteria struct {
	PartnerType    string   `json:"partner_type" form:"partner_type" binding:"omitempty,oneof=p2p premium_expert either"`
	TimeCommitment string   `json:"time_commitment" form:"time_commitment" binding:"omitempty,oneof=daily weekly flexible"`
	Categories     []string `json:"categories" form:"categories"`
	SupportStyles  []string `json:"support_styles" form:"support_styles"`
}

// CriteriaFrom builds search criteria from a requester's own preferences.
func CriteriaFrom(prefs *preference.Preferences) *Criteria {
	return &Criteria{
		PartnerType:    prefs.PreferredPartnerType,
		TimeCommitment: prefs.TimeCommitment,
		Categories:     prefs.AvailableCategories,
		SupportStyles:  prefs.SupportStyles,
	}
}

// ScoredCandidate pairs a candidate with their compatibility score against
// the requester.
type ScoredCandidate struct {
	Preferences *preference.Preferences `json:"preferences"`
	Score       int                     `json:"score"`

	// Expert is set when the candidate was produced by the expert
	// extension rather than the peer pool.
	Expert *ExpertProfile `json:"expert,omitempty"`
}

// CandidateFilter is the repository-level query shape.
type CandidateFilter struct {
	ExcludeUserID    string
	RequireAvailable bool
	PartnerType      string
	TimeCommitment   string
	Categories       []string
}

// DTOs
type CandidatesResponse struct {
	Candidates []ScoredCandidate `json:"candidates"`
	Total      int               `json:"total"`
}

type MatchResponse struct {
	Partnership *partnership.Partnership `json:"partnership"`
	Score       int                      `json:"score"`
}

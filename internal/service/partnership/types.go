package partnership

import (
	"time"

	"goalpact/internal/service/preference"
)

// Enums
const (
	// Partnership statuses
	StatusPending = "pending"
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusEnded   = "ended"

	// Partnership types
	TypeP2P           = "p2p"
	TypePremiumExpert = "premium_expert"
)

// Metrics are the cached goal/task counters on a partnership. They are
// maintained by the shared-goal service.
type Metrics struct {
	TotalGoals     int `json:"total_goals"`
	CompletedGoals int `json:"completed_goals"`
	TotalTasks     int `json:"total_tasks"`
	VerifiedTasks  int `json:"verified_tasks"`
}

// MatchSnapshot captures the preferences both sides held when the match
// was made, plus the score that produced it.
type MatchSnapshot struct {
	RequesterID        string                  `json:"requester_id"`
	CompatibilityScore int                     `json:"compatibility_score"`
	Requester          *preference.Preferences `json:"requester,omitempty"`
	Partner            *preference.Preferences `json:"partner,omitempty"`
}

// Partnership pairs exactly two users through an explicit lifecycle.
// A partnership is never physically deleted: ending it is a status
// transition.
type Partnership struct {
	ID                  string        `json:"id"`
	User1ID             string        `json:"user1_id"`
	User2ID             string        `json:"user2_id"`
	PartnershipType     string        `json:"partnership_type"`
	Status              string        `json:"status"`
	MatchedAt           time.Time     `json:"matched_at"`
	StartedAt           *time.Time    `json:"started_at,omitempty"`
	EndedAt             *time.Time    `json:"ended_at,omitempty"`
	EndReason           string        `json:"end_reason,omitempty"`
	MatchingPreferences MatchSnapshot `json:"matching_preferences"`
	Metrics             Metrics       `json:"metrics"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two members.
func (p *Partnership) HasParticipant(userID string) bool {
	return p.User1ID == userID || p.User2ID == userID
}

// PartnerOf returns the other member's ID, or "" when userID is not a
// participant.
func (p *Partnership) PartnerOf(userID string) string {
	switch userID {
	case p.User1ID:
		return p.User2ID
	case p.User2ID:
		return p.User1ID
	default:
		return ""
	}
}

// Terminal reports whether the partnership has reached its final state.
func (p *Partnership) Terminal() bool {
	return p.Status == StatusEnded
}

// DTOs
type RequestPartnershipRequest struct {
	PartnerID       string `json:"partner_id" binding:"required"`
	PartnershipType string `json:"partnership_type" binding:"required,oneof=p2p premium_expert"`
}

type EndPartnershipRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

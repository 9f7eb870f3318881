package preference

import "time"

// Enums
const (
	// Partner types
	PartnerTypeP2P           = "p2p"
	PartnerTypePremiumExpert = "premium_expert"
	PartnerTypeEither        = "either"

	// Time commitments
	CommitmentDaily    = "daily"
	CommitmentWeekly   = "weekly"
	CommitmentFlexible = "flexible"

	// Experience levels
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
)

// Preferences is a user's matching profile. At most one record exists per
// user; Upsert enforces this.
type Preferences struct {
	UserID                 string    `json:"user_id"`
	PreferredPartnerType   string    `json:"preferred_partner_type"`
	SupportStyles          []string  `json:"support_styles"`
	AvailableCategories    []string  `json:"available_categories"`
	GoalCategories         []string  `json:"goal_categories"`
	TimeCommitment         string    `json:"time_commitment"`
	ExperienceLevel        string    `json:"experience_level"`
	IsAvailableForMatching bool      `json:"is_available_for_matching"`
	Timezone               string    `json:"timezone,omitempty"`
	Bio                    string    `json:"bio,omitempty"`
	LastActiveAt           time.Time `json:"last_active_at"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// DTOs
type UpsertRequest struct {
	PreferredPartnerType string   `json:"preferred_partner_type" binding:"required,oneof=p2p premium_expert either"`
	SupportStyles        []string `json:"support_styles" binding:"required,min=1"`
	AvailableCategories  []string `json:"available_categories" binding:"required,min=1"`
	GoalCategories       []string `json:"goal_categories"`
	TimeCommitment       string   `json:"time_commitment" binding:"required,oneof=daily weekly flexible"`
	ExperienceLevel      string   `json:"experience_level" binding:"required,oneof=beginner intermediate advanced"`
	Timezone             string   `json:"timezone"`
	Bio                  string   `json:"bio" binding:"omitempty,max=500"`
}

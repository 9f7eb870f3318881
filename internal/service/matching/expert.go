package matching

import (
	"context"

	"goalpact/internal/service/preference"
)

// findBestExpert searches the requester's goal categories in list order and
// returns the top-ranked expert from the first category that yields any
// result. Categories are never merged: the first hit short-circuits the
// search. Experts at capacity are skipped.
func (s *Service) findBestExpert(ctx context.Context, goalCategories []string) (*ExpertProfile, error) {
	for _, category := range goalCategories {
		experts, err := s.repo.FindExpertsByCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		for _, expert := range experts {
			if expert.AtCapacity() {
				continue
			}
			// Results come back ordered by rating then experience,
			// so the first one under capacity wins.
			return expert, nil
		}
	}

	return nil, ErrExpertNotFound
}

// expertToPreferences maps an expert into a preferences-shaped record so it
// flows through the same partnership creation path as a peer match.
func expertToPreferences(expert *ExpertProfile) *preference.Preferences {
	return &preference.Preferences{
		UserID:                 expert.UserID,
		PreferredPartnerType:   preference.PartnerTypePremiumExpert,
		SupportStyles:          expert.SupportStyles,
		AvailableCategories:    expert.ExpertiseAreas,
		TimeCommitment:         preference.CommitmentFlexible,
		ExperienceLevel:        expertExperienceLevel(expert.YearsOfExperience),
		IsAvailableForMatching: expert.IsAvailableForMatching,
		Timezone:               expert.Timezone,
		Bio:                    expert.Bio,
	}
}

func expertExperienceLevel(years int) string {
	switch {
	case years >= expertAdvancedYears:
		return preference.ExperienceAdvanced
	case years >= expertIntermediateYears:
		return preference.ExperienceIntermediate
	default:
		return preference.ExperienceBeginner
	}
}

package matching

import (
	"math"

	"goalpact/internal/service/preference"
)

// Score weights. They sum to 100, so the result needs no rescaling.
const (
	weightPartnerType    = 25.0
	weightTimeCommitment = 20.0
	weightCategories     = 25.0
	weightSupportStyles  = 20.0
	weightExperience     = 10.0
)

// MinCompatibilityScore is the floor below which FindBestMatch returns no
// candidate.
const MinCompatibilityScore = 60

// Score computes the compatibility between two preference records as an
// integer in [0, 100]. The function is pure, deterministic and symmetric:
// the overlap ratios divide by max(|A|,|B|), so swapping the arguments
// cannot change the result. Rounding is half-up.
func Score(a, b *preference.Preferences) int {
	total := 0.0

	if partnerTypesCompatible(a.PreferredPartnerType, b.PreferredPartnerType) {
		total += weightPartnerType
	}

	if commitmentsCompatible(a.TimeCommitment, b.TimeCommitment) {
		total += weightTimeCommitment
	}

	total += overlapRatio(a.AvailableCategories, b.AvailableCategories) * weightCategories
	total += overlapRatio(a.SupportStyles, b.SupportStyles) * weightSupportStyles
	total += experiencePoints(a.ExperienceLevel, b.ExperienceLevel)

	return int(math.Floor(total + 0.5))
}

func partnerTypesCompatible(a, b string) bool {
	return a == b || a == preference.PartnerTypeEither || b == preference.PartnerTypeEither
}

func commitmentsCompatible(a, b string) bool {
	return a == b || a == preference.CommitmentFlexible || b == preference.CommitmentFlexible
}

// overlapRatio returns |A∩B| / max(|A|,|B|). An empty set on either side
// yields zero, guarding the division.
func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	set := make(map[string]bool, len(a))
	for _, item := range a {
		set[item] = true
	}

	intersection := 0
	for _, item := range b {
		if set[item] {
			intersection++
			delete(set, item) // count duplicates once
		}
	}

	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}

	return float64(intersection) / float64(denom)
}

// experiencePoints awards 10 for an exact level match, 7 for adjacent
// tiers and 3 for two tiers apart on the beginner < intermediate <
// advanced scale.
func experiencePoints(a, b string) float64 {
	distance := experienceRank(a) - experienceRank(b)
	if distance < 0 {
		distance = -distance
	}

	switch distance {
	case 0:
		return 10.0
	case 1:
		return 7.0
	default:
		return 3.0
	}
}

func experienceRank(level string) int {
	switch level {
	case preference.ExperienceBeginner:
		return 0
	case preference.ExperienceIntermediate:
		return 1
	default:
		return 2
	}
}

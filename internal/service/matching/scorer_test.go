package matching

import (
	"testing"

	"goalpact/internal/service/preference"

	"github.com/stretchr/testify/assert"
)

func prefsFixture(mutate func(*preference.Preferences)) *preference.Preferences {
	p := &preference.Preferences{
		UserID:               "u1",
		PreferredPartnerType: preference.PartnerTypeP2P,
		SupportStyles:        []string{"check_ins", "encouragement"},
		AvailableCategories:  []string{"fitness", "career"},
		TimeCommitment:       preference.CommitmentDaily,
		ExperienceLevel:      preference.ExperienceIntermediate,
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestScorePerfectMatch(t *testing.T) {
	a := prefsFixture(nil)
	b := prefsFixture(func(p *preference.Preferences) { p.UserID = "u2" })

	assert.Equal(t, 100, Score(a, b))
}

func TestScoreBounds(t *testing.T) {
	a := prefsFixture(nil)
	worst := prefsFixture(func(p *preference.Preferences) {
		p.UserID = "u2"
		p.PreferredPartnerType = preference.PartnerTypePremiumExpert
		p.TimeCommitment = preference.CommitmentWeekly
		p.SupportStyles = []string{"tough_love"}
		p.AvailableCategories = []string{"finance"}
		p.ExperienceLevel = preference.ExperienceAdvanced
	})

	// No overlap anywhere, adjacent experience leaves only its 7 points.
	assert.Equal(t, 7, Score(a, worst))

	for _, other := range []*preference.Preferences{a, worst} {
		score := Score(a, other)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestScoreSymmetry(t *testing.T) {
	a := prefsFixture(func(p *preference.Preferences) {
		p.AvailableCategories = []string{"fitness", "career", "learning"}
		p.SupportStyles = []string{"check_ins"}
	})
	b := prefsFixture(func(p *preference.Preferences) {
		p.UserID = "u2"
		p.AvailableCategories = []string{"fitness"}
		p.SupportStyles = []string{"check_ins", "encouragement", "tough_love"}
		p.ExperienceLevel = preference.ExperienceBeginner
	})

	assert.Equal(t, Score(a, b), Score(b, a))
}

func TestScoreRoundsHalfUp(t *testing.T) {
	// Partner type 25 + commitment 20 + half category overlap 12.5 + full
	// styles 20 + equal experience 10 = 87.5, which must round to 88.
	a := prefsFixture(func(p *preference.Preferences) {
		p.AvailableCategories = []string{"fitness", "career"}
	})
	b := prefsFixture(func(p *preference.Preferences) {
		p.UserID = "u2"
		p.AvailableCategories = []string{"fitness"}
	})

	assert.Equal(t, 88, Score(a, b))
}

func TestScoreWildcards(t *testing.T) {
	a := prefsFixture(func(p *preference.Preferences) {
		p.PreferredPartnerType = preference.PartnerTypeEither
		p.TimeCommitment = preference.CommitmentFlexible
	})
	b := prefsFixture(func(p *preference.Preferences) {
		p.UserID = "u2"
		p.PreferredPartnerType = preference.PartnerTypePremiumExpert
		p.TimeCommitment = preference.CommitmentWeekly
	})

	// "either" and "flexible" are compatible with anything.
	assert.Equal(t, 100, Score(a, b))
}

func TestScoreEmptySetsScoreZeroOverlap(t *testing.T) {
	a := prefsFixture(func(p *preference.Preferences) {
		p.SupportStyles = nil
		p.AvailableCategories = nil
	})
	b := prefsFixture(func(p *preference.Preferences) { p.UserID = "u2" })

	// 25 + 20 + 0 + 0 + 10: empty sets contribute nothing, never divide
	// by zero.
	assert.Equal(t, 55, Score(a, b))
}

func TestOverlapRatioUsesLargerSet(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, overlapRatio([]string{"a"}, []string{"a", "b", "c"}), 1e-9)
	assert.InDelta(t, 1.0, overlapRatio([]string{"a", "b"}, []string{"b", "a"}), 1e-9)
	assert.InDelta(t, 0.0, overlapRatio([]string{"a"}, []string{"b"}), 1e-9)
}

func TestExperiencePoints(t *testing.T) {
	assert.Equal(t, 10.0, experiencePoints(preference.ExperienceBeginner, preference.ExperienceBeginner))
	assert.Equal(t, 7.0, experiencePoints(preference.ExperienceBeginner, preference.ExperienceIntermediate))
	assert.Equal(t, 3.0, experiencePoints(preference.ExperienceBeginner, preference.ExperienceAdvanced))
	assert.Equal(t, 7.0, experiencePoints(preference.ExperienceAdvanced, preference.ExperienceIntermediate))
}

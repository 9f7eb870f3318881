package matching

import (
	"context"
	"fmt"
	"testing"

	"goalpact/internal/result"
	"goalpact/internal/service/notification"
	"goalpact/internal/service/partnership"
	"goalpact/internal/service/preference"
	"goalpact/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMatchRepo struct {
	candidates  []*preference.Preferences
	experts     map[string][]*ExpertProfile
	expertCalls []string
	helped      []string
}

func (r *fakeMatchRepo) FindCandidates(ctx context.Context, filter CandidateFilter) ([]*preference.Preferences, error) {
	out := make([]*preference.Preferences, 0, len(r.candidates))
	for _, c := range r.candidates {
		if c.UserID == filter.ExcludeUserID {
			continue
		}
		if filter.RequireAvailable && !c.IsAvailableForMatching {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeMatchRepo) FindExpertsByCategory(ctx context.Context, category string) ([]*ExpertProfile, error) {
	r.expertCalls = append(r.expertCalls, category)
	return r.experts[category], nil
}

func (r *fakeMatchRepo) IncrementClientsHelped(ctx context.Context, expertUserID string) error {
	r.helped = append(r.helped, expertUserID)
	return nil
}

type fakePrefReader struct {
	prefs map[string]*preference.Preferences
}

func (f *fakePrefReader) Get(ctx context.Context, userID string) (*preference.Preferences, error) {
	p, ok := f.prefs[userID]
	if !ok {
		return nil, preference.ErrPreferencesNotFound
	}
	return p, nil
}

type fakePartnershipManager struct {
	existing  map[string]*partnership.Partnership
	created   []*partnership.Partnership
	createErr error
}

func (f *fakePartnershipManager) GetForUser(ctx context.Context, userID string) (*partnership.Partnership, error) {
	if p, ok := f.existing[userID]; ok {
		return p, nil
	}
	return nil, partnership.ErrPartnershipNotFound
}

func (f *fakePartnershipManager) Create(ctx context.Context, user1ID, user2ID, partnershipType string, snapshot partnership.MatchSnapshot, autoApproved bool) (*partnership.Partnership, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := &partnership.Partnership{
		ID:                  fmt.Sprintf("p-%d", len(f.created)+1),
		User1ID:             user1ID,
		User2ID:             user2ID,
		PartnershipType:     partnershipType,
		Status:              partnership.StatusActive,
		MatchingPreferences: snapshot,
	}
	f.created = append(f.created, p)
	return p, nil
}

type fakeNotifier struct {
	sent []notification.Notification
}

func (f *fakeNotifier) Notify(ctx context.Context, n notification.Notification) {
	f.sent = append(f.sent, n)
}

func newMatchingFixture(repo *fakeMatchRepo, prefs *fakePrefReader) (*Service, *fakePartnershipManager, *fakeNotifier) {
	partnerships := &fakePartnershipManager{existing: map[string]*partnership.Partnership{}}
	notifier := &fakeNotifier{}
	svc := NewService(repo, prefs, partnerships, notifier, logger.NewLogger("development"))
	return svc, partnerships, notifier
}

func availablePrefs(userID string, mutate func(*preference.Preferences)) *preference.Preferences {
	p := prefsFixture(func(p *preference.Preferences) {
		p.UserID = userID
		p.IsAvailableForMatching = true
	})
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestFindBestMatchPicksTopScorer(t *testing.T) {
	requester := availablePrefs("alice", nil)
	perfect := availablePrefs("bob", nil)
	partial := availablePrefs("carol", func(p *preference.Preferences) {
		p.AvailableCategories = []string{"fitness"}
		p.ExperienceLevel = preference.ExperienceBeginner
	})

	repo := &fakeMatchRepo{candidates: []*preference.Preferences{partial, perfect}}
	svc, _, _ := newMatchingFixture(repo, &fakePrefReader{prefs: map[string]*preference.Preferences{"alice": requester}})

	best, err := svc.FindBestMatch(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", best.Preferences.UserID)
	assert.Equal(t, 100, best.Score)
}

func TestFindBestMatchNoCandidates(t *testing.T) {
	requester := availablePrefs("alice", nil)
	repo := &fakeMatchRepo{}
	svc, _, _ := newMatchingFixture(repo, &fakePrefReader{prefs: map[string]*preference.Preferences{"alice": requester}})

	_, err := svc.FindBestMatch(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrNoMatches)
}

func TestFindBestMatchBelowThreshold(t *testing.T) {
	requester := availablePrefs("alice", nil)
	weak := availablePrefs("bob", func(p *preference.Preferences) {
		p.TimeCommitment = preference.CommitmentWeekly
		p.AvailableCategories = []string{"fitness"}
		p.SupportStyles = []string{"check_ins", "encouragement", "tough_love", "celebrations"}
		p.ExperienceLevel = preference.ExperienceAdvanced
	})

	// 25 + 0 + 12.5 + 10 + 7 = 54.5 -> 55, below the 60 floor.
	require.Less(t, Score(requester, weak), MinCompatibilityScore)

	repo := &fakeMatchRepo{candidates: []*preference.Preferences{weak}}
	svc, _, _ := newMatchingFixture(repo, &fakePrefReader{prefs: map[string]*preference.Preferences{"alice": requester}})

	_, err := svc.FindBestMatch(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrLowCompatibility)
}

func TestFindBestMatchRequesterUnavailable(t *testing.T) {
	requester := availablePrefs("alice", func(p *preference.Preferences) {
		p.IsAvailableForMatching = false
	})
	svc, _, _ := newMatchingFixture(&fakeMatchRepo{}, &fakePrefReader{prefs: map[string]*preference.Preferences{"alice": requester}})

	_, err := svc.FindBestMatch(context.Background(), "alice")
	assert.ErrorIs(t, err, preference.ErrNotAvailable)
}

func TestFindCandidatesBrowseModeSkipsOverlapFilter(t *testing.T) {
	stranger := availablePrefs("bob", func(p *preference.Preferences) {
		p.AvailableCategories = []string{"finance"}
		p.SupportStyles = []string{"tough_love"}
	})
	repo := &fakeMatchRepo{candidates: []*preference.Preferences{stranger}}
	svc, _, _ := newMatchingFixture(repo, &fakePrefReader{prefs: map[string]*preference.Preferences{}})

	browsed, err := svc.FindCandidates(context.Background(), "alice", nil, false)
	require.NoError(t, err)
	assert.Len(t, browsed, 1)

	criteria := CriteriaFrom(availablePrefs("alice", nil))
	filtered, err := svc.FindCandidates(context.Background(), "alice", criteria, false)
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestFindAndCreatePartnershipPeerFlow(t *testing.T) {
	requester := availablePrefs("alice", nil)
	candidate := availablePrefs("bob", nil)

	repo := &fakeMatchRepo{candidates: []*preference.Preferences{candidate}}
	svc, partnerships, notifier := newMatchingFixture(repo, &fakePrefReader{prefs: map[string]*preference.Preferences{
		"alice": requester,
		"bob":   candidate,
	}})

	res := svc.FindAndCreatePartnership(context.Background(), "alice")
	require.True(t, res.Success)

	require.Len(t, partnerships.created, 1)
	created := partnerships.created[0]
	assert.Equal(t, partnership.TypeP2P, created.PartnershipType)
	assert.Equal(t, "alice", created.MatchingPreferences.RequesterID)
	assert.Equal(t, 100, created.MatchingPreferences.CompatibilityScore)

	require.Len(t, notifier.sent, 2)
	for _, n := range notifier.sent {
		assert.Equal(t, notification.TypePartnerAssigned, n.Type)
	}
	assert.Empty(t, repo.helped)
}

func TestFindAndCreatePartnershipAlreadyPartnered(t *testing.T) {
	svc, partnerships, _ := newMatchingFixture(&fakeMatchRepo{}, &fakePrefReader{prefs: map[string]*preference.Preferences{}})
	partnerships.existing["alice"] = &partnership.Partnership{ID: "p-1", Status: partnership.StatusActive}

	res := svc.FindAndCreatePartnership(context.Background(), "alice")
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeAlreadyPartnered, res.ErrorCode)
}

func TestFindAndCreatePartnershipNoPreferences(t *testing.T) {
	svc, _, _ := newMatchingFixture(&fakeMatchRepo{}, &fakePrefReader{prefs: map[string]*preference.Preferences{}})

	res := svc.FindAndCreatePartnership(context.Background(), "alice")
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeNoPreferences, res.ErrorCode)
}

func TestFindAndCreatePartnershipLostClaimRace(t *testing.T) {
	requester := availablePrefs("alice", nil)
	candidate := availablePrefs("bob", nil)

	repo := &fakeMatchRepo{candidates: []*preference.Preferences{candidate}}
	svc, partnerships, _ := newMatchingFixture(repo, &fakePrefReader{prefs: map[string]*preference.Preferences{
		"alice": requester,
	}})
	partnerships.createErr = fmt.Errorf("claim partner availability: %w", preference.ErrNotAvailable)

	res := svc.FindAndCreatePartnership(context.Background(), "alice")
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeNotAvailable, res.ErrorCode)
}

func TestFindAndCreatePartnershipExpertFlow(t *testing.T) {
	requester := availablePrefs("alice", func(p *preference.Preferences) {
		p.PreferredPartnerType = preference.PartnerTypeEither
		p.GoalCategories = []string{"career", "fitness"}
	})

	atCapacity := &ExpertProfile{
		UserID:             "expert-full",
		ExpertiseAreas:     []string{"career"},
		SupportStyles:      []string{"check_ins", "encouragement"},
		YearsOfExperience:  12,
		Rating:             5.0,
		TotalClientsHelped: 3,
		Availability:       ExpertAvailability{MaxClients: 3},
	}
	open := &ExpertProfile{
		UserID:            "expert-open",
		ExpertiseAreas:    []string{"career", "fitness"},
		SupportStyles:     []string{"check_ins", "encouragement"},
		YearsOfExperience: 8,
		Rating:            4.5,
		Availability:      ExpertAvailability{MaxClients: 10},
	}

	repo := &fakeMatchRepo{
		experts: map[string][]*ExpertProfile{
			"career":  {atCapacity, open},
			"fitness": {open},
		},
	}
	svc, partnerships, _ := newMatchingFixture(repo, &fakePrefReader{prefs: map[string]*preference.Preferences{
		"alice": requester,
	}})

	res := svc.FindAndCreatePartnership(context.Background(), "alice")
	require.True(t, res.Success)

	require.Len(t, partnerships.created, 1)
	created := partnerships.created[0]
	assert.Equal(t, partnership.TypePremiumExpert, created.PartnershipType)
	assert.Equal(t, "expert-open", created.User2ID)

	// The first category with results short-circuits the search.
	assert.Equal(t, []string{"career"}, repo.expertCalls)
	assert.Equal(t, []string{"expert-open"}, repo.helped)
}

func TestFindAndCreatePartnershipP2POnlySkipsExperts(t *testing.T) {
	requester := availablePrefs("alice", func(p *preference.Preferences) {
		p.PreferredPartnerType = preference.PartnerTypeP2P
		p.GoalCategories = []string{"career"}
	})
	peer := availablePrefs("bob", nil)

	repo := &fakeMatchRepo{
		candidates: []*preference.Preferences{peer},
		experts: map[string][]*ExpertProfile{
			"career": {{UserID: "expert-open", ExpertiseAreas: []string{"career"}}},
		},
	}
	svc, partnerships, _ := newMatchingFixture(repo, &fakePrefReader{prefs: map[string]*preference.Preferences{
		"alice": requester,
	}})

	res := svc.FindAndCreatePartnership(context.Background(), "alice")
	require.True(t, res.Success)

	assert.Empty(t, repo.expertCalls)
	require.Len(t, partnerships.created, 1)
	assert.Equal(t, partnership.TypeP2P, partnerships.created[0].PartnershipType)
}

func TestExpertToPreferencesLevels(t *testing.T) {
	assert.Equal(t, preference.ExperienceAdvanced, expertExperienceLevel(10))
	assert.Equal(t, preference.ExperienceIntermediate, expertExperienceLevel(5))
	assert.Equal(t, preference.ExperienceBeginner, expertExperienceLevel(4))
}

package preference

import (
	"context"
	"testing"

	"goalpact/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrefRepo struct {
	byUser map[string]*Preferences
}

func newFakePrefRepo() *fakePrefRepo {
	return &fakePrefRepo{byUser: map[string]*Preferences{}}
}

func (r *fakePrefRepo) Insert(ctx context.Context, prefs *Preferences) error {
	cp := *prefs
	r.byUser[prefs.UserID] = &cp
	return nil
}

func (r *fakePrefRepo) GetByUserID(ctx context.Context, userID string) (*Preferences, error) {
	p, ok := r.byUser[userID]
	if !ok {
		return nil, ErrPreferencesNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePrefRepo) Update(ctx context.Context, prefs *Preferences) error {
	if _, ok := r.byUser[prefs.UserID]; !ok {
		return ErrPreferencesNotFound
	}
	cp := *prefs
	r.byUser[prefs.UserID] = &cp
	return nil
}

func (r *fakePrefRepo) SetAvailability(ctx context.Context, userID string, available bool) error {
	p, ok := r.byUser[userID]
	if !ok {
		return ErrPreferencesNotFound
	}
	p.IsAvailableForMatching = available
	return nil
}

func (r *fakePrefRepo) ClaimAvailability(ctx context.Context, userID string) error {
	p, ok := r.byUser[userID]
	if !ok {
		return ErrPreferencesNotFound
	}
	if !p.IsAvailableForMatching {
		return ErrNotAvailable
	}
	p.IsAvailableForMatching = false
	return nil
}

func upsertRequest() UpsertRequest {
	return UpsertRequest{
		PreferredPartnerType: PartnerTypeP2P,
		SupportStyles:        []string{"check_ins"},
		AvailableCategories:  []string{"fitness"},
		TimeCommitment:       CommitmentDaily,
		ExperienceLevel:      ExperienceBeginner,
	}
}

func TestUpsertFirstSaveStartsAvailable(t *testing.T) {
	repo := newFakePrefRepo()
	svc := NewService(repo, logger.NewLogger("development"))

	prefs, err := svc.Upsert(context.Background(), "alice", upsertRequest())
	require.NoError(t, err)
	assert.True(t, prefs.IsAvailableForMatching)
}

func TestUpsertPreservesAvailability(t *testing.T) {
	repo := newFakePrefRepo()
	svc := NewService(repo, logger.NewLogger("development"))

	_, err := svc.Upsert(context.Background(), "alice", upsertRequest())
	require.NoError(t, err)
	require.NoError(t, svc.ClaimAvailability(context.Background(), "alice"))

	// A settings save must not put a partnered user back into the pool.
	req := upsertRequest()
	req.Bio = "updated bio"
	prefs, err := svc.Upsert(context.Background(), "alice", req)
	require.NoError(t, err)
	assert.False(t, prefs.IsAvailableForMatching)
	assert.Equal(t, "updated bio", prefs.Bio)
}

func TestClaimAvailabilityLosesSecondRace(t *testing.T) {
	repo := newFakePrefRepo()
	svc := NewService(repo, logger.NewLogger("development"))

	_, err := svc.Upsert(context.Background(), "alice", upsertRequest())
	require.NoError(t, err)

	require.NoError(t, svc.ClaimAvailability(context.Background(), "alice"))
	assert.ErrorIs(t, svc.ClaimAvailability(context.Background(), "alice"), ErrNotAvailable)

	require.NoError(t, svc.ReleaseAvailability(context.Background(), "alice"))
	assert.NoError(t, svc.ClaimAvailability(context.Background(), "alice"))
}

func TestGetMissingPreferences(t *testing.T) {
	svc := NewService(newFakePrefRepo(), logger.NewLogger("development"))

	_, err := svc.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrPreferencesNotFound)
}

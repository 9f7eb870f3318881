package partnership

import (
	"context"
	"testing"

	"goalpact/internal/result"
	"goalpact/internal/service/notification"
	"goalpact/internal/service/preference"
	"goalpact/pkg/cache"
	"goalpact/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePartnershipRepo struct {
	byID map[string]*Partnership
}

func newFakePartnershipRepo() *fakePartnershipRepo {
	return &fakePartnershipRepo{byID: map[string]*Partnership{}}
}

func (r *fakePartnershipRepo) Insert(ctx context.Context, p *Partnership) error {
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *fakePartnershipRepo) GetByID(ctx context.Context, id string) (*Partnership, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrPartnershipNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePartnershipRepo) GetCurrentForUser(ctx context.Context, userID string) (*Partnership, error) {
	for _, p := range r.byID {
		if p.Terminal() || !p.HasParticipant(userID) {
			continue
		}
		cp := *p
		return &cp, nil
	}
	return nil, ErrPartnershipNotFound
}

func (r *fakePartnershipRepo) Update(ctx context.Context, p *Partnership) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrPartnershipNotFound
	}
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *fakePartnershipRepo) UpdateMetrics(ctx context.Context, id string, m Metrics) error {
	p, ok := r.byID[id]
	if !ok {
		return ErrPartnershipNotFound
	}
	p.Metrics = m
	return nil
}

// fakeAvailability mimics the conditional true->false claim semantics.
type fakeAvailability struct {
	available map[string]bool
}

func (f *fakeAvailability) ClaimAvailability(ctx context.Context, userID string) error {
	if !f.available[userID] {
		return preference.ErrNotAvailable
	}
	f.available[userID] = false
	return nil
}

func (f *fakeAvailability) ReleaseAvailability(ctx context.Context, userID string) error {
	f.available[userID] = true
	return nil
}

type recordingNotifier struct {
	sent []notification.Notification
}

func (f *recordingNotifier) Notify(ctx context.Context, n notification.Notification) {
	f.sent = append(f.sent, n)
}

func newPartnershipFixture(t *testing.T) (*Service, *fakePartnershipRepo, *fakeAvailability, *recordingNotifier) {
	t.Helper()

	mr := miniredis.RunT(t)
	repo := newFakePartnershipRepo()
	availability := &fakeAvailability{available: map[string]bool{
		"alice": true,
		"bob":   true,
	}}
	notifier := &recordingNotifier{}

	svc := NewService(repo, availability, cache.NewRedisCache(mr.Addr()), notifier, logger.NewLogger("development"))
	return svc, repo, availability, notifier
}

func TestCreateAutoApprovedStartsActive(t *testing.T) {
	svc, repo, availability, _ := newPartnershipFixture(t)

	p, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{RequesterID: "alice"}, true)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, p.Status)
	require.NotNil(t, p.StartedAt)

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, stored.Status)

	// Both parties leave the matching pool.
	assert.False(t, availability.available["alice"])
	assert.False(t, availability.available["bob"])
}

func TestCreateReleasesRequesterWhenPartnerClaimFails(t *testing.T) {
	svc, _, availability, _ := newPartnershipFixture(t)
	availability.available["bob"] = false

	_, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{}, true)
	require.ErrorIs(t, err, preference.ErrNotAvailable)

	// The requester's claim is rolled back on the partial failure.
	assert.True(t, availability.available["alice"])
}

func TestRequestRejectsSelf(t *testing.T) {
	svc, _, _, _ := newPartnershipFixture(t)

	res := svc.Request(context.Background(), "alice", "alice", TypeP2P)
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeOperationFailed, res.ErrorCode)
}

func TestRequestWhileAlreadyPartnered(t *testing.T) {
	svc, _, _, _ := newPartnershipFixture(t)

	_, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{}, true)
	require.NoError(t, err)

	res := svc.Request(context.Background(), "alice", "carol", TypeP2P)
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeAlreadyPartnered, res.ErrorCode)
}

func TestRequestAcceptFlow(t *testing.T) {
	svc, repo, _, notifier := newPartnershipFixture(t)

	res := svc.Request(context.Background(), "alice", "bob", TypeP2P)
	require.True(t, res.Success)
	p := res.Data.(*Partnership)
	assert.Equal(t, StatusPending, p.Status)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notification.TypePartnershipRequested, notifier.sent[0].Type)
	assert.Equal(t, "bob", notifier.sent[0].ToUserID)

	res = svc.Accept(context.Background(), p.ID, "bob")
	require.True(t, res.Success)

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, stored.Status)
	assert.NotNil(t, stored.StartedAt)
}

func TestDeclineReleasesBothUsers(t *testing.T) {
	svc, repo, availability, _ := newPartnershipFixture(t)

	res := svc.Request(context.Background(), "alice", "bob", TypeP2P)
	require.True(t, res.Success)
	p := res.Data.(*Partnership)

	res = svc.Decline(context.Background(), p.ID, "bob")
	require.True(t, res.Success)

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, stored.Status)
	assert.Equal(t, "declined", stored.EndReason)
	assert.NotNil(t, stored.EndedAt)

	assert.True(t, availability.available["alice"])
	assert.True(t, availability.available["bob"])
}

func TestDeclineActivePartnershipRejected(t *testing.T) {
	svc, _, _, _ := newPartnershipFixture(t)

	p, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{}, true)
	require.NoError(t, err)

	res := svc.Decline(context.Background(), p.ID, "bob")
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeInvalidTransition, res.ErrorCode)
}

func TestEndReturnsUsersToPool(t *testing.T) {
	svc, _, availability, notifier := newPartnershipFixture(t)

	p, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{}, true)
	require.NoError(t, err)

	res := svc.End(context.Background(), p.ID, "alice", "goals completed")
	require.True(t, res.Success)

	assert.True(t, availability.available["alice"])
	assert.True(t, availability.available["bob"])

	// After ending, a fresh partnership can be requested.
	res = svc.Request(context.Background(), "alice", "bob", TypeP2P)
	assert.True(t, res.Success)

	var ended *notification.Notification
	for i := range notifier.sent {
		if notifier.sent[i].Type == notification.TypePartnershipEnded {
			ended = &notifier.sent[i]
		}
	}
	require.NotNil(t, ended)
	assert.Equal(t, "bob", ended.ToUserID)
}

func TestPauseResumeCycle(t *testing.T) {
	svc, repo, _, _ := newPartnershipFixture(t)

	p, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{}, true)
	require.NoError(t, err)

	res := svc.Pause(context.Background(), p.ID, "alice")
	require.True(t, res.Success)

	stored, _ := repo.GetByID(context.Background(), p.ID)
	assert.Equal(t, StatusPaused, stored.Status)

	// Resuming a partnership that is not paused fails.
	res = svc.Resume(context.Background(), p.ID, "bob")
	require.True(t, res.Success)

	stored, _ = repo.GetByID(context.Background(), p.ID)
	assert.Equal(t, StatusActive, stored.Status)

	res = svc.Resume(context.Background(), p.ID, "bob")
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeInvalidTransition, res.ErrorCode)
}

func TestTransitionsRejectNonParticipants(t *testing.T) {
	svc, _, _, _ := newPartnershipFixture(t)

	p, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{}, true)
	require.NoError(t, err)

	res := svc.End(context.Background(), p.ID, "mallory", "")
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeUnauthorized, res.ErrorCode)
}

func TestEndedPartnershipIsTerminal(t *testing.T) {
	svc, _, _, _ := newPartnershipFixture(t)

	p, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{}, true)
	require.NoError(t, err)
	require.True(t, svc.End(context.Background(), p.ID, "alice", "").Success)

	for _, op := range []func() *result.Result{
		func() *result.Result { return svc.Accept(context.Background(), p.ID, "bob") },
		func() *result.Result { return svc.Pause(context.Background(), p.ID, "bob") },
		func() *result.Result { return svc.End(context.Background(), p.ID, "bob", "") },
	} {
		res := op()
		assert.False(t, res.Success)
		assert.Equal(t, result.CodeInvalidTransition, res.ErrorCode)
	}
}

func TestGetForUserReadsThroughCache(t *testing.T) {
	svc, repo, _, _ := newPartnershipFixture(t)

	created, err := svc.Create(context.Background(), "alice", "bob", TypeP2P, MatchSnapshot{}, true)
	require.NoError(t, err)

	first, err := svc.GetForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, first.ID)

	// Mutate behind the cache; the stale value is served until invalidation.
	repo.byID[created.ID].EndReason = "mutated directly"

	second, err := svc.GetForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, second.EndReason)

	// A transition invalidates and the next read sees the store again.
	require.True(t, svc.Pause(context.Background(), created.ID, "alice").Success)

	third, err := svc.GetForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, third.Status)
}

func TestClaimRaceSecondRequestLoses(t *testing.T) {
	svc, _, _, _ := newPartnershipFixture(t)

	res := svc.Request(context.Background(), "alice", "bob", TypeP2P)
	require.True(t, res.Success)

	// Carol targeting bob finds him already claimed.
	res = svc.Request(context.Background(), "carol", "bob", TypeP2P)
	assert.False(t, res.Success)
	assert.Equal(t, result.CodeAlreadyPartnered, res.ErrorCode)
}

package partnership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"goalpact/internal/metrics"
	"goalpact/internal/result"
	"goalpact/internal/service/notification"
	"goalpact/internal/service/preference"
	"goalpact/pkg/cache"
	"goalpact/pkg/logger"

	"github.com/google/uuid"
)

const cacheTTL = 5 * time.Minute

// AvailabilityStore is the slice of the preference service the lifecycle
// manager needs: reserving users when a partnership is created and putting
// them back into the pool when it ends.
type AvailabilityStore interface {
	ClaimAvailability(ctx context.Context, userID string) error
	ReleaseAvailability(ctx context.Context, userID string) error
}

type Service struct {
	repo         Repository
	availability AvailabilityStore
	cache        cache.Cache
	notifier     notification.Notifier
	logger       logger.Logger
}

func NewService(repo Repository, availability AvailabilityStore, cache cache.Cache, notifier notification.Notifier, logger logger.Logger) *Service {
	return &Service{
		repo:         repo,
		availability: availability,
		cache:        cache,
		notifier:     notifier,
		logger:       logger,
	}
}

// Create pairs two users. Auto-approved partnerships start active;
// manually requested ones start pending and await acceptance. Both users'
// availability is claimed up front — even a pending request takes its
// parties out of the matching pool. The claim is a conditional true->false
// update, so the second of two racing match attempts loses cleanly.
func (s *Service) Create(ctx context.Context, user1ID, user2ID, partnershipType string, snapshot MatchSnapshot, autoApproved bool) (*Partnership, error) {
	if err := s.availability.ClaimAvailability(ctx, user1ID); err != nil {
		return nil, fmt.Errorf("claim requester availability: %w", err)
	}

	if err := s.availability.ClaimAvailability(ctx, user2ID); err != nil {
		s.release(ctx, user1ID)
		return nil, fmt.Errorf("claim partner availability: %w", err)
	}

	p := &Partnership{
		ID:                  uuid.New().String(),
		User1ID:             user1ID,
		User2ID:             user2ID,
		PartnershipType:     partnershipType,
		Status:              StatusPending,
		MatchingPreferences: snapshot,
		Metrics:             Metrics{},
	}

	if autoApproved {
		now := time.Now()
		p.Status = StatusActive
		p.StartedAt = &now
	}

	if err := s.repo.Insert(ctx, p); err != nil {
		s.release(ctx, user1ID)
		s.release(ctx, user2ID)
		s.logger.Error(ctx, "failed to create partnership",
			logger.Field{Key: "user1_id", Value: user1ID},
			logger.Field{Key: "user2_id", Value: user2ID},
			logger.Field{Key: "error", Value: err},
		)
		return nil, err
	}

	s.invalidate(ctx, p)
	metrics.PartnershipsCreated.WithLabelValues(partnershipType).Inc()

	s.logger.Info(ctx, "partnership created",
		logger.Field{Key: "partnership_id", Value: p.ID},
		logger.Field{Key: "type", Value: partnershipType},
		logger.Field{Key: "status", Value: p.Status},
	)

	return p, nil
}

// Request creates a pending partnership on behalf of requesterID. Both
// users must be free of any active-or-pending partnership.
func (s *Service) Request(ctx context.Context, requesterID, partnerID, partnershipType string) *result.Result {
	if requesterID == partnerID {
		return result.Fail(result.CodeOperationFailed, "cannot request a partnership with yourself")
	}

	for _, userID := range []string{requesterID, partnerID} {
		if _, err := s.GetForUser(ctx, userID); err == nil {
			return result.Fail(result.CodeAlreadyPartnered, "user already has an active or pending partnership")
		} else if !errors.Is(err, ErrPartnershipNotFound) {
			return s.operationFailed(ctx, "request partnership", err)
		}
	}

	p, err := s.Create(ctx, requesterID, partnerID, partnershipType, MatchSnapshot{RequesterID: requesterID}, false)
	if err != nil {
		if errors.Is(err, preference.ErrNotAvailable) {
			return result.Fail(result.CodeNotAvailable, "user is not available for matching")
		}
		if errors.Is(err, preference.ErrPreferencesNotFound) {
			return result.Fail(result.CodeNoPreferences, "user has no matching preferences")
		}
		return result.Fail(result.CodeCreationFailed, "failed to create partnership")
	}

	s.notifier.Notify(ctx, notification.Notification{
		PartnershipID: p.ID,
		FromUserID:    requesterID,
		ToUserID:      partnerID,
		Type:          notification.TypePartnershipRequested,
		Title:         "New partnership request",
		Message:       "Someone wants to be your accountability partner.",
		Priority:      notification.PriorityHigh,
	})

	return result.Ok(p, "partnership requested")
}

// Accept transitions a pending partnership to active.
func (s *Service) Accept(ctx context.Context, partnershipID, userID string) *result.Result {
	p, err := s.authorize(ctx, partnershipID, userID)
	if err != nil {
		return s.guardFailed(ctx, "accept partnership", err)
	}

	if err := s.transition(ctx, p, StatusActive); err != nil {
		return s.guardFailed(ctx, "accept partnership", err)
	}

	s.notifier.Notify(ctx, notification.Notification{
		PartnershipID: p.ID,
		FromUserID:    userID,
		ToUserID:      p.PartnerOf(userID),
		Type:          notification.TypePartnershipAccepted,
		Title:         "Partnership accepted",
		Message:       "Your partnership request was accepted. Time to set some goals!",
	})

	return result.Ok(p, "partnership accepted")
}

// Decline ends a pending partnership and releases both users back into
// the matching pool.
func (s *Service) Decline(ctx context.Context, partnershipID, userID string) *result.Result {
	p, err := s.authorize(ctx, partnershipID, userID)
	if err != nil {
		return s.guardFailed(ctx, "decline partnership", err)
	}

	if p.Status != StatusPending {
		return result.Fail(result.CodeInvalidTransition, "only pending partnerships can be declined")
	}

	p.EndReason = "declined"
	if err := s.transition(ctx, p, StatusEnded); err != nil {
		return s.guardFailed(ctx, "decline partnership", err)
	}

	s.notifier.Notify(ctx, notification.Notification{
		PartnershipID: p.ID,
		FromUserID:    userID,
		ToUserID:      p.PartnerOf(userID),
		Type:          notification.TypePartnershipDeclined,
		Title:         "Partnership declined",
		Message:       "Your partnership request was declined.",
		Priority:      notification.PriorityLow,
	})

	return result.Ok(p, "partnership declined")
}

// End terminates a partnership from any non-terminal state.
func (s *Service) End(ctx context.Context, partnershipID, userID, reason string) *result.Result {
	p, err := s.authorize(ctx, partnershipID, userID)
	if err != nil {
		return s.guardFailed(ctx, "end partnership", err)
	}

	p.EndReason = reason
	if err := s.transition(ctx, p, StatusEnded); err != nil {
		return s.guardFailed(ctx, "end partnership", err)
	}

	s.notifier.Notify(ctx, notification.Notification{
		PartnershipID: p.ID,
		FromUserID:    userID,
		ToUserID:      p.PartnerOf(userID),
		Type:          notification.TypePartnershipEnded,
		Title:         "Partnership ended",
		Message:       "Your partnership has ended. You are back in the matching pool.",
	})

	return result.Ok(p, "partnership ended")
}

// Pause suspends an active partnership without releasing either user.
func (s *Service) Pause(ctx context.Context, partnershipID, userID string) *result.Result {
	p, err := s.authorize(ctx, partnershipID, userID)
	if err != nil {
		return s.guardFailed(ctx, "pause partnership", err)
	}

	if err := s.transition(ctx, p, StatusPaused); err != nil {
		return s.guardFailed(ctx, "pause partnership", err)
	}

	return result.Ok(p, "partnership paused")
}

// Resume reactivates a paused partnership.
func (s *Service) Resume(ctx context.Context, partnershipID, userID string) *result.Result {
	p, err := s.authorize(ctx, partnershipID, userID)
	if err != nil {
		return s.guardFailed(ctx, "resume partnership", err)
	}

	if p.Status != StatusPaused {
		return result.Fail(result.CodeInvalidTransition, "only paused partnerships can be resumed")
	}

	if err := s.transition(ctx, p, StatusActive); err != nil {
		return s.guardFailed(ctx, "resume partnership", err)
	}

	return result.Ok(p, "partnership resumed")
}

// GetForUser returns the user's current active-or-pending partnership,
// read through the cache.
func (s *Service) GetForUser(ctx context.Context, userID string) (*Partnership, error) {
	key := userCacheKey(userID)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var p Partnership
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			return &p, nil
		}
	}

	p, err := s.repo.GetCurrentForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		_ = s.cache.Set(ctx, key, string(encoded), cacheTTL)
	}

	return p, nil
}

// GetByID returns a partnership the caller participates in.
func (s *Service) GetByID(ctx context.Context, partnershipID, userID string) (*Partnership, error) {
	return s.authorize(ctx, partnershipID, userID)
}

// UpdateMetrics writes the cached goal/task counters. Called by the
// shared-goal service after progress recomputes.
func (s *Service) UpdateMetrics(ctx context.Context, partnershipID string, m Metrics) error {
	if err := s.repo.UpdateMetrics(ctx, partnershipID, m); err != nil {
		return err
	}

	if p, err := s.repo.GetByID(ctx, partnershipID); err == nil {
		s.invalidate(ctx, p)
	}

	return nil
}

// transition validates the status edge, applies timestamps and side
// effects, and persists. Ending a partnership releases both users'
// availability.
func (s *Service) transition(ctx context.Context, p *Partnership, to string) error {
	if !validTransition(p.Status, to) {
		return ErrInvalidTransition
	}

	from := p.Status
	p.Status = to
	now := time.Now()

	switch to {
	case StatusActive:
		if p.StartedAt == nil {
			p.StartedAt = &now
		}
	case StatusEnded:
		p.EndedAt = &now
	}

	if err := s.repo.Update(ctx, p); err != nil {
		p.Status = from
		return err
	}

	if to == StatusEnded {
		s.release(ctx, p.User1ID)
		s.release(ctx, p.User2ID)
		metrics.PartnershipsEnded.Inc()
	}

	s.invalidate(ctx, p)

	s.logger.Info(ctx, "partnership transitioned",
		logger.Field{Key: "partnership_id", Value: p.ID},
		logger.Field{Key: "from", Value: from},
		logger.Field{Key: "to", Value: to},
	)

	return nil
}

func validTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusActive || to == StatusEnded
	case StatusActive:
		return to == StatusPaused || to == StatusEnded
	case StatusPaused:
		return to == StatusActive || to == StatusEnded
	default:
		return false
	}
}

func (s *Service) authorize(ctx context.Context, partnershipID, userID string) (*Partnership, error) {
	p, err := s.repo.GetByID(ctx, partnershipID)
	if err != nil {
		return nil, err
	}

	if !p.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	return p, nil
}

func (s *Service) release(ctx context.Context, userID string) {
	if err := s.availability.ReleaseAvailability(ctx, userID); err != nil {
		s.logger.Error(ctx, "failed to release availability",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "error", Value: err},
		)
	}
}

func (s *Service) invalidate(ctx context.Context, p *Partnership) {
	if err := s.cache.Del(ctx, userCacheKey(p.User1ID), userCacheKey(p.User2ID)); err != nil {
		s.logger.Warn(ctx, "failed to invalidate partnership cache",
			logger.Field{Key: "partnership_id", Value: p.ID},
			logger.Field{Key: "error", Value: err},
		)
	}
}

func (s *Service) guardFailed(ctx context.Context, op string, err error) *result.Result {
	switch {
	case errors.Is(err, ErrPartnershipNotFound):
		return result.Fail(result.CodeNotFound, "partnership not found")
	case errors.Is(err, ErrNotParticipant):
		return result.Fail(result.CodeUnauthorized, "not a participant of this partnership")
	case errors.Is(err, ErrInvalidTransition):
		return result.Fail(result.CodeInvalidTransition, "invalid partnership status transition")
	default:
		return s.operationFailed(ctx, op, err)
	}
}

func (s *Service) operationFailed(ctx context.Context, op string, err error) *result.Result {
	s.logger.Error(ctx, "partnership operation failed",
		logger.Field{Key: "operation", Value: op},
		logger.Field{Key: "error", Value: err},
	)
	return result.Fail(result.CodeOperationFailed, "operation failed")
}

func userCacheKey(userID string) string {
	return "partnership:user:" + userID
}

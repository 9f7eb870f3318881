package preference

import (
	"context"
	"errors"

	"goalpact/pkg/logger"
)

type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Upsert saves a user's matching preferences, creating the record on first
// save and updating it afterwards. New records start available for matching.
func (s *Service) Upsert(ctx context.Context, userID string, req UpsertRequest) (*Preferences, error) {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, ErrPreferencesNotFound) {
		s.logger.Error(ctx, "failed to look up preferences",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "error", Value: err},
		)
		return nil, err
	}

	prefs := &Preferences{
		UserID:               userID,
		PreferredPartnerType: req.PreferredPartnerType,
		SupportStyles:        req.SupportStyles,
		AvailableCategories:  req.AvailableCategories,
		GoalCategories:       req.GoalCategories,
		TimeCommitment:       req.TimeCommitment,
		ExperienceLevel:      req.ExperienceLevel,
		Timezone:             req.Timezone,
		Bio:                  req.Bio,
	}

	if existing == nil {
		prefs.IsAvailableForMatching = true
		if err := s.repo.Insert(ctx, prefs); err != nil {
			s.logger.Error(ctx, "failed to insert preferences",
				logger.Field{Key: "user_id", Value: userID},
				logger.Field{Key: "error", Value: err},
			)
			return nil, err
		}
		s.logger.Info(ctx, "preferences created", logger.Field{Key: "user_id", Value: userID})
		return prefs, nil
	}

	// Availability is never touched by a settings save; only matching
	// events flip it.
	prefs.IsAvailableForMatching = existing.IsAvailableForMatching
	prefs.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, prefs); err != nil {
		s.logger.Error(ctx, "failed to update preferences",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "error", Value: err},
		)
		return nil, err
	}

	s.logger.Info(ctx, "preferences updated", logger.Field{Key: "user_id", Value: userID})
	return prefs, nil
}

// Get returns a user's preferences. Absence is ErrPreferencesNotFound, which
// callers must handle explicitly.
func (s *Service) Get(ctx context.Context, userID string) (*Preferences, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// SetAvailability performs a targeted update of the matching flag.
func (s *Service) SetAvailability(ctx context.Context, userID string, available bool) error {
	if err := s.repo.SetAvailability(ctx, userID, available); err != nil {
		s.logger.Error(ctx, "failed to set availability",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "available", Value: available},
			logger.Field{Key: "error", Value: err},
		)
		return err
	}
	return nil
}

// ClaimAvailability reserves a user for a new partnership. It fails with
// ErrNotAvailable when the flag was already false, which is how concurrent
// match attempts against the same user are serialized.
func (s *Service) ClaimAvailability(ctx context.Context, userID string) error {
	return s.repo.ClaimAvailability(ctx, userID)
}

// ReleaseAvailability puts a user back into the matching pool.
func (s *Service) ReleaseAvailability(ctx context.Context, userID string) error {
	return s.SetAvailability(ctx, userID, true)
}

package matching

import (
	"context"
	"errors"
	"sort"

	"goalpact/internal/metrics"
	"goalpact/internal/result"
	"goalpact/internal/service/notification"
	"goalpact/internal/service/partnership"
	"goalpact/internal/service/preference"
	"goalpact/pkg/logger"
)

// PreferenceReader is the read side of the preference store the finder
// needs.
type PreferenceReader interface {
	Get(ctx context.Context, userID string) (*preference.Preferences, error)
}

// PartnershipManager is the slice of the lifecycle manager used by the
// find-and-create orchestration.
type PartnershipManager interface {
	GetForUser(ctx context.Context, userID string) (*partnership.Partnership, error)
	Create(ctx context.Context, user1ID, user2ID, partnershipType string, snapshot partnership.MatchSnapshot, autoApproved bool) (*partnership.Partnership, error)
}

type Service struct {
	repo         Repository
	prefs        PreferenceReader
	partnerships PartnershipManager
	notifier     notification.Notifier
	logger       logger.Logger
}

func NewService(repo Repository, prefs PreferenceReader, partnerships PartnershipManager, notifier notification.Notifier, logger logger.Logger) *Service {
	return &Service{
		repo:         repo,
		prefs:        prefs,
		partnerships: partnerships,
		notifier:     notifier,
		logger:       logger,
	}
}

// FindCandidates returns candidates for a requester. With criteria it
// applies the server-side filters plus client-side category and
// support-style overlap; without criteria it returns the whole pool
// (browse mode).
func (s *Service) FindCandidates(ctx context.Context, requesterID string, criteria *Criteria, requireAvailable bool) ([]*preference.Preferences, error) {
	filter := CandidateFilter{
		ExcludeUserID:    requesterID,
		RequireAvailable: requireAvailable,
	}
	if criteria != nil {
		filter.PartnerType = criteria.PartnerType
		filter.TimeCommitment = criteria.TimeCommitment
		filter.Categories = criteria.Categories
	}

	candidates, err := s.repo.FindCandidates(ctx, filter)
	if err != nil {
		s.logger.Error(ctx, "failed to query candidates",
			logger.Field{Key: "requester_id", Value: requesterID},
			logger.Field{Key: "error", Value: err},
		)
		return nil, err
	}

	if criteria == nil {
		return candidates, nil
	}

	// Client-side narrowing: a candidate must share at least one category
	// and one support style with the criteria.
	filtered := make([]*preference.Preferences, 0, len(candidates))
	for _, candidate := range candidates {
		if overlapRatio(criteria.Categories, candidate.AvailableCategories) == 0 {
			continue
		}
		if overlapRatio(criteria.SupportStyles, candidate.SupportStyles) == 0 {
			continue
		}
		filtered = append(filtered, candidate)
	}

	return filtered, nil
}

// FindBestMatch scores every available candidate against the requester
// and returns the top one, but only when its score clears the threshold.
// Equal scores keep store order, so the first-found candidate wins ties.
func (s *Service) FindBestMatch(ctx context.Context, userID string) (*ScoredCandidate, error) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !prefs.IsAvailableForMatching {
		return nil, preference.ErrNotAvailable
	}

	candidates, err := s.FindCandidates(ctx, userID, CriteriaFrom(prefs), true)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, ErrNoMatches
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, ScoredCandidate{
			Preferences: candidate,
			Score:       Score(prefs, candidate),
		})
		metrics.MatchesScored.Inc()
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	best := scored[0]
	if best.Score < MinCompatibilityScore {
		return nil, ErrLowCompatibility
	}

	return &best, nil
}

// FindAndCreatePartnership runs the full matching flow for a user: guard
// preconditions, try the expert extension, fall back to peer matching,
// create the partnership and notify both parties.
func (s *Service) FindAndCreatePartnership(ctx context.Context, userID string) *result.Result {
	if _, err := s.partnerships.GetForUser(ctx, userID); err == nil {
		return result.Fail(result.CodeAlreadyPartnered, "user already has an active or pending partnership")
	} else if !errors.Is(err, partnership.ErrPartnershipNotFound) {
		return s.operationFailed(ctx, userID, err)
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, preference.ErrPreferencesNotFound) {
			return result.Fail(result.CodeNoPreferences, "save your matching preferences first")
		}
		return s.operationFailed(ctx, userID, err)
	}

	if !prefs.IsAvailableForMatching {
		return result.Fail(result.CodeNotAvailable, "user is not available for matching")
	}

	match, err := s.resolveMatch(ctx, prefs)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoMatches):
			return result.Fail(result.CodeNoMatches, "no matching candidates found")
		case errors.Is(err, ErrLowCompatibility):
			return result.Fail(result.CodeLowCompatibility, "no candidate meets the compatibility threshold")
		default:
			return s.operationFailed(ctx, userID, err)
		}
	}

	partnershipType := partnership.TypeP2P
	if match.Expert != nil {
		partnershipType = partnership.TypePremiumExpert
	}

	snapshot := partnership.MatchSnapshot{
		RequesterID:        userID,
		CompatibilityScore: match.Score,
		Requester:          prefs,
		Partner:            match.Preferences,
	}

	p, err := s.partnerships.Create(ctx, userID, match.Preferences.UserID, partnershipType, snapshot, true)
	if err != nil {
		if errors.Is(err, preference.ErrNotAvailable) {
			// Lost the race for the candidate between scoring and claiming.
			return result.Fail(result.CodeNotAvailable, "candidate is no longer available")
		}
		s.logger.Error(ctx, "failed to create matched partnership",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "candidate_id", Value: match.Preferences.UserID},
			logger.Field{Key: "error", Value: err},
		)
		return result.Fail(result.CodeCreationFailed, "failed to create partnership")
	}

	if match.Expert != nil {
		if err := s.repo.IncrementClientsHelped(ctx, match.Expert.UserID); err != nil {
			s.logger.Error(ctx, "failed to increment expert client count",
				logger.Field{Key: "expert_id", Value: match.Expert.UserID},
				logger.Field{Key: "error", Value: err},
			)
		}
	}

	for _, member := range []string{p.User1ID, p.User2ID} {
		s.notifier.Notify(ctx, notification.Notification{
			PartnershipID: p.ID,
			ToUserID:      member,
			Type:          notification.TypePartnerAssigned,
			Title:         "You have a new accountability partner",
			Message:       "A partner was matched to you. Set up your first shared goal!",
			Priority:      notification.PriorityHigh,
		})
	}

	s.logger.Info(ctx, "partnership matched",
		logger.Field{Key: "partnership_id", Value: p.ID},
		logger.Field{Key: "type", Value: partnershipType},
		logger.Field{Key: "score", Value: match.Score},
	)

	return result.Ok(MatchResponse{Partnership: p, Score: match.Score}, "partner matched")
}

// resolveMatch prefers an expert when the requester has goal categories
// and is open to expert pairing; otherwise, or when no expert is found,
// it falls back to peer matching.
func (s *Service) resolveMatch(ctx context.Context, prefs *preference.Preferences) (*ScoredCandidate, error) {
	if len(prefs.GoalCategories) > 0 && prefs.PreferredPartnerType != preference.PartnerTypeP2P {
		expert, err := s.findBestExpert(ctx, prefs.GoalCategories)
		if err == nil {
			candidate := expertToPreferences(expert)
			return &ScoredCandidate{
				Preferences: candidate,
				Score:       Score(prefs, candidate),
				Expert:      expert,
			}, nil
		}
		if !errors.Is(err, ErrExpertNotFound) {
			return nil, err
		}
	}

	return s.FindBestMatch(ctx, prefs.UserID)
}

func (s *Service) operationFailed(ctx context.Context, userID string, err error) *result.Result {
	s.logger.Error(ctx, "matching operation failed",
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "error", Value: err},
	)
	return result.Fail(result.CodeOperationFailed, "operation failed")
}

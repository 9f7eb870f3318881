package matching

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"goalpact/internal/service/preference"
	"goalpact/pkg/db"

	"github.com/lib/pq"
)

type Repository interface {
	// FindCandidates returns preference records matching the server-side
	// filter, in stable store order. The requester is always excluded.
	FindCandidates(ctx context.Context, filter CandidateFilter) ([]*preference.Preferences, error)

	// FindExpertsByCategory returns available experts whose expertise
	// areas contain the category, ranked by rating then experience.
	FindExpertsByCategory(ctx context.Context, category string) ([]*ExpertProfile, error)

	// IncrementClientsHelped bumps an expert's client counter after a
	// partnership with them is created.
	IncrementClientsHelped(ctx context.Context, expertUserID string) error
}

type repository struct {
	db db.SQLExecutor
}

func NewRepository(database db.SQLExecutor) Repository {
	return &repository{
		db: database,
	}
}

// FindCandidates queries the preferences table with optional server-side
// predicates. Partner type and commitment filters admit the wildcard
// values ("either", "flexible") so compatible candidates are not lost
// before scoring. Category overlap uses the JSONB ?| operator.
func (r *repository) FindCandidates(ctx context.Context, filter CandidateFilter) ([]*preference.Preferences, error) {
	query := `
		SELECT user_id, preferred_partner_type, support_styles, available_categories,
		       goal_categories, time_commitment, experience_level, is_available_for_matching,
		       timezone, bio, last_active_at, created_at, updated_at
		FROM preferences
		WHERE user_id != $1
	`

	args := []interface{}{filter.ExcludeUserID}
	argIdx := 2

	if filter.RequireAvailable {
		query += " AND is_available_for_matching = TRUE"
	}

	if filter.PartnerType != "" && filter.PartnerType != preference.PartnerTypeEither {
		query += fmt.Sprintf(" AND preferred_partner_type IN ($%d, 'either')", argIdx)
		args = append(args, filter.PartnerType)
		argIdx++
	}

	if filter.TimeCommitment != "" && filter.TimeCommitment != preference.CommitmentFlexible {
		query += fmt.Sprintf(" AND time_commitment IN ($%d, 'flexible')", argIdx)
		args = append(args, filter.TimeCommitment)
		argIdx++
	}

	if len(filter.Categories) > 0 {
		query += fmt.Sprintf(" AND available_categories ?| $%d", argIdx)
		args = append(args, pq.Array(filter.Categories))
		argIdx++
	}

	query += " ORDER BY last_active_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]*preference.Preferences, 0)
	for rows.Next() {
		prefs, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, prefs)
	}

	return candidates, rows.Err()
}

// FindExpertsByCategory queries available experts for one category.
func (r *repository) FindExpertsByCategory(ctx context.Context, category string) ([]*ExpertProfile, error) {
	query := `
		SELECT user_id, expertise_areas, support_styles, years_of_experience, hourly_rate,
		       availability, rating, total_clients_helped, is_available_for_matching,
		       timezone, bio, created_at, updated_at
		FROM experts
		WHERE is_available_for_matching = TRUE
		  AND expertise_areas ? $1
		ORDER BY rating DESC, years_of_experience DESC
	`

	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("query experts: %w", err)
	}
	defer rows.Close()

	experts := make([]*ExpertProfile, 0)
	for rows.Next() {
		var expert ExpertProfile
		var areasJSON, stylesJSON, availJSON []byte
		var hourlyRate sql.NullFloat64
		var timezone, bio sql.NullString

		err := rows.Scan(
			&expert.UserID,
			&areasJSON,
			&stylesJSON,
			&expert.YearsOfExperience,
			&hourlyRate,
			&availJSON,
			&expert.Rating,
			&expert.TotalClientsHelped,
			&expert.IsAvailableForMatching,
			&timezone,
			&bio,
			&expert.CreatedAt,
			&expert.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan expert: %w", err)
		}

		expert.HourlyRate = hourlyRate.Float64
		expert.Timezone = timezone.String
		expert.Bio = bio.String

		if err := json.Unmarshal(areasJSON, &expert.ExpertiseAreas); err != nil {
			return nil, fmt.Errorf("unmarshal expertise areas: %w", err)
		}
		if err := json.Unmarshal(stylesJSON, &expert.SupportStyles); err != nil {
			return nil, fmt.Errorf("unmarshal support styles: %w", err)
		}
		if err := json.Unmarshal(availJSON, &expert.Availability); err != nil {
			return nil, fmt.Errorf("unmarshal availability: %w", err)
		}

		experts = append(experts, &expert)
	}

	return experts, rows.Err()
}

// IncrementClientsHelped bumps the capacity counter
func (r *repository) IncrementClientsHelped(ctx context.Context, expertUserID string) error {
	query := `UPDATE experts SET total_clients_helped = total_clients_helped + 1, updated_at = NOW() WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, expertUserID)
	if err != nil {
		return fmt.Errorf("increment clients helped: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrExpertNotFound
	}

	return nil
}

func scanCandidate(rows *sql.Rows) (*preference.Preferences, error) {
	var prefs preference.Preferences
	var stylesJSON, availJSON, goalsJSON []byte
	var timezone, bio sql.NullString

	err := rows.Scan(
		&prefs.UserID,
		&prefs.PreferredPartnerType,
		&stylesJSON,
		&availJSON,
		&goalsJSON,
		&prefs.TimeCommitment,
		&prefs.ExperienceLevel,
		&prefs.IsAvailableForMatching,
		&timezone,
		&bio,
		&prefs.LastActiveAt,
		&prefs.CreatedAt,
		&prefs.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	prefs.Timezone = timezone.String
	prefs.Bio = bio.String

	if err := json.Unmarshal(stylesJSON, &prefs.SupportStyles); err != nil {
		return nil, fmt.Errorf("unmarshal support styles: %w", err)
	}
	if err := json.Unmarshal(availJSON, &prefs.AvailableCategories); err != nil {
		return nil, fmt.Errorf("unmarshal available categories: %w", err)
	}
	if err := json.Unmarshal(goalsJSON, &prefs.GoalCategories); err != nil {
		return nil, fmt.Errorf("unmarshal goal categories: %w", err)
	}

	return &prefs, nil
}

package preference

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"goalpact/pkg/db"
)

type Repository interface {
	Insert(ctx context.Context, prefs *Preferences) error
	GetByUserID(ctx context.Context, userID string) (*Preferences, error)
	Update(ctx context.Context, prefs *Preferences) error
	SetAvailability(ctx context.Context, userID string, available bool) error

	// ClaimAvailability flips is_available_for_matching true -> false as a
	// single conditional update. ErrNotAvailable signals a lost race.
	ClaimAvailability(ctx context.Context, userID string) error
}

type repository struct {
	db db.SQLExecutor
}

func NewRepository(database db.SQLExecutor) Repository {
	return &repository{
		db: database,
	}
}

const prefsColumns = `user_id, preferred_partner_type, support_styles, available_categories,
	       goal_categories, time_commitment, experience_level, is_available_for_matching,
	       timezone, bio, last_active_at, created_at, updated_at`

// Insert creates a new preferences record
func (r *repository) Insert(ctx context.Context, prefs *Preferences) error {
	stylesJSON, availJSON, goalsJSON, err := marshalSets(prefs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO preferences (user_id, preferred_partner_type, support_styles, available_categories,
		                         goal_categories, time_commitment, experience_level, is_available_for_matching,
		                         timezone, bio, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING last_active_at, created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		prefs.UserID,
		prefs.PreferredPartnerType,
		stylesJSON,
		availJSON,
		goalsJSON,
		prefs.TimeCommitment,
		prefs.ExperienceLevel,
		prefs.IsAvailableForMatching,
		prefs.Timezone,
		prefs.Bio,
	).Scan(&prefs.LastActiveAt, &prefs.CreatedAt, &prefs.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert preferences: %w", err)
	}

	return nil
}

// GetByUserID retrieves a user's preferences
func (r *repository) GetByUserID(ctx context.Context, userID string) (*Preferences, error) {
	query := `SELECT ` + prefsColumns + ` FROM preferences WHERE user_id = $1`

	prefs, err := scanPreferences(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, ErrPreferencesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}

	return prefs, nil
}

// Update overwrites a user's preferences record
func (r *repository) Update(ctx context.Context, prefs *Preferences) error {
	stylesJSON, availJSON, goalsJSON, err := marshalSets(prefs)
	if err != nil {
		return err
	}

	query := `
		UPDATE preferences
		SET preferred_partner_type = $2, support_styles = $3, available_categories = $4,
		    goal_categories = $5, time_commitment = $6, experience_level = $7,
		    timezone = $8, bio = $9, last_active_at = NOW(), updated_at = NOW()
		WHERE user_id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		prefs.UserID,
		prefs.PreferredPartnerType,
		stylesJSON,
		availJSON,
		goalsJSON,
		prefs.TimeCommitment,
		prefs.ExperienceLevel,
		prefs.Timezone,
		prefs.Bio,
	)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}

	return requireRow(res, ErrPreferencesNotFound)
}

// SetAvailability performs a targeted update of the availability flag
func (r *repository) SetAvailability(ctx context.Context, userID string, available bool) error {
	query := `UPDATE preferences SET is_available_for_matching = $2, updated_at = NOW() WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, userID, available)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}

	return requireRow(res, ErrPreferencesNotFound)
}

// ClaimAvailability atomically flips availability true -> false
func (r *repository) ClaimAvailability(ctx context.Context, userID string) error {
	query := `
		UPDATE preferences
		SET is_available_for_matching = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND is_available_for_matching = TRUE
	`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("claim availability: %w", err)
	}

	return requireRow(res, ErrNotAvailable)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPreferences(row rowScanner) (*Preferences, error) {
	var prefs Preferences
	var stylesJSON, availJSON, goalsJSON []byte
	var timezone, bio sql.NullString

	err := row.Scan(
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

func marshalSets(prefs *Preferences) (styles, avail, goals []byte, err error) {
	if styles, err = json.Marshal(prefs.SupportStyles); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal support styles: %w", err)
	}
	if avail, err = json.Marshal(prefs.AvailableCategories); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal available categories: %w", err)
	}
	if goals, err = json.Marshal(prefs.GoalCategories); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal goal categories: %w", err)
	}
	return styles, avail, goals, nil
}

func requireRow(res sql.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

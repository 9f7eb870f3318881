package partnership

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"goalpact/pkg/db"
)

type Repository interface {
	Insert(ctx context.Context, p *Partnership) error
	GetByID(ctx context.Context, id string) (*Partnership, error)

	// GetCurrentForUser returns the single active-or-pending partnership
	// the user participates in, or ErrPartnershipNotFound.
	GetCurrentForUser(ctx context.Context, userID string) (*Partnership, error)

	Update(ctx context.Context, p *Partnership) error
	UpdateMetrics(ctx context.Context, id string, m Metrics) error
}

type repository struct {
	db db.SQLExecutor
}

func NewRepository(database db.SQLExecutor) Repository {
	return &repository{
		db: database,
	}
}

const partnershipColumns = `id, user1_id, user2_id, partnership_type, status, matched_at,
	       started_at, ended_at, end_reason, matching_preferences, metrics, created_at, updated_at`

func (r *repository) Insert(ctx context.Context, p *Partnership) error {
	snapshotJSON, err := json.Marshal(p.MatchingPreferences)
	if err != nil {
		return fmt.Errorf("marshal matching preferences: %w", err)
	}

	metricsJSON, err := json.Marshal(p.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		INSERT INTO partnerships (id, user1_id, user2_id, partnership_type, status, matched_at,
		                          started_at, matching_preferences, metrics)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6, $7, $8)
		RETURNING matched_at, created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		p.ID,
		p.User1ID,
		p.User2ID,
		p.PartnershipType,
		p.Status,
		p.StartedAt,
		snapshotJSON,
		metricsJSON,
	).Scan(&p.MatchedAt, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert partnership: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Partnership, error) {
	query := `SELECT ` + partnershipColumns + ` FROM partnerships WHERE id = $1`

	p, err := scanPartnership(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrPartnershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query partnership: %w", err)
	}

	return p, nil
}

func (r *repository) GetCurrentForUser(ctx context.Context, userID string) (*Partnership, error) {
	query := `SELECT ` + partnershipColumns + `
		FROM partnerships
		WHERE (user1_id = $1 OR user2_id = $1)
		  AND status IN ('pending', 'active', 'paused')
		ORDER BY matched_at DESC
		LIMIT 1`

	p, err := scanPartnership(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, ErrPartnershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query current partnership: %w", err)
	}

	return p, nil
}

func (r *repository) Update(ctx context.Context, p *Partnership) error {
	snapshotJSON, err := json.Marshal(p.MatchingPreferences)
	if err != nil {
		return fmt.Errorf("marshal matching preferences: %w", err)
	}

	metricsJSON, err := json.Marshal(p.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		UPDATE partnerships
		SET status = $2, started_at = $3, ended_at = $4, end_reason = $5,
		    matching_preferences = $6, metrics = $7, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Status,
		p.StartedAt,
		p.EndedAt,
		nullableString(p.EndReason),
		snapshotJSON,
		metricsJSON,
	)
	if err != nil {
		return fmt.Errorf("update partnership: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrPartnershipNotFound
	}

	return nil
}

func (r *repository) UpdateMetrics(ctx context.Context, id string, m Metrics) error {
	metricsJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `UPDATE partnerships SET metrics = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, metricsJSON)
	if err != nil {
		return fmt.Errorf("update partnership metrics: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrPartnershipNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPartnership(row rowScanner) (*Partnership, error) {
	var p Partnership
	var snapshotJSON, metricsJSON []byte
	var startedAt, endedAt sql.NullTime
	var endReason sql.NullString

	err := row.Scan(
		&p.ID,
		&p.User1ID,
		&p.User2ID,
		&p.PartnershipType,
		&p.Status,
		&p.MatchedAt,
		&startedAt,
		&endedAt,
		&endReason,
		&snapshotJSON,
		&metricsJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		p.StartedAt = &startedAt.Time
	}
	if endedAt.Valid {
		p.EndedAt = &endedAt.Time
	}
	p.EndReason = endReason.String

	if err := json.Unmarshal(snapshotJSON, &p.MatchingPreferences); err != nil {
		return nil, fmt.Errorf("unmarshal matching preferences: %w", err)
	}
	if err := json.Unmarshal(metricsJSON, &p.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}

	return &p, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

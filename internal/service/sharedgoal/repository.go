package sharedgoal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"goalpact/pkg/db"
)

type Repository interface {
	// Goal operations
	InsertGoal(ctx context.Context, goal *SharedGoal) error
	GetGoalByID(ctx context.Context, goalID string) (*SharedGoal, error)
	ListGoalsByPartnership(ctx context.Context, partnershipID string) ([]*SharedGoal, error)
	UpdateGoalProgress(ctx context.Context, goalID string, progress Progress, isCompleted bool) error

	// Task operations
	InsertTask(ctx context.Context, task *PartnerTask) error
	GetTaskByID(ctx context.Context, taskID string) (*PartnerTask, error)
	ListTasksByGoal(ctx context.Context, goalID string) ([]*PartnerTask, error)
	UpdateTask(ctx context.Context, task *PartnerTask) error

	// ListPendingVerification returns tasks awaiting the given user's
	// verification decision.
	ListPendingVerification(ctx context.Context, partnerID string) ([]*PartnerTask, error)

	// AggregateForPartnership counts goals and tasks across the whole
	// partnership for stats and the cached partnership metrics.
	AggregateForPartnership(ctx context.Context, partnershipID string) (*Aggregate, error)
}

// Aggregate is the partnership-wide goal/task census.
type Aggregate struct {
	TotalGoals          int
	CompletedGoals      int
	TotalTasks          int
	VerifiedTasks       int
	PendingVerification int
}

type repository struct {
	db db.SQLExecutor
}

func NewRepository(database db.SQLExecutor) Repository {
	return &repository{
		db: database,
	}
}

const goalColumns = `id, partnership_id, owner_id, partner_id, title, description, category,
	       deadline, progress, is_completed, created_at, updated_at`

const taskColumns = `id, goal_id, partnership_id, owner_id, partner_id, title, description,
	       status, verification_status, verification_required, due_date, marked_done_at,
	       verified_at, verification_evidence, verification_history, created_at, updated_at`

func (r *repository) InsertGoal(ctx context.Context, goal *SharedGoal) error {
	progressJSON, err := json.Marshal(goal.Progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	query := `
		INSERT INTO shared_goals (id, partnership_id, owner_id, partner_id, title, description,
		                          category, deadline, progress, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		goal.ID,
		goal.PartnershipID,
		goal.OwnerID,
		goal.PartnerID,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Deadline,
		progressJSON,
		goal.IsCompleted,
	).Scan(&goal.CreatedAt, &goal.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert shared goal: %w", err)
	}

	return nil
}

func (r *repository) GetGoalByID(ctx context.Context, goalID string) (*SharedGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM shared_goals WHERE id = $1`

	goal, err := scanGoal(r.db.QueryRowContext(ctx, query, goalID))
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query shared goal: %w", err)
	}

	return goal, nil
}

func (r *repository) ListGoalsByPartnership(ctx context.Context, partnershipID string) ([]*SharedGoal, error) {
	query := `SELECT ` + goalColumns + `
		FROM shared_goals
		WHERE partnership_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, partnershipID)
	if err != nil {
		return nil, fmt.Errorf("query shared goals: %w", err)
	}
	defer rows.Close()

	goals := make([]*SharedGoal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shared goal: %w", err)
		}
		goals = append(goals, goal)
	}

	return goals, rows.Err()
}

func (r *repository) UpdateGoalProgress(ctx context.Context, goalID string, progress Progress, isCompleted bool) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	query := `UPDATE shared_goals SET progress = $2, is_completed = $3, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, goalID, progressJSON, isCompleted)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}

func (r *repository) InsertTask(ctx context.Context, task *PartnerTask) error {
	historyJSON, err := json.Marshal(task.VerificationHistory)
	if err != nil {
		return fmt.Errorf("marshal verification history: %w", err)
	}

	query := `
		INSERT INTO partner_tasks (id, goal_id, partnership_id, owner_id, partner_id, title,
		                           description, status, verification_status, verification_required,
		                           due_date, verification_evidence, verification_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.GoalID,
		task.PartnershipID,
		task.OwnerID,
		task.PartnerID,
		task.Title,
		task.Description,
		task.Status,
		task.VerificationStatus,
		task.VerificationRequired,
		task.DueDate,
		nullableString(task.VerificationEvidence),
		historyJSON,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert partner task: %w", err)
	}

	return nil
}

func (r *repository) GetTaskByID(ctx context.Context, taskID string) (*PartnerTask, error) {
	query := `SELECT ` + taskColumns + ` FROM partner_tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, taskID))
	if err == sql.ErrNoRows {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query partner task: %w", err)
	}

	return task, nil
}

func (r *repository) ListTasksByGoal(ctx context.Context, goalID string) ([]*PartnerTask, error) {
	query := `SELECT ` + taskColumns + `
		FROM partner_tasks
		WHERE goal_id = $1
		ORDER BY created_at ASC`

	return r.queryTasks(ctx, query, goalID)
}

func (r *repository) UpdateTask(ctx context.Context, task *PartnerTask) error {
	historyJSON, err := json.Marshal(task.VerificationHistory)
	if err != nil {
		return fmt.Errorf("marshal verification history: %w", err)
	}

	query := `
		UPDATE partner_tasks
		SET status = $2, verification_status = $3, marked_done_at = $4, verified_at = $5,
		    verification_evidence = $6, verification_history = $7, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Status,
		task.VerificationStatus,
		task.MarkedDoneAt,
		task.VerifiedAt,
		nullableString(task.VerificationEvidence),
		historyJSON,
	)
	if err != nil {
		return fmt.Errorf("update partner task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *repository) ListPendingVerification(ctx context.Context, partnerID string) ([]*PartnerTask, error) {
	query := `SELECT ` + taskColumns + `
		FROM partner_tasks
		WHERE partner_id = $1
		  AND status = 'marked_done'
		  AND verification_status = 'pending'
		ORDER BY marked_done_at ASC`

	return r.queryTasks(ctx, query, partnerID)
}

func (r *repository) AggregateForPartnership(ctx context.Context, partnershipID string) (*Aggregate, error) {
	var agg Aggregate

	goalsQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_completed)
		FROM shared_goals
		WHERE partnership_id = $1
	`

	if err := r.db.QueryRowContext(ctx, goalsQuery, partnershipID).Scan(&agg.TotalGoals, &agg.CompletedGoals); err != nil {
		return nil, fmt.Errorf("aggregate goals: %w", err)
	}

	tasksQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'verified'),
		       COUNT(*) FILTER (WHERE status = 'marked_done' AND verification_status = 'pending')
		FROM partner_tasks
		WHERE partnership_id = $1
	`

	if err := r.db.QueryRowContext(ctx, tasksQuery, partnershipID).Scan(&agg.TotalTasks, &agg.VerifiedTasks, &agg.PendingVerification); err != nil {
		return nil, fmt.Errorf("aggregate tasks: %w", err)
	}

	return &agg, nil
}

func (r *repository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*PartnerTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query partner tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*PartnerTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGoal(row rowScanner) (*SharedGoal, error) {
	var goal SharedGoal
	var progressJSON []byte
	var description sql.NullString
	var deadline sql.NullTime

	err := row.Scan(
		&goal.ID,
		&goal.PartnershipID,
		&goal.OwnerID,
		&goal.PartnerID,
		&goal.Title,
		&description,
		&goal.Category,
		&deadline,
		&progressJSON,
		&goal.IsCompleted,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	goal.Description = description.String
	if deadline.Valid {
		goal.Deadline = &deadline.Time
	}

	if err := json.Unmarshal(progressJSON, &goal.Progress); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}

	return &goal, nil
}

func scanTask(row rowScanner) (*PartnerTask, error) {
	var task PartnerTask
	var historyJSON []byte
	var description, evidence sql.NullString
	var dueDate, markedDoneAt, verifiedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.GoalID,
		&task.PartnershipID,
		&task.OwnerID,
		&task.PartnerID,
		&task.Title,
		&description,
		&task.Status,
		&task.VerificationStatus,
		&task.VerificationRequired,
		&dueDate,
		&markedDoneAt,
		&verifiedAt,
		&evidence,
		&historyJSON,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.VerificationEvidence = evidence.String
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if markedDoneAt.Valid {
		task.MarkedDoneAt = &markedDoneAt.Time
	}
	if verifiedAt.Valid {
		task.VerifiedAt = &verifiedAt.Time
	}

	if err := json.Unmarshal(historyJSON, &task.VerificationHistory); err != nil {
		return nil, fmt.Errorf("unmarshal verification history: %w", err)
	}

	return &task, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"goalpact/pkg/db"
)

var ErrNotificationNotFound = errors.New("notification not found")

// OutboxRow is a pending delivery leased by the outbox worker.
type OutboxRow struct {
	ID             int64
	NotificationID string
	AttemptCount   int
}

type Repository interface {
	// InsertWithOutbox writes the notification and its outbox row in one
	// transaction, so a stored notification is always eventually delivered.
	InsertWithOutbox(ctx context.Context, n *Notification, outboxID int64) error

	GetByID(ctx context.Context, id string) (*Notification, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkDelivered(ctx context.Context, id string, emailSent, pushSent bool) error

	// Outbox operations, used by the worker inside its own transaction.
	LeaseOutboxBatch(ctx context.Context, tx *sql.Tx, batchSize int) ([]OutboxRow, error)
	MarkOutboxDone(ctx context.Context, tx *sql.Tx, id int64) error
	MarkOutboxFailed(ctx context.Context, tx *sql.Tx, id int64) error

	WithTransaction(ctx context.Context, isolation sql.IsolationLevel, fn db.TxFunc) error
}

type repository struct {
	db db.SQLExecutor
}

func NewRepository(database db.SQLExecutor) Repository {
	return &repository{
		db: database,
	}
}

const notificationColumns = `id, partnership_id, from_user_id, to_user_id, type, title, message,
	       related_goal_id, related_task_id, priority, email_sent, push_sent, is_read, created_at`

func (r *repository) InsertWithOutbox(ctx context.Context, n *Notification, outboxID int64) error {
	return r.db.WithTransaction(ctx, sql.LevelReadCommitted, func(ctx context.Context, tx *sql.Tx) error {
		insertNotification := `
			INSERT INTO notifications (id, partnership_id, from_user_id, to_user_id, type, title, message,
			                           related_goal_id, related_task_id, priority)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at
		`

		err := tx.QueryRowContext(ctx, insertNotification,
			n.ID,
			nullable(n.PartnershipID),
			nullable(n.FromUserID),
			n.ToUserID,
			n.Type,
			n.Title,
			n.Message,
			nullable(n.RelatedGoalID),
			nullable(n.RelatedTaskID),
			n.Priority,
		).Scan(&n.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}

		insertOutbox := `
			INSERT INTO notification_outbox (id, notification_id, status, next_attempt_at)
			VALUES ($1, $2, 'pending', NOW())
		`

		if _, err := tx.ExecContext(ctx, insertOutbox, outboxID, n.ID); err != nil {
			return fmt.Errorf("insert outbox row: %w", err)
		}

		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query notification: %w", err)
	}

	return n, nil
}

func (r *repository) ListForUser(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, id, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND to_user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

func (r *repository) MarkDelivered(ctx context.Context, id string, emailSent, pushSent bool) error {
	query := `UPDATE notifications SET email_sent = email_sent OR $2, push_sent = push_sent OR $3 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, emailSent, pushSent); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

func (r *repository) LeaseOutboxBatch(ctx context.Context, tx *sql.Tx, batchSize int) ([]OutboxRow, error) {
	query := `
		SELECT id, notification_id, attempt_count
		FROM notification_outbox
		WHERE status = 'pending' AND next_attempt_at <= NOW()
		ORDER BY id ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`

	rows, err := tx.QueryContext(ctx, query, batchSize)
	if err != nil {
		return nil, fmt.Errorf("lease outbox batch: %w", err)
	}
	defer rows.Close()

	var batch []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.NotificationID, &row.AttemptCount); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, row)
	}

	return batch, rows.Err()
}

func (r *repository) MarkOutboxDone(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `UPDATE notification_outbox SET status = 'done', updated_at = NOW() WHERE id = $1`

	_, err := tx.ExecContext(ctx, query, id)
	return err
}

// MarkOutboxFailed backs off exponentially, capped at five minutes.
func (r *repository) MarkOutboxFailed(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `
		UPDATE notification_outbox
		SET attempt_count = attempt_count + 1,
		    next_attempt_at = NOW() + make_interval(secs => LEAST(POWER(2, attempt_count + 1), 300)),
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query, id)
	return err
}

func (r *repository) WithTransaction(ctx context.Context, isolation sql.IsolationLevel, fn db.TxFunc) error {
	return r.db.WithTransaction(ctx, isolation, fn)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*Notification, error) {
	var n Notification
	var partnershipID, fromUserID, goalID, taskID sql.NullString

	err := row.Scan(
		&n.ID,
		&partnershipID,
		&fromUserID,
		&n.ToUserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&goalID,
		&taskID,
		&n.Priority,
		&n.EmailSent,
		&n.PushSent,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.PartnershipID = partnershipID.String
	n.FromUserID = fromUserID.String
	n.RelatedGoalID = goalID.String
	n.RelatedTaskID = taskID.String

	return &n, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

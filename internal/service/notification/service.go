package notification

import (
	"context"

	"goalpact/internal/metrics"
	"goalpact/pkg/logger"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const defaultListLimit = 50

// Service implements Notifier. Notify is fire-and-forget: every failure is
// logged and swallowed so a notification problem can never roll back or
// block the state transition that triggered it.
type Service struct {
	repo   Repository
	node   *snowflake.Node
	logger logger.Logger
}

func NewService(repo Repository, node *snowflake.Node, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		node:   node,
		logger: logger,
	}
}

// Notify enqueues a notification for asynchronous delivery.
func (s *Service) Notify(ctx context.Context, n Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}

	if err := s.repo.InsertWithOutbox(ctx, &n, s.node.Generate().Int64()); err != nil {
		s.logger.Error(ctx, "failed to enqueue notification",
			logger.Field{Key: "to_user_id", Value: n.ToUserID},
			logger.Field{Key: "type", Value: n.Type},
			logger.Field{Key: "error", Value: err},
		)
		return
	}

	metrics.NotificationsEnqueued.WithLabelValues(n.Type).Inc()
}

// ListForUser returns a user's most recent notifications.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, defaultListLimit)
	if err != nil {
		s.logger.Error(ctx, "failed to list notifications",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "error", Value: err},
		)
		return nil, err
	}

	return notifications, nil
}

// MarkRead flags a notification as viewed by its recipient.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		s.logger.Error(ctx, "failed to mark notification read",
			logger.Field{Key: "notification_id", Value: id},
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "error", Value: err},
		)
		return err
	}
	return nil
}

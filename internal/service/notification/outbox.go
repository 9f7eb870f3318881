package notification

import (
	"context"
	"database/sql"
	"time"

	"goalpact/internal/metrics"
	"goalpact/pkg/logger"
)

// WorkerConfig controls batch size and polling cadence.
type WorkerConfig struct {
	BatchSize int
	Interval  time.Duration
}

// Worker drains the notification outbox: it leases pending rows, pushes
// them through the Sender, and records per-channel delivery on the
// notification. Failed rows back off and are retried on a later cycle.
type Worker struct {
	repo   Repository
	sender Sender
	cfg    WorkerConfig
	logger logger.Logger
}

func NewWorker(repo Repository, sender Sender, cfg WorkerConfig, logger logger.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Worker{
		repo:   repo,
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// Run polls until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info(ctx, "outbox worker starting",
		logger.Field{Key: "batch_size", Value: w.cfg.BatchSize},
		logger.Field{Key: "interval", Value: w.cfg.Interval},
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "outbox worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				// Per-row backoff prevents hot-looping; just log.
				w.logger.Error(ctx, "outbox cycle failed", logger.Field{Key: "error", Value: err})
			}
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) error {
	return w.repo.WithTransaction(ctx, sql.LevelReadCommitted, func(ctx context.Context, tx *sql.Tx) error {
		batch, err := w.repo.LeaseOutboxBatch(ctx, tx, w.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, row := range batch {
			if err := w.deliver(ctx, row); err != nil {
				metrics.OutboxDeliveryFailures.Inc()
				if e := w.repo.MarkOutboxFailed(ctx, tx, row.ID); e != nil {
					w.logger.Error(ctx, "failed to mark outbox row failed",
						logger.Field{Key: "outbox_id", Value: row.ID},
						logger.Field{Key: "error", Value: e},
					)
				}
				continue
			}
			if e := w.repo.MarkOutboxDone(ctx, tx, row.ID); e != nil {
				w.logger.Error(ctx, "failed to mark outbox row done",
					logger.Field{Key: "outbox_id", Value: row.ID},
					logger.Field{Key: "error", Value: e},
				)
			}
		}

		return nil
	})
}

func (w *Worker) deliver(ctx context.Context, row OutboxRow) error {
	n, err := w.repo.GetByID(ctx, row.NotificationID)
	if err != nil {
		return err
	}

	if err := w.sender.SendEmail(ctx, n); err != nil {
		return err
	}
	if err := w.sender.SendPush(ctx, n); err != nil {
		return err
	}

	return w.repo.MarkDelivered(ctx, n.ID, true, true)
}

// LogSender is the default Sender: it only logs. Real email and push
// transports plug in here.
type LogSender struct {
	Logger logger.Logger
}

func (s *LogSender) SendEmail(ctx context.Context, n *Notification) error {
	s.Logger.Info(ctx, "email notification",
		logger.Field{Key: "to_user_id", Value: n.ToUserID},
		logger.Field{Key: "type", Value: n.Type},
		logger.Field{Key: "title", Value: n.Title},
	)
	return nil
}

func (s *LogSender) SendPush(ctx context.Context, n *Notification) error {
	s.Logger.Info(ctx, "push notification",
		logger.Field{Key: "to_user_id", Value: n.ToUserID},
		logger.Field{Key: "type", Value: n.Type},
		logger.Field{Key: "title", Value: n.Title},
	)
	return nil
}

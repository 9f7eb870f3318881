package sharedgoal

import (
	"context"
	"errors"
	"math"
	"time"

	"goalpact/internal/metrics"
	"goalpact/internal/result"
	"goalpact/internal/service/notification"
	"goalpact/internal/service/partnership"
	"goalpact/pkg/logger"

	"github.com/google/uuid"
)

// PartnershipManager is the slice of the lifecycle manager the goal/task
// service needs: resolving the caller's partnership and keeping its cached
// metrics current.
type PartnershipManager interface {
	GetForUser(ctx context.Context, userID string) (*partnership.Partnership, error)
	GetByID(ctx context.Context, partnershipID, userID string) (*partnership.Partnership, error)
	UpdateMetrics(ctx context.Context, partnershipID string, m partnership.Metrics) error
}

type Service struct {
	repo         Repository
	partnerships PartnershipManager
	notifier     notification.Notifier
	logger       logger.Logger
}

func NewService(repo Repository, partnerships PartnershipManager, notifier notification.Notifier, logger logger.Logger) *Service {
	return &Service{
		repo:         repo,
		partnerships: partnerships,
		notifier:     notifier,
		logger:       logger,
	}
}

// CreateGoal creates a shared goal under the caller's active partnership.
// The caller becomes the owner; the other member becomes the verifier.
func (s *Service) CreateGoal(ctx context.Context, userID string, req CreateGoalRequest) *result.Result {
	p, err := s.partnerships.GetForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, partnership.ErrPartnershipNotFound) {
			return result.Fail(result.CodeNotFound, "no active partnership")
		}
		return s.operationFailed(ctx, "create goal", err)
	}

	if p.Status != partnership.StatusActive {
		return result.Fail(result.CodeInvalidTransition, "partnership is not active")
	}

	goal := &SharedGoal{
		ID:            uuid.New().String(),
		PartnershipID: p.ID,
		OwnerID:       userID,
		PartnerID:     p.PartnerOf(userID),
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Deadline:      req.Deadline,
		Progress:      Progress{LastUpdated: time.Now()},
	}

	if err := s.repo.InsertGoal(ctx, goal); err != nil {
		return s.operationFailed(ctx, "create goal", err)
	}

	s.syncPartnershipMetrics(ctx, p.ID)

	s.notifier.Notify(ctx, notification.Notification{
		PartnershipID: p.ID,
		FromUserID:    userID,
		ToUserID:      goal.PartnerID,
		Type:          notification.TypeGoalCreated,
		Title:         "New shared goal",
		Message:       "Your partner created the goal \"" + goal.Title + "\".",
		RelatedGoalID: goal.ID,
	})

	s.logger.Info(ctx, "shared goal created",
		logger.Field{Key: "goal_id", Value: goal.ID},
		logger.Field{Key: "partnership_id", Value: p.ID},
	)

	return result.Ok(goal, "goal created")
}

// ListGoals returns the goals of the caller's current partnership.
func (s *Service) ListGoals(ctx context.Context, userID string) ([]*SharedGoal, error) {
	p, err := s.partnerships.GetForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, partnership.ErrPartnershipNotFound) {
			return nil, ErrNoPartnership
		}
		return nil, err
	}

	return s.repo.ListGoalsByPartnership(ctx, p.ID)
}

// CreateTask adds a task under a goal. The caller becomes the task owner
// and the other partnership member its verifier, regardless of who owns
// the goal.
func (s *Service) CreateTask(ctx context.Context, userID, goalID string, req CreateTaskRequest) *result.Result {
	goal, err := s.authorizeGoal(ctx, goalID, userID)
	if err != nil {
		return s.goalGuardFailed(ctx, "create task", err)
	}

	verificationStatus := VerificationNotRequired
	if req.VerificationRequired {
		verificationStatus = VerificationPending
	}

	partnerID := goal.PartnerID
	if userID != goal.OwnerID {
		partnerID = goal.OwnerID
	}

	task := &PartnerTask{
		ID:                   uuid.New().String(),
		GoalID:               goal.ID,
		PartnershipID:        goal.PartnershipID,
		OwnerID:              userID,
		PartnerID:            partnerID,
		Title:                req.Title,
		Description:          req.Description,
		Status:               TaskStatusPending,
		VerificationStatus:   verificationStatus,
		VerificationRequired: req.VerificationRequired,
		DueDate:              req.DueDate,
		VerificationHistory:  []VerificationEntry{},
	}

	if err := s.repo.InsertTask(ctx, task); err != nil {
		return s.operationFailed(ctx, "create task", err)
	}

	if err := s.recomputeProgress(ctx, goal.ID); err != nil {
		s.logger.Error(ctx, "failed to recompute goal progress",
			logger.Field{Key: "goal_id", Value: goal.ID},
			logger.Field{Key: "error", Value: err},
		)
	}

	return result.Ok(task, "task created")
}

// ListTasks returns the tasks under a goal the caller participates in.
func (s *Service) ListTasks(ctx context.Context, userID, goalID string) ([]*PartnerTask, error) {
	if _, err := s.authorizeGoal(ctx, goalID, userID); err != nil {
		return nil, err
	}

	return s.repo.ListTasksByGoal(ctx, goalID)
}

// StartTask moves a pending task into progress. Owner only.
func (s *Service) StartTask(ctx context.Context, taskID, userID string) *result.Result {
	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return s.taskGuardFailed(ctx, "start task", err)
	}

	if task.OwnerID != userID {
		return result.Fail(result.CodeUnauthorized, ErrNotOwner.Error())
	}

	if task.Status != TaskStatusPending {
		return result.Fail(result.CodeInvalidTransition, ErrInvalidTaskState.Error())
	}

	task.Status = TaskStatusInProgress
	task.VerificationHistory = append(task.VerificationHistory, VerificationEntry{
		Action: "started",
		By:     userID,
		At:     time.Now(),
	})

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return s.operationFailed(ctx, "start task", err)
	}

	return result.Ok(task, "task started")
}

// MarkDone is the owner's completion claim. Without required verification
// the task goes straight to verified; with it, the task waits in
// marked_done until the partner decides. Either way exactly one history
// entry is appended and the goal's progress is recomputed.
func (s *Service) MarkDone(ctx context.Context, taskID, userID string, req MarkDoneRequest) *result.Result {
	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return s.taskGuardFailed(ctx, "mark task done", err)
	}

	if task.OwnerID != userID {
		return result.Fail(result.CodeUnauthorized, ErrNotOwner.Error())
	}

	if task.Status != TaskStatusPending && task.Status != TaskStatusInProgress {
		return result.Fail(result.CodeInvalidTransition, ErrInvalidTaskState.Error())
	}

	now := time.Now()
	if req.Evidence != "" {
		task.VerificationEvidence = req.Evidence
	}

	if task.VerificationRequired {
		task.Status = TaskStatusMarkedDone
		task.VerificationStatus = VerificationPending
		task.MarkedDoneAt = &now
	} else {
		task.Status = TaskStatusVerified
		task.VerificationStatus = VerificationApproved
		task.MarkedDoneAt = &now
		task.VerifiedAt = &now
	}

	task.VerificationHistory = append(task.VerificationHistory, VerificationEntry{
		Action:  "marked_done",
		By:      userID,
		At:      now,
		Comment: req.Comment,
	})

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return s.operationFailed(ctx, "mark task done", err)
	}

	if err := s.recomputeProgress(ctx, task.GoalID); err != nil {
		s.logger.Error(ctx, "failed to recompute goal progress",
			logger.Field{Key: "goal_id", Value: task.GoalID},
			logger.Field{Key: "error", Value: err},
		)
	}

	notificationType := notification.TypeTaskCompleted
	title := "Task completed"
	message := "Your partner completed the task \"" + task.Title + "\"."
	if task.VerificationRequired {
		notificationType = notification.TypeVerificationRequested
		title = "Verification requested"
		message = "Your partner marked \"" + task.Title + "\" as done and needs your verification."
	}

	s.notifier.Notify(ctx, notification.Notification{
		PartnershipID: task.PartnershipID,
		FromUserID:    userID,
		ToUserID:      task.PartnerID,
		Type:          notificationType,
		Title:         title,
		Message:       message,
		RelatedGoalID: task.GoalID,
		RelatedTaskID: task.ID,
		Priority:      notification.PriorityHigh,
	})

	return result.Ok(task, "task marked done")
}

// Verify records the partner's decision on a marked-done task.
func (s *Service) Verify(ctx context.Context, taskID, userID string, req VerifyRequest) *result.Result {
	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return s.taskGuardFailed(ctx, "verify task", err)
	}

	if task.PartnerID != userID {
		return result.Fail(result.CodeUnauthorized, ErrNotVerifier.Error())
	}

	if task.Status != TaskStatusMarkedDone || task.VerificationStatus != VerificationPending {
		return result.Fail(result.CodeInvalidTransition, ErrInvalidTaskState.Error())
	}

	now := time.Now()
	var historyAction string

	switch req.Action {
	case ActionApprove:
		task.Status = TaskStatusVerified
		task.VerificationStatus = VerificationApproved
		task.VerifiedAt = &now
		historyAction = "approved"
	case ActionReject:
		task.Status = TaskStatusRejected
		task.VerificationStatus = VerificationRejected
		historyAction = "rejected"
	case ActionRequestRedo:
		// Task returns to the owner's queue.
		task.Status = TaskStatusPending
		task.VerificationStatus = VerificationRedoRequested
		task.MarkedDoneAt = nil
		historyAction = "redo_requested"
	default:
		return result.Fail(result.CodeInvalidTransition, "unknown verification action")
	}

	task.VerificationHistory = append(task.VerificationHistory, VerificationEntry{
		Action:  historyAction,
		By:      userID,
		At:      now,
		Comment: req.Comment,
	})

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return s.operationFailed(ctx, "verify task", err)
	}

	metrics.TasksVerified.WithLabelValues(req.Action).Inc()

	if err := s.recomputeProgress(ctx, task.GoalID); err != nil {
		s.logger.Error(ctx, "failed to recompute goal progress",
			logger.Field{Key: "goal_id", Value: task.GoalID},
			logger.Field{Key: "error", Value: err},
		)
	}

	s.notifier.Notify(ctx, notification.Notification{
		PartnershipID: task.PartnershipID,
		FromUserID:    userID,
		ToUserID:      task.OwnerID,
		Type:          notification.TypeVerificationResolved,
		Title:         "Task " + historyAction,
		Message:       "Your partner " + historyAction + " the task \"" + task.Title + "\".",
		RelatedGoalID: task.GoalID,
		RelatedTaskID: task.ID,
	})

	s.logger.Info(ctx, "task verification resolved",
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "action", Value: req.Action},
	)

	return result.Ok(task, "verification recorded")
}

// PendingVerification lists tasks waiting on the caller's decision.
func (s *Service) PendingVerification(ctx context.Context, userID string) ([]*PartnerTask, error) {
	return s.repo.ListPendingVerification(ctx, userID)
}

// Stats returns the aggregate goal/task view for a partnership the caller
// participates in.
func (s *Service) Stats(ctx context.Context, partnershipID, userID string) (*PartnershipStats, error) {
	if _, err := s.partnerships.GetByID(ctx, partnershipID, userID); err != nil {
		return nil, err
	}

	agg, err := s.repo.AggregateForPartnership(ctx, partnershipID)
	if err != nil {
		return nil, err
	}

	return &PartnershipStats{
		TotalGoals:          agg.TotalGoals,
		CompletedGoals:      agg.CompletedGoals,
		TotalTasks:          agg.TotalTasks,
		VerifiedTasks:       agg.VerifiedTasks,
		PendingVerification: agg.PendingVerification,
		CompletionRate:      completionRate(agg.VerifiedTasks, agg.TotalTasks),
	}, nil
}

// recomputeProgress re-reads every task under the goal and writes the
// aggregate back. A full re-scan, not an incremental counter: task counts
// per goal are small and the re-scan self-heals any interleaved update.
func (s *Service) recomputeProgress(ctx context.Context, goalID string) error {
	tasks, err := s.repo.ListTasksByGoal(ctx, goalID)
	if err != nil {
		return err
	}

	verified := 0
	for _, task := range tasks {
		if task.Status == TaskStatusVerified {
			verified++
		}
	}

	progress := Progress{
		TotalTasks:     len(tasks),
		CompletedTasks: verified,
		VerifiedTasks:  verified,
		LastUpdated:    time.Now(),
	}
	isCompleted := len(tasks) > 0 && verified == len(tasks)

	if err := s.repo.UpdateGoalProgress(ctx, goalID, progress, isCompleted); err != nil {
		return err
	}

	if goal, err := s.repo.GetGoalByID(ctx, goalID); err == nil {
		s.syncPartnershipMetrics(ctx, goal.PartnershipID)
	}

	return nil
}

// syncPartnershipMetrics refreshes the cached counters on the partnership.
// Failures only log: the metrics are advisory and self-heal on the next
// mutation.
func (s *Service) syncPartnershipMetrics(ctx context.Context, partnershipID string) {
	agg, err := s.repo.AggregateForPartnership(ctx, partnershipID)
	if err != nil {
		s.logger.Error(ctx, "failed to aggregate partnership metrics",
			logger.Field{Key: "partnership_id", Value: partnershipID},
			logger.Field{Key: "error", Value: err},
		)
		return
	}

	m := partnership.Metrics{
		TotalGoals:     agg.TotalGoals,
		CompletedGoals: agg.CompletedGoals,
		TotalTasks:     agg.TotalTasks,
		VerifiedTasks:  agg.VerifiedTasks,
	}

	if err := s.partnerships.UpdateMetrics(ctx, partnershipID, m); err != nil {
		s.logger.Error(ctx, "failed to update partnership metrics",
			logger.Field{Key: "partnership_id", Value: partnershipID},
			logger.Field{Key: "error", Value: err},
		)
	}
}

func (s *Service) authorizeGoal(ctx context.Context, goalID, userID string) (*SharedGoal, error) {
	goal, err := s.repo.GetGoalByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if goal.OwnerID != userID && goal.PartnerID != userID {
		return nil, ErrNotParticipant
	}

	return goal, nil
}

func (s *Service) goalGuardFailed(ctx context.Context, op string, err error) *result.Result {
	switch {
	case errors.Is(err, ErrGoalNotFound):
		return result.Fail(result.CodeNotFound, ErrGoalNotFound.Error())
	case errors.Is(err, ErrNotParticipant):
		return result.Fail(result.CodeUnauthorized, ErrNotParticipant.Error())
	default:
		return s.operationFailed(ctx, op, err)
	}
}

func (s *Service) taskGuardFailed(ctx context.Context, op string, err error) *result.Result {
	if errors.Is(err, ErrTaskNotFound) {
		return result.Fail(result.CodeNotFound, ErrTaskNotFound.Error())
	}
	return s.operationFailed(ctx, op, err)
}

func (s *Service) operationFailed(ctx context.Context, op string, err error) *result.Result {
	s.logger.Error(ctx, "shared goal operation failed",
		logger.Field{Key: "operation", Value: op},
		logger.Field{Key: "error", Value: err},
	)
	return result.Fail(result.CodeOperationFailed, "operation failed")
}

// completionRate rounds half-up, returning 0 for an empty task set.
func completionRate(verified, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(verified)/float64(total)*100 + 0.5))
}

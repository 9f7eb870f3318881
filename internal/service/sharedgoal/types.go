package sharedgoal

import "time"

// Enums
const (
	// Task statuses
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusMarkedDone = "marked_done"
	TaskStatusVerified   = "verified"
	TaskStatusRejected   = "rejected"

	// Verification statuses
	VerificationNotRequired   = "not_required"
	VerificationPending       = "pending"
	VerificationApproved      = "approved"
	VerificationRejected      = "rejected"
	VerificationRedoRequested = "redo_requested"

	// Verification actions
	ActionApprove     = "approve"
	ActionReject      = "reject"
	ActionRequestRedo = "request_redo"
)

// Progress is the derived aggregate cached on a goal. It is recomputed
// from the goal's tasks on every task mutation and never hand-edited.
type Progress struct {
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	VerifiedTasks  int       `json:"verified_tasks"`
	LastUpdated    time.Time `json:"last_updated"`
}

// SharedGoal belongs to exactly one partnership. The owner creates tasks
// under it; the partner verifies them.
type SharedGoal struct {
	ID            string     `json:"id"`
	PartnershipID string     `json:"partnership_id"`
	OwnerID       string     `json:"owner_id"`
	PartnerID     string     `json:"partner_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Progress      Progress   `json:"progress"`
	IsCompleted   bool       `json:"is_completed"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// VerificationEntry is one record in a task's append-only audit trail.
// Every status transition appends exactly one entry.
type VerificationEntry struct {
	Action  string    `json:"action"`
	By      string    `json:"by"`
	At      time.Time `json:"at"`
	Comment string    `json:"comment,omitempty"`
}

// PartnerTask is an actionable unit under a shared goal. Its owner marks
// it done; the partner verifies when verification is required.
type PartnerTask struct {
	ID                   string              `json:"id"`
	GoalID               string              `json:"goal_id"`
	PartnershipID        string              `json:"partnership_id"`
	OwnerID              string              `json:"owner_id"`
	PartnerID            string              `json:"partner_id"`
	Title                string              `json:"title"`
	Description          string              `json:"description,omitempty"`
	Status               string              `json:"status"`
	VerificationStatus   string              `json:"verification_status"`
	VerificationRequired bool                `json:"verification_required"`
	DueDate              *time.Time          `json:"due_date,omitempty"`
	MarkedDoneAt         *time.Time          `json:"marked_done_at,omitempty"`
	VerifiedAt           *time.Time          `json:"verified_at,omitempty"`
	VerificationEvidence string              `json:"verification_evidence,omitempty"`
	VerificationHistory  []VerificationEntry `json:"verification_history"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// PartnershipStats is the aggregate view over a partnership's goals and
// tasks.
type PartnershipStats struct {
	TotalGoals          int `json:"total_goals"`
	CompletedGoals      int `json:"completed_goals"`
	TotalTasks          int `json:"total_tasks"`
	VerifiedTasks       int `json:"verified_tasks"`
	PendingVerification int `json:"pending_verification"`

	// CompletionRate is verified tasks over total tasks as a rounded
	// percentage; zero when there are no tasks.
	CompletionRate int `json:"completion_rate"`
}

// DTOs
type CreateGoalRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=255"`
	Description string     `json:"description" binding:"omitempty,max=2000"`
	Category    string     `json:"category" binding:"required,min=2,max=100"`
	Deadline    *time.Time `json:"deadline"`
}

type CreateTaskRequest struct {
	Title                string     `json:"title" binding:"required,min=3,max=255"`
	Description          string     `json:"description" binding:"omitempty,max=2000"`
	VerificationRequired bool       `json:"verification_required"`
	DueDate              *time.Time `json:"due_date"`
}

type MarkDoneRequest struct {
	Evidence string `json:"evidence" binding:"omitempty,max=2000"`
	Comment  string `json:"comment" binding:"omitempty,max=1000"`
}

type VerifyRequest struct {
	Action  string `json:"action" binding:"required,oneof=approve reject request_redo"`
	Comment string `json:"comment" binding:"omitempty,max=1000"`
}

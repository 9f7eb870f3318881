package notification

import (
	"context"
	"time"
)

// Enums
const (
	// Notification types
	TypePartnerAssigned       = "partner_assigned"
	TypePartnershipRequested  = "partnership_requested"
	TypePartnershipAccepted   = "partnership_accepted"
	TypePartnershipDeclined   = "partnership_declined"
	TypePartnershipEnded      = "partnership_ended"
	TypeGoalCreated           = "goal_created"
	TypeTaskCompleted         = "task_completed"
	TypeVerificationRequested = "verification_requested"
	TypeVerificationResolved  = "verification_resolved"

	// Priorities
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification is a delivery request for one user. The core writes these
// records; rendering and actual delivery happen downstream of the outbox.
type Notification struct {
	ID            string    `json:"id"`
	PartnershipID string    `json:"partnership_id,omitempty"`
	FromUserID    string    `json:"from_user_id,omitempty"`
	ToUserID      string    `json:"to_user_id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	RelatedGoalID string    `json:"related_goal_id,omitempty"`
	RelatedTaskID string    `json:"related_task_id,omitempty"`
	Priority      string    `json:"priority"`
	EmailSent     bool      `json:"email_sent"`
	PushSent      bool      `json:"push_sent"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

// Notifier is the fire-and-forget side channel the core services call on
// key transitions. Implementations must never let a delivery problem
// surface to the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Sender delivers a notification over the concrete channels. Real email
// and push transports live outside this service.
type Sender interface {
	SendEmail(ctx context.Context, n *Notification) error
	SendPush(ctx context.Context, n *Notification) error
}

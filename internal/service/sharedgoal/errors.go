package sharedgoal

import "errors"

var (
	ErrGoalNotFound = errors.New("shared goal not found")
	ErrTaskNotFound = errors.New("partner task not found")

	// ErrNotOwner guards owner-only actions (marking a task done).
	ErrNotOwner = errors.New("only the task owner can perform this action")

	// ErrNotVerifier guards partner-only actions (verifying a task).
	ErrNotVerifier = errors.New("only the verifying partner can perform this action")

	ErrNotParticipant   = errors.New("user is not a participant of this goal")
	ErrInvalidTaskState = errors.New("task is not in a state that allows this transition")
	ErrNoPartnership    = errors.New("user has no active partnership")
)

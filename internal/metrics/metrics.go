// Package metrics holds the service's prometheus instruments, exposed on
// the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PartnershipsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalpact_partnerships_created_total",
		Help: "Partnerships created, by type.",
	}, []string{"type"})

	PartnershipsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goalpact_partnerships_ended_total",
		Help: "Partnerships transitioned to ended.",
	})

	MatchesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goalpact_matches_scored_total",
		Help: "Candidate pairs run through the compatibility scorer.",
	})

	TasksVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalpact_tasks_verified_total",
		Help: "Task verification decisions, by action.",
	}, []string{"action"})

	NotificationsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalpact_notifications_enqueued_total",
		Help: "Notifications written to the outbox, by type.",
	}, []string{"type"})

	OutboxDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goalpact_outbox_delivery_failures_total",
		Help: "Outbox rows whose delivery attempt failed.",
	})
)

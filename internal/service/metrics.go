package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	outcomeAccepted      = "accepted"
	outcomeSecurityCheck = "security_check_failed"
	outcomeInvalid       = "validation_failed"
	outcomeStoreError    = "persistence_failed"
)

var submissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_submissions_total",
		Help: "Review form submissions by outcome.",
	},
	[]string{"outcome"},
)

var statusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_status_changes_total",
		Help: "Moderation status transitions by target status.",
	},
	[]string{"status"},
)

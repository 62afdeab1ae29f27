package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSent   = "sent"
	resultFailed = "failed"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_notifications_total",
		Help: "Operator notifications by sender and result.",
	},
	[]string{"sender", "result"},
)

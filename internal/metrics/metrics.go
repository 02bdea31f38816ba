package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Scheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminders_scheduled_total",
		Help: "Notifications scheduled.",
	})
	Cancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminders_cancelled_total",
		Help: "Scheduled notifications cancelled before firing.",
	})
	Delivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_delivered_total",
		Help: "Fired notifications by delivery result.",
	}, []string{"result"})
	Rearmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminders_rearmed_total",
		Help: "Repeating reminders moved to their next occurrence.",
	})
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_store_errors_total",
		Help: "Failed reminder store operations.",
	}, []string{"op"})
)

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ticksTotal — счётчик выполненных тиков.
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncline_scheduler_ticks_total",
		Help: "Total scheduler ticks executed",
	})

	// dueSelected — счётчик расписаний, отобранных в тиках.
	dueSelected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncline_scheduler_due_selected_total",
		Help: "Total due schedules selected for dispatch",
	})

	// cleanupRemoved — счётчик расписаний, удалённых cleanup.
	cleanupRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syncline_cleanup_removed_total",
		Help: "Total schedules removed by cleanup",
	})
)

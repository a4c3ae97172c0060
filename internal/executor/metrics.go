package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// syncsTotal — счётчик попыток синхронизации по результату:
	// success, failure, disabled.
	syncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncline_syncs_total",
		Help: "Total sync attempts by result",
	}, []string{"result"})
)

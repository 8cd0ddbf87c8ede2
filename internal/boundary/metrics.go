package boundary

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casbridge_operations_total",
			Help: "The total number of boundary calls, by operation and outcome",
		},
		[]string{"op", "status"},
	)
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "casbridge_operation_duration_seconds",
			Help: "The duration of boundary calls in seconds",
		},
		[]string{"op"},
	)
	liveValues = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "casbridge_live_values",
			Help: "Current number of value handles that have not been freed",
		},
		func() float64 { return float64(LiveValues()) },
	)
)

package goals

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cascadeCompletions = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "goal_cascade_completions_total",
		Help: "Goals completed automatically by their last milestone",
	},
)

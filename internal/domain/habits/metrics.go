package habits

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	checkInOK        = "ok"
	checkInDuplicate = "duplicate"
	checkInFailed    = "failed"
)

var checkIns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habit_checkins_total",
		Help: "Habit check-ins by outcome",
	},
	[]string{"result"},
)

package muscat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsAccepted counts histories that reached a detector, by scattering order
	eventsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muscat_events_accepted_total",
		Help: "Total accepted neutron histories by scattering order",
	}, []string{"order"}) // "noabs", "1".."5"

	// eventsRejected counts histories that left the sample before the detector leg
	eventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muscat_events_rejected_total",
		Help: "Total rejected neutron histories by the leg that missed",
	}, []string{"leg"}) // "interior", "final", "qss"

	// interceptCalls counts track/solid intersection tests
	interceptCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muscat_intercept_calls_total",
		Help: "Total track-sample intersection tests",
	})

	// entryRetries counts initial tracks that missed the sample
	entryRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muscat_entry_retries_total",
		Help: "Total initial tracks regenerated because they missed the sample",
	})

	// detectorDuration tracks the time to simulate every bin of one detector
	detectorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "muscat_detector_duration_seconds",
		Help:    "Time to simulate all bins of one detector",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	// runsTotal counts simulation runs by outcome
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muscat_runs_total",
		Help: "Total simulation runs by result",
	}, []string{"result"}) // "ok", "error", "cancelled"
)

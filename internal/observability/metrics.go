package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityRecordedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "analysis_engine",
		Subsystem: "activity",
		Name:      "last_activity_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity interval recorded.",
	})
	conflictRaisedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "analysis_engine",
		Subsystem: "activity",
		Name:      "last_conflict_raised_timestamp_seconds",
		Help:      "Unix timestamp of the most recent goal conflict message.",
	})
)

func init() {
	prometheus.MustRegister(activityRecordedGauge, conflictRaisedGauge)
}

// RecordActivityRecorded updates the activity watermark gauge.
func RecordActivityRecorded(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityRecordedGauge.Set(float64(ts.Unix()))
}

// RecordConflictRaised updates the conflict watermark gauge.
func RecordConflictRaised(ts time.Time) {
	if ts.IsZero() {
		return
	}
	conflictRaisedGauge.Set(float64(ts.Unix()))
}

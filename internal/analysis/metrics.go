package analysis

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsAnalyzedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analysis_engine",
		Subsystem: "engine",
		Name:      "events_analyzed_total",
		Help:      "Number of activity events analyzed, by event type.",
	}, []string{"event_type"})

	conflictsRaisedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "analysis_engine",
		Subsystem: "engine",
		Name:      "conflicts_raised_total",
		Help:      "Number of goal conflict messages emitted.",
	})

	cacheLookupCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analysis_engine",
		Subsystem: "engine",
		Name:      "cache_lookups_total",
		Help:      "Last-activity cache lookups, by outcome.",
	}, []string{"outcome"})

	duplicatesFoldedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "analysis_engine",
		Subsystem: "engine",
		Name:      "duplicates_folded_total",
		Help:      "Number of events folded into the prior activity without a store write.",
	})
)

func init() {
	prometheus.MustRegister(eventsAnalyzedCounter, conflictsRaisedCounter, cacheLookupCounter, duplicatesFoldedCounter)
}

func recordNetworkEvent()    { eventsAnalyzedCounter.WithLabelValues("network").Inc() }
func recordAppEvent()        { eventsAnalyzedCounter.WithLabelValues("app").Inc() }
func recordConflictRaised()  { conflictsRaisedCounter.Inc() }
func recordCacheHit()        { cacheLookupCounter.WithLabelValues("hit").Inc() }
func recordCacheMiss()       { cacheLookupCounter.WithLabelValues("miss").Inc() }
func recordDuplicateFolded() { duplicatesFoldedCounter.Inc() }

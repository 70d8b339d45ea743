package analysis

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestEngineCountersAccumulate(t *testing.T) {
	eventsBefore := counterValue(t, eventsAnalyzedCounter.WithLabelValues("network"))
	foldedBefore := counterValue(t, duplicatesFoldedCounter)
	hitsBefore := counterValue(t, cacheLookupCounter.WithLabelValues("hit"))

	recordNetworkEvent()
	recordNetworkEvent()
	recordDuplicateFolded()
	recordCacheHit()

	require.Equal(t, eventsBefore+2, counterValue(t, eventsAnalyzedCounter.WithLabelValues("network")))
	require.Equal(t, foldedBefore+1, counterValue(t, duplicatesFoldedCounter))
	require.Equal(t, hitsBefore+1, counterValue(t, cacheLookupCounter.WithLabelValues("hit")))
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGaugesStartAtZero(t *testing.T) {
	ConnectedDisplays.Set(0)
	ConnectedProducers.Set(0)

	assert.Equal(t, 0.0, testutil.ToFloat64(ConnectedDisplays))
	assert.Equal(t, 0.0, testutil.ToFloat64(ConnectedProducers))
}

func TestBroadcastsTotalLabels(t *testing.T) {
	before := testutil.ToFloat64(BroadcastsTotal.WithLabelValues("card:display"))
	BroadcastsTotal.WithLabelValues("card:display").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(BroadcastsTotal.WithLabelValues("card:display")))
}

func TestConnectionGauges(t *testing.T) {
	ConnectedDisplays.Set(0)
	ConnectedDisplays.Inc()
	ConnectedDisplays.Inc()
	ConnectedDisplays.Dec()
	assert.Equal(t, 1.0, testutil.ToFloat64(ConnectedDisplays))
}

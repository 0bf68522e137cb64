package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestBookingMetricsOutcomes(t *testing.T) {
	m := NewBookingMetrics(prometheus.NewRegistry())

	m.ObserveBooked(2, 0.05)
	m.ObserveBooked(1, 0.02)
	m.ObserveConflict()
	m.ObserveRejected()
	m.ObserveReleased(3)

	assert.Equal(t, float64(3), counterValue(t, m.slotsBooked))
	assert.Equal(t, float64(1), counterValue(t, m.capacityConflict))
	assert.Equal(t, float64(3), counterValue(t, m.releasesTotal))
	assert.Equal(t, float64(2), counterValue(t, m.bookingsTotal.WithLabelValues("booked")))
	assert.Equal(t, float64(1), counterValue(t, m.bookingsTotal.WithLabelValues("conflict")))
}

func TestReconcilerMetricsOutcomeLabel(t *testing.T) {
	m := NewReconcilerMetrics(prometheus.NewRegistry())

	m.ObserveRun(5, 0.1, nil)
	m.ObserveRun(0, 0.1, errors.New("boom"))

	assert.Equal(t, float64(5), counterValue(t, m.rowsCompleted))
	assert.Equal(t, float64(1), counterValue(t, m.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), counterValue(t, m.runsTotal.WithLabelValues("error")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var b *BookingMetrics
	var r *ReconcilerMetrics

	assert.NotPanics(t, func() {
		b.ObserveBooked(1, 0.01)
		b.ObserveConflict()
		b.ObserveRejected()
		b.ObserveReleased(1)
		r.ObserveRun(1, 0.01, nil)
	})
}

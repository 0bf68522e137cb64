package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics tracks booking-path outcomes. A nil receiver is safe so
// callers can run without metrics wired.
type BookingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	slotsBooked      prometheus.Counter
	capacityConflict prometheus.Counter
	releasesTotal    prometheus.Counter
	bookingDuration  prometheus.Histogram
}

// NewBookingMetrics registers booking metrics on reg, or on the default
// registerer when reg is nil.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tnvr",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"outcome"}),
		slotsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tnvr",
			Name:      "slots_booked_total",
			Help:      "Appointment slots successfully booked.",
		}),
		capacityConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tnvr",
			Name:      "booking_capacity_conflicts_total",
			Help:      "Bookings rejected because remaining capacity was exhausted.",
		}),
		releasesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tnvr",
			Name:      "slots_released_total",
			Help:      "Appointment slots released (deleted).",
		}),
		bookingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tnvr",
			Name:      "booking_duration_seconds",
			Help:      "Wall time of the booking transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.bookingsTotal, m.slotsBooked, m.capacityConflict,
		m.releasesTotal, m.bookingDuration)
	return m
}

func (m *BookingMetrics) ObserveBooked(slots int, seconds float64) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues("booked").Inc()
	m.slotsBooked.Add(float64(slots))
	m.bookingDuration.Observe(seconds)
}

func (m *BookingMetrics) ObserveRejected() {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues("rejected").Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues("conflict").Inc()
	m.capacityConflict.Inc()
}

func (m *BookingMetrics) ObserveReleased(slots int64) {
	if m == nil {
		return
	}
	m.releasesTotal.Add(float64(slots))
}

// ReconcilerMetrics tracks the status reconciliation sweep.
type ReconcilerMetrics struct {
	runsTotal     *prometheus.CounterVec
	rowsCompleted prometheus.Counter
	sweepDuration prometheus.Histogram
}

func NewReconcilerMetrics(reg prometheus.Registerer) *ReconcilerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &ReconcilerMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tnvr",
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation sweeps by outcome.",
		}, []string{"outcome"}),
		rowsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tnvr",
			Name:      "reconcile_rows_completed_total",
			Help:      "Appointments flipped to Completed by the sweep.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tnvr",
			Name:      "reconcile_sweep_duration_seconds",
			Help:      "Wall time of one reconciliation sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.runsTotal, m.rowsCompleted, m.sweepDuration)
	return m
}

func (m *ReconcilerMetrics) ObserveRun(rows int64, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.rowsCompleted.Add(float64(rows))
	m.sweepDuration.Observe(seconds)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "busbooking_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busbooking_bookings_created_total",
		Help: "Bookings created, by booking type.",
	}, []string{"type"})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busbooking_bookings_cancelled_total",
		Help: "Bookings cancelled by customers.",
	})

	BookingsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busbooking_bookings_expired_total",
		Help: "Pending bookings released by the reservation sweep.",
	})

	SchedulesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busbooking_schedules_created_total",
		Help: "Bus schedules created, single and bulk.",
	})

	PaymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busbooking_payment_verifications_total",
		Help: "Payment signature verifications by result.",
	}, []string{"result"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "busbooking_reservation_sweep_duration_seconds",
		Help:    "Duration of one reservation expiry sweep.",
		Buckets: prometheus.DefBuckets,
	})
)

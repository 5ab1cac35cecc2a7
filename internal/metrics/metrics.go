package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salonhub"

// Availability outcomes.
const (
	OutcomeOpen    = "open"
	OutcomeClosed  = "closed"
	OutcomeInvalid = "invalid"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	availabilityComputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_computations_total",
			Help:      "Availability computations by outcome.",
		},
		[]string{"outcome"},
	)

	availabilitySlots = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "availability_slots",
			Help:      "Number of slots returned per availability computation.",
			Buckets:   []float64{0, 1, 2, 4, 8, 12, 16, 24, 32, 48},
		},
	)

	appointmentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_events_total",
			Help:      "Appointment lifecycle events by type.",
		},
		[]string{"type"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, availabilityComputations, availabilitySlots, appointmentEvents)
	})
}

// IncHTTP increments the request counter for an endpoint and status code.
func IncHTTP(endpoint string, status int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// ObserveAvailability records one computation. slots is ignored unless outcome is OutcomeOpen.
func ObserveAvailability(outcome string, slots int) {
	availabilityComputations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOpen {
		availabilitySlots.Observe(float64(slots))
	}
}

func IncAppointmentEvent(eventType string) {
	appointmentEvents.WithLabelValues(eventType).Inc()
}

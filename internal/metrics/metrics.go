package metrics

import (
	"sync"

	"facilitydesk/internal/events"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "facilitydesk"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_events_total",
			Help:      "Booking lifecycle events by type and resource.",
		},
		[]string{"type", "resource"},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submit_conflicts_total",
			Help:      "Bookings created on a day that already had active bookings.",
		},
		[]string{"resource"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_changes_total",
			Help:      "Status transitions by target status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingEvents, bookingConflicts, statusChanges)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// SubscribeEvents counts booking events published on bus.
func SubscribeEvents(bus *events.EventBus) {
	bus.Subscribe(events.AllEvents, ObserveEvent)
}

// ObserveEvent updates the booking counters for one event.
func ObserveEvent(e *events.Event) error {
	var payload events.BookingEventPayload
	if err := e.Decode(&payload); err != nil {
		return err
	}

	bookingEvents.WithLabelValues(e.Type, string(payload.Resource)).Inc()
	switch e.Type {
	case events.EventBookingCreated:
		if payload.Conflicts > 0 {
			bookingConflicts.WithLabelValues(string(payload.Resource)).Inc()
		}
	case events.EventBookingStatusChanged:
		statusChanges.WithLabelValues(string(payload.Status)).Inc()
	}
	return nil
}

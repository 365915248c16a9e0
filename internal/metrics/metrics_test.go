package metrics

import (
	"testing"

	"facilitydesk/internal/events"
	"facilitydesk/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("test_endpoint")
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("test_endpoint")))
}

func TestSubscribeEvents(t *testing.T) {
	bus := events.NewEventBus()
	SubscribeEvents(bus)

	created := testutil.ToFloat64(bookingEvents.WithLabelValues(events.EventBookingCreated, "vehicle"))
	conflicts := testutil.ToFloat64(bookingConflicts.WithLabelValues("vehicle"))
	completed := testutil.ToFloat64(statusChanges.WithLabelValues("completed"))

	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{
		Resource:  models.ResourceVehicle,
		Conflicts: 2,
	}))
	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{
		Resource: models.ResourceVehicle,
	}))
	require.NoError(t, bus.PublishJSON(events.EventBookingStatusChanged, events.BookingEventPayload{
		Resource: models.ResourceVehicle,
		Status:   models.StatusCompleted,
	}))

	assert.Equal(t, created+2, testutil.ToFloat64(bookingEvents.WithLabelValues(events.EventBookingCreated, "vehicle")))
	assert.Equal(t, conflicts+1, testutil.ToFloat64(bookingConflicts.WithLabelValues("vehicle")))
	assert.Equal(t, completed+1, testutil.ToFloat64(statusChanges.WithLabelValues("completed")))
}

func TestObserveEvent_BadPayload(t *testing.T) {
	err := ObserveEvent(&events.Event{Type: events.EventBookingCreated, Payload: []byte("{")})
	assert.Error(t, err)
}

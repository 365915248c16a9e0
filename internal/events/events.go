package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"facilitydesk/internal/models"

	"github.com/google/uuid"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
	EventBookingDeleted       = "booking_deleted"

	// EventBookingReminder fires the day before an active booking.
	EventBookingReminder = "booking_reminder"

	// AllEvents subscribes a handler to every event type.
	AllEvents = "*"
)

// BookingEventPayload is the booking snapshot carried by lifecycle events.
type BookingEventPayload struct {
	BookingID      string              `json:"booking_id"`
	Resource       models.ResourceType `json:"resource"`
	RequesterName  string              `json:"requester_name"`
	Location       string              `json:"location,omitempty"`
	ScheduleDate   time.Time           `json:"schedule_date"`
	Status         models.Status       `json:"status"`
	PreviousStatus models.Status       `json:"previous_status,omitempty"`
	Conflicts      int                 `json:"conflicts,omitempty"`
}

// NewBookingPayload snapshots b.
func NewBookingPayload(b *models.Booking) BookingEventPayload {
	return BookingEventPayload{
		BookingID:     b.ID,
		Resource:      b.Resource,
		RequesterName: b.RequesterName,
		Location:      b.Location(),
		ScheduleDate:  b.ScheduleDate,
		Status:        b.Status,
	}
}

// Event is a published domain event with a JSON payload.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

type EventHandler func(event *Event) error

// EventBus is an in-process synchronous pub/sub.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers handler for eventType, or for everything with AllEvents.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every matching handler in registration order and returns
// their joined errors. A failing handler does not stop the others.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[AllEvents]...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes payload and publishes it. A nil bus drops the event.
func (b *EventBus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

func NewJSONEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

package domain

import (
	"context"
	"time"

	"facilitydesk/internal/calendar"
	"facilitydesk/internal/models"
)

// BookingStore is the request store shared by every calendar.
type BookingStore interface {
	// ListBookings returns the bookings of resource in insertion order; an
	// empty resource lists everything.
	ListBookings(ctx context.Context, resource models.ResourceType) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	// CreateBooking persists booking and assigns its Seq.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	// UpdateBookingStatus returns models.ErrNotFound for an unknown id.
	UpdateBookingStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) error
	DeleteBooking(ctx context.Context, id string) error
}

// StateRepository persists navigator sessions by models.StateKey.
type StateRepository interface {
	GetState(ctx context.Context, key string) (*models.NavigatorState, error)
	SetState(ctx context.Context, state *models.NavigatorState) error
	ClearState(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

type BookingService interface {
	ListBookings(ctx context.Context, resource models.ResourceType) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreateBooking(ctx context.Context, draft *models.BookingDraft) (*models.Booking, []models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status models.Status) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ConflictsOn(ctx context.Context, resource models.ResourceType, at time.Time) ([]models.Booking, error)
	Summary(ctx context.Context) (*models.Summary, error)
}

type StateManager interface {
	Open(ctx context.Context, sessionID string, resource models.ResourceType, writable bool) (*calendar.Navigator, error)
	Save(ctx context.Context, sessionID string, nav *calendar.Navigator) error
	Clear(ctx context.Context, sessionID string, resource models.ResourceType) error
}

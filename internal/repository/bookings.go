package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"facilitydesk/internal/models"
)

// MemoryBookingStore is a BookingStore that lives as long as the process.
// Every read returns copies.
type MemoryBookingStore struct {
	mu       sync.RWMutex
	bookings []models.Booking
	index    map[string]int
	seq      int64
}

func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{index: make(map[string]int)}
}

func (s *MemoryBookingStore) ListBookings(ctx context.Context, resource models.ResourceType) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if resource == "" || b.Resource == resource {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (s *MemoryBookingStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	b := clone(s.bookings[i])
	return &b, nil
}

func (s *MemoryBookingStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == "" {
		return fmt.Errorf("booking id is required")
	}
	if _, exists := s.index[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}

	s.seq++
	booking.Seq = s.seq
	s.index[booking.ID] = len(s.bookings)
	s.bookings = append(s.bookings, clone(*booking))
	return nil
}

func (s *MemoryBookingStore) UpdateBookingStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return models.ErrNotFound
	}
	s.bookings[i].Status = status
	s.bookings[i].UpdatedAt = updatedAt
	return nil
}

func (s *MemoryBookingStore) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return models.ErrNotFound
	}
	s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.bookings); j++ {
		s.index[s.bookings[j].ID] = j
	}
	return nil
}

func clone(b models.Booking) models.Booking {
	if b.Venue != nil {
		v := *b.Venue
		b.Venue = &v
	}
	if b.Vehicle != nil {
		v := *b.Vehicle
		b.Vehicle = &v
	}
	return b
}

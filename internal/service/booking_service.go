package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"facilitydesk/internal/calendar"
	"facilitydesk/internal/domain"
	"facilitydesk/internal/events"
	"facilitydesk/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingOptions configure a BookingService. Zero values select the defaults.
type BookingOptions struct {
	Venues         []string
	VehicleOrigin  string
	Location       *time.Location
	Now            func() time.Time
	MaxBookingDays int
}

type BookingService struct {
	store          domain.BookingStore
	eventBus       domain.EventPublisher
	venues         []string
	venueIndex     map[string]string
	vehicleOrigin  string
	loc            *time.Location
	now            func() time.Time
	maxBookingDays int
	logger         *zerolog.Logger
}

func NewBookingService(store domain.BookingStore, eventBus domain.EventPublisher, opts BookingOptions, logger *zerolog.Logger) *BookingService {
	if len(opts.Venues) == 0 {
		opts.Venues = models.DefaultVenues
	}
	if opts.VehicleOrigin == "" {
		opts.VehicleOrigin = models.DefaultVehicleOrigin
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxBookingDays <= 0 {
		opts.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	index := make(map[string]string, len(opts.Venues))
	for _, v := range opts.Venues {
		index[venueKey(v)] = strings.TrimSpace(v)
	}

	return &BookingService{
		store:          store,
		eventBus:       eventBus,
		venues:         append([]string(nil), opts.Venues...),
		venueIndex:     index,
		vehicleOrigin:  opts.VehicleOrigin,
		loc:            opts.Location,
		now:            opts.Now,
		maxBookingDays: opts.MaxBookingDays,
		logger:         logger,
	}
}

func venueKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Venues returns the venue catalogue in configured order.
func (s *BookingService) Venues() []string {
	return append([]string(nil), s.venues...)
}

// DefaultLocation is the location preselected in drafts of resource.
func (s *BookingService) DefaultLocation(resource models.ResourceType) string {
	if resource == models.ResourceVehicle {
		return s.vehicleOrigin
	}
	return s.venues[0]
}

func (s *BookingService) Location() *time.Location { return s.loc }

// ValidateBookingDate rejects days before today and days past the booking horizon.
func (s *BookingService) ValidateBookingDate(date time.Time) error {
	day := calendar.DateOf(date, s.loc)
	now := s.now()
	if day.Before(calendar.DateOf(now, s.loc)) {
		return models.ErrPastDate
	}

	horizon := calendar.DateOf(now.In(s.loc).AddDate(0, 0, s.maxBookingDays), s.loc)
	if horizon.Before(day) {
		return models.ErrDateTooFar
	}

	return nil
}

// ValidateDraft checks every field of draft and normalizes it in place:
// venue names take their catalogue spelling, vehicle origins are forced to
// the configured origin and a missing priority becomes medium.
func (s *BookingService) ValidateDraft(draft *models.BookingDraft) error {
	ve := models.NewValidationError()

	if !draft.Resource.Valid() {
		ve.Add("resource", fmt.Sprintf("unknown resource type %q", draft.Resource))
	}

	draft.RequesterName = strings.TrimSpace(draft.RequesterName)
	if draft.RequesterName == "" {
		ve.Add("requester_name", "is required")
	}

	if draft.ScheduleDate.IsZero() {
		ve.Add("schedule_date", "is required")
	} else if err := s.ValidateBookingDate(draft.ScheduleDate); err != nil {
		ve.Wrap("schedule_date", err)
	}

	if draft.ParticipantCount < 0 {
		ve.Add("participant_count", "must not be negative")
	}

	if draft.Priority == "" {
		draft.Priority = models.PriorityMedium
	} else if !draft.Priority.Valid() {
		ve.Add("priority", fmt.Sprintf("unknown priority %q", draft.Priority))
	}

	switch draft.Resource {
	case models.ResourceVenue:
		s.validateVenue(draft, ve)
	case models.ResourceVehicle:
		s.validateVehicle(draft, ve)
	}

	return ve.OrNil()
}

func (s *BookingService) validateVenue(draft *models.BookingDraft, ve *models.ValidationError) {
	if draft.Vehicle != nil {
		ve.Add("vehicle", "is not allowed for venue bookings")
	}
	if draft.Venue == nil {
		ve.Add("venue", "is required")
		return
	}

	name, ok := s.venueIndex[venueKey(draft.Venue.Location)]
	if !ok {
		ve.Add("venue.location", fmt.Sprintf("unknown venue %q", draft.Venue.Location))
	} else {
		draft.Venue.Location = name
	}

	draft.Venue.ActivityName = strings.TrimSpace(draft.Venue.ActivityName)
	if draft.Venue.ActivityName == "" {
		ve.Add("venue.activity_name", "is required")
	}
}

func (s *BookingService) validateVehicle(draft *models.BookingDraft, ve *models.ValidationError) {
	if draft.Venue != nil {
		ve.Add("venue", "is not allowed for vehicle bookings")
	}
	if draft.Vehicle == nil {
		ve.Add("vehicle", "is required")
		return
	}

	draft.Vehicle.Origin = s.vehicleOrigin
	draft.Vehicle.Destination = strings.TrimSpace(draft.Vehicle.Destination)
	if draft.Vehicle.Destination == "" {
		ve.Add("vehicle.destination", "is required")
	}
}

// ListBookings returns the stored bookings of resource, or all of them for "".
func (s *BookingService) ListBookings(ctx context.Context, resource models.ResourceType) ([]models.Booking, error) {
	if resource != "" && !resource.Valid() {
		return nil, models.Invalid("resource", fmt.Errorf("unknown resource type %q", resource))
	}
	return s.store.ListBookings(ctx, resource)
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// CreateBooking validates draft, stores it as a pending booking and returns
// it together with the active bookings already on the same day. The
// conflicts come from the store as it is at submit time; they never block
// the booking.
func (s *BookingService) CreateBooking(ctx context.Context, draft *models.BookingDraft) (*models.Booking, []models.Booking, error) {
	if err := s.ValidateDraft(draft); err != nil {
		return nil, nil, err
	}

	existing, err := s.store.ListBookings(ctx, draft.Resource)
	if err != nil {
		return nil, nil, fmt.Errorf("load bookings for conflict check: %w", err)
	}
	conflicts := calendar.ConflictsOn(draft.ScheduleDate, draft.Resource, existing, s.loc)

	now := s.now()
	booking := &models.Booking{
		ID:               uuid.NewString(),
		Resource:         draft.Resource,
		RequesterName:    draft.RequesterName,
		Description:      strings.TrimSpace(draft.Description),
		ScheduleDate:     draft.ScheduleDate,
		Venue:            draft.Venue,
		Vehicle:          draft.Vehicle,
		ParticipantCount: draft.ParticipantCount,
		Status:           models.StatusPending,
		Priority:         draft.Priority,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, nil, fmt.Errorf("create booking: %w", err)
	}

	if len(conflicts) > 0 {
		s.logger.Warn().
			Str("booking_id", booking.ID).
			Str("resource", string(booking.Resource)).
			Str("date", calendar.DateOf(booking.ScheduleDate, s.loc).String()).
			Int("conflicts", len(conflicts)).
			Msg("booking created on a day that is already booked")
	}

	payload := events.NewBookingPayload(booking)
	payload.Conflicts = len(conflicts)
	s.publishEvent(events.EventBookingCreated, payload)

	return booking, conflicts, nil
}

// UpdateBookingStatus moves a booking along its lifecycle. Setting the
// current status again is a no-op.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id string, status models.Status) (*models.Booking, error) {
	if !status.Valid() {
		return nil, models.Invalid("status", fmt.Errorf("unknown status %q", status))
	}

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == status {
		return booking, nil
	}
	if !booking.Status.CanTransitionTo(status) {
		return nil, models.Invalid("status",
			fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, booking.Status, status))
	}

	now := s.now()
	if err := s.store.UpdateBookingStatus(ctx, id, status, now); err != nil {
		return nil, err
	}

	previous := booking.Status
	booking.Status = status
	booking.UpdatedAt = now

	payload := events.NewBookingPayload(booking)
	payload.PreviousStatus = previous
	s.publishEvent(events.EventBookingStatusChanged, payload)

	return booking, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id string) error {
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBooking(ctx, id); err != nil {
		return err
	}

	s.publishEvent(events.EventBookingDeleted, events.NewBookingPayload(booking))
	return nil
}

// ConflictsOn lists the active bookings of resource on the same day as at.
func (s *BookingService) ConflictsOn(ctx context.Context, resource models.ResourceType, at time.Time) ([]models.Booking, error) {
	bookings, err := s.ListBookings(ctx, resource)
	if err != nil {
		return nil, err
	}
	return calendar.ConflictsOn(at, resource, bookings, s.loc), nil
}

func (s *BookingService) Summary(ctx context.Context) (*models.Summary, error) {
	bookings, err := s.store.ListBookings(ctx, "")
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		Total:      len(bookings),
		ByResource: make(map[models.ResourceType]int, len(models.ResourceTypes)),
		ByStatus:   make(map[models.Status]int),
		Active:     make(map[models.ResourceType]int, len(models.ResourceTypes)),
	}
	for _, r := range models.ResourceTypes {
		summary.ByResource[r] = 0
		summary.Active[r] = 0
	}
	for _, b := range bookings {
		summary.ByResource[b.Resource]++
		summary.ByStatus[b.Status]++
		if b.Active() {
			summary.Active[b.Resource]++
		}
	}
	return summary, nil
}

func (s *BookingService) publishEvent(eventType string, payload events.BookingEventPayload) {
	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", payload.BookingID).Msg("publish event error")
	}
}

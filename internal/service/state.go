package service

import (
	"context"
	"time"

	"facilitydesk/internal/calendar"
	"facilitydesk/internal/domain"
	"facilitydesk/internal/models"

	"github.com/rs/zerolog"
)

// NavigatorConfig holds the settings shared by every navigator a
// StateService opens.
type NavigatorConfig struct {
	Location       *time.Location
	Now            func() time.Time
	MonthsAhead    int
	MaxBookingDays int
	DefaultHour    int
	DefaultVenue   string
	VehicleOrigin  string
}

// StateService persists calendar navigators per session and resource.
type StateService struct {
	stateRepo domain.StateRepository
	bookings  calendar.BookingLister
	cfg       NavigatorConfig
	logger    *zerolog.Logger
}

func NewStateService(stateRepo domain.StateRepository, bookings calendar.BookingLister, cfg NavigatorConfig, logger *zerolog.Logger) *StateService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultVenue == "" {
		cfg.DefaultVenue = models.DefaultVenues[0]
	}
	if cfg.VehicleOrigin == "" {
		cfg.VehicleOrigin = models.DefaultVehicleOrigin
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &StateService{
		stateRepo: stateRepo,
		bookings:  bookings,
		cfg:       cfg,
		logger:    logger,
	}
}

// Open builds a navigator for resource and restores the session's saved
// month and day selection, if any.
func (s *StateService) Open(ctx context.Context, sessionID string, resource models.ResourceType, writable bool) (*calendar.Navigator, error) {
	nav := calendar.NewNavigator(resource, s.bookings, s.options(resource, writable))

	state, err := s.stateRepo.GetState(ctx, models.StateKey(sessionID, resource))
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Str("resource", string(resource)).Msg("failed to get navigator state")
		return nil, err
	}
	nav.Restore(state)

	return nav, nil
}

func (s *StateService) Save(ctx context.Context, sessionID string, nav *calendar.Navigator) error {
	state := nav.State()
	state.SessionID = sessionID
	state.UpdatedAt = s.cfg.Now()
	return s.stateRepo.SetState(ctx, &state)
}

func (s *StateService) Clear(ctx context.Context, sessionID string, resource models.ResourceType) error {
	return s.stateRepo.ClearState(ctx, models.StateKey(sessionID, resource))
}

func (s *StateService) options(resource models.ResourceType, writable bool) calendar.Options {
	opts := calendar.Options{
		Location:        s.cfg.Location,
		Now:             s.cfg.Now,
		WriteCapable:    writable,
		MonthsAhead:     s.cfg.MonthsAhead,
		MaxBookingDays:  s.cfg.MaxBookingDays,
		DefaultHour:     s.cfg.DefaultHour,
		DefaultLocation: s.cfg.DefaultVenue,
	}
	if resource == models.ResourceVehicle {
		opts.DefaultLocation = s.cfg.VehicleOrigin
	}
	return opts
}

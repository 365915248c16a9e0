package worker

import (
	"context"
	"sync"
	"time"

	"facilitydesk/internal/calendar"
	"facilitydesk/internal/domain"
	"facilitydesk/internal/events"
	"facilitydesk/internal/logging"
	"facilitydesk/internal/models"

	"github.com/rs/zerolog"
)

// ReminderConfig configures a ReminderWorker. Zero values select the defaults.
type ReminderConfig struct {
	Location *time.Location
	Now      func() time.Time
	// Hour is the local hour of the daily run.
	Hour  int
	Retry RetryPolicy
}

// ReminderWorker publishes a reminder event once per active booking on the
// day before it is scheduled.
type ReminderWorker struct {
	bookings  calendar.BookingLister
	publisher domain.EventPublisher
	loc       *time.Location
	now       func() time.Time
	hour      int
	retry     RetryPolicy
	logger    zerolog.Logger

	mu       sync.Mutex
	reminded map[string]calendar.Date // booking id -> day it is scheduled on
}

func NewReminderWorker(bookings calendar.BookingLister, publisher domain.EventPublisher, cfg ReminderConfig, logger *zerolog.Logger) *ReminderWorker {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Hour < 0 || cfg.Hour > 23 {
		cfg.Hour = models.DefaultBookingHour
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 5
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = 2 * time.Second
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = time.Minute
	}

	return &ReminderWorker{
		bookings:  bookings,
		publisher: publisher,
		loc:       cfg.Location,
		now:       cfg.Now,
		hour:      cfg.Hour,
		retry:     cfg.Retry,
		logger:    logging.Component(logger, "reminder_worker"),
		reminded:  make(map[string]calendar.Date),
	}
}

// Start runs the worker until ctx is cancelled: once a day at the configured hour.
func (w *ReminderWorker) Start(ctx context.Context) {
	timer := time.NewTimer(w.untilNextRun())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			err := w.retry.Do(ctx, func(ctx context.Context) error {
				_, err := w.RunOnce(ctx)
				return err
			})
			if err != nil && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("reminder run failed")
			}
			timer.Reset(w.untilNextRun())
		}
	}
}

// RunOnce publishes reminders for tomorrow's active bookings that have not
// been reminded yet and returns how many were sent.
func (w *ReminderWorker) RunOnce(ctx context.Context) (int, error) {
	bookings, err := w.bookings.ListBookings(ctx, "")
	if err != nil {
		return 0, err
	}

	today := calendar.DateOf(w.now(), w.loc)
	tomorrow := calendar.DateOf(today.At(12, 0, w.loc).AddDate(0, 0, 1), w.loc)

	w.mu.Lock()
	defer w.mu.Unlock()

	for id, day := range w.reminded {
		if day.Before(today) {
			delete(w.reminded, id)
		}
	}

	sent := 0
	for _, b := range calendar.OnDay(tomorrow, bookings, w.loc) {
		if _, done := w.reminded[b.ID]; done {
			continue
		}

		if err := w.publisher.PublishJSON(events.EventBookingReminder, events.NewBookingPayload(&b)); err != nil {
			w.logger.Error().Err(err).Str("booking_id", b.ID).Msg("publish reminder")
			continue
		}
		w.reminded[b.ID] = tomorrow
		sent++
	}

	if sent > 0 {
		w.logger.Info().Int("sent", sent).Str("date", tomorrow.String()).Msg("booking reminders sent")
	}
	return sent, nil
}

func (w *ReminderWorker) untilNextRun() time.Duration {
	now := w.now().In(w.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), w.hour, 0, 0, 0, w.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

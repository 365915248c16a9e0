package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"facilitydesk/internal/calendar"
	"facilitydesk/internal/database"
	"facilitydesk/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type bookingRecord struct {
	ID               string `yaml:"id"`
	Resource         string `yaml:"resource"`
	RequesterName    string `yaml:"requester_name"`
	Description      string `yaml:"description"`
	ScheduleDate     string `yaml:"schedule_date"`
	Location         string `yaml:"location"`
	ActivityName     string `yaml:"activity_name"`
	Destination      string `yaml:"destination"`
	ParticipantCount int    `yaml:"participant_count"`
	Status           string `yaml:"status"`
	Priority         string `yaml:"priority"`
}

type BookingsFile struct {
	Bookings []bookingRecord `yaml:"bookings"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		bookingsPath = flag.String("bookings", "configs/bookings.yaml", "path to bookings.yaml")
		dbPath       = flag.String("db", "./data/bookings.db", "path to sqlite db")
		timezone     = flag.String("tz", "", "IANA zone for schedule dates without an offset")
	)
	flag.Parse()

	loc := time.Local
	if *timezone != "" {
		var err error
		if loc, err = time.LoadLocation(*timezone); err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
	}

	data, err := os.ReadFile(*bookingsPath)
	if err != nil {
		return fmt.Errorf("read bookings: %w", err)
	}
	var file BookingsFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse bookings: %w", err)
	}
	if len(file.Bookings) == 0 {
		return fmt.Errorf("no bookings in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	skipped := 0
	for i, rec := range file.Bookings {
		booking, err := rec.toBooking(loc)
		if err != nil {
			return fmt.Errorf("booking #%d: %w", i+1, err)
		}

		_, err = db.GetBooking(ctx, booking.ID)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("get %s: %w", booking.ID, err)
		}
		if err = db.CreateBooking(ctx, booking); err != nil {
			return fmt.Errorf("create %s: %w", booking.ID, err)
		}
		created++
	}

	fmt.Printf("done: created=%d skipped=%d\n", created, skipped)
	return nil
}

func (r bookingRecord) toBooking(loc *time.Location) (*models.Booking, error) {
	resource, err := models.ParseResourceType(r.Resource)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(r.RequesterName) == "" {
		return nil, fmt.Errorf("requester_name is required")
	}
	scheduled, err := calendar.ParseLocal(r.ScheduleDate, loc)
	if err != nil {
		return nil, err
	}

	status := models.Status(r.Status)
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", r.Status)
	}
	priority := models.Priority(r.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("unknown priority %q", r.Priority)
	}

	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now()
	b := &models.Booking{
		ID:               id,
		Resource:         resource,
		RequesterName:    strings.TrimSpace(r.RequesterName),
		Description:      r.Description,
		ScheduleDate:     scheduled,
		ParticipantCount: r.ParticipantCount,
		Status:           status,
		Priority:         priority,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	switch resource {
	case models.ResourceVenue:
		b.Venue = &models.VenueDetails{Location: r.Location, ActivityName: r.ActivityName}
	case models.ResourceVehicle:
		b.Vehicle = &models.VehicleDetails{Origin: r.Location, Destination: r.Destination}
	}
	return b, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"facilitydesk/internal/models"
)

const bookingColumns = `seq, id, resource, requester_name, description, schedule_date, location,
    activity_name, destination, participant_count, status, priority, created_at, updated_at`

// ListBookings returns bookings in insertion order. An empty resource lists all.
func (db *DB) ListBookings(ctx context.Context, resource models.ResourceType) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	args := []any{}
	if resource != "" {
		query += ` WHERE resource = ?`
		args = append(args, string(resource))
	}
	query += ` ORDER BY seq`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// CreateBooking inserts booking and sets its Seq from the autoincrement key.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	var location, activity, destination string
	switch {
	case booking.Venue != nil:
		location, activity = booking.Venue.Location, booking.Venue.ActivityName
	case booking.Vehicle != nil:
		location, destination = booking.Vehicle.Origin, booking.Vehicle.Destination
	}

	query := `INSERT INTO bookings (
				id, resource, requester_name, description, schedule_date, location,
				activity_name, destination, participant_count, status, priority, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		booking.ID,
		string(booking.Resource),
		booking.RequesterName,
		booking.Description,
		formatTime(booking.ScheduleDate),
		location,
		activity,
		destination,
		booking.ParticipantCount,
		string(booking.Status),
		string(booking.Priority),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.Seq = seq

	db.logger.Debug().Str("booking_id", booking.ID).Int64("seq", seq).Msg("booking stored")
	return nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(updatedAt), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return requireAffected(result)
}

func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b                                  models.Booking
		resource, status, priority         string
		location, activity, destination    string
		scheduleDate, createdAt, updatedAt string
	)
	err := row.Scan(
		&b.Seq,
		&b.ID,
		&resource,
		&b.RequesterName,
		&b.Description,
		&scheduleDate,
		&location,
		&activity,
		&destination,
		&b.ParticipantCount,
		&status,
		&priority,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	b.Resource = models.ResourceType(resource)
	b.Status = models.Status(status)
	b.Priority = models.Priority(priority)

	switch b.Resource {
	case models.ResourceVenue:
		b.Venue = &models.VenueDetails{Location: location, ActivityName: activity}
	case models.ResourceVehicle:
		b.Vehicle = &models.VehicleDetails{Origin: location, Destination: destination}
	}

	if b.ScheduleDate, err = parseTime(scheduleDate); err != nil {
		return nil, fmt.Errorf("booking %s schedule_date: %w", b.ID, err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("booking %s created_at: %w", b.ID, err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("booking %s updated_at: %w", b.ID, err)
	}
	return &b, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

package database

import (
	"context"
	"io"
	"testing"
	"time"

	"facilitydesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()

	t.Run("ListBookings_Error", func(t *testing.T) {
		_, err := db.ListBookings(ctx, models.ResourceVenue)
		assert.Error(t, err)
	})

	t.Run("GetBooking_Error", func(t *testing.T) {
		_, err := db.GetBooking(ctx, "x")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("CreateBooking_Error", func(t *testing.T) {
		assert.Error(t, db.CreateBooking(ctx, &models.Booking{ID: "x"}))
	})

	t.Run("UpdateBookingStatus_Error", func(t *testing.T) {
		assert.Error(t, db.UpdateBookingStatus(ctx, "x", models.StatusRejected, time.Now()))
	})

	t.Run("DeleteBooking_Error", func(t *testing.T) {
		assert.Error(t, db.DeleteBooking(ctx, "x"))
	})
}

func TestDB_CorruptTimestamp(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO bookings (id, resource, requester_name, schedule_date, created_at, updated_at)
		VALUES ('bad', 'venue', 'x', 'yesterday', '', '')`)
	require.NoError(t, err)

	_, err = db.GetBooking(ctx, "bad")
	assert.Error(t, err)

	_, err = db.ListBookings(ctx, models.ResourceVenue)
	assert.Error(t, err)
}

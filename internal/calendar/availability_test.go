package calendar

import (
	"testing"
	"time"

	"facilitydesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*60*60)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, wib)
}

func venueBooking(id string, seq int64, when time.Time, status models.Status) models.Booking {
	return models.Booking{
		ID:            id,
		Seq:           seq,
		Resource:      models.ResourceVenue,
		RequesterName: "Divisi Humas",
		ScheduleDate:  when,
		Venue:         &models.VenueDetails{Location: "Aula Lantai III", ActivityName: "Rapat"},
		Status:        status,
		Priority:      models.PriorityMedium,
	}
}

func vehicleBooking(id string, seq int64, when time.Time, status models.Status) models.Booking {
	return models.Booking{
		ID:            id,
		Seq:           seq,
		Resource:      models.ResourceVehicle,
		RequesterName: "Sekretariat",
		ScheduleDate:  when,
		Vehicle:       &models.VehicleDetails{Origin: models.DefaultVehicleOrigin, Destination: "Bandung"},
		Status:        status,
		Priority:      models.PriorityMedium,
	}
}

func ids(bookings []models.Booking) []string {
	out := make([]string, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}

func TestConflictsOn(t *testing.T) {
	a := venueBooking("A", 1, at(2024, time.November, 15, 9, 0), models.StatusPending)
	b := venueBooking("B", 2, at(2024, time.November, 15, 14, 0), models.StatusPending)

	t.Run("SameDayRegardlessOfTime", func(t *testing.T) {
		got := ConflictsOn(at(2024, time.November, 15, 10, 0), models.ResourceVenue, []models.Booking{a, b}, wib)
		assert.Equal(t, []string{"A", "B"}, ids(got))
	})

	t.Run("RejectedDoesNotCount", func(t *testing.T) {
		c := vehicleBooking("C", 3, at(2024, time.November, 15, 0, 0), models.StatusRejected)
		got := ConflictsOn(at(2024, time.November, 15, 0, 0), models.ResourceVehicle, []models.Booking{c}, wib)
		assert.Empty(t, got)
	})

	t.Run("CompletedDoesNotCount", func(t *testing.T) {
		done := venueBooking("D", 4, at(2024, time.November, 15, 8, 0), models.StatusCompleted)
		got := ConflictsOn(at(2024, time.November, 15, 12, 0), models.ResourceVenue, []models.Booking{a, done}, wib)
		assert.Equal(t, []string{"A"}, ids(got))
	})

	t.Run("InProgressCounts", func(t *testing.T) {
		busy := venueBooking("E", 5, at(2024, time.November, 15, 8, 0), models.StatusInProgress)
		got := ConflictsOn(at(2024, time.November, 15, 12, 0), models.ResourceVenue, []models.Booking{busy}, wib)
		assert.Equal(t, []string{"E"}, ids(got))
	})

	t.Run("ScopedToResource", func(t *testing.T) {
		car := vehicleBooking("V", 6, at(2024, time.November, 15, 7, 0), models.StatusPending)
		got := ConflictsOn(at(2024, time.November, 15, 12, 0), models.ResourceVehicle, []models.Booking{a, b, car}, wib)
		assert.Equal(t, []string{"V"}, ids(got))
	})

	t.Run("DifferentDay", func(t *testing.T) {
		got := ConflictsOn(at(2024, time.November, 16, 9, 0), models.ResourceVenue, []models.Booking{a, b}, wib)
		assert.Empty(t, got)
	})

	t.Run("ZeroCandidate", func(t *testing.T) {
		got := ConflictsOn(time.Time{}, models.ResourceVenue, []models.Booking{a, b}, wib)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("NoBookings", func(t *testing.T) {
		assert.Empty(t, ConflictsOn(at(2024, time.November, 15, 9, 0), models.ResourceVenue, nil, wib))
	})

	t.Run("UnscheduledIgnored", func(t *testing.T) {
		ticket := venueBooking("T", 7, time.Time{}, models.StatusPending)
		assert.Empty(t, ConflictsOn(at(2024, time.November, 15, 9, 0), models.ResourceVenue, []models.Booking{ticket}, wib))
	})

	t.Run("Symmetric", func(t *testing.T) {
		all := []models.Booking{a, b}
		assert.Contains(t, ids(ConflictsOn(a.ScheduleDate, models.ResourceVenue, all, wib)), "B")
		assert.Contains(t, ids(ConflictsOn(b.ScheduleDate, models.ResourceVenue, all, wib)), "A")
	})
}

func TestConflictsOn_ZoneNormalization(t *testing.T) {
	// 23:30 UTC on the 15th is 06:30 on the 16th in WIB.
	late := venueBooking("L", 1, time.Date(2024, time.November, 15, 23, 30, 0, 0, time.UTC), models.StatusPending)

	inWIB := ConflictsOn(at(2024, time.November, 16, 10, 0), models.ResourceVenue, []models.Booking{late}, wib)
	assert.Equal(t, []string{"L"}, ids(inWIB))

	onFifteenthUTC := ConflictsOn(time.Date(2024, time.November, 15, 8, 0, 0, 0, time.UTC), models.ResourceVenue, []models.Booking{late}, time.UTC)
	assert.Equal(t, []string{"L"}, ids(onFifteenthUTC))

	onFifteenthWIB := ConflictsOn(at(2024, time.November, 15, 10, 0), models.ResourceVenue, []models.Booking{late}, wib)
	assert.Empty(t, onFifteenthWIB)
}

func TestActiveBookings(t *testing.T) {
	bookings := []models.Booking{
		venueBooking("late", 1, at(2024, time.December, 1, 9, 0), models.StatusPending),
		venueBooking("tie-first", 2, at(2024, time.November, 20, 9, 0), models.StatusPending),
		venueBooking("rejected", 3, at(2024, time.November, 1, 9, 0), models.StatusRejected),
		vehicleBooking("car", 4, at(2024, time.November, 2, 9, 0), models.StatusPending),
		venueBooking("tie-second", 5, at(2024, time.November, 20, 9, 0), models.StatusInProgress),
		venueBooking("early", 6, at(2024, time.November, 3, 9, 0), models.StatusPending),
		venueBooking("unscheduled", 7, time.Time{}, models.StatusPending),
	}

	got := ActiveBookings(bookings, models.ResourceVenue)
	assert.Equal(t, []string{"early", "tie-first", "tie-second", "late"}, ids(got))
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(at(2024, time.November, 15, 0, 0), at(2024, time.November, 15, 23, 59), wib))
	assert.False(t, SameDay(at(2024, time.November, 15, 23, 59), at(2024, time.November, 16, 0, 0), wib))
}

func TestParseLocal(t *testing.T) {
	got, err := ParseLocal("2024-11-15T09:00", wib)
	require.NoError(t, err)
	assert.True(t, got.Equal(at(2024, time.November, 15, 9, 0)))

	got, err = ParseLocal("2024-11-15T02:00:00Z", wib)
	require.NoError(t, err)
	assert.True(t, got.Equal(at(2024, time.November, 15, 9, 0)))

	got, err = ParseLocal("2024-11-15", wib)
	require.NoError(t, err)
	assert.True(t, got.Equal(at(2024, time.November, 15, 0, 0)))

	_, err = ParseLocal("15/11/2024", wib)
	assert.Error(t, err)
}

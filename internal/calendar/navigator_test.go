package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"facilitydesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	bookings []models.Booking
	calls    int
	err      error
}

func (f *fakeLister) ListBookings(_ context.Context, _ models.ResourceType) ([]models.Booking, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Booking(nil), f.bookings...), nil
}

func (f *fakeLister) setStatus(id string, status models.Status) {
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			f.bookings[i].Status = status
		}
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestNavigator(resource models.ResourceType, store *fakeLister, now time.Time, writable bool) *Navigator {
	return NewNavigator(resource, store, Options{
		Location:        wib,
		Now:             fixedClock(now),
		WriteCapable:    writable,
		DefaultLocation: "Aula Lantai III",
	})
}

func TestNavigator_MonthBounds(t *testing.T) {
	now := at(2024, time.November, 20, 10, 30)

	for _, resource := range models.ResourceTypes {
		t.Run(string(resource), func(t *testing.T) {
			nav := newTestNavigator(resource, &fakeLister{}, now, false)
			present := Month{2024, time.November}
			assert.Equal(t, present, nav.CurrentMonth())

			assert.False(t, nav.CanGoPrevious())
			assert.False(t, nav.GoToPreviousMonth())
			assert.Equal(t, present, nav.CurrentMonth())

			for i := 0; i < 40; i++ {
				nav.GoToNextMonth()
				assert.False(t, nav.CurrentMonth().After(present.Add(12)))
			}
			assert.Equal(t, Month{2025, time.November}, nav.CurrentMonth())
			assert.False(t, nav.CanGoNext())

			for i := 0; i < 40; i++ {
				nav.GoToPreviousMonth()
				assert.False(t, nav.CurrentMonth().Before(present))
			}
			assert.Equal(t, present, nav.CurrentMonth())
		})
	}
}

func TestNavigator_YearBoundary(t *testing.T) {
	nav := newTestNavigator(models.ResourceVehicle, &fakeLister{}, at(2024, time.December, 5, 8, 0), false)

	require.True(t, nav.GoToNextMonth())
	assert.Equal(t, Month{2025, time.January}, nav.CurrentMonth())
	require.True(t, nav.GoToPreviousMonth())
	assert.Equal(t, Month{2024, time.December}, nav.CurrentMonth())
	assert.False(t, nav.GoToPreviousMonth())

	lower, upper := nav.Bounds()
	assert.Equal(t, Month{2024, time.December}, lower)
	assert.Equal(t, Month{2025, time.December}, upper)
}

func TestNavigator_JumpToToday(t *testing.T) {
	nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, at(2024, time.November, 20, 10, 30), false)
	nav.GoToNextMonth()
	nav.GoToNextMonth()

	nav.JumpToToday()
	once := nav.CurrentMonth()
	nav.JumpToToday()
	assert.Equal(t, once, nav.CurrentMonth())
	assert.Equal(t, Month{2024, time.November}, once)
}

func TestNavigator_SelectDay(t *testing.T) {
	now := at(2024, time.November, 20, 10, 30)

	t.Run("PastDayWriterFails", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, true)
		draft, err := nav.SelectDay(19)
		require.Error(t, err)
		assert.Nil(t, draft)
		assert.True(t, errors.Is(err, models.ErrValidation))
		assert.True(t, errors.Is(err, models.ErrPastDate))

		_, selected := nav.SelectedDay()
		assert.False(t, selected)
	})

	t.Run("PastDayReaderFilters", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false)
		draft, err := nav.SelectDay(19)
		require.NoError(t, err)
		assert.Nil(t, draft)

		day, selected := nav.SelectedDay()
		require.True(t, selected)
		assert.Equal(t, Date{2024, time.November, 19}, day)
	})

	t.Run("WriterGetsDraft", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, true)
		draft, err := nav.SelectDay(25)
		require.NoError(t, err)
		require.NotNil(t, draft)

		assert.Equal(t, models.ResourceVenue, draft.Resource)
		assert.True(t, draft.ScheduleDate.Equal(at(2024, time.November, 25, 9, 0)))
		require.NotNil(t, draft.Venue)
		assert.Equal(t, "Aula Lantai III", draft.Venue.Location)
		assert.Nil(t, draft.Vehicle)
	})

	t.Run("TodayIsBookable", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVehicle, &fakeLister{}, now, true)
		draft, err := nav.SelectDay(20)
		require.NoError(t, err)
		require.NotNil(t, draft.Vehicle)
		assert.Equal(t, "Aula Lantai III", draft.Vehicle.Origin)
	})

	t.Run("BeyondHorizonWriterFails", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, true)
		for nav.GoToNextMonth() {
		}
		require.Equal(t, Month{2025, time.November}, nav.CurrentMonth())
		assert.Equal(t, Date{2025, time.November, 20}, nav.Horizon())

		draft, err := nav.SelectDay(20)
		require.NoError(t, err)
		require.NotNil(t, draft)

		draft, err = nav.SelectDay(21)
		assert.Nil(t, draft)
		assert.True(t, errors.Is(err, models.ErrValidation))
		assert.True(t, errors.Is(err, models.ErrDateTooFar))

		day, _ := nav.SelectedDay()
		assert.Equal(t, Date{2025, time.November, 20}, day, "failed selection keeps the previous day")
	})

	t.Run("BeyondHorizonReaderFilters", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false)
		for nav.GoToNextMonth() {
		}
		draft, err := nav.SelectDay(30)
		require.NoError(t, err)
		assert.Nil(t, draft)
	})

	t.Run("OutOfMonth", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false)
		_, err := nav.SelectDay(31)
		assert.True(t, errors.Is(err, models.ErrValidation))
		_, err = nav.SelectDay(0)
		assert.True(t, errors.Is(err, models.ErrValidation))
	})
}

func TestNavigator_VisibleBookings(t *testing.T) {
	now := at(2024, time.November, 10, 8, 0)
	store := &fakeLister{bookings: []models.Booking{
		venueBooking("B", 2, at(2024, time.November, 15, 14, 0), models.StatusPending),
		venueBooking("A", 1, at(2024, time.November, 15, 9, 0), models.StatusPending),
		venueBooking("C", 3, at(2024, time.November, 12, 9, 0), models.StatusPending),
		venueBooking("X", 4, at(2024, time.November, 15, 10, 0), models.StatusRejected),
		vehicleBooking("V", 5, at(2024, time.November, 15, 7, 0), models.StatusPending),
	}}
	nav := newTestNavigator(models.ResourceVenue, store, now, false)
	ctx := context.Background()

	all, err := nav.VisibleBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, ids(all))

	_, err = nav.SelectDay(15)
	require.NoError(t, err)
	onDay, err := nav.VisibleBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids(onDay))

	t.Run("StatusChangeTakesEffectImmediately", func(t *testing.T) {
		store.setStatus("A", models.StatusRejected)
		defer store.setStatus("A", models.StatusPending)

		got, err := nav.VisibleBookings(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, ids(got))

		conflicts, err := nav.Conflicts(ctx, at(2024, time.November, 15, 11, 0))
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, ids(conflicts))
	})

	t.Run("EmptyDayIsAvailable", func(t *testing.T) {
		_, err := nav.SelectDay(16)
		require.NoError(t, err)
		view, err := nav.View(ctx)
		require.NoError(t, err)
		assert.Empty(t, view.Bookings)
		assert.True(t, view.Available())
	})

	nav.ClearSelection()
	cleared, err := nav.VisibleBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, ids(cleared))
}

func TestNavigator_View(t *testing.T) {
	now := at(2024, time.November, 10, 8, 0)
	store := &fakeLister{bookings: []models.Booking{
		venueBooking("A", 1, at(2024, time.November, 15, 9, 0), models.StatusPending),
		venueBooking("D", 2, at(2024, time.December, 3, 9, 0), models.StatusPending),
	}}
	nav := newTestNavigator(models.ResourceVenue, store, now, true)
	ctx := context.Background()

	view, err := nav.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls, "grid and list come from one store read")
	assert.Equal(t, Month{2024, time.November}, view.Month)
	assert.Len(t, view.Cells, 5+30)
	assert.False(t, view.CanGoPrevious)
	assert.True(t, view.CanGoNext)
	assert.True(t, view.WriteCapable)
	assert.Nil(t, view.Selected)
	assert.False(t, view.Available())
	assert.Equal(t, []string{"A", "D"}, ids(view.Bookings))

	t.Run("StoreError", func(t *testing.T) {
		failing := &fakeLister{err: errors.New("boom")}
		_, err := newTestNavigator(models.ResourceVenue, failing, now, false).View(ctx)
		assert.Error(t, err)
	})
}

func TestNavigator_OpenDraft(t *testing.T) {
	now := time.Date(2024, time.November, 20, 3, 30, 45, 0, time.UTC)

	t.Run("ReadOnly", func(t *testing.T) {
		_, err := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false).OpenDraft()
		assert.ErrorIs(t, err, models.ErrReadOnly)
	})

	t.Run("DefaultsToNow", func(t *testing.T) {
		draft, err := newTestNavigator(models.ResourceVehicle, &fakeLister{}, now, true).OpenDraft()
		require.NoError(t, err)
		assert.True(t, draft.ScheduleDate.Equal(at(2024, time.November, 20, 10, 30)))
		assert.Equal(t, wib, draft.ScheduleDate.Location())
	})

	t.Run("UsesSelectedDay", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, true)
		_, err := nav.SelectDay(28)
		require.NoError(t, err)
		draft, err := nav.OpenDraft()
		require.NoError(t, err)
		assert.True(t, draft.ScheduleDate.Equal(at(2024, time.November, 28, 9, 0)))
	})
}

func TestNavigator_StateRoundTrip(t *testing.T) {
	now := at(2024, time.November, 20, 10, 30)
	nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false)
	nav.GoToNextMonth()
	_, err := nav.SelectDay(3)
	require.NoError(t, err)

	state := nav.State()
	assert.Equal(t, 2024, state.Year)
	assert.Equal(t, time.December, state.Month)
	assert.Equal(t, "2024-12-03", state.SelectedDay)

	restored := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false)
	restored.Restore(&state)
	assert.Equal(t, Month{2024, time.December}, restored.CurrentMonth())
	day, ok := restored.SelectedDay()
	require.True(t, ok)
	assert.Equal(t, Date{2024, time.December, 3}, day)

	t.Run("ClampsStaleMonth", func(t *testing.T) {
		stale := models.NavigatorState{Year: 2023, Month: time.January}
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false)
		nav.Restore(&stale)
		assert.Equal(t, Month{2024, time.November}, nav.CurrentMonth())

		far := models.NavigatorState{Year: 2030, Month: time.May}
		nav.Restore(&far)
		assert.Equal(t, Month{2025, time.November}, nav.CurrentMonth())
	})

	t.Run("DropsSelectionOutsideRestoredMonth", func(t *testing.T) {
		saved := models.NavigatorState{Year: 2024, Month: time.November, SelectedDay: "2024-11-25"}
		later := at(2025, time.January, 5, 8, 0)

		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, later, true)
		nav.Restore(&saved)
		assert.Equal(t, Month{2025, time.January}, nav.CurrentMonth())
		_, ok := nav.SelectedDay()
		assert.False(t, ok)

		draft, err := nav.OpenDraft()
		require.NoError(t, err)
		assert.True(t, draft.ScheduleDate.Equal(at(2025, time.January, 5, 8, 0)))

		mismatched := models.NavigatorState{Year: 2024, Month: time.December, SelectedDay: "2024-11-25"}
		nav = newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false)
		nav.Restore(&mismatched)
		assert.Equal(t, Month{2024, time.December}, nav.CurrentMonth())
		_, ok = nav.SelectedDay()
		assert.False(t, ok)
	})

	t.Run("OpenDraftPastHorizon", func(t *testing.T) {
		saved := models.NavigatorState{Year: 2025, Month: time.November, SelectedDay: "2025-11-30"}
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, true)
		nav.Restore(&saved)
		_, ok := nav.SelectedDay()
		require.True(t, ok)

		_, err := nav.OpenDraft()
		assert.True(t, errors.Is(err, models.ErrDateTooFar))
	})

	t.Run("NilState", func(t *testing.T) {
		nav := newTestNavigator(models.ResourceVenue, &fakeLister{}, now, false)
		nav.Restore(nil)
		assert.Equal(t, Month{2024, time.November}, nav.CurrentMonth())
	})
}

package calendar

import (
	"sort"
	"time"

	"facilitydesk/internal/models"
)

// SameDay reports whether a and b fall on the same calendar day in loc.
// Time of day is ignored.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DateOf(a, loc) == DateOf(b, loc)
}

// ConflictsOn returns the active bookings of resource scheduled on the same
// calendar day as candidate, in the order they were given. A zero candidate
// yields an empty result.
func ConflictsOn(candidate time.Time, resource models.ResourceType, bookings []models.Booking, loc *time.Location) []models.Booking {
	if candidate.IsZero() {
		return []models.Booking{}
	}
	return OnDay(DateOf(candidate, loc), scoped(bookings, resource), loc)
}

// OnDay returns the active bookings scheduled on day. Callers scope the input
// to one resource beforehand.
func OnDay(day Date, bookings []models.Booking, loc *time.Location) []models.Booking {
	out := make([]models.Booking, 0)
	for _, b := range bookings {
		if !b.Active() || b.ScheduleDate.IsZero() {
			continue
		}
		if DateOf(b.ScheduleDate, loc) == day {
			out = append(out, b)
		}
	}
	return out
}

// ActiveBookings returns the active, scheduled bookings of resource sorted by
// schedule ascending, ties kept in insertion order.
func ActiveBookings(bookings []models.Booking, resource models.ResourceType) []models.Booking {
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range scoped(bookings, resource) {
		if b.Active() && !b.ScheduleDate.IsZero() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ScheduleDate.Equal(out[j].ScheduleDate) {
			return out[i].ScheduleDate.Before(out[j].ScheduleDate)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func scoped(bookings []models.Booking, resource models.ResourceType) []models.Booking {
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Resource == resource {
			out = append(out, b)
		}
	}
	return out
}

package models

import "time"

// DefaultVenues is the facility catalogue used when configuration provides none.
var DefaultVenues = []string{
	"Aula Lantai III",
	"Ruang Sidang Lantai II",
	"Gedung Teater Museum",
	"Auditorium Ali Hasjmy",
	"Gedung Aula Gedung Psikologi",
}

const (
	// DefaultVehicleOrigin is where every vehicle trip starts.
	DefaultVehicleOrigin = "Kantor Pusat"

	// DefaultBookingHour is the time of day a calendar-seeded draft starts at.
	DefaultBookingHour = 9

	// DefaultMonthsAhead bounds forward calendar navigation and booking dates.
	DefaultMonthsAhead = 12

	// DefaultMaxBookingDays is the booking horizon in days from today.
	DefaultMaxBookingDays = 365

	// DefaultStateTTL is how long a navigator session survives without activity.
	DefaultStateTTL = 24 * time.Hour

	// DateLayout is the calendar-day wire format.
	DateLayout = "2006-01-02"

	// LocalDateTimeLayout matches a datetime-local form value.
	LocalDateTimeLayout = "2006-01-02T15:04"
)

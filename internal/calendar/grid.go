package calendar

import (
	"time"

	"facilitydesk/internal/models"
)

// DayCell is one square of a month grid. Padding cells have Day == 0.
type DayCell struct {
	Day        int              `json:"day"`
	Date       Date             `json:"date"`
	Bookings   []models.Booking `json:"bookings"`
	IsToday    bool             `json:"is_today"`
	IsPast     bool             `json:"is_past"`
	Selectable bool             `json:"selectable"`
}

func (c DayCell) IsPadding() bool {
	return c.Day == 0
}

// Available reports whether nothing is booked on the cell's day.
func (c DayCell) Available() bool {
	return len(c.Bookings) == 0
}

// BuildMonthGrid lays out month as leading padding cells (one per weekday
// before day 1, Sunday first) followed by one cell per day. Each day cell
// carries the active bookings that fall on it. A day is past only when it is
// strictly before today's date; past days without bookings are not selectable.
func BuildMonthGrid(month Month, bookings []models.Booking, now time.Time, loc *time.Location) []DayCell {
	padding := int(month.FirstWeekday())
	days := month.Days()
	today := DateOf(now, loc)

	cells := make([]DayCell, 0, padding+days)
	for i := 0; i < padding; i++ {
		cells = append(cells, DayCell{Bookings: []models.Booking{}})
	}

	for day := 1; day <= days; day++ {
		date := month.Date(day)
		onDay := OnDay(date, bookings, loc)
		past := date.Before(today)
		cells = append(cells, DayCell{
			Day:        day,
			Date:       date,
			Bookings:   onDay,
			IsToday:    date == today,
			IsPast:     past,
			Selectable: !past || len(onDay) > 0,
		})
	}
	return cells
}

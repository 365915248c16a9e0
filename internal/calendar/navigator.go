package calendar

import (
	"context"
	"fmt"
	"time"

	"facilitydesk/internal/models"
)

// BookingLister is the read side of the request store.
type BookingLister interface {
	ListBookings(ctx context.Context, resource models.ResourceType) ([]models.Booking, error)
}

// Options configure a Navigator. Zero values select the defaults.
type Options struct {
	Location *time.Location
	// Now is the wall clock; tests pin it.
	Now          func() time.Time
	WriteCapable bool
	// MonthsAhead is how far past the current month navigation may go.
	MonthsAhead int
	// MaxBookingDays is the last day, counted from today, a draft may be
	// opened on. Navigation can reach months beyond it for review.
	MaxBookingDays int
	// DefaultHour is the time of day seeded into drafts opened from a day.
	DefaultHour int
	// DefaultLocation is the venue preselected in venue drafts, or the fixed
	// origin of vehicle drafts.
	DefaultLocation string
}

// Navigator is the calendar controller for one resource. It keeps the month
// on screen and an optional day filter; bookings are read fresh from the
// store on every query and never cached.
type Navigator struct {
	resource        models.ResourceType
	source          BookingLister
	loc             *time.Location
	now             func() time.Time
	writable        bool
	monthsAhead     int
	maxBookingDays  int
	defaultHour     int
	defaultLocation string

	current  Month
	selected *Date
}

// View is everything a UI needs to render one calendar screen.
type View struct {
	Resource      models.ResourceType `json:"resource"`
	Month         Month               `json:"month"`
	Selected      *Date               `json:"selected_day,omitempty"`
	Cells         []DayCell           `json:"cells"`
	Bookings      []models.Booking    `json:"bookings"`
	CanGoPrevious bool                `json:"can_go_previous"`
	CanGoNext     bool                `json:"can_go_next"`
	WriteCapable  bool                `json:"write_capable"`
}

// Available is the empty-state signal: a day is selected and nothing is booked on it.
func (v View) Available() bool {
	return v.Selected != nil && len(v.Bookings) == 0
}

func NewNavigator(resource models.ResourceType, source BookingLister, opts Options) *Navigator {
	n := &Navigator{
		resource:        resource,
		source:          source,
		loc:             orLocal(opts.Location),
		now:             opts.Now,
		writable:        opts.WriteCapable,
		monthsAhead:     opts.MonthsAhead,
		maxBookingDays:  opts.MaxBookingDays,
		defaultHour:     opts.DefaultHour,
		defaultLocation: opts.DefaultLocation,
	}
	if n.now == nil {
		n.now = time.Now
	}
	if n.monthsAhead <= 0 {
		n.monthsAhead = models.DefaultMonthsAhead
	}
	if n.maxBookingDays <= 0 {
		n.maxBookingDays = models.DefaultMaxBookingDays
	}
	if n.defaultHour <= 0 || n.defaultHour > 23 {
		n.defaultHour = models.DefaultBookingHour
	}
	n.current = n.presentMonth()
	return n
}

func (n *Navigator) Resource() models.ResourceType { return n.resource }

func (n *Navigator) WriteCapable() bool { return n.writable }

func (n *Navigator) CurrentMonth() Month { return n.current }

// SelectedDay returns the active day filter, if any.
func (n *Navigator) SelectedDay() (Date, bool) {
	if n.selected == nil {
		return Date{}, false
	}
	return *n.selected, true
}

// Bounds returns the earliest and latest months navigation may reach.
func (n *Navigator) Bounds() (Month, Month) {
	present := n.presentMonth()
	return present, present.Add(n.monthsAhead)
}

func (n *Navigator) CanGoPrevious() bool {
	lower, _ := n.Bounds()
	return !n.current.Add(-1).Before(lower)
}

func (n *Navigator) CanGoNext() bool {
	_, upper := n.Bounds()
	return !n.current.Add(1).After(upper)
}

// GoToPreviousMonth steps back one month unless that would leave the present
// month behind. It reports whether the month changed.
func (n *Navigator) GoToPreviousMonth() bool {
	if !n.CanGoPrevious() {
		return false
	}
	n.current = n.current.Add(-1)
	return true
}

// GoToNextMonth steps forward one month unless that would pass the upper bound.
func (n *Navigator) GoToNextMonth() bool {
	if !n.CanGoNext() {
		return false
	}
	n.current = n.current.Add(1)
	return true
}

func (n *Navigator) JumpToToday() {
	n.current = n.presentMonth()
}

// SelectDay filters the visible list to day of the current month. For a
// write-capable caller it also returns a draft seeded at the default hour,
// which signals the UI to open the booking form; selecting a day before today
// or past the booking horizon then fails validation and leaves the state
// untouched.
func (n *Navigator) SelectDay(day int) (*models.BookingDraft, error) {
	if !n.current.Contains(day) {
		return nil, models.Invalid("day", fmt.Errorf("day %d is outside %s", day, n.current))
	}

	date := n.current.Date(day)
	if n.writable {
		if err := n.checkBookable(date); err != nil {
			return nil, err
		}
	}

	n.selected = &date
	if !n.writable {
		return nil, nil
	}
	return n.draftAt(date.At(n.defaultHour, 0, n.loc)), nil
}

func (n *Navigator) ClearSelection() {
	n.selected = nil
}

// OpenDraft opens the booking form without a day click: on the selected day
// at the default hour, or at the current minute when nothing is selected.
func (n *Navigator) OpenDraft() (*models.BookingDraft, error) {
	if !n.writable {
		return nil, models.ErrReadOnly
	}
	if n.selected != nil {
		if err := n.checkBookable(*n.selected); err != nil {
			return nil, err
		}
		return n.draftAt(n.selected.At(n.defaultHour, 0, n.loc)), nil
	}
	return n.draftAt(n.now().In(n.loc).Truncate(time.Minute)), nil
}

// VisibleBookings returns the selected day's bookings, or every active booking
// of the resource in schedule order when no day is selected.
func (n *Navigator) VisibleBookings(ctx context.Context) ([]models.Booking, error) {
	active, err := n.activeBookings(ctx)
	if err != nil {
		return nil, err
	}
	return n.visible(active), nil
}

// Grid builds the current month's cells.
func (n *Navigator) Grid(ctx context.Context) ([]DayCell, error) {
	active, err := n.activeBookings(ctx)
	if err != nil {
		return nil, err
	}
	return BuildMonthGrid(n.current, active, n.now(), n.loc), nil
}

// Conflicts lists same-day bookings for a proposed schedule, read from the
// store at call time.
func (n *Navigator) Conflicts(ctx context.Context, at time.Time) ([]models.Booking, error) {
	bookings, err := n.source.ListBookings(ctx, n.resource)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return ConflictsOn(at, n.resource, bookings, n.loc), nil
}

// View reads the store once and derives grid and list from the same snapshot.
func (n *Navigator) View(ctx context.Context) (*View, error) {
	active, err := n.activeBookings(ctx)
	if err != nil {
		return nil, err
	}

	view := &View{
		Resource:      n.resource,
		Month:         n.current,
		Cells:         BuildMonthGrid(n.current, active, n.now(), n.loc),
		Bookings:      n.visible(active),
		CanGoPrevious: n.CanGoPrevious(),
		CanGoNext:     n.CanGoNext(),
		WriteCapable:  n.writable,
	}
	if n.selected != nil {
		selected := *n.selected
		view.Selected = &selected
	}
	return view, nil
}

// State captures the navigation state for persistence.
func (n *Navigator) State() models.NavigatorState {
	state := models.NavigatorState{
		Resource: n.resource,
		Year:     n.current.Year,
		Month:    n.current.Month,
	}
	if n.selected != nil {
		state.SelectedDay = n.selected.String()
	}
	return state
}

// Restore applies a persisted state, clamping the month into the allowed
// window. A selected day survives only if it lies in the restored month.
func (n *Navigator) Restore(state *models.NavigatorState) {
	if !state.HasMonth() {
		return
	}

	month := Month{Year: state.Year, Month: state.Month}
	lower, upper := n.Bounds()
	switch {
	case month.Before(lower):
		month = lower
	case month.After(upper):
		month = upper
	}
	n.current = month

	n.selected = nil
	if y, m, d, ok := state.Selected(); ok {
		selected := Date{Year: y, Month: m, Day: d}
		if selected.MonthOf() == month {
			n.selected = &selected
		}
	}
}

func (n *Navigator) activeBookings(ctx context.Context) ([]models.Booking, error) {
	bookings, err := n.source.ListBookings(ctx, n.resource)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return ActiveBookings(bookings, n.resource), nil
}

func (n *Navigator) visible(active []models.Booking) []models.Booking {
	if n.selected == nil {
		return active
	}
	return OnDay(*n.selected, active, n.loc)
}

func (n *Navigator) draftAt(at time.Time) *models.BookingDraft {
	draft := &models.BookingDraft{
		Resource:     n.resource,
		ScheduleDate: at,
		Priority:     models.PriorityMedium,
	}
	switch n.resource {
	case models.ResourceVenue:
		draft.Venue = &models.VenueDetails{Location: n.defaultLocation}
	case models.ResourceVehicle:
		draft.Vehicle = &models.VehicleDetails{Origin: n.defaultLocation}
	}
	return draft
}

func (n *Navigator) presentMonth() Month {
	return MonthOf(n.now(), n.loc)
}

func (n *Navigator) today() Date {
	return DateOf(n.now(), n.loc)
}

// Horizon is the last day a draft may be opened on.
func (n *Navigator) Horizon() Date {
	return DateOf(n.now().In(n.loc).AddDate(0, 0, n.maxBookingDays), n.loc)
}

func (n *Navigator) checkBookable(day Date) error {
	if day.Before(n.today()) {
		return models.Invalid("day", models.ErrPastDate)
	}
	if n.Horizon().Before(day) {
		return models.Invalid("day", models.ErrDateTooFar)
	}
	return nil
}

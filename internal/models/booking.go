package models

import (
	"fmt"
	"strings"
	"time"
)

// ResourceType is a bookable shared resource kind.
type ResourceType string

const (
	ResourceVenue   ResourceType = "venue"
	ResourceVehicle ResourceType = "vehicle"
)

// ResourceTypes lists every bookable resource in display order.
var ResourceTypes = []ResourceType{ResourceVenue, ResourceVehicle}

func (r ResourceType) Valid() bool {
	return r == ResourceVenue || r == ResourceVehicle
}

// ParseResourceType accepts both singular and plural forms ("venue", "vehicles").
func ParseResourceType(raw string) (ResourceType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "venue", "venues":
		return ResourceVenue, nil
	case "vehicle", "vehicles":
		return ResourceVehicle, nil
	default:
		return "", fmt.Errorf("unknown resource type %q", raw)
	}
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the booking no longer occupies its day.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// CanTransitionTo reports whether an operator may move a booking from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress || next == StatusRejected
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// VenueDetails holds the venue-only booking fields.
type VenueDetails struct {
	Location     string `json:"location"`
	ActivityName string `json:"activity_name"`
}

// VehicleDetails holds the vehicle-only booking fields. Origin is fixed by configuration.
type VehicleDetails struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Booking is a scheduled service request for a venue or a vehicle.
// Exactly one of Venue and Vehicle is set, matching Resource.
type Booking struct {
	ID               string          `json:"id"`
	Resource         ResourceType    `json:"resource"`
	RequesterName    string          `json:"requester_name"`
	Description      string          `json:"description,omitempty"`
	ScheduleDate     time.Time       `json:"schedule_date"`
	Venue            *VenueDetails   `json:"venue,omitempty"`
	Vehicle          *VehicleDetails `json:"vehicle,omitempty"`
	ParticipantCount int             `json:"participant_count,omitempty"`
	Status           Status          `json:"status"`
	Priority         Priority        `json:"priority"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Seq is the store insertion order, used to break schedule ties.
	Seq int64 `json:"-"`
}

// Location returns the venue name or the vehicle origin.
func (b Booking) Location() string {
	switch {
	case b.Venue != nil:
		return b.Venue.Location
	case b.Vehicle != nil:
		return b.Vehicle.Origin
	}
	return ""
}

// Active reports whether the booking still counts on the calendar.
func (b Booking) Active() bool {
	return !b.Status.Terminal()
}

// BookingDraft carries everything needed to create a booking except the
// id, status and creation timestamp.
type BookingDraft struct {
	Resource         ResourceType    `json:"resource"`
	RequesterName    string          `json:"requester_name"`
	Description      string          `json:"description,omitempty"`
	ScheduleDate     time.Time       `json:"schedule_date"`
	Venue            *VenueDetails   `json:"venue,omitempty"`
	Vehicle          *VehicleDetails `json:"vehicle,omitempty"`
	ParticipantCount int             `json:"participant_count,omitempty"`
	Priority         Priority        `json:"priority"`
}

// Summary is the per-resource and per-status tally of stored bookings.
type Summary struct {
	Total      int                  `json:"total"`
	ByResource map[ResourceType]int `json:"by_resource"`
	ByStatus   map[Status]int       `json:"by_status"`
	Active     map[ResourceType]int `json:"active"`
}

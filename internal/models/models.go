package models

import (
	"fmt"
	"time"
)

// NavigatorState is the persisted part of a calendar session: the month on
// screen and the optional day filter.
type NavigatorState struct {
	SessionID   string       `json:"session_id"`
	Resource    ResourceType `json:"resource"`
	Year        int          `json:"year"`
	Month       time.Month   `json:"month"`
	SelectedDay string       `json:"selected_day,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// StateKey identifies one resource calendar within a session.
func StateKey(sessionID string, resource ResourceType) string {
	return fmt.Sprintf("%s:%s", sessionID, resource)
}

func (s *NavigatorState) Key() string {
	return StateKey(s.SessionID, s.Resource)
}

func (s *NavigatorState) HasMonth() bool {
	if s == nil {
		return false
	}
	return s.Year > 0 && s.Month >= time.January && s.Month <= time.December
}

// Selected returns the selected day's year, month and day.
func (s *NavigatorState) Selected() (int, time.Month, int, bool) {
	if s == nil || s.SelectedDay == "" {
		return 0, 0, 0, false
	}
	t, err := time.Parse(DateLayout, s.SelectedDay)
	if err != nil {
		return 0, 0, 0, false
	}
	y, m, d := t.Date()
	return y, m, d, true
}

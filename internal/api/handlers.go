package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"facilitydesk/internal/calendar"
	"facilitydesk/internal/models"

	"github.com/google/uuid"
)

const sessionHeader = "X-Session-ID"

var calendarActions = map[string]bool{
	"prev":   true,
	"next":   true,
	"today":  true,
	"clear":  true,
	"select": true,
	"draft":  true,
}

type calendarResponse struct {
	SessionID string `json:"session_id"`
	*calendar.View
	Draft *models.BookingDraft `json:"draft,omitempty"`
}

type bookingRequest struct {
	RequesterName    string          `json:"requester_name"`
	Description      string          `json:"description"`
	ScheduleDate     string          `json:"schedule_date"`
	Location         string          `json:"location"`
	ActivityName     string          `json:"activity_name"`
	Destination      string          `json:"destination"`
	ParticipantCount int             `json:"participant_count"`
	Priority         models.Priority `json:"priority"`
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

// sessionID reads the navigator session from the query or header, minting a
// new one for first-time callers.
func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.URL.Query().Get("session")); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.Header.Get(sessionHeader)); id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *HTTPServer) handleCalendar(resource models.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := CallerFromContext(r.Context())
		session := sessionID(r)

		nav, err := s.states.Open(r.Context(), session, resource, caller.CanWrite)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.respondCalendar(w, r, session, nav, nil)
	}
}

func (s *HTTPServer) handleCalendarAction(resource models.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := r.PathValue("action")
		if !calendarActions[action] {
			writeError(w, http.StatusNotFound, "unknown calendar action")
			return
		}

		caller, _ := CallerFromContext(r.Context())
		session := sessionID(r)
		ctx := r.Context()

		nav, err := s.states.Open(ctx, session, resource, caller.CanWrite)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		var draft *models.BookingDraft
		switch action {
		case "prev":
			nav.GoToPreviousMonth()
		case "next":
			nav.GoToNextMonth()
		case "today":
			nav.JumpToToday()
		case "clear":
			nav.ClearSelection()
		case "select":
			day, convErr := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("day")))
			if convErr != nil {
				s.writeServiceError(w, models.Invalid("day", errors.New("must be a day of the month")))
				return
			}
			draft, err = nav.SelectDay(day)
		case "draft":
			draft, err = nav.OpenDraft()
		}
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		if err := s.states.Save(ctx, session, nav); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.respondCalendar(w, r, session, nav, draft)
	}
}

func (s *HTTPServer) respondCalendar(w http.ResponseWriter, r *http.Request, session string,
	nav *calendar.Navigator, draft *models.BookingDraft) {
	view, err := nav.View(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set(sessionHeader, session)
	writeJSON(w, http.StatusOK, calendarResponse{SessionID: session, View: view, Draft: draft})
}

func (s *HTTPServer) handleConflicts(resource models.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("at"))
		if raw == "" {
			s.writeServiceError(w, models.Invalid("at", errors.New("is required")))
			return
		}
		at, err := calendar.ParseLocal(raw, s.loc)
		if err != nil {
			s.writeServiceError(w, models.Invalid("at", err))
			return
		}

		conflicts, err := s.bookings.ConflictsOn(r.Context(), resource, at)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"date":      calendar.DateOf(at, s.loc),
			"available": len(conflicts) == 0,
			"conflicts": nonNil(conflicts),
		})
	}
}

func (s *HTTPServer) handleListBookings(resource models.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookings, err := s.bookings.ListBookings(r.Context(), resource)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": nonNil(bookings)})
	}
}

func (s *HTTPServer) handleCreateBooking(resource models.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireWrite(w, r) {
			return
		}

		var body bookingRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		draft, err := s.draftFromRequest(resource, body)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		booking, conflicts, err := s.bookings.CreateBooking(r.Context(), draft)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"booking":   booking,
			"conflicts": nonNil(conflicts),
		})
	}
}

func (s *HTTPServer) draftFromRequest(resource models.ResourceType, body bookingRequest) (*models.BookingDraft, error) {
	draft := &models.BookingDraft{
		Resource:         resource,
		RequesterName:    body.RequesterName,
		Description:      body.Description,
		ParticipantCount: body.ParticipantCount,
		Priority:         body.Priority,
	}

	if raw := strings.TrimSpace(body.ScheduleDate); raw != "" {
		at, err := calendar.ParseLocal(raw, s.loc)
		if err != nil {
			return nil, models.Invalid("schedule_date", err)
		}
		draft.ScheduleDate = at
	}

	switch resource {
	case models.ResourceVenue:
		draft.Venue = &models.VenueDetails{Location: body.Location, ActivityName: body.ActivityName}
	case models.ResourceVehicle:
		draft.Vehicle = &models.VehicleDetails{Destination: body.Destination}
	}
	return draft, nil
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.bookings.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !requireWrite(w, r) {
		return
	}

	var body statusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.UpdateBookingStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	if !requireWrite(w, r) {
		return
	}

	if err := s.bookings.DeleteBooking(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.bookings.Summary(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().In(s.loc).Format(time.RFC3339),
	})
}

func nonNil(bookings []models.Booking) []models.Booking {
	if bookings == nil {
		return []models.Booking{}
	}
	return bookings
}

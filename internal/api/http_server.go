package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"facilitydesk/internal/config"
	"facilitydesk/internal/domain"
	"facilitydesk/internal/logging"
	"facilitydesk/internal/metrics"
	"facilitydesk/internal/models"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking calendars and request store as a JSON API.
type HTTPServer struct {
	bookings domain.BookingService
	states   domain.StateManager
	loc      *time.Location
	server   *http.Server
	auth     *HTTPAuth
	log      zerolog.Logger
}

func NewHTTPServer(cfg *config.APIConfig, bookings domain.BookingService, states domain.StateManager,
	loc *time.Location, logger *zerolog.Logger) *HTTPServer {
	if loc == nil {
		loc = time.Local
	}

	mux := http.NewServeMux()
	srv := &HTTPServer{
		bookings: bookings,
		states:   states,
		loc:      loc,
		auth:     NewHTTPAuth(cfg),
		log:      logging.Component(logger, "http"),
	}
	srv.routes(mux)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(srv.auth.Wrap(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			metrics.IncHTTP(pattern)
			h(w, r)
		})
	}

	for _, resource := range models.ResourceTypes {
		base := "/api/v1/" + string(resource) + "s"
		handle("GET "+base+"/calendar", s.handleCalendar(resource))
		handle("POST "+base+"/calendar/{action}", s.handleCalendarAction(resource))
		handle("GET "+base+"/conflicts", s.handleConflicts(resource))
		handle("GET "+base+"/bookings", s.handleListBookings(resource))
		handle("POST "+base+"/bookings", s.handleCreateBooking(resource))
	}

	handle("GET /api/v1/bookings/{id}", s.handleGetBooking)
	handle("POST /api/v1/bookings/{id}/status", s.handleUpdateStatus)
	handle("DELETE /api/v1/bookings/{id}", s.handleDeleteBooking)
	handle("GET /api/v1/summary", s.handleSummary)
	handle("GET /healthz", s.handleHealthz)
}

// Handler returns the fully wrapped handler, for embedding and tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HTTPAuth resolves the caller of every request and applies the per-key
// rate limit. Write permission is enforced by the handlers that need it.
type HTTPAuth struct {
	keys    *keyring
	limiter *rateLimiter
}

func NewHTTPAuth(cfg *config.APIConfig) *HTTPAuth {
	return &HTTPAuth{
		keys:    newKeyring(cfg),
		limiter: newRateLimiter(cfg),
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := strings.TrimSpace(r.Header.Get(a.keys.keyHeader))
		extra := strings.TrimSpace(r.Header.Get(a.keys.extraHeader))

		caller, err := a.keys.authenticate(apiKey, extra)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		if !a.limiter.allow(a.clientKey(r, apiKey)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

func (a *HTTPAuth) clientKey(r *http.Request, apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		event := s.log.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = s.log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// requireWrite rejects callers without write permission with 403.
func requireWrite(w http.ResponseWriter, r *http.Request) bool {
	caller, _ := CallerFromContext(r.Context())
	if !caller.CanWrite {
		writeError(w, http.StatusForbidden, models.ErrReadOnly.Error())
		return false
	}
	return true
}

// writeServiceError maps domain errors to status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	if ve := models.AsValidationError(err); ve != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  ve.Error(),
			"fields": ve.Fields(),
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrReadOnly):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

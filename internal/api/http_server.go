package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hallbook/internal/config"
	"hallbook/internal/domain"
	"hallbook/internal/metrics"
	"hallbook/internal/models"
	"hallbook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking API.
type HTTPServer struct {
	cfg     config.HTTPConfig
	svc     domain.BookingService
	limiter domain.RateLimitStore
	logger  zerolog.Logger
	server  *http.Server
}

func NewHTTPServer(cfg config.HTTPConfig, svc domain.BookingService, limiter domain.RateLimitStore, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		svc:     svc,
		limiter: limiter,
		logger:  logger.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingSubpath)
	mux.HandleFunc("/api/v1/my-bookings", srv.handleMyBookings)
	mux.HandleFunc("/healthz", srv.handleHealth)

	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	limit := 0
	if cfg.RateLimit.Enabled {
		limit = cfg.RateLimit.Requests
	}

	handler := srv.loggingMiddleware(
		rateLimitMiddleware(limiter, limit, window, srv.logger, mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the full middleware chain, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("id") != "" {
			s.handleGetBooking(w, r)
			return
		}
		s.handleListBookings(w, r)
	case http.MethodPost:
		s.handleCreateBooking(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleBookingSubpath dispatches /api/v1/bookings/{id} and
// /api/v1/bookings/export.
func (s *HTTPServer) handleBookingSubpath(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	if rest == "export" {
		s.handleExport(w, r)
		return
	}

	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleUpdateStatus(w, r, rest)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var sub models.BookingSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.svc.Create(r.Context(), sub, bearerToken(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_booking")

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &service.Error{Code: service.CodeInvalidID, Message: "Valid ID is required"})
		return
	}

	booking, svcErr := s.svc.Get(r.Context(), id)
	if svcErr != nil {
		s.writeServiceError(w, r, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	q := r.URL.Query()
	filter := models.BookingFilter{
		Status: strings.TrimSpace(q.Get("status")),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.Limit = v
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.Offset = v
		}
	}

	bookings, err := s.svc.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}

	writeJSON(w, http.StatusOK, bookings)
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	metrics.IncHTTP("update_status")

	if _, err := s.svc.RequireAdmin(r.Context(), bearerToken(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || strings.Contains(rawID, "/") {
		writeJSON(w, http.StatusBadRequest, &service.Error{Code: service.CodeInvalidID, Message: "Invalid booking ID"})
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, svcErr := s.svc.UpdateStatus(r.Context(), id, body.Status)
	if svcErr != nil {
		s.writeServiceError(w, r, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("my_bookings")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookings, err := s.svc.ListMine(r.Context(), bearerToken(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}

	writeJSON(w, http.StatusOK, bookings)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps a domain error onto the HTTP contract. Anything
// that is not a *service.Error is an internal fault and stays opaque.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.Error
	if errors.As(err, &verr) {
		if verr.Code == service.CodeDateConflict {
			metrics.IncBookingConflicts()
		}
		writeJSON(w, statusForCode(verr.Code), verr)
		return
	}

	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func statusForCode(code string) int {
	switch code {
	case service.CodeDateConflict:
		return http.StatusConflict
	case service.CodeBookingNotFound:
		return http.StatusNotFound
	case service.CodeUnauthorized:
		return http.StatusUnauthorized
	case service.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
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

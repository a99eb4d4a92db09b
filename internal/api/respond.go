package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/pkg/dateutil"
)

type errorResponse struct {
	Error string       `json:"error"`
	Kind  holiday.Kind `json:"kind"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := holiday.KindOf(err)
	status := statusFor(kind)

	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("kind", string(kind)),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", fields...)
	} else {
		s.logger.Debug("Request rejected", fields...)
	}

	msg := err.Error()
	if kind == holiday.KindInternal {
		msg = "internal error"
	}
	s.writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func statusFor(kind holiday.Kind) int {
	switch kind {
	case holiday.KindInvalidCountry, holiday.KindInvalidRange, holiday.KindInvalidDate, holiday.KindInvalidRequest:
		return http.StatusBadRequest
	case holiday.KindChatTimeout:
		return http.StatusGatewayTimeout
	case holiday.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// dateParam parses a required YYYY-MM-DD query parameter
func dateParam(r *http.Request, name string) (time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", holiday.ErrInvalidDate, name)
	}
	d, err := dateutil.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", holiday.ErrInvalidDate, name, err)
	}
	return d, nil
}

// boolParam parses an optional boolean query parameter
func boolParam(r *http.Request, name string, fallback bool) (bool, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false, got %q", holiday.ErrInvalidRequest, name, value)
	}
	return b, nil
}

// intValue parses a required integer within [lo, hi]
func intValue(value, name string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d, got %q", holiday.ErrInvalidDate, name, lo, hi, value)
	}
	return n, nil
}

// countValue parses a required count within [lo, hi]
func countValue(value, name string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d, got %q", holiday.ErrInvalidRequest, name, lo, hi, value)
	}
	return n, nil
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"workclock.service/internal/core/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// statusFor maps the core error taxonomy onto HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateIdentity), errors.Is(err, model.ErrKioskOccupied):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidRange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: request body: %v", model.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s", model.ErrInvalidInput, name)
	}
	return id, nil
}

// periodFromQuery reads ?year=&month=, defaulting to the current UTC month.
func periodFromQuery(r *http.Request, now time.Time) (model.Period, error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		return model.PeriodOf(now), nil
	}
	year, yerr := strconv.Atoi(q.Get("year"))
	month, merr := strconv.Atoi(q.Get("month"))
	if yerr != nil || merr != nil {
		return model.Period{}, fmt.Errorf("%w: year and month must both be numbers", model.ErrInvalidInput)
	}
	return model.NewPeriod(year, month)
}

// clientIP prefers the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

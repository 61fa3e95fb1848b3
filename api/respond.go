package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/validation"
	"github.com/garnizeh/capacity/pkg/repository"
)

// envelope is the body of every JSON response.
type envelope struct {
	Status    string               `json:"status"`
	Message   string               `json:"message,omitempty"`
	Count     *int64               `json:"count,omitempty"`
	Data      any                  `json:"data,omitempty"`
	Available *int                 `json:"available,omitempty"`
	Problems  []validation.Problem `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, envelope{Status: "success", Message: message, Data: data}, status)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, envelope{Status: "error", Message: message}, status)
}

// writeError maps err onto a status code. Only unexpected failures are logged
// at error level.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		capErr *capacity.CapacityExceededError
		valErr *validation.Error
	)
	switch {
	case errors.As(err, &capErr):
		available := capErr.Available
		writeJSON(w, envelope{Status: "error", Message: capErr.Error(), Available: &available}, http.StatusBadRequest)
	case errors.As(err, &valErr):
		writeJSON(w, envelope{Status: "error", Message: "invalid request body", Problems: valErr.Problems}, http.StatusBadRequest)
	case errors.Is(err, capacity.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, capacity.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		writeMessage(w, http.StatusConflict, "allocation changed concurrently, retry the request")
	default:
		logger.Error("request failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, &capacity.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, &capacity.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

const maxPage = 1 << 20

// paging reads limit (default 10, at most 500) and page (1-based, clamped to
// maxPage so the offset cannot overflow).
func paging(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = 10
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = min(v, maxPage)
	}
	return limit, (page - 1) * limit
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and plain calendar dates (UTC midnight).
func parseDate(field, s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &capacity.ValidationError{Field: field, Reason: fmt.Sprintf("unrecognised date %q", s)}
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

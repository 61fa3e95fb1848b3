package api

import (
	"net/http"
	"time"

	"github.com/garnizeh/capacity/internal/analytics"
	"github.com/garnizeh/capacity/internal/capacity"
	"github.com/garnizeh/capacity/internal/snapshot"
)

// AnalyticsHandler serves the read-only reports. Each request loads its own
// snapshot and reports as of the time it was taken.
type AnalyticsHandler struct {
	reader *snapshot.Reader
}

func NewAnalyticsHandler(reader *snapshot.Reader) *AnalyticsHandler {
	return &AnalyticsHandler{reader: reader}
}

// report loads a snapshot and writes whatever build makes of it at s.TakenAt.
func (h *AnalyticsHandler) report(build func(*snapshot.Snapshot, time.Time) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.reader.Load(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, "", build(s, s.TakenAt))
	}
}

func (h *AnalyticsHandler) Team() http.HandlerFunc {
	return h.report(func(s *snapshot.Snapshot, _ time.Time) any { return analytics.TeamAnalytics(s) })
}

func (h *AnalyticsHandler) Capacity() http.HandlerFunc {
	return h.report(func(s *snapshot.Snapshot, _ time.Time) any { return analytics.CapacityPlanning(s) })
}

func (h *AnalyticsHandler) ManagerDashboard() http.HandlerFunc {
	return h.report(func(s *snapshot.Snapshot, now time.Time) any { return analytics.ManagerDashboard(s, now) })
}

func (h *AnalyticsHandler) TeamUtilization() http.HandlerFunc {
	return h.report(func(s *snapshot.Snapshot, now time.Time) any { return analytics.TeamUtilization(s, now) })
}

// EngineerDashboard reports on the authenticated user.
func (h *AnalyticsHandler) EngineerDashboard(w http.ResponseWriter, r *http.Request) {
	id := UserID(r.Context())
	v, err := h.reader.LoadForEngineer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if v == nil {
		writeError(w, r, &capacity.NotFoundError{Entity: "engineer", ID: id})
		return
	}
	writeData(w, http.StatusOK, "", analytics.EngineerDashboard(v, v.TakenAt))
}

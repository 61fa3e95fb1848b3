package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SystemHandler struct {
	Gatherer prometheus.Gatherer
}

func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "service": "capacity"}, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": version, "buildTime": buildTime}, http.StatusOK)
	}
}

// MetricsHandler exposes the gatherer, or the default registry when none is set.
func (h *SystemHandler) MetricsHandler() http.Handler {
	if h.Gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})
}

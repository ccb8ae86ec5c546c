package handlers

import (
	"net/http"
)

// PrometheusMetrics serves the collectors registered on a.Metrics.
func (a *App) PrometheusMetrics(w http.ResponseWriter, r *http.Request) {
	if a.Metrics == nil {
		http.NotFound(w, r)
		return
	}
	a.Metrics.Handler().ServeHTTP(w, r)
}

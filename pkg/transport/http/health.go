package http

import (
	"net/http"
)

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
}

// handleHealthz handles GET /healthz. It reports degraded with a 503
// when the backing store fails its health check.
func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		if err := a.store.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

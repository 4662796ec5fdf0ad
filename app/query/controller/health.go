package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
)

// HandleHealth is the liveness probe. It never calls upstreams.
func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleReady reports the result of the last scheduled upstream probe.
func (c *Controller) HandleReady(w http.ResponseWriter, r *http.Request) {
	ready := c.App.Readiness()
	if !ready.Ready {
		writeJSON(w, http.StatusServiceUnavailable, ready)
		return
	}
	writeJSON(w, http.StatusOK, ready)
}

// Package health contiene los controllers de health check.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
)

// Controller responde liveness y readiness. La readiness depende del
// directorio: si no responde al ping, el broker no puede resolver flujos.
type Controller struct {
	store core.Store
}

// NewController crea el controller de health.
func NewController(store core.Store) *Controller {
	return &Controller{store: store}
}

// Health maneja GET /healthz: el proceso está vivo.
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Ready maneja GET /readyz: el directorio responde.
func (c *Controller) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if err := c.store.Ping(r.Context()); err != nil {
		logger.From(r.Context()).Warn("readiness check failed", logger.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "reason": "directory"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

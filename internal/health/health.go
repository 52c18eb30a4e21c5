// Package health serves the liveness and readiness probes.
package health

import (
	"net/http"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// Check reports whether one dependency is usable. A nil error means ready.
type Check func() error

// Health tracks readiness. The zero value is not ready.
type Health struct {
	mu     sync.RWMutex
	ready  bool
	checks map[string]Check
}

// New returns a Health that is not yet ready.
func New() *Health {
	return &Health{checks: make(map[string]Check)}
}

// SetReady marks the service ready or draining.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	h.ready = ready
	h.mu.Unlock()
}

// Register adds a named readiness check.
func (h *Health) Register(name string, c Check) {
	h.mu.Lock()
	h.checks[name] = c
	h.mu.Unlock()
}

// Status runs every check and returns the failures by name.
func (h *Health) Status() (bool, map[string]string) {
	h.mu.RLock()
	ready := h.ready
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = h.checks[name]
	}
	h.mu.RUnlock()

	failed := map[string]string{}
	for i, c := range checks {
		if err := c(); err != nil {
			failed[names[i]] = err.Error()
		}
	}
	return ready && len(failed) == 0, failed
}

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

// Readyz returns 200 "ready\n" when the service is ready, otherwise 503
// with the failing checks.
func (h *Health) Readyz(c *gin.Context) {
	ok, failed := h.Status()
	if ok {
		c.String(http.StatusOK, "ready\n")
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "failed": failed})
}

package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusDegraded     = "degraded"

	catalogCheckTimeout = 5 * time.Second
)

// HealthChecker serves the liveness and readiness probes.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startTime time.Time
}

// NewHealthChecker creates a HealthChecker that starts out ready. sc may be
// nil in tests.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, startTime: time.Now()}
	h.ready.Store(true)
	return h
}

func (h *HealthChecker) SetReady(ready bool) { h.ready.Store(ready) }

func (h *HealthChecker) IsReady() bool { return h.ready.Load() }

func (h *HealthChecker) shuttingDown() bool {
	return h.sc != nil && h.sc.IsShutdown()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	DefaultModel string            `json:"defaultModel,omitempty"`
	Checks       map[string]string `json:"checks"`
}

// LivenessHandler always answers ok while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

func (h *HealthChecker) readiness() (map[string]string, bool) {
	checks := map[string]string{"ready": healthStatusOK, "shutdown": healthStatusOK}
	ok := true
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		ok = false
	}
	if h.shuttingDown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
	}
	return checks, ok
}

// ReadinessHandler answers 503 until the server is ready and after
// shutdown began.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, ok := h.readiness()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
	})
}

// DetailedHealthHandler adds uptime and the model catalog state. An
// unreachable catalog degrades the status but keeps a 200.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks, ok := h.readiness()
		resp := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			Checks: checks,
		}
		if !ok {
			resp.Status = healthStatusNotReady
			if h.shuttingDown() {
				resp.Status = healthStatusShuttingDown
			}
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		if h.sc != nil && h.sc.models != nil {
			ctx, cancel := context.WithTimeout(r.Context(), catalogCheckTimeout)
			id, err := h.sc.models.DefaultModel(ctx)
			cancel()
			if err != nil {
				checks["catalog"] = err.Error()
				resp.Status = healthStatusDegraded
			} else {
				checks["catalog"] = healthStatusOK
				resp.DefaultModel = id
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// RegisterHealthEndpoints adds /healthz, /readyz and /healthz/detailed.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

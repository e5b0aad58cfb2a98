package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks liveness signals from the bot loop and serves them as
// a JSON health endpoint.
type HealthChecker struct {
	mu        sync.RWMutex
	lastCycle time.Time
	lastError string
	// staleAfter marks the process degraded when no cycle completed in time.
	staleAfter time.Duration
}

// HealthStatus is the endpoint's response body.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LastCycle time.Time `json:"last_cycle"`
	Uptime    string    `json:"uptime"`
	LastError string    `json:"last_error,omitempty"`
}

func NewHealthChecker(staleAfter time.Duration) *HealthChecker {
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	return &HealthChecker{staleAfter: staleAfter}
}

// CycleCompleted records a successful evaluation cycle.
func (h *HealthChecker) CycleCompleted() {
	h.mu.Lock()
	h.lastCycle = time.Now()
	h.lastError = ""
	h.mu.Unlock()
}

// CycleFailed records the most recent cycle error.
func (h *HealthChecker) CycleFailed(err error) {
	h.mu.Lock()
	h.lastError = err.Error()
	h.mu.Unlock()
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	switch {
	case h.lastError != "":
		status = "unhealthy"
		code = http.StatusInternalServerError
	case h.lastCycle.IsZero() || time.Since(h.lastCycle) > h.staleAfter:
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		LastCycle: h.lastCycle,
		Uptime:    time.Since(startTime).String(),
		LastError: h.lastError,
	})
}

// Serve starts the metrics and health HTTP server on addr. It blocks until
// the server stops.
func Serve(addr string, health *HealthChecker) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	mux.Handle("/health", health)
	return http.ListenAndServe(addr, mux)
}

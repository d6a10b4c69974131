// Package health serves the liveness and readiness probes for the Recite
// server.
//
//   - GET /healthz — liveness; a process that can answer HTTP is alive.
//   - GET /readyz  — readiness; 200 only when every registered backend
//     probe (history store, speech providers) passes.
//
// Probe responses are JSON: {"service":"recite","status":...,"checks":{...}}.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// serviceName appears in every probe payload so fleet dashboards can tell
// which service answered.
const serviceName = "recite"

// probeTimeout bounds one backend probe. A history store that cannot answer
// a ping in this window is not ready, whatever the eventual outcome.
const probeTimeout = 5 * time.Second

// Checker probes one backend the server depends on. Check returns nil when
// the backend can serve practice traffic and an error describing the problem
// otherwise; it must respect context cancellation.
type Checker struct {
	// Name keys the probe result in the JSON payload (e.g. "postgres").
	Name string

	Check func(ctx context.Context) error
}

// payload is the JSON body of both probe endpoints.
type payload struct {
	Service string            `json:"service"`
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Handler answers the probe endpoints. The checker list is fixed at
// construction time; Handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a [Handler] that evaluates the given checkers, in order, on
// each readiness request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz always answers 200. Liveness only asserts the process serves HTTP.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, payload{Service: serviceName, Status: "ok"})
}

// Readyz runs every backend probe with a [probeTimeout] deadline derived
// from the request context and answers 503 when any probe fails, listing the
// per-backend outcomes.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := payload{
		Service: serviceName,
		Status:  "ok",
		Checks:  make(map[string]string, len(h.checkers)),
	}
	status := http.StatusOK

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			res.Checks[c.Name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[c.Name] = "ok"
	}

	writeJSON(w, status, res)
}

// Register adds both probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}

// Package ops serves the relay's operational HTTP endpoints: a liveness
// probe and a readiness probe fed by named checks.
package ops

import (
	"encoding/json"
	"net/http"
	"time"
)

// Status classifies a probe outcome.
type Status string

const (
	StatusOK   Status = "OK"
	StatusFail Status = "FAIL"
)

// Check is a named readiness probe. Probe returns nil when the
// dependency it guards is usable.
type Check struct {
	Name  string
	Probe func() error
}

// CheckResult reports the outcome of a single readiness probe.
type CheckResult struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Health is the response body for both probe endpoints.
type Health struct {
	Status  Status            `json:"status"`
	Time    time.Time         `json:"time"`
	Details map[string]string `json:"details,omitempty"`
	Checks  []CheckResult     `json:"checks,omitempty"`
}

// healthHandler handles GET /healthz.
func healthHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, Health{
			Status: StatusOK,
			Time:   time.Now().UTC(),
			Details: map[string]string{
				"version":   version,
				"buildTime": buildTime,
			},
		})
	}
}

// readyHandler handles GET /readyz. Any failing check turns the
// response into a 503 carrying every probe result.
func readyHandler(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := Health{Status: StatusOK, Time: time.Now().UTC()}
		status := http.StatusOK

		for _, c := range checks {
			result := CheckResult{Name: c.Name, Status: StatusOK}
			if err := c.Probe(); err != nil {
				result.Status = StatusFail
				result.Detail = err.Error()
				health.Status = StatusFail
				status = http.StatusServiceUnavailable
			}
			health.Checks = append(health.Checks, result)
		}

		writeJSON(w, r, status, health)
	}
}

// writeJSON writes a JSON response with the request id echoed in the
// X-Request-Id header for correlation.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	if id := GetRequestID(r.Context()); id != "" {
		w.Header().Set("X-Request-Id", id)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

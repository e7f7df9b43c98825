// Package responses defines API response types used by autopipe HTTP handlers.
package responses

import "time"

// JobsResponse lists the jobs visible to the supplied credentials, in server order.
type JobsResponse struct {
	Jobs []string `json:"jobs"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// ProbeResponse is the last CI reachability probe result.
type ProbeResponse struct {
	Server    string    `json:"server"`
	OK        bool      `json:"ok"`
	Jobs      int       `json:"jobs"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// ReadyResponse reports whether the service can accept submits.
type ReadyResponse struct {
	Ready bool           `json:"ready"`
	Probe *ProbeResponse `json:"probe,omitempty"`
}

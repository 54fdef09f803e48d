package domain

import "time"

type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Result is the outcome of a single probe. LatencyMS and HTTPStatus are nil
// when no response was received.
type Result struct {
	Domain     string    `json:"domain"`
	Endpoint   string    `json:"endpoint"`
	URL        string    `json:"url"`
	Method     string    `json:"method"`
	Timestamp  time.Time `json:"timestamp"`
	Status     Status    `json:"status"`
	LatencyMS  *float64  `json:"latency_ms"`
	HTTPStatus *int      `json:"http_status"`
	Reason     string    `json:"reason,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
}

func (r Result) Up() bool { return r.Status == StatusUp }

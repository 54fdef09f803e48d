package domain

import (
	"math"
	"time"
)

// DomainStats are the all-time probe counters of one domain.
type DomainStats struct {
	Total int64 `json:"total"`
	Up    int64 `json:"up"`
}

// Availability is 100*Up/Total. ok is false until the first probe.
func (s DomainStats) Availability() (pct float64, ok bool) {
	if s.Total == 0 {
		return 0, false
	}
	return float64(s.Up) / float64(s.Total) * 100, true
}

// DomainAvailability is one row of a Snapshot. Window is set only when the
// aggregator keeps a rolling window.
type DomainAvailability struct {
	Domain  string   `json:"domain"`
	Total   int64    `json:"total"`
	Up      int64    `json:"up"`
	Percent float64  `json:"availability"`
	Window  *float64 `json:"window_availability,omitempty"`
}

// Rounded is Percent rounded to two decimals for display.
func (d DomainAvailability) Rounded() float64 {
	return Round2(d.Percent)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Snapshot is the per-cycle availability view, sorted by domain.
type Snapshot struct {
	RunID   string               `json:"run_id"`
	Cycle   int64                `json:"cycle"`
	TakenAt time.Time            `json:"taken_at"`
	Domains []DomainAvailability `json:"domains"`
}

// Percentages maps domain to full-precision availability.
func (s Snapshot) Percentages() map[string]float64 {
	out := make(map[string]float64, len(s.Domains))
	for _, d := range s.Domains {
		out[d.Domain] = d.Percent
	}
	return out
}

package probe

import (
	"context"
	"time"

	"github.com/hamed0406/healthchecker/internal/domain"
)

// Prober performs exactly one probe of one endpoint. Implementations never
// fail: every failure is reported as a DOWN result.
type Prober interface {
	Probe(ctx context.Context, ep domain.Endpoint) domain.Result
}

const DefaultMaxLatency = 500 * time.Millisecond

// Policy decides UP/DOWN for a received response.
type Policy struct {
	MaxLatency time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxLatency: DefaultMaxLatency}
}

// Classify is UP only for a 2xx answered strictly faster than MaxLatency.
func (p Policy) Classify(statusCode int, latency time.Duration) domain.Status {
	if statusCode >= 200 && statusCode < 300 && latency < p.maxLatency() {
		return domain.StatusUp
	}
	return domain.StatusDown
}

func (p Policy) maxLatency() time.Duration {
	if p.MaxLatency <= 0 {
		return DefaultMaxLatency
	}
	return p.MaxLatency
}

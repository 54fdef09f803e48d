package probe

import (
	"testing"
	"time"

	"github.com/hamed0406/healthchecker/internal/domain"
)

func TestPolicy_Classify(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		code    int
		latency time.Duration
		want    domain.Status
	}{
		{200, 50 * time.Millisecond, domain.StatusUp},
		{204, 499 * time.Millisecond, domain.StatusUp},
		{299, 10 * time.Millisecond, domain.StatusUp},
		{200, 500 * time.Millisecond, domain.StatusDown},
		{200, 600 * time.Millisecond, domain.StatusDown},
		{199, 10 * time.Millisecond, domain.StatusDown},
		{300, 10 * time.Millisecond, domain.StatusDown},
		{301, 10 * time.Millisecond, domain.StatusDown},
		{404, 10 * time.Millisecond, domain.StatusDown},
		{503, 80 * time.Millisecond, domain.StatusDown},
	}
	for _, c := range cases {
		if got := p.Classify(c.code, c.latency); got != c.want {
			t.Fatalf("Classify(%d, %v)=%s want %s", c.code, c.latency, got, c.want)
		}
	}
}

func TestPolicy_ZeroValueUsesDefaultBound(t *testing.T) {
	var p Policy
	if got := p.Classify(200, 499*time.Millisecond); got != domain.StatusUp {
		t.Fatalf("want UP under default bound, got %s", got)
	}
	if got := p.Classify(200, 500*time.Millisecond); got != domain.StatusDown {
		t.Fatalf("want DOWN at default bound, got %s", got)
	}
}

func TestPolicy_CustomBound(t *testing.T) {
	p := Policy{MaxLatency: 2 * time.Second}
	if got := p.Classify(200, 1500*time.Millisecond); got != domain.StatusUp {
		t.Fatalf("want UP under custom bound, got %s", got)
	}
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hamed0406/healthchecker/internal/domain"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AppendAndRecent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	lat, code := 12.5, 204
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []domain.Result{
		{RunID: "r1", Domain: "a.test", Endpoint: "a", URL: "https://a.test", Method: "GET",
			Timestamp: t0, Status: domain.StatusUp, LatencyMS: &lat, HTTPStatus: &code, Reason: "204 No Content"},
		{RunID: "r1", Domain: "b.test", Endpoint: "b", URL: "https://b.test", Method: "HEAD",
			Timestamp: t0.Add(time.Second), Status: domain.StatusDown, Reason: "connection refused"},
	}
	if err := s.AppendResults(ctx, in); err != nil {
		t.Fatalf("AppendResults: %v", err)
	}
	if err := s.AppendResults(ctx, nil); err != nil {
		t.Fatalf("AppendResults(nil): %v", err)
	}

	got, err := s.RecentResults(ctx, 10)
	if err != nil {
		t.Fatalf("RecentResults: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].Endpoint != "b" || got[0].LatencyMS != nil || got[0].HTTPStatus != nil {
		t.Fatalf("newest row should be b without latency/status, got %+v", got[0])
	}
	if got[1].LatencyMS == nil || *got[1].LatencyMS != 12.5 || got[1].HTTPStatus == nil || *got[1].HTTPStatus != 204 {
		t.Fatalf("nullable columns not round-tripped: %+v", got[1])
	}
	if !got[1].Timestamp.Equal(t0) || got[1].Status != domain.StatusUp {
		t.Fatalf("unexpected row: %+v", got[1])
	}

	one, _ := s.RecentResults(ctx, 1)
	if len(one) != 1 {
		t.Fatalf("limit not applied, got %d", len(one))
	}
}

func TestStore_AppendTrend(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	win := 50.0
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, pct := range []float64{100, 66.67} {
		snap := domain.Snapshot{
			RunID:   "r1",
			Cycle:   int64(i + 1),
			TakenAt: t0.Add(time.Duration(i) * time.Minute),
			Domains: []domain.DomainAvailability{{Domain: "a.test", Total: 3, Up: 2, Percent: pct, Window: &win}},
		}
		if err := s.AppendTrend(ctx, snap); err != nil {
			t.Fatalf("AppendTrend: %v", err)
		}
	}

	pts, err := s.Trends(ctx)
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	if len(pts) != 2 || pts[0].Availability != 100 || pts[1].Availability != 66.67 {
		t.Fatalf("unexpected trend rows: %+v", pts)
	}
	if !pts[1].Timestamp.Equal(t0.Add(time.Minute)) {
		t.Fatalf("timestamp not preserved: %v", pts[1].Timestamp)
	}
}

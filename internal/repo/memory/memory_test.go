package memory

import (
	"context"
	"testing"

	"github.com/hamed0406/healthchecker/internal/domain"
)

func TestMemoryStore_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(10)

	if err := s.AppendResults(ctx, []domain.Result{{Endpoint: "a"}, {Endpoint: "b"}}); err != nil {
		t.Fatalf("AppendResults: %v", err)
	}
	if err := s.AppendResults(ctx, []domain.Result{{Endpoint: "c"}}); err != nil {
		t.Fatalf("AppendResults: %v", err)
	}

	got, err := s.RecentResults(ctx, 2)
	if err != nil {
		t.Fatalf("RecentResults: %v", err)
	}
	if len(got) != 2 || got[0].Endpoint != "c" || got[1].Endpoint != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}

	all, _ := s.RecentResults(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("limit 0 should return everything, got %d", len(all))
	}
}

func TestMemoryStore_DropsOldest(t *testing.T) {
	ctx := context.Background()
	s := New(3)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_ = s.AppendResults(ctx, []domain.Result{{Endpoint: name}})
		_ = s.AppendTrend(ctx, domain.Snapshot{RunID: name})
	}

	rows := s.Results()
	if len(rows) != 3 || rows[0].Endpoint != "c" || rows[2].Endpoint != "e" {
		t.Fatalf("want c..e kept, got %+v", rows)
	}
	trends := s.Trends()
	if len(trends) != 3 || trends[0].RunID != "c" {
		t.Fatalf("want c..e snapshots kept, got %+v", trends)
	}
	if dr, dt := s.Dropped(); dr != 2 || dt != 2 {
		t.Fatalf("want 2 dropped of each, got results=%d trends=%d", dr, dt)
	}
}

func TestMemoryStore_TrendIsCopied(t *testing.T) {
	ctx := context.Background()
	s := New(5)
	snap := domain.Snapshot{Domains: []domain.DomainAvailability{{Domain: "x", Percent: 50}}}
	_ = s.AppendTrend(ctx, snap)
	snap.Domains[0].Percent = 0

	if got := s.Trends()[0].Domains[0].Percent; got != 50 {
		t.Fatalf("stored snapshot shares memory with caller, got %v", got)
	}
}

package csvfile

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hamed0406/healthchecker/internal/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestStore_AppendResults_HeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lat, code := 42.5, 200
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	up := domain.Result{Domain: "example.com", Endpoint: "home", URL: "https://example.com", Method: "GET",
		Timestamp: ts, Status: domain.StatusUp, LatencyMS: &lat, HTTPStatus: &code, Reason: "200 OK", RunID: "r1"}
	down := domain.Result{Domain: "down.test", Endpoint: "down, with comma", URL: "https://down.test", Method: "GET",
		Timestamp: ts, Status: domain.StatusDown, Reason: "connection refused", RunID: "r1"}

	ctx := context.Background()
	if err := s.AppendResults(ctx, []domain.Result{up}); err != nil {
		t.Fatalf("AppendResults: %v", err)
	}
	if err := s.AppendResults(ctx, []domain.Result{down}); err != nil {
		t.Fatalf("AppendResults: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, ResultsFile))
	if len(rows) != 3 {
		t.Fatalf("want header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "timestamp" {
		t.Fatalf("missing header: %v", rows[0])
	}
	if rows[1][0] != "2024-05-01T12:00:00Z" || rows[1][6] != "UP" || rows[1][7] != "42.500" || rows[1][8] != "200" {
		t.Fatalf("unexpected up row: %v", rows[1])
	}
	if rows[2][3] != "down, with comma" || rows[2][7] != "" || rows[2][8] != "" {
		t.Fatalf("unexpected down row: %v", rows[2])
	}
}

func TestStore_AppendTrend(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)
	snap := domain.Snapshot{
		RunID:   "r1",
		Cycle:   3,
		TakenAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Domains: []domain.DomainAvailability{
			{Domain: "a.test", Total: 3, Up: 1, Percent: 100.0 / 3},
			{Domain: "b.test", Total: 3, Up: 3, Percent: 100},
		},
	}
	if err := s.AppendTrend(context.Background(), snap); err != nil {
		t.Fatalf("AppendTrend: %v", err)
	}
	if err := s.AppendTrend(context.Background(), domain.Snapshot{}); err != nil {
		t.Fatalf("empty snapshot: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, TrendsFile))
	want := [][]string{
		trendHeader,
		{"2024-05-01T12:00:00Z", "a.test", "33.33", "3", "1", "3", "r1"},
		{"2024-05-01T12:00:00Z", "b.test", "100.00", "3", "3", "3", "r1"},
	}
	if len(rows) != len(want) {
		t.Fatalf("want %d rows, got %d: %v", len(want), len(rows), rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Fatalf("row %d col %d: want %q got %q", i, j, want[i][j], rows[i][j])
			}
		}
	}
}

func TestStore_ExportJSON(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	path, err := s.ExportJSON(Export{RunID: "r1", Results: []domain.Result{{Domain: "a.test", Status: domain.StatusDown}}})
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Export
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "r1" || len(got.Results) != 1 || got.Trends == nil {
		t.Fatalf("unexpected export: %+v", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind")
	}
}

// Package csvfile appends probe results and availability trends to CSV
// files under a report directory and exports the buffered run as JSON.
package csvfile

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/hamed0406/healthchecker/internal/domain"
)

const (
	ResultsFile = "results.csv"
	TrendsFile  = "availability_trends.csv"
	ExportFile  = "results.json"

	// TimeLayout is used for every timestamp column.
	TimeLayout = time.RFC3339
)

var (
	resultHeader = []string{"timestamp", "run_id", "domain", "endpoint", "url", "method", "status", "latency_ms", "http_status", "reason"}
	trendHeader  = []string{"timestamp", "domain", "availability", "total", "up", "cycle", "run_id"}
)

type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates dir when missing.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) AppendResults(ctx context.Context, rs []domain.Result) error {
	if len(rs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, []string{
			r.Timestamp.UTC().Format(TimeLayout),
			r.RunID,
			r.Domain,
			r.Endpoint,
			r.URL,
			r.Method,
			string(r.Status),
			formatFloat(r.LatencyMS),
			formatInt(r.HTTPStatus),
			r.Reason,
		})
	}
	return s.append(ResultsFile, resultHeader, rows)
}

func (s *Store) AppendTrend(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Domains) == 0 {
		return nil
	}
	ts := snap.TakenAt.UTC().Format(TimeLayout)
	rows := make([][]string, 0, len(snap.Domains))
	for _, d := range snap.Domains {
		rows = append(rows, []string{
			ts,
			d.Domain,
			strconv.FormatFloat(domain.Round2(d.Percent), 'f', 2, 64),
			strconv.FormatInt(d.Total, 10),
			strconv.FormatInt(d.Up, 10),
			strconv.FormatInt(snap.Cycle, 10),
			snap.RunID,
		})
	}
	return s.append(TrendsFile, trendHeader, rows)
}

func (s *Store) append(name string, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write %s header: %w", name, err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Export is the on-disk shape of results.json.
type Export struct {
	RunID      string            `json:"run_id"`
	ExportedAt time.Time         `json:"exported_at"`
	Results    []domain.Result   `json:"results"`
	Trends     []domain.Snapshot `json:"trends"`
}

// ExportJSON overwrites <dir>/results.json. The file is written to a
// temporary name first and renamed into place.
func (s *Store) ExportJSON(e Export) (string, error) {
	if e.Results == nil {
		e.Results = []domain.Result{}
	}
	if e.Trends == nil {
		e.Trends = []domain.Snapshot{}
	}
	if e.ExportedAt.IsZero() {
		e.ExportedAt = time.Now().UTC()
	}
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	path := filepath.Join(s.dir, ExportFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename export: %w", err)
	}
	return path, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

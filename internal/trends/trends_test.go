package trends

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/healthchecker/internal/repo/csvfile"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

const sample = `timestamp,domain,availability,total,up,cycle,run_id
2024-05-01T12:00:00Z,b.test,100.00,1,1,1,r1
2024-05-01T12:00:00Z,a.test,50.00,2,1,1,r1
2024-05-01T12:01:00Z,a.test,66.67,3,2,2,r1
2024-05-01 12:02:00,b.test,75.00,4,3,3,r1
`

func TestReadCSV_GroupAndAlerts(t *testing.T) {
	pts, err := ReadCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(pts) != 4 {
		t.Fatalf("want 4 points, got %d", len(pts))
	}
	if !pts[3].Timestamp.Equal(time.Date(2024, 5, 1, 12, 2, 0, 0, time.UTC)) {
		t.Fatalf("space separated timestamp not parsed: %v", pts[3].Timestamp)
	}

	series := Group(pts)
	if len(series) != 2 || series[0].Domain != "a.test" || len(series[1].Points) != 2 {
		t.Fatalf("unexpected grouping: %+v", series)
	}

	alerts := Alerts(series, DefaultThreshold)
	if len(alerts) != 2 {
		t.Fatalf("want alert for both domains, got %+v", alerts)
	}
	if alerts[0].Domain != "a.test" || alerts[0].Below != 2 || alerts[0].Lowest != 50 {
		t.Fatalf("unexpected alert: %+v", alerts[0])
	}
	if alerts[1].Below != 1 || alerts[1].Lowest != 75 {
		t.Fatalf("unexpected alert: %+v", alerts[1])
	}
	if got := Alerts(series, 40); len(got) != 0 {
		t.Fatalf("no alerts expected below 40, got %+v", got)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, ErrNoData) {
		t.Fatalf("empty file: want ErrNoData, got %v", err)
	}
	if _, err := ReadCSV(strings.NewReader("timestamp,domain,availability\n")); !errors.Is(err, ErrNoData) {
		t.Fatalf("header only: want ErrNoData, got %v", err)
	}
	if _, err := ReadCSV(strings.NewReader("timestamp,domain\n")); err == nil {
		t.Fatalf("missing column should fail")
	}
	_, err := ReadCSV(strings.NewReader("timestamp,domain,availability\nyesterday,a.test,10\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("bad timestamp should name the line, got %v", err)
	}
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: want os.ErrNotExist, got %v", err)
	}
}

func TestRender_PNG(t *testing.T) {
	pts, _ := ReadCSV(strings.NewReader(sample))
	var buf bytes.Buffer
	if err := Render(&buf, Group(pts), DefaultThreshold); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatalf("output is not a PNG")
	}
}

func TestRender_SingleTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	series := Group([]Point{{Timestamp: ts, Domain: "a.test", Availability: 100}})
	var buf bytes.Buffer
	if err := Render(&buf, series, DefaultThreshold); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatalf("output is not a PNG")
	}
}

func TestGenerate_FromTrendsFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, csvfile.TrendsFile)
	if err := os.WriteFile(in, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pts, err := LoadCSV(in)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	out := filepath.Join(dir, "charts", "availability_trends.png")
	rep, err := Generate(pts, out, DefaultThreshold)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rep.Points != 4 || rep.Domains != 2 || len(rep.Alerts) != 2 || rep.Output != out {
		t.Fatalf("unexpected report: %+v", rep)
	}
	b, err := os.ReadFile(out)
	if err != nil || !bytes.HasPrefix(b, pngMagic) {
		t.Fatalf("png not written: %v", err)
	}

	if _, err := Generate(nil, out, DefaultThreshold); !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData for no points, got %v", err)
	}
}

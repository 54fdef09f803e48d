// Package trends loads the availability trend history written by the health
// checker and renders it as a PNG chart with low-availability alerts.
package trends

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const DefaultThreshold = 80.0

// ErrNoData is returned when the trend source exists but holds no rows.
var ErrNoData = errors.New("no availability trend data")

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

type Point struct {
	Timestamp    time.Time
	Domain       string
	Availability float64
}

type Series struct {
	Domain string
	Points []Point
}

type Alert struct {
	Domain string
	Lowest float64
	Below  int
}

// LoadCSV reads availability_trends.csv. Columns are located by header name
// so extra columns are ignored.
func LoadCSV(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range []string{"timestamp", "domain", "availability"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("missing %q column", want)
		}
	}

	var out []Point
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := parseRow(rec, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

func parseRow(rec []string, col map[string]int) (Point, error) {
	field := func(name string) string {
		i := col[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ts, err := parseTime(field("timestamp"))
	if err != nil {
		return Point{}, err
	}
	dom := field("domain")
	if dom == "" {
		return Point{}, errors.New("empty domain")
	}
	pct, err := strconv.ParseFloat(field("availability"), 64)
	if err != nil {
		return Point{}, fmt.Errorf("availability: %w", err)
	}
	return Point{Timestamp: ts, Domain: dom, Availability: pct}, nil
}

func parseTime(s string) (time.Time, error) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: unrecognized format", s)
}

// Group splits points per domain, domains sorted by name and points by time.
func Group(points []Point) []Series {
	by := map[string][]Point{}
	for _, p := range points {
		by[p.Domain] = append(by[p.Domain], p)
	}
	out := make([]Series, 0, len(by))
	for d, ps := range by {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Timestamp.Before(ps[j].Timestamp) })
		out = append(out, Series{Domain: d, Points: ps})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// Alerts returns one entry per domain with at least one point below threshold.
func Alerts(series []Series, threshold float64) []Alert {
	var out []Alert
	for _, s := range series {
		a := Alert{Domain: s.Domain, Lowest: 100}
		for _, p := range s.Points {
			if p.Availability < threshold {
				a.Below++
				a.Lowest = min(a.Lowest, p.Availability)
			}
		}
		if a.Below > 0 {
			out = append(out, a)
		}
	}
	return out
}

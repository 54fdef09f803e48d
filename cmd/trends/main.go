package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/hamed0406/healthchecker/internal/config"
	"github.com/hamed0406/healthchecker/internal/notify"
	"github.com/hamed0406/healthchecker/internal/repo/csvfile"
	"github.com/hamed0406/healthchecker/internal/repo/sqlite"
	"github.com/hamed0406/healthchecker/internal/trends"
)

func main() {
	cfg := config.FromEnv(nil)

	fs := pflag.NewFlagSet("trends", pflag.ExitOnError)
	input := fs.String("input", filepath.Join(cfg.ReportDir, csvfile.TrendsFile), "availability trends CSV")
	dbPath := fs.String("sqlite", "", "read trends from this SQLite database instead of the CSV")
	output := fs.String("output", filepath.Join(cfg.ReportDir, "availability_trends.png"), "PNG output path")
	threshold := fs.Float64("threshold", trends.DefaultThreshold, "alert threshold in percent")
	webhook := fs.String("slack-webhook", cfg.SlackWebhook, "post threshold alerts to this Slack webhook")
	_ = fs.Parse(os.Args[1:])

	var (
		points []trends.Point
		err    error
	)
	if *dbPath != "" {
		points, err = fromSQLite(*dbPath)
	} else {
		points, err = trends.LoadCSV(*input)
	}
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Println("No availability trends data found. Run the health checker first.")
		return
	case errors.Is(err, trends.ErrNoData):
		fmt.Println("No data available in availability trends file.")
		return
	case err != nil:
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}

	rep, err := trends.Generate(points, *output, *threshold)
	if err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
	for _, a := range rep.Alerts {
		fmt.Printf("⚠ WARNING: %s dropped below %.0f%% availability! (lowest %.2f%%)\n", a.Domain, *threshold, a.Lowest)
	}
	fmt.Printf("✔ Graph saved as %s (%d points, %d domains)\n", rep.Output, rep.Points, rep.Domains)

	if len(rep.Alerts) > 0 && *webhook != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := notify.NewSlack(*webhook).Send(ctx, "Availability below threshold", alertText(rep.Alerts, *threshold)); err != nil {
			fmt.Fprintln(os.Stderr, "⚠ slack:", err)
		} else {
			fmt.Println("✔ alerts sent to Slack")
		}
	}
}

func alertText(alerts []trends.Alert, threshold float64) string {
	var b strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&b, "• %s below %.0f%% (lowest %.2f%%, %d points)\n", a.Domain, threshold, a.Lowest, a.Below)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func fromSQLite(path string) ([]trends.Point, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	s, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	rows, err := s.Trends(context.Background())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, trends.ErrNoData
	}
	out := make([]trends.Point, 0, len(rows))
	for _, r := range rows {
		out = append(out, trends.Point{Timestamp: r.Timestamp, Domain: r.Domain, Availability: r.Availability})
	}
	return out, nil
}

package trends

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Render draws one line per domain on a 0-100 scale and marks points below
// threshold with red dots.
func Render(w io.Writer, series []Series, threshold float64) error {
	if len(series) == 0 {
		return ErrNoData
	}

	var all []chart.Series
	first, last := series[0].Points[0].Timestamp, series[0].Points[0].Timestamp
	for i, s := range series {
		var (
			xs, lowX []time.Time
			ys, lowY []float64
		)
		for _, p := range s.Points {
			xs = append(xs, p.Timestamp)
			ys = append(ys, p.Availability)
			if p.Availability < threshold {
				lowX = append(lowX, p.Timestamp)
				lowY = append(lowY, p.Availability)
			}
			if p.Timestamp.Before(first) {
				first = p.Timestamp
			}
			if p.Timestamp.After(last) {
				last = p.Timestamp
			}
		}

		all = append(all, chart.TimeSeries{
			Name: s.Domain,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(i),
				StrokeWidth: 2,
				DotColor:    chart.GetDefaultColor(i),
				DotWidth:    3,
			},
			XValues: xs,
			YValues: ys,
		})
		if len(lowX) > 0 {
			all = append(all, chart.TimeSeries{
				Name: fmt.Sprintf("%s (low availability)", s.Domain),
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotColor:    drawing.ColorRed,
					DotWidth:    5,
				},
				XValues: lowX,
				YValues: lowY,
			})
		}
	}

	graph := chart.Chart{
		Title: "Long-Term Availability Trends with Alerts",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  1200,
		Height: 500,
		XAxis: chart.XAxis{
			Name: "Timestamp",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Availability (%)",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: 100,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
				StrokeWidth: 1.0,
			},
		},
		Series: all,
	}
	// A single sample time gives a zero-width x range.
	if !last.After(first) {
		graph.XAxis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(first.Add(-time.Minute)),
			Max: chart.TimeToFloat64(first.Add(time.Minute)),
		}
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	return graph.Render(chart.PNG, w)
}

// Report summarizes one Generate run.
type Report struct {
	Points  int
	Domains int
	Alerts  []Alert
	Output  string
}

// Generate renders points into the PNG at out, creating its directory.
func Generate(points []Point, out string, threshold float64) (Report, error) {
	if len(points) == 0 {
		return Report{}, ErrNoData
	}
	series := Group(points)

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Report{}, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return Report{}, fmt.Errorf("create %s: %w", out, err)
	}
	if err := Render(f, series, threshold); err != nil {
		f.Close()
		return Report{}, fmt.Errorf("render: %w", err)
	}
	if err := f.Close(); err != nil {
		return Report{}, err
	}

	return Report{
		Points:  len(points),
		Domains: len(series),
		Alerts:  Alerts(series, threshold),
		Output:  out,
	}, nil
}

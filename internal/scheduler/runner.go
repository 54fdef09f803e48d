package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthchecker/internal/domain"
	"github.com/hamed0406/healthchecker/internal/probe"
	"github.com/hamed0406/healthchecker/internal/repo"
	"github.com/hamed0406/healthchecker/internal/stats"
)

// ErrCycleAbandoned is returned when the context is cancelled before every
// probe of a cycle has finished. Nothing of that cycle is recorded.
var ErrCycleAbandoned = errors.New("cycle abandoned")

// Runner probes every endpoint once per cycle and, after all probes have
// joined, folds the batch into the aggregator and the sinks.
type Runner struct {
	Logger     *zap.Logger
	Endpoints  []domain.Endpoint
	Prober     probe.Prober
	Aggregator *stats.Aggregator
	Results    repo.ResultStore // optional
	Trends     repo.TrendStore  // optional
	RunID      string
}

func NewRunner(
	logger *zap.Logger,
	endpoints []domain.Endpoint,
	prober probe.Prober,
	agg *stats.Aggregator,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if agg == nil {
		agg = stats.New()
	}
	return &Runner{
		Logger:     logger,
		Endpoints:  endpoints,
		Prober:     prober,
		Aggregator: agg,
	}
}

// RunCycle returns the results in endpoint order.
func (r *Runner) RunCycle(ctx context.Context) ([]domain.Result, error) {
	start := time.Now()
	results := make([]domain.Result, len(r.Endpoints))

	var wg sync.WaitGroup
	for i, ep := range r.Endpoints {
		wg.Add(1)
		go func(i int, ep domain.Endpoint) {
			defer wg.Done()
			results[i] = r.Prober.Probe(ctx, ep)
		}(i, ep)
	}
	wg.Wait()

	if ctx.Err() != nil {
		r.Logger.Info("cycle_abandoned",
			zap.Int("endpoints", len(r.Endpoints)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil, ErrCycleAbandoned
	}

	up := 0
	for i := range results {
		results[i].RunID = r.RunID
		if results[i].Up() {
			up++
		}
	}

	r.Aggregator.RecordAll(results)
	snap := r.Aggregator.Snapshot()

	if r.Results != nil {
		if err := r.Results.AppendResults(ctx, results); err != nil {
			r.Logger.Warn("sink_error", zap.String("sink", "results"), zap.Error(err))
		}
	}

	for _, d := range snap.Domains {
		fields := []zap.Field{
			zap.String("domain", d.Domain),
			zap.Float64("availability", d.Rounded()),
			zap.Int64("total", d.Total),
			zap.Int64("up", d.Up),
		}
		if d.Window != nil {
			fields = append(fields, zap.Float64("window_availability", domain.Round2(*d.Window)))
		}
		r.Logger.Info("availability", fields...)
	}

	if r.Trends != nil {
		if err := r.Trends.AppendTrend(ctx, snap); err != nil {
			r.Logger.Warn("sink_error", zap.String("sink", "trends"), zap.Error(err))
		}
	}

	r.Logger.Info("cycle_complete",
		zap.Int64("cycle", snap.Cycle),
		zap.Int("endpoints", len(results)),
		zap.Int("up", up),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

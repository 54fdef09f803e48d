package repo

import (
	"context"

	"go.uber.org/multierr"

	"github.com/hamed0406/healthchecker/internal/domain"
)

// Ports for the persistence sinks fed once per completed cycle.
type ResultStore interface {
	AppendResults(ctx context.Context, rs []domain.Result) error
}

type TrendStore interface {
	AppendTrend(ctx context.Context, s domain.Snapshot) error
}

type Store interface {
	ResultStore
	TrendStore
}

type ResultReader interface {
	// RecentResults returns up to limit rows, newest first.
	RecentResults(ctx context.Context, limit int) ([]domain.Result, error)
}

// Multi fans every call out to all stores. A failing store does not stop
// the others; all failures are combined.
type Multi []Store

func (m Multi) AppendResults(ctx context.Context, rs []domain.Result) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.AppendResults(ctx, rs))
	}
	return err
}

func (m Multi) AppendTrend(ctx context.Context, snap domain.Snapshot) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.AppendTrend(ctx, snap))
	}
	return err
}

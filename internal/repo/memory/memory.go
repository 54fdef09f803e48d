package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/healthchecker/internal/domain"
)

// Store keeps the latest limit results and snapshots in memory. Older rows
// are dropped first.
type Store struct {
	mu      sync.RWMutex
	limit   int
	results []domain.Result
	trends  []domain.Snapshot

	droppedResults int64
	droppedTrends  int64
}

func New(limit int) *Store {
	if limit < 1 {
		limit = 1
	}
	return &Store{
		limit:   limit,
		results: make([]domain.Result, 0, min(limit, 128)),
	}
}

func (m *Store) AppendResults(ctx context.Context, rs []domain.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, rs...)
	if over := len(m.results) - m.limit; over > 0 {
		m.results = append(m.results[:0], m.results[over:]...)
		m.droppedResults += int64(over)
	}
	return nil
}

func (m *Store) AppendTrend(ctx context.Context, s domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Domains = append([]domain.DomainAvailability(nil), s.Domains...)
	m.trends = append(m.trends, s)
	if over := len(m.trends) - m.limit; over > 0 {
		m.trends = append(m.trends[:0], m.trends[over:]...)
		m.droppedTrends += int64(over)
	}
	return nil
}

func (m *Store) RecentResults(ctx context.Context, limit int) ([]domain.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.results) {
		limit = len(m.results)
	}
	out := make([]domain.Result, 0, limit)
	for i := len(m.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.results[i])
	}
	return out, nil
}

// Results returns every buffered result, oldest first.
func (m *Store) Results() []domain.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Result(nil), m.results...)
}

// Trends returns every buffered snapshot, oldest first.
func (m *Store) Trends() []domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Snapshot(nil), m.trends...)
}

// Dropped reports how many results and snapshots were evicted so far.
func (m *Store) Dropped() (results, trends int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.droppedResults, m.droppedTrends
}

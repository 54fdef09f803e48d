// Package stats accumulates per-domain availability across cycles.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/healthchecker/internal/domain"
)

type Option func(*Aggregator)

// WithWindow additionally tracks availability over the last n probes of each
// domain. Cumulative counters are unaffected.
func WithWindow(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.window = n
		}
	}
}

// WithRunID tags every snapshot.
func WithRunID(id string) Option {
	return func(a *Aggregator) { a.runID = id }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

type entry struct {
	stats domain.DomainStats
	ring  []bool // last outcomes when windowed, oldest overwritten first
	next  int
	upIn  int
}

// Aggregator is safe for concurrent use. Counters are all-time: nothing is
// ever reset or removed.
type Aggregator struct {
	mu     sync.Mutex
	byDom  map[string]*entry
	cycles int64
	window int
	runID  string
	now    func() time.Time
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		byDom: make(map[string]*entry),
		now:   time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Aggregator) Record(r domain.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record(r)
}

// RecordAll applies one cycle's results in a single step and counts the cycle.
func (a *Aggregator) RecordAll(rs []domain.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range rs {
		a.record(r)
	}
	a.cycles++
}

func (a *Aggregator) record(r domain.Result) {
	e := a.byDom[r.Domain]
	if e == nil {
		e = &entry{}
		a.byDom[r.Domain] = e
	}
	up := r.Status == domain.StatusUp
	e.stats.Total++
	if up {
		e.stats.Up++
	}
	if a.window == 0 {
		return
	}
	if len(e.ring) < a.window {
		e.ring = append(e.ring, up)
	} else {
		if e.ring[e.next] {
			e.upIn--
		}
		e.ring[e.next] = up
		e.next = (e.next + 1) % a.window
	}
	if up {
		e.upIn++
	}
}

// Stats returns the counters of one domain; ok is false for unseen domains.
func (a *Aggregator) Stats(dom string) (domain.DomainStats, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.byDom[dom]
	if !ok {
		return domain.DomainStats{}, false
	}
	return e.stats, true
}

func (a *Aggregator) Cycles() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cycles
}

// Snapshot lists every observed domain, sorted by name.
func (a *Aggregator) Snapshot() domain.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := domain.Snapshot{
		RunID:   a.runID,
		Cycle:   a.cycles,
		TakenAt: a.now().UTC().Truncate(time.Second),
		Domains: make([]domain.DomainAvailability, 0, len(a.byDom)),
	}
	for name, e := range a.byDom {
		pct, ok := e.stats.Availability()
		if !ok {
			continue
		}
		row := domain.DomainAvailability{
			Domain:  name,
			Total:   e.stats.Total,
			Up:      e.stats.Up,
			Percent: pct,
		}
		if a.window > 0 && len(e.ring) > 0 {
			w := float64(e.upIn) / float64(len(e.ring)) * 100
			row.Window = &w
		}
		snap.Domains = append(snap.Domains, row)
	}
	sort.Slice(snap.Domains, func(i, j int) bool { return snap.Domains[i].Domain < snap.Domains[j].Domain })
	return snap
}

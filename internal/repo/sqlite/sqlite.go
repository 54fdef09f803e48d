package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hamed0406/healthchecker/internal/domain"
)

// Store persists results and trend snapshots in a local SQLite file.
// Timestamps are stored as unix seconds.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS probe_results (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL,
    timestamp   INTEGER NOT NULL,
    domain      TEXT NOT NULL,
    endpoint    TEXT NOT NULL,
    url         TEXT NOT NULL,
    method      TEXT NOT NULL,
    status      TEXT NOT NULL,
    latency_ms  REAL,
    http_status INTEGER,
    reason      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_probe_results_ts ON probe_results(timestamp);
CREATE INDEX IF NOT EXISTS idx_probe_results_domain_ts ON probe_results(domain, timestamp);

CREATE TABLE IF NOT EXISTS availability_trends (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id              TEXT NOT NULL,
    cycle               INTEGER NOT NULL,
    timestamp           INTEGER NOT NULL,
    domain              TEXT NOT NULL,
    total               INTEGER NOT NULL,
    up                  INTEGER NOT NULL,
    availability        REAL NOT NULL,
    window_availability REAL
);

CREATE INDEX IF NOT EXISTS idx_trends_domain_ts ON availability_trends(domain, timestamp);
`

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// A single connection serialises writes from this process; WAL keeps
	// other processes (cmd/trends) able to read while the checker writes.
	db.SetMaxOpenConns(1)
	for _, p := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) AppendResults(ctx context.Context, rs []domain.Result) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO probe_results
    (run_id, timestamp, domain, endpoint, url, method, status, latency_ms, http_status, reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite prepare result: %w", err)
	}
	defer stmt.Close()

	for _, r := range rs {
		var code any
		if r.HTTPStatus != nil {
			code = int64(*r.HTTPStatus)
		}
		var lat any
		if r.LatencyMS != nil {
			lat = *r.LatencyMS
		}
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.Timestamp.Unix(), r.Domain, r.Endpoint, r.URL, r.Method,
			string(r.Status), lat, code, r.Reason,
		); err != nil {
			return fmt.Errorf("sqlite insert result: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) AppendTrend(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Domains) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO availability_trends
    (run_id, cycle, timestamp, domain, total, up, availability, window_availability)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite prepare trend: %w", err)
	}
	defer stmt.Close()

	ts := snap.TakenAt.Unix()
	for _, d := range snap.Domains {
		var win any
		if d.Window != nil {
			win = *d.Window
		}
		if _, err := stmt.ExecContext(ctx,
			snap.RunID, snap.Cycle, ts, d.Domain, d.Total, d.Up, d.Percent, win,
		); err != nil {
			return fmt.Errorf("sqlite insert trend: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) RecentResults(ctx context.Context, limit int) ([]domain.Result, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, timestamp, domain, endpoint, url, method, status, latency_ms, http_status, reason
  FROM probe_results
 ORDER BY timestamp DESC, id DESC
 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite recent: %w", err)
	}
	defer rows.Close()

	var out []domain.Result
	for rows.Next() {
		var (
			r      domain.Result
			ts     int64
			status string
			lat    sql.NullFloat64
			code   sql.NullInt64
		)
		if err := rows.Scan(&r.RunID, &ts, &r.Domain, &r.Endpoint, &r.URL, &r.Method, &status, &lat, &code, &r.Reason); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		r.Status = domain.Status(status)
		if lat.Valid {
			v := lat.Float64
			r.LatencyMS = &v
		}
		if code.Valid {
			v := int(code.Int64)
			r.HTTPStatus = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TrendPoint is one row of availability_trends.
type TrendPoint struct {
	Timestamp    time.Time
	Domain       string
	Availability float64
}

// Trends returns every stored trend row ordered by time.
func (s *Store) Trends(ctx context.Context) ([]TrendPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT timestamp, domain, availability
  FROM availability_trends
 ORDER BY timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite trends: %w", err)
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var (
			p  TrendPoint
			ts int64
		)
		if err := rows.Scan(&ts, &p.Domain, &p.Availability); err != nil {
			return nil, fmt.Errorf("sqlite scan trend: %w", err)
		}
		p.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

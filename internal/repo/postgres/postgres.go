package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/healthchecker/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS probe_results (
  id          BIGSERIAL PRIMARY KEY,
  run_id      TEXT NOT NULL,
  checked_at  TIMESTAMPTZ NOT NULL,
  domain      TEXT NOT NULL,
  endpoint    TEXT NOT NULL,
  url         TEXT NOT NULL,
  method      TEXT NOT NULL,
  status      TEXT NOT NULL,
  latency_ms  DOUBLE PRECISION NULL,
  http_status INTEGER NULL,
  reason      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_probe_results_checked_at ON probe_results (checked_at DESC);
CREATE INDEX IF NOT EXISTS idx_probe_results_domain_time ON probe_results (domain, checked_at DESC);

CREATE TABLE IF NOT EXISTS availability_trends (
  id                  BIGSERIAL PRIMARY KEY,
  run_id              TEXT NOT NULL,
  cycle               BIGINT NOT NULL,
  taken_at            TIMESTAMPTZ NOT NULL,
  domain              TEXT NOT NULL,
  total               BIGINT NOT NULL,
  up                  BIGINT NOT NULL,
  availability        DOUBLE PRECISION NOT NULL,
  window_availability DOUBLE PRECISION NULL
);

CREATE INDEX IF NOT EXISTS idx_trends_domain_time ON availability_trends (domain, taken_at);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Migrate creates the tables when they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("postgres_schema_ready")
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- ResultStore ----

func (s *Store) AppendResults(ctx context.Context, rs []domain.Result) error {
	if len(rs) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rs {
		b.Queue(`INSERT INTO probe_results
		   (run_id, checked_at, domain, endpoint, url, method, status, latency_ms, http_status, reason)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			r.RunID, r.Timestamp, r.Domain, r.Endpoint, r.URL, r.Method,
			string(r.Status), r.LatencyMS, r.HTTPStatus, r.Reason,
		)
	}
	if err := s.pool.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	return nil
}

func (s *Store) RecentResults(ctx context.Context, limit int) ([]domain.Result, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
SELECT run_id, checked_at, domain, endpoint, url, method, status, latency_ms, http_status, reason
  FROM probe_results
 ORDER BY checked_at DESC, id DESC
 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	defer rows.Close()

	var out []domain.Result
	for rows.Next() {
		var (
			r      domain.Result
			status string
			code   *int32
		)
		if err := rows.Scan(&r.RunID, &r.Timestamp, &r.Domain, &r.Endpoint, &r.URL, &r.Method,
			&status, &r.LatencyMS, &code, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Status = domain.Status(status)
		r.Timestamp = r.Timestamp.UTC()
		if code != nil {
			v := int(*code)
			r.HTTPStatus = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---- TrendStore ----

func (s *Store) AppendTrend(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Domains) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, d := range snap.Domains {
		b.Queue(`INSERT INTO availability_trends
		   (run_id, cycle, taken_at, domain, total, up, availability, window_availability)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8)`,
			snap.RunID, snap.Cycle, snap.TakenAt, d.Domain, d.Total, d.Up, d.Percent, d.Window,
		)
	}
	if err := s.pool.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("insert trend: %w", err)
	}
	return nil
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/healthchecker/internal/domain"
	apimw "github.com/hamed0406/healthchecker/internal/httpapi/middleware"
	"github.com/hamed0406/healthchecker/internal/repo"
)

const (
	defaultResultLimit = 100
	maxResultLimit     = 1000
)

// Snapshotter is satisfied by *stats.Aggregator.
type Snapshotter interface {
	Snapshot() domain.Snapshot
}

// Server exposes read-only status endpoints.
type Server struct {
	Logger    *zap.Logger
	Stats     Snapshotter
	Results   repo.ResultReader
	Endpoints []domain.Endpoint
	Keys      []string
	// State reports the loop state for /healthz; optional.
	State func() string
}

func NewServer(l *zap.Logger, stats Snapshotter, results repo.ResultReader, eps []domain.Endpoint, keys []string) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Stats: stats, Results: results, Endpoints: eps, Keys: keys}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-API-Key"},
		MaxAge:         300,
	}))
	r.Use(chimw.Throttle(64))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RequireKey(s.Keys))
		r.Get("/availability", s.handleAvailability)
		r.Get("/results", s.handleResults)
		r.Get("/endpoints", s.handleEndpoints)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("api_listen", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return err
	}
	s.Logger.Info("api_stopped")
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.State != nil {
		body["loop"] = s.State()
	}
	writeJSON(w, http.StatusOK, body)
}

type availabilityView struct {
	RunID   string            `json:"run_id"`
	Cycle   int64             `json:"cycle"`
	TakenAt time.Time         `json:"taken_at"`
	Domains []availabilityRow `json:"domains"`
}

type availabilityRow struct {
	Domain       string   `json:"domain"`
	Total        int64    `json:"total"`
	Up           int64    `json:"up"`
	Availability float64  `json:"availability"`
	Window       *float64 `json:"window_availability,omitempty"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "stats unavailable")
		return
	}
	snap := s.Stats.Snapshot()
	view := availabilityView{
		RunID:   snap.RunID,
		Cycle:   snap.Cycle,
		TakenAt: snap.TakenAt,
		Domains: make([]availabilityRow, 0, len(snap.Domains)),
	}
	for _, d := range snap.Domains {
		row := availabilityRow{Domain: d.Domain, Total: d.Total, Up: d.Up, Availability: d.Rounded()}
		if d.Window != nil {
			v := domain.Round2(*d.Window)
			row.Window = &v
		}
		view.Domains = append(view.Domains, row)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.Results == nil {
		writeError(w, http.StatusServiceUnavailable, "results unavailable")
		return
	}
	limit := defaultResultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxResultLimit)
	}

	rows, err := s.Results.RecentResults(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("api_results_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load results")
		return
	}
	if rows == nil {
		rows = []domain.Result{}
	}
	writeJSON(w, http.StatusOK, rows)
}

type endpointView struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Method string `json:"method"`
	Domain string `json:"domain"`
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	out := make([]endpointView, 0, len(s.Endpoints))
	for _, ep := range s.Endpoints {
		dom, _ := ep.Domain()
		out = append(out, endpointView{Name: ep.Name, URL: ep.URL, Method: ep.Method, Domain: dom})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

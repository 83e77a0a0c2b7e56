// Package httpapi exposes the query service over HTTP/JSON.
package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/observability"
	"github.com/TejasShirsath/stocky-assignment/internal/refresh"
)

// Service is the subset of *query.Service the handlers call.
type Service interface {
	CreateUser(ctx context.Context, name, email string) (*domain.User, error)
	CreateReward(ctx context.Context, userID int64, symbol string, shares decimal.Decimal) (*domain.RewardEntry, error)
	TodaysRewards(ctx context.Context, userID int64) ([]domain.SymbolReward, error)
	HistoricalValuation(ctx context.Context, userID int64) ([]domain.DailyValue, error)
	CurrentStats(ctx context.Context, userID int64) (*domain.Stats, error)
	PortfolioSnapshot(ctx context.Context, userID int64) (*domain.Portfolio, error)
}

// Options contains configuration for creating a router.
type Options struct {
	Service        Service
	RefreshStatus  func() refresh.Status // nil omits refresh details from /status
	RequestTimeout time.Duration         // Default: 30s
	Logger         *log.Logger
}

// HealthMessage is the body of GET /api/health.
const HealthMessage = "Server is running successfully"

type server struct {
	svc     Service
	status  func() refresh.Status
	started time.Time
	logger  *log.Logger
}

// NewRouter builds the HTTP handler for the API, /metrics and /status.
func NewRouter(opts Options) http.Handler {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &server{
		svc:     opts.Service,
		status:  opts.RefreshStatus,
		started: time.Now(),
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(recordMetrics)

	r.Handle("/metrics", observability.Handler())
	r.Get("/status", s.handleStatus)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Get("/health", s.handleHealth)
		r.Post("/user", s.handleCreateUser)
		r.Post("/reward", s.handleCreateReward)
		r.Get("/today-stocks/{userId}", s.handleTodayStocks)
		r.Get("/historical-inr/{userId}", s.handleHistorical)
		r.Get("/stats/{userId}", s.handleStats)
		r.Get("/portfolio/{userId}", s.handlePortfolio)
	})

	return r
}

// recordMetrics counts requests by route pattern, keeping label cardinality
// independent of user IDs.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		observability.RecordHTTPRequest(route, code)
	})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status  string          `json:"status"`
	Uptime  string          `json:"uptime"`
	Refresh *refresh.Status `json:"refresh,omitempty"`
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status: "running",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.status != nil {
		st := s.status()
		resp.Refresh = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(HealthMessage))
}

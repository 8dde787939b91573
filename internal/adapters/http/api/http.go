// Package api exposes the ranking engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/bookarena/internal/app"
	"github.com/okian/bookarena/internal/domain/dedupe"
	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/pkg/logger"
)

const defaultMaxRankingsLimit = 1000

// Dependencies required by HTTP handlers. The engine satisfies it.
type Dependencies interface {
	StatsProvider
	Next(ctx context.Context) (service.Pair, error)
	Resolve(ctx context.Context, winnerID, loserID int64) (service.Outcome, error)
	Rankings(ctx context.Context) []model.Ranked
	Rank(ctx context.Context, id int64) (model.Ranked, error)
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	rankingsHandler    *RankingsHandler
	pairHandler        *PairHandler
	comparisonsHandler *ComparisonsHandler
	logger             logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
	deduper  dedupe.Deduper
	logger   logger.Logger
}

// WithMaxRankingsLimit caps ?limit on /rankings.
func WithMaxRankingsLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithDeduper sets the idempotency key store for POST /comparisons.
func WithDeduper(d dedupe.Deduper) Option {
	return func(c *serverConfig) {
		if d != nil {
			c.deduper = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxRankingsLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.deduper == nil {
		cfg.deduper = dedupe.NewInMemoryDeduper()
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}

	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps, cfg.maxLimit),
		pairHandler:        NewPairHandler(deps, cfg.logger),
		comparisonsHandler: NewComparisonsHandler(deps, cfg.deduper, cfg.logger),
		logger:             cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz", s.logger))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats", s.logger))
	mux.HandleFunc("GET /rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings", s.logger))
	mux.HandleFunc("GET /rankings/{id}", MetricsMiddleware(s.rankingsHandler.HandleGetRank, "rank", s.logger))
	mux.HandleFunc("GET /pair", MetricsMiddleware(s.pairHandler.HandleGetPair, "pair", s.logger))
	mux.HandleFunc("POST /comparisons", MetricsMiddleware(s.comparisonsHandler.HandlePostComparison, "comparisons", s.logger))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

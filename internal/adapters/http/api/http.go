// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	repository "github.com/okian/tagboard/internal/adapters/repository"
	"github.com/okian/tagboard/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	RankDependencies
	AchievementsDependencies
	EventDependencies
	ReloadDependencies
	ChartDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	eventsHandler       *EventsHandler
	reloadHandler       *ReloadHandler
	leaderboardHandler  *LeaderboardHandler
	rankHandler         *RankHandler
	achievementsHandler *AchievementsHandler
	chartHandler        *ChartHandler
	qrHandler           *QRHandler
	limiter             *IPRateLimiter
	live                http.Handler
}

// ServerOption configures optional routes and limits.
type ServerOption func(*Server)

// WithRateLimit limits POST routes per client IP.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.limiter = NewIPRateLimiter(rps, burst)
		}
	}
}

// WithPublicURL sets the address encoded by /qr.png.
func WithPublicURL(url string) ServerOption {
	return func(s *Server) {
		s.qrHandler = NewQRHandler(url)
	}
}

// WithLive mounts the websocket handler at /ws.
func WithLive(h http.Handler) ServerOption {
	return func(s *Server) {
		s.live = h
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		eventsHandler:       NewEventsHandler(deps),
		reloadHandler:       NewReloadHandler(deps),
		leaderboardHandler:  NewLeaderboardHandler(deps, maxLimit),
		rankHandler:         NewRankHandler(deps),
		achievementsHandler: NewAchievementsHandler(deps),
		chartHandler:        NewChartHandler(deps),
		qrHandler:           NewQRHandler(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.limit(s.eventsHandler.HandlePostEvent), "events"))
	mux.HandleFunc("/reload", MetricsMiddleware(s.limit(s.reloadHandler.HandleReload), "reload"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/achievements", MetricsMiddleware(s.achievementsHandler.HandleGetAchievements, "achievements"))
	mux.HandleFunc("/chart.png", MetricsMiddleware(s.chartHandler.HandleChart, "chart"))
	mux.HandleFunc("/qr.png", MetricsMiddleware(s.qrHandler.HandleQR, "qr"))
	if s.live != nil {
		mux.Handle("/ws", s.live)
	}
}

func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return RateLimitMiddleware(s.limiter)(next).ServeHTTP
}

// SnapshotSource is satisfied by anything exposing the current snapshot.
type SnapshotSource interface {
	Snapshot() *repository.Snapshot
}

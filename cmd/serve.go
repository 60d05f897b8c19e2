package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tagboard/internal/adapters/http/api"
	"github.com/okian/tagboard/internal/adapters/http/live"
	"github.com/okian/tagboard/internal/adapters/http/site"
	"github.com/okian/tagboard/internal/adapters/http/swagger"
	"github.com/okian/tagboard/internal/adapters/source"
	service "github.com/okian/tagboard/internal/app"
	"github.com/okian/tagboard/internal/config"
	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/scoring"
	"github.com/okian/tagboard/pkg/logger"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

type serveFlags struct {
	addr       string
	sourceURL  string
	sourcePath string
	logLevel   string
	logFormat  string
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Fetch the tag log and serve the live leaderboard.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	normalizeFlags(fs)
	fs.StringVar(&f.addr, "addr", "", "listen address (env: TAGBOARD_ADDR)")
	fs.StringVar(&f.sourceURL, "source-url", "", "URL of the tag log (env: TAGBOARD_SOURCE_URL)")
	fs.StringVar(&f.sourcePath, "source-path", "", "read the tag log from a file instead (env: TAGBOARD_SOURCE_PATH)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env: TAGBOARD_LOG_LEVEL)")
	fs.StringVar(&f.logFormat, "log-format", "", "text or json (env: TAGBOARD_LOG_FORMAT)")
	return cmd
}

// apply overrides cfg with the flags set on the command line.
func (f serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("addr") {
		cfg.Addr = f.addr
	}
	if fs.Changed("source-url") {
		cfg.SourceURL = f.sourceURL
	}
	if fs.Changed("source-path") {
		cfg.SourcePath = f.sourcePath
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	hub := live.NewHub(svc, live.WithLogger(log.Named("live")))
	hub.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc, hub),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the scoring service from cfg without starting it.
func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	roster, err := model.NewRoster(cfg.Roster...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithRoster(roster),
		service.WithRules(rulesFrom(cfg)),
		service.WithFetcher(fetcherFrom(cfg)),
		service.WithReferenceYear(cfg.ReferenceYear),
		service.WithLocation(loc),
		service.WithTickInterval(cfg.TickInterval()),
		service.WithReloadInterval(cfg.ReloadInterval()),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
	), nil
}

func rulesFrom(cfg *config.Config) scoring.Rules {
	return scoring.NewRules(
		scoring.WithAwardSchedule(cfg.AwardSchedule),
		scoring.WithPenaltyPerHour(cfg.PenaltyPerHour),
		scoring.WithIsolationBonus(cfg.IsolationBonus),
	)
}

// fetcherFrom prefers a local file over the URL.
func fetcherFrom(cfg *config.Config) source.Fetcher {
	if cfg.SourcePath != "" {
		return source.NewFileFetcher(cfg.SourcePath)
	}
	return source.NewHTTPFetcher(cfg.SourceURL, source.WithFetchTimeout(cfg.FetchTimeout()))
}

func newMux(ctx context.Context, cfg *config.Config, svc *service.Service, hub http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	opts := []api.ServerOption{
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithPublicURL(cfg.PublicURL),
	}
	if hub != nil {
		opts = append(opts, api.WithLive(hub))
	}
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit, opts...).Register(ctx, mux)
	return mux
}

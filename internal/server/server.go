// Package server wires configuration, stores, cache and handlers into a
// runnable application.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jason-s-yu/bubugame/internal/auth"
	"github.com/jason-s-yu/bubugame/internal/cache"
	"github.com/jason-s-yu/bubugame/internal/config"
	"github.com/jason-s-yu/bubugame/internal/database"
	"github.com/jason-s-yu/bubugame/internal/handlers"
	"github.com/jason-s-yu/bubugame/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	connectTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App holds all the initialized components of the application.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	DB       *database.DB // nil in degraded mode
	Cache    *cache.Cache // nil when Redis is disabled or unreachable
	Sessions *auth.Sessions
	Service  *service.Service
	Handler  http.Handler
}

// New runs startup maintenance and builds the application. An unreachable
// database or Redis is logged and tolerated; only session key and template
// problems are fatal.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	app.connectDatabase(ctx)
	app.connectCache(ctx)

	sessions, err := loadSessions(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Sessions = sessions

	opts := service.Options{
		Cache:          app.Cache,
		Logger:         logger,
		LeaderboardTTL: cfg.LeaderboardCacheTTL,
	}
	if app.DB != nil {
		opts.Users = database.NewUserStore(app.DB)
		opts.Scores = database.NewScoreStore(app.DB)
		opts.DB = app.DB
	}
	app.Service = service.New(opts)

	h, err := handlers.New(app.Service, sessions, logger, handlers.Config{
		CookieSecure:     cfg.CookieSecure,
		LeaderboardLimit: cfg.LeaderboardLimit,
		PushInterval:     cfg.LeaderboardPushInterval,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Handler = h.Routes()

	if !app.Service.Available() {
		logger.Warn("running in degraded mode: scores and progress will not be persisted")
	}
	return app, nil
}

func (a *App) connectDatabase(ctx context.Context) {
	url := a.Config.GetDatabaseURL()
	if url == "" {
		a.Logger.Warn("DATABASE_URL not set")
		return
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	db, err := database.NewConnection(connectCtx, url)
	if err != nil {
		a.Logger.WithError(err).Warn("database unreachable")
		return
	}
	a.DB = db
	a.Logger.Info("Database connection established.")

	if err := database.RunMigrationsWithURL(url); err != nil {
		a.Logger.WithError(err).Error("startup migrations failed")
	}

	purged, err := database.NewUserStore(db).PurgeMalformedUsers(ctx)
	if err != nil {
		a.Logger.WithError(err).Warn("failed to purge malformed users")
	} else if purged > 0 {
		a.Logger.WithField("count", purged).Info("purged users without a username")
	}
}

func (a *App) connectCache(ctx context.Context) {
	if a.Config.RedisAddr == "" {
		a.Logger.Info("REDIS_ADDR not set, leaderboard cache disabled")
		return
	}
	c, err := cache.Connect(ctx, a.Config.RedisAddr, a.Config.RedisDB)
	if err != nil {
		a.Logger.WithError(err).Warn("redis unreachable, leaderboard cache disabled")
		return
	}
	a.Cache = c
	a.Logger.Info("Redis connection established.")
}

func loadSessions(cfg *config.Config) (*auth.Sessions, error) {
	if cfg.SessionPrivateKeyPath == "" {
		s, err := auth.NewSessions(cfg.TokenExpire)
		if err != nil {
			return nil, fmt.Errorf("failed to create session keys: %w", err)
		}
		return s, nil
	}
	s, err := auth.NewSessionsFromPath(cfg.SessionPrivateKeyPath, cfg.SessionPublicKeyPath, cfg.TokenExpire)
	if err != nil {
		return nil, fmt.Errorf("failed to load session keys: %w", err)
	}
	return s, nil
}

// Run listens on the configured port until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+a.Config.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", a.Config.Port, err)
	}
	return a.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is done, then drains in-flight
// requests for up to shutdownTimeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Infof("Running on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

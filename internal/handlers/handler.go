// Package handlers is the HTTP surface: pages, the JSON API, static assets and
// the live leaderboard socket.
package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"github.com/jason-s-yu/bubugame/internal/auth"
	"github.com/jason-s-yu/bubugame/internal/service"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Config carries the HTTP-level knobs.
type Config struct {
	CookieSecure     bool
	LeaderboardLimit int
	PushInterval     time.Duration
	RequestTimeout   time.Duration
}

// Handler serves every route. Build it with New and mount Routes().
type Handler struct {
	svc      *service.Service
	sessions *auth.Sessions
	logger   *logrus.Logger
	cfg      Config
	pages    *template.Template
	static   fs.FS
}

func New(svc *service.Service, sessions *auth.Sessions, logger *logrus.Logger, cfg Config) (*Handler, error) {
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}
	cfg.LeaderboardLimit = service.ClampLimit(cfg.LeaderboardLimit)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Handler{
		svc:      svc,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
		pages:    pages,
		static:   static,
	}, nil
}

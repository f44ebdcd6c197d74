package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jason-s-yu/bubugame/internal/middleware"
)

// Routes builds the chi router with the full middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LogMiddleware(h.logger))
	r.Use(chimw.Recoverer)

	// the socket outlives any request timeout
	r.Get("/leaderboard/ws", h.LeaderboardWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(h.cfg.RequestTimeout))

		r.Get("/", h.Index)
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Get("/register", h.RegisterPage)
		r.Post("/register", h.Register)
		r.Get("/logout", h.Logout)
		r.Get("/leaderboard", h.LeaderboardPage)

		r.Route("/api", func(r chi.Router) {
			r.Post("/score", h.SubmitScore)
			r.Post("/progress", h.SaveProgress)
			r.Get("/leaderboard", h.LeaderboardJSON)
		})

		r.Get("/manifest.json", h.Manifest)
		r.Get("/service-worker.js", h.ServiceWorker)
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.static))))
		r.Get("/ping", h.Ping)
	})
	return r
}

package handlers

import (
	"net/http"

	"github.com/jason-s-yu/bubugame/internal/auth"
	"github.com/jason-s-yu/bubugame/internal/common"
)

// identity returns the verified session carried by the request cookie.
func (h *Handler) identity(r *http.Request) (auth.Identity, error) {
	c, err := r.Cookie(auth.CookieName)
	if err != nil || c.Value == "" {
		return auth.Identity{}, common.ErrNotAuthenticated
	}
	id, err := h.sessions.Verify(c.Value)
	if err != nil {
		return auth.Identity{}, common.ErrNotAuthenticated
	}
	return id, nil
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.sessions.MaxAge(),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

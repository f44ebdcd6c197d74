package handlers

import (
	"errors"
	"net/http"

	"github.com/jason-s-yu/bubugame/internal/common"
)

type authForm struct {
	Username string
	Email    string
	Error    string
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		h.logger.WithError(err).WithField("template", name).Error("failed to render page")
	}
}

// Index shows the player's progress, or sends anonymous visitors to /login.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	id, err := h.identity(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	profile, err := h.svc.Profile(r.Context(), id)
	if errors.Is(err, common.ErrInvalidIdentity) {
		h.clearSessionCookie(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("failed to load profile")
	}
	h.render(w, http.StatusOK, "index.html", profile)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login.html", authForm{})
}

// Login verifies the form credentials and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login.html", authForm{Error: "Invalid form submission"})
		return
	}
	form := authForm{Username: r.PostFormValue("username")}

	user, err := h.svc.Authenticate(r.Context(), form.Username, r.PostFormValue("password"))
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		form.Error = "Invalid username or password"
		h.render(w, http.StatusUnauthorized, "login.html", form)
		return
	case errors.Is(err, common.ErrStoreUnavailable):
		form.Error = "Service unavailable, try again later"
		h.render(w, http.StatusServiceUnavailable, "login.html", form)
		return
	case err != nil:
		h.logger.WithError(err).Error("login failed")
		form.Error = "Something went wrong, try again"
		h.render(w, http.StatusInternalServerError, "login.html", form)
		return
	}

	token, err := h.sessions.Issue(user.ID.String(), user.Username)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue session token")
		form.Error = "Something went wrong, try again"
		h.render(w, http.StatusInternalServerError, "login.html", form)
		return
	}
	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "register.html", authForm{})
}

// Register creates an account and sends the player to /login.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "register.html", authForm{Error: "Invalid form submission"})
		return
	}
	form := authForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	}

	_, err := h.svc.Register(r.Context(), form.Username, form.Email, r.PostFormValue("password"))
	switch {
	case err == nil:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrInvalidInput):
		form.Error = "Username and password are required"
		h.render(w, http.StatusBadRequest, "register.html", form)
	case errors.Is(err, common.ErrUsernameTaken):
		form.Error = "That username is already taken"
		h.render(w, http.StatusConflict, "register.html", form)
	case errors.Is(err, common.ErrStoreUnavailable):
		form.Error = "Service unavailable, try again later"
		h.render(w, http.StatusServiceUnavailable, "register.html", form)
	default:
		h.logger.WithError(err).Error("registration failed")
		form.Error = "Something went wrong, try again"
		h.render(w, http.StatusInternalServerError, "register.html", form)
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

package api

import (
	"net/http"
)

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "register.html", "Register", nil)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form := parseRegisterForm(r)

	user, err := h.accounts.Register(r.Context(), form.Email, form.Password, form.Name)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/register")
		return
	}

	if err := h.sessions.Login(r.Context(), w, r, int64(user.ID)); err != nil {
		h.logger.Errorw("failed to open session after register", "error", err)
		h.flashAndRedirect(w, r, err, "/login")
		return
	}
	h.metrics.SessionOpened(r.Context())

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", "Log In", nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form := parseLoginForm(r)

	user, err := h.accounts.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/login")
		return
	}

	if err := h.sessions.Login(r.Context(), w, r, int64(user.ID)); err != nil {
		h.logger.Errorw("failed to open session after login", "error", err)
		h.flashAndRedirect(w, r, err, "/login")
		return
	}
	h.metrics.SessionOpened(r.Context())

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), w, r); err != nil {
		h.logger.Warnw("failed to close session", "error", err)
	} else {
		h.metrics.SessionClosed(r.Context())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

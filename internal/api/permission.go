package api

import (
	"net/http"
)

func (h *Handler) RequestPostingPage(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	if user.CanPost {
		h.flashSuccess(w, r, "You already have posting permission.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if user.HasPendingRequest {
		h.sessions.AddFlash(r.Context(), w, r, "info", "Your request is already pending review.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.render(w, r, http.StatusOK, "request.html", "Request Posting", nil)
}

// RequestPosting records the posting request after the captcha passes; the
// owner notifications go out in the background.
func (h *Handler) RequestPosting(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	if user.HasPendingRequest {
		h.sessions.AddFlash(r.Context(), w, r, "info", "Your request is already pending review.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if !h.captcha.Verify(r.Context(), r.FormValue("g-recaptcha-response")) {
		h.sessions.AddFlash(r.Context(), w, r, "error", "reCAPTCHA verification failed, please try again.")
		http.Redirect(w, r, "/request-posting", http.StatusSeeOther)
		return
	}

	if err := h.perms.Request(r.Context(), user, r.FormValue("reason")); err != nil {
		h.flashAndRedirect(w, r, err, "/request-posting")
		return
	}

	h.flashSuccess(w, r, "Your request has been received, you will hear back by email.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// PermissionPage is the admin view of pending requests and current authors.
func (h *Handler) PermissionPage(w http.ResponseWriter, r *http.Request) {
	actor := CurrentUser(r.Context())

	pending, err := h.perms.PendingRequests(r.Context(), actor)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/")
		return
	}
	authors, err := h.perms.Authors(r.Context(), actor)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/")
		return
	}

	data := map[string]any{
		"Pending": pending,
		"Authors": authors,
	}
	h.render(w, r, http.StatusOK, "permission.html", "Manage Permissions", data)
}

// DecidePermission approves or denies a posting request. The decision always
// commits; the flash reflects whether the decision email went out.
func (h *Handler) DecidePermission(w http.ResponseWriter, r *http.Request) {
	actor := CurrentUser(r.Context())

	id := urlID(r, "userID")
	if id == 0 {
		h.NotFound(w, r)
		return
	}
	approve := r.FormValue("action") == "approve"

	notified, err := h.perms.Decide(r.Context(), actor, id, approve)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/permission")
		return
	}

	if notified {
		h.flashSuccess(w, r, "Permission updated, the user has been notified by email.")
	} else {
		h.sessions.AddFlash(r.Context(), w, r, "error", "Permission updated, but the notification email could not be sent.")
	}
	http.Redirect(w, r, "/permission", http.StatusSeeOther)
}

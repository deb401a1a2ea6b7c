package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/osstd/The-Blog/internal/blog"
	"github.com/osstd/The-Blog/internal/notify"
)

func (h *Handler) ContactPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact.html", "Contact", nil)
}

// Contact forwards a visitor's message to the site owner's inbox. The sender
// waits for the outcome so the flash can tell them whether it went through.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	if !h.captcha.Verify(r.Context(), r.FormValue("g-recaptcha-response")) {
		h.sessions.AddFlash(r.Context(), w, r, "error", "reCAPTCHA verification failed, please try again.")
		http.Redirect(w, r, "/contact", http.StatusSeeOther)
		return
	}

	form := parseContactForm(r)
	form.Name = blog.SanitizeInput(form.Name)
	form.Phone = blog.SanitizeInput(form.Phone)
	form.Message = blog.SanitizeInput(form.Message)

	if form.Name == "" || form.Message == "" || !blog.ValidEmail(form.Email) {
		h.sessions.AddFlash(r.Context(), w, r, "error", "Please fill in your name, a valid email, and a message.")
		http.Redirect(w, r, "/contact", http.StatusSeeOther)
		return
	}

	msg := notify.Message{
		Subject: fmt.Sprintf("New message from %s", form.Name),
		Body: fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\n\nMessage:\n%s",
			form.Name, form.Email, form.Phone, form.Message),
	}

	err := h.dispatcher.Do(r.Context(), "contact-email", func(ctx context.Context) error {
		return h.mailer.Send(ctx, msg)
	})
	h.metrics.RecordNotification(r.Context(), "email", err == nil)
	if err != nil {
		h.sessions.AddFlash(r.Context(), w, r, "error", "Your message could not be sent, please try again later.")
		http.Redirect(w, r, "/contact", http.StatusSeeOther)
		return
	}

	h.flashSuccess(w, r, "Your message has been sent successfully!")
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouteConfig carries the wiring options the router needs.
type RouteConfig struct {
	CORSOrigins    []string
	MetricsHandler http.Handler
	RequestTimeout time.Duration
}

// Routes builds the full router. Mutating endpoints carry per-IP hourly
// quotas; the write-heavy ones are tighter than the read-mostly ones.
func (h *Handler) Routes(m *Middleware, cfg RouteConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(m.CORS(cfg.CORSOrigins))
	r.Use(m.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(m.LoadUser)

	r.NotFound(h.NotFound)

	// Public pages.
	r.Get("/", h.Home)
	r.Get("/about", h.About)
	r.Get("/error", h.ErrorPage)
	r.Get("/post/{postID}", h.PostPage)
	r.Get("/healthz", h.Healthz)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Account pages.
	r.Get("/register", h.RegisterPage)
	r.With(m.RateLimitPerHour(5)).Post("/register", h.Register)
	r.Get("/login", h.LoginPage)
	r.With(m.RateLimitPerHour(15)).Post("/login", h.Login)
	r.Get("/logout", h.Logout)

	// Contact form.
	r.Get("/contact", h.ContactPage)
	r.With(m.RateLimitPerHour(5)).Post("/contact", h.Contact)

	// Everything below needs a login.
	r.Group(func(r chi.Router) {
		r.Use(m.RequireLogin)

		r.Get("/user", h.Dashboard)

		r.Get("/new-post", h.NewPostPage)
		r.With(m.RateLimitPerHour(5)).Post("/new-post", h.CreatePost)
		r.Get("/edit-post/{postID}", h.EditPostPage)
		r.With(m.RateLimitPerHour(5)).Post("/edit-post/{postID}", h.UpdatePost)
		r.With(m.RateLimitPerHour(3)).Post("/delete/{postID}", h.DeletePost)

		r.With(m.RateLimitPerHour(15)).Post("/post/{postID}/comment", h.AddComment)
		r.With(m.RateLimitPerHour(15)).Post("/post/{postID}/rate", h.AddRating)

		r.Get("/edit-comment/{commentID}", h.EditCommentPage)
		r.With(m.RateLimitPerHour(15)).Post("/edit-comment/{commentID}", h.EditComment)
		r.With(m.RateLimitPerHour(15)).Post("/delete-comment/{commentID}", h.DeleteComment)

		r.Get("/edit-rating/{ratingID}", h.EditRatingPage)
		r.With(m.RateLimitPerHour(15)).Post("/edit-rating/{ratingID}", h.EditRating)
		r.With(m.RateLimitPerHour(15)).Post("/delete-rating/{ratingID}", h.DeleteRating)

		r.Get("/request-posting", h.RequestPostingPage)
		r.With(m.RateLimitPerHour(15)).Post("/request-posting", h.RequestPosting)

		// Admin pages; the services reject non-admin actors.
		r.Get("/permission", h.PermissionPage)
		r.Post("/permission/{userID}", h.DecidePermission)
	})

	return r
}

package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/blog"
	"github.com/osstd/The-Blog/internal/captcha"
	"github.com/osstd/The-Blog/internal/db/interfaces"
	"github.com/osstd/The-Blog/internal/metrics"
	"github.com/osstd/The-Blog/internal/notify"
	"github.com/osstd/The-Blog/internal/session"
)

// Handler serves the blog's HTML pages.
type Handler struct {
	database   interfaces.Database
	accounts   *blog.AccountService
	posts      *blog.PostService
	comments   *blog.CommentService
	ratings    *blog.RatingService
	perms      *blog.PermissionService
	sessions   *session.Manager
	captcha    captcha.Verifier
	mailer     notify.Mailer
	dispatcher *notify.Dispatcher
	renderer   *Renderer
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger
	siteKey    string
}

// HandlerConfig collects the handler's collaborators.
type HandlerConfig struct {
	Database   interfaces.Database
	Accounts   *blog.AccountService
	Posts      *blog.PostService
	Comments   *blog.CommentService
	Ratings    *blog.RatingService
	Perms      *blog.PermissionService
	Sessions   *session.Manager
	Captcha    captcha.Verifier
	Mailer     notify.Mailer
	Dispatcher *notify.Dispatcher
	Renderer   *Renderer
	Metrics    *metrics.Metrics
	Logger     *zap.SugaredLogger
	SiteKey    string
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		database:   cfg.Database,
		accounts:   cfg.Accounts,
		posts:      cfg.Posts,
		comments:   cfg.Comments,
		ratings:    cfg.Ratings,
		perms:      cfg.Perms,
		sessions:   cfg.Sessions,
		captcha:    cfg.Captcha,
		mailer:     cfg.Mailer,
		dispatcher: cfg.Dispatcher,
		renderer:   cfg.Renderer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		siteKey:    cfg.SiteKey,
	}
}

// page assembles the per-request template data: current user and any
// pending flashes.
func (h *Handler) page(r *http.Request, title string, data any) *Page {
	return &Page{
		Title:       title,
		CurrentUser: CurrentUser(r.Context()),
		Flashes:     h.sessions.PopFlashes(r.Context(), r),
		SiteKey:     h.siteKey,
		Data:        data,
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	h.renderer.Render(w, status, name, h.page(r, title, data))
}

// flashAndRedirect queues the user-facing message for err and redirects.
// Storage failures are also counted in metrics.
func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, err error, to string) {
	category := "error"
	if blog.KindOf(err) == blog.KindStorage {
		h.metrics.RecordStorageError(r.Context(), r.URL.Path)
	}

	h.sessions.AddFlash(r.Context(), w, r, category, blog.UserMessage(err))
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) flashSuccess(w http.ResponseWriter, r *http.Request, message string) {
	h.sessions.AddFlash(r.Context(), w, r, "success", message)
}

// Home lists every post, newest first.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.flashAndRedirect(w, r, err, "/error")
		return
	}
	h.render(w, r, http.StatusOK, "index.html", "Home", posts)
}

func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about.html", "About", nil)
}

// ErrorPage is the landing spot when a storage failure leaves nothing
// sensible to render.
func (h *Handler) ErrorPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "error.html", "Error", nil)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "error.html", "Not Found", nil)
}

// Dashboard shows the logged-in user's own posts, comments, and ratings.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	posts, err := h.posts.ListByAuthor(r.Context(), user.ID)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/error")
		return
	}
	comments, err := h.comments.ListByAuthor(r.Context(), user.ID)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/error")
		return
	}
	ratings, err := h.ratings.ListByAuthor(r.Context(), user.ID)
	if err != nil {
		h.flashAndRedirect(w, r, err, "/error")
		return
	}

	data := map[string]any{
		"Posts":    posts,
		"Comments": comments,
		"Ratings":  ratings,
	}
	h.render(w, r, http.StatusOK, "user.html", "Your Activity", data)
}

// Healthz reports process liveness and storage health.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if !h.database.IsHealthy(r.Context()) {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/osstd/The-Blog/internal/blog"
	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
	"github.com/osstd/The-Blog/internal/metrics"
	"github.com/osstd/The-Blog/internal/session"
)

type ctxKey int

const userCtxKey ctxKey = 1

// CurrentUser returns the logged-in user attached by the LoadUser
// middleware, or nil.
func CurrentUser(ctx context.Context) *entities.User {
	user, _ := ctx.Value(userCtxKey).(*entities.User)
	return user
}

type Middleware struct {
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
	sessions *session.Manager
	accounts *blog.AccountService
}

func NewMiddleware(logger *zap.SugaredLogger, m *metrics.Metrics, sessions *session.Manager, accounts *blog.AccountService) *Middleware {
	return &Middleware{
		logger:   logger,
		metrics:  m,
		sessions: sessions,
		accounts: accounts,
	}
}

// RequestLogger logs each request and records HTTP metrics.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			duration := time.Since(start)

			m.logger.Infow("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"size", ww.BytesWritten(),
				"duration", duration,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			m.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, ww.Status(), duration)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Recoverer turns panics into a 500 error page.
func (m *Middleware) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				m.logger.Errorw("Panic recovered",
					"panic", rvr,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)

				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets the standard hardening headers.
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// CORS allows the configured origins. The app serves its own pages, so this
// only matters when a separate origin hosts assets.
func (m *Middleware) CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// Timeout bounds each request.
func (m *Middleware) Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "Request timeout")
	}
}

// LoadUser resolves the session's user and attaches it to the context. A
// stale session (user gone, store unreachable) is treated as anonymous.
func (m *Middleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.sessions.UserID(r.Context(), r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.accounts.GetByID(r.Context(), interfaces.ID(userID))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin redirects anonymous requests to the login page.
func (m *Middleware) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			m.sessions.AddFlash(r.Context(), w, r, "info", "Please log in to access this page.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	seen     map[string]time.Time
	limit    rate.Limit
	burst    int
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Occasionally drop buckets idle for over an hour.
	if len(l.seen) > 1000 {
		cutoff := time.Now().Add(-time.Hour)
		for k, last := range l.seen {
			if last.Before(cutoff) {
				delete(l.limiters, k)
				delete(l.seen, k)
			}
		}
	}

	limiter, exists := l.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	l.seen[ip] = time.Now()
	return limiter
}

// RateLimitPerHour limits each client IP to n requests per hour on the
// wrapped routes, with a small burst so a quick double-submit is not a 429.
func (m *Middleware) RateLimitPerHour(n int) func(http.Handler) http.Handler {
	burst := n / 5
	if burst < 2 {
		burst = 2
	}
	l := &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		seen:     make(map[string]time.Time),
		limit:    rate.Limit(float64(n) / 3600.0),
		burst:    burst,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !l.get(ip).Allow() {
				m.logger.Warnw("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				http.Error(w, "Too many requests, slow down.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

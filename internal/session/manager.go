// Package session implements cookie sessions and flash messages on top of
// the kv store. The cookie only ever holds an opaque uuid; user identity and
// flashes live server-side under that id.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/osstd/The-Blog/pkg/kv"
)

const cookieName = "blog_session"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"` // "success", "error", "info"
	Message  string `json:"message"`
}

// Session is the server-side record. UserID 0 means anonymous; anonymous
// sessions exist so flashes survive redirects on login and register pages.
type Session struct {
	ID      string  `json:"id"`
	UserID  int64   `json:"user_id"`
	Flashes []Flash `json:"flashes,omitempty"`
}

// Manager creates, loads, and destroys sessions.
type Manager struct {
	store  kv.Store
	ttl    time.Duration
	secure bool
	logger *zap.SugaredLogger
}

// NewManager creates a session manager. secure marks cookies https-only.
func NewManager(store kv.Store, ttl time.Duration, secure bool, logger *zap.SugaredLogger) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, ttl: ttl, secure: secure, logger: logger}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (m *Manager) load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil, kv.ErrNotFound
	}

	data, err := m.store.Get(ctx, sessionKey(cookie.Value))
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (m *Manager) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, sessionKey(sess.ID), data, m.ttl)
}

func (m *Manager) setCookie(w http.ResponseWriter, id string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ensure returns the current session, creating an anonymous one if needed.
func (m *Manager) ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	sess, err := m.load(ctx, r)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}

	sess = &Session{ID: uuid.NewString()}
	if err := m.save(ctx, sess); err != nil {
		return nil, err
	}
	m.setCookie(w, sess.ID, int(m.ttl.Seconds()))
	return sess, nil
}

// Login binds the session to a user. The session id is rotated so a
// pre-login cookie can never be replayed as an authenticated one; pending
// flashes carry over.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64) error {
	var flashes []Flash
	if old, err := m.load(ctx, r); err == nil {
		flashes = old.Flashes
		if _, err := m.store.Del(ctx, sessionKey(old.ID)); err != nil {
			m.logger.Warnw("failed to drop old session", "error", err)
		}
	}

	sess := &Session{ID: uuid.NewString(), UserID: userID, Flashes: flashes}
	if err := m.save(ctx, sess); err != nil {
		return err
	}
	m.setCookie(w, sess.ID, int(m.ttl.Seconds()))
	return nil
}

// Logout destroys the session and clears the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if sess, err := m.load(ctx, r); err == nil {
		if _, err := m.store.Del(ctx, sessionKey(sess.ID)); err != nil {
			return err
		}
	}
	m.setCookie(w, "", -1)
	return nil
}

// UserID returns the logged-in user id for the request, if any.
func (m *Manager) UserID(ctx context.Context, r *http.Request) (int64, bool) {
	sess, err := m.load(ctx, r)
	if err != nil || sess.UserID == 0 {
		return 0, false
	}
	return sess.UserID, true
}

// AddFlash queues a message for the next rendered page.
func (m *Manager) AddFlash(ctx context.Context, w http.ResponseWriter, r *http.Request, category, message string) {
	sess, err := m.ensure(ctx, w, r)
	if err != nil {
		m.logger.Warnw("failed to load session for flash", "error", err)
		return
	}

	sess.Flashes = append(sess.Flashes, Flash{Category: category, Message: message})
	if err := m.save(ctx, sess); err != nil {
		m.logger.Warnw("failed to save flash", "error", err)
	}
}

// PopFlashes returns and clears the queued messages.
func (m *Manager) PopFlashes(ctx context.Context, r *http.Request) []Flash {
	sess, err := m.load(ctx, r)
	if err != nil || len(sess.Flashes) == 0 {
		return nil
	}

	flashes := sess.Flashes
	sess.Flashes = nil
	if err := m.save(ctx, sess); err != nil {
		m.logger.Warnw("failed to clear flashes", "error", err)
	}
	return flashes
}

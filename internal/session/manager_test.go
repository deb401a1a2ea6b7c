package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kvmemory "github.com/osstd/The-Blog/pkg/kv/memory"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	store := kvmemory.New(0)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store, time.Hour, false, zap.NewNop().Sugar())
}

// requestWith carries the cookies a previous response set.
func requestWith(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range w.Result().Cookies() {
		r.AddCookie(cookie)
	}
	return r
}

func TestLoginAndUserID(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, m.Login(ctx, w, r, 7))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	userID, ok := m.UserID(ctx, requestWith(w))
	assert.True(t, ok)
	assert.Equal(t, int64(7), userID)
}

func TestLoginRotatesSessionID(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	w1 := httptest.NewRecorder()
	m.AddFlash(ctx, w1, httptest.NewRequest(http.MethodGet, "/", nil), "info", "welcome")
	anonID := w1.Result().Cookies()[0].Value

	w2 := httptest.NewRecorder()
	require.NoError(t, m.Login(ctx, w2, requestWith(w1), 7))
	loggedInID := w2.Result().Cookies()[0].Value

	assert.NotEqual(t, anonID, loggedInID)

	// The anonymous flash carried over, the old id is dead.
	flashes := m.PopFlashes(ctx, requestWith(w2))
	require.Len(t, flashes, 1)
	assert.Equal(t, "welcome", flashes[0].Message)

	_, ok := m.UserID(ctx, requestWith(w1))
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	require.NoError(t, m.Login(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil), 7))

	w2 := httptest.NewRecorder()
	require.NoError(t, m.Logout(ctx, w2, requestWith(w)))

	_, ok := m.UserID(ctx, requestWith(w))
	assert.False(t, ok)
}

func TestFlashesPopOnce(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	m.AddFlash(ctx, w, r, "error", "Something failed")

	r2 := requestWith(w)
	m.AddFlash(ctx, httptest.NewRecorder(), r2, "success", "But this worked")

	flashes := m.PopFlashes(ctx, r2)
	require.Len(t, flashes, 2)
	assert.Equal(t, "error", flashes[0].Category)
	assert.Equal(t, "But this worked", flashes[1].Message)

	assert.Empty(t, m.PopFlashes(ctx, r2))
}

func TestAnonymousRequestHasNoUser(t *testing.T) {
	m := newTestManager(t)

	_, ok := m.UserID(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

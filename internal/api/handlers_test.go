package api

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/blog"
	"github.com/osstd/The-Blog/internal/db"
	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
	"github.com/osstd/The-Blog/internal/metrics"
	"github.com/osstd/The-Blog/internal/notify"
	"github.com/osstd/The-Blog/internal/session"
	kvmemory "github.com/osstd/The-Blog/pkg/kv/memory"
)

var (
	metricsOnce   sync.Once
	sharedMetrics *metrics.Metrics
)

// testMetrics builds the metrics once; the otel prometheus exporter
// registers collectors globally and cannot be set up twice.
func testMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()

	metricsOnce.Do(func() {
		m, _, err := metrics.Setup("blog-test")
		if err != nil {
			panic(err)
		}
		sharedMetrics = m
	})
	return sharedMetrics
}

type stubVerifier struct{ ok bool }

func (v stubVerifier) Verify(ctx context.Context, token string) bool { return v.ok }

type stubMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *stubMailer) Send(ctx context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type stubSMS struct{}

func (stubSMS) Send(ctx context.Context, body string) notify.SMSResult {
	return notify.SMSResult{Success: true, Status: "queued", SID: "SM1"}
}

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	database interfaces.Database
	accounts *blog.AccountService
	mailer   *stubMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop().Sugar()
	ctx := context.Background()

	database := db.NewInMemoryDatabase()
	require.NoError(t, db.ConnectAndMigrate(ctx, database, db.AllSchemas()))
	t.Cleanup(func() { _ = database.Disconnect(ctx) })

	store := kvmemory.New(0)
	t.Cleanup(func() { _ = store.Close() })
	sessions := session.NewManager(store, time.Hour, false, logger)

	dispatcher := notify.NewDispatcher(2, time.Second, logger)
	t.Cleanup(dispatcher.Close)

	mailer := &stubMailer{}

	accounts := blog.NewAccountService(database, logger)
	posts := blog.NewPostService(database, logger)
	comments := blog.NewCommentService(database, logger)
	ratings := blog.NewRatingService(database, logger)
	perms := blog.NewPermissionService(database, mailer, stubSMS{}, dispatcher, logger)

	renderer, err := NewRenderer(logger)
	require.NoError(t, err)

	m := testMetrics(t)

	handler := NewHandler(HandlerConfig{
		Database:   database,
		Accounts:   accounts,
		Posts:      posts,
		Comments:   comments,
		Ratings:    ratings,
		Perms:      perms,
		Sessions:   sessions,
		Captcha:    stubVerifier{ok: true},
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Renderer:   renderer,
		Metrics:    m,
		Logger:     logger,
		SiteKey:    "test-site-key",
	})

	mw := NewMiddleware(logger, m, sessions, accounts)
	router := handler.Routes(mw, RouteConfig{RequestTimeout: 10 * time.Second})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server:   server,
		client:   &http.Client{Jar: jar},
		database: database,
		accounts: accounts,
		mailer:   mailer,
	}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

// register signs up and leaves the client logged in as the new user.
func (e *testEnv) register(t *testing.T, email, name string) *entities.User {
	t.Helper()
	resp, _ := e.post(t, "/register", url.Values{
		"email":    {email},
		"password": {"Passw0rdX"},
		"name":     {name},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	user, err := e.accounts.Authenticate(context.Background(), email, "Passw0rdX")
	require.NoError(t, err)
	return user
}

func (e *testEnv) grantPosting(t *testing.T, userID interfaces.ID) {
	t.Helper()
	users := e.database.Repository(entities.UserSchema())
	_, err := users.Update(context.Background(), userID, interfaces.Row{"can_post": true})
	require.NoError(t, err)
}

func (e *testEnv) makeAdmin(t *testing.T, userID interfaces.ID) {
	t.Helper()
	users := e.database.Repository(entities.UserSchema())
	_, err := users.Update(context.Background(), userID, interfaces.Row{"role": entities.RoleAdmin, "can_post": true})
	require.NoError(t, err)
}

var postForm = url.Values{
	"title":    {"A Day at the Lake"},
	"subtitle": {"Water, mostly"},
	"body":     {"It was calm and quiet."},
	"img_url":  {"https://example.com/lake.jpg"},
}

func TestHomeListsPosts(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "author@example.com", "Author")
	env.grantPosting(t, user.ID)

	resp, _ := env.post(t, "/new-post", postForm)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "A Day at the Lake")
}

func TestRegisterDuplicateFlashes(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dup@example.com", "First")

	// Second signup with the same email lands back on the register page
	// with the conflict message.
	_, _ = env.get(t, "/logout")

	_, body := env.post(t, "/register", url.Values{
		"email":    {"dup@example.com"},
		"password": {"Passw0rdX"},
		"name":     {"Second"},
	})
	assert.Contains(t, body, "already signed up")
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "user@example.com", "User")
	_, _ = env.get(t, "/logout")

	_, body := env.post(t, "/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"WrongPass1"},
	})
	assert.Contains(t, body, "Password incorrect")
}

func TestNewPostRequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.get(t, "/new-post")
	assert.Contains(t, body, "Please log in to access this page.")
	assert.Contains(t, body, "Log In")
}

func TestCreatePostDeniedWithoutPermission(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "member@example.com", "Member")

	_, body := env.post(t, "/new-post", postForm)
	assert.Contains(t, body, "not allowed to add posts")

	posts, err := blog.NewPostService(env.database, zap.NewNop().Sugar()).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostPageShowsCommentsAndRating(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "author@example.com", "Author")
	env.grantPosting(t, author.ID)
	env.post(t, "/new-post", postForm)

	_, _ = env.get(t, "/logout")
	env.register(t, "reader@example.com", "Reader")

	resp, _ := env.post(t, "/post/1/comment", url.Values{"comment": {"Lovely writing."}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env.post(t, "/post/1/rate", url.Values{"rating": {"8"}})

	_, body := env.get(t, "/post/1")
	assert.Contains(t, body, "Lovely writing.")
	assert.Contains(t, body, "8.0")
	assert.Contains(t, body, "Reader")
}

func TestSecondCommentConflicts(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "author@example.com", "Author")
	env.grantPosting(t, author.ID)
	env.post(t, "/new-post", postForm)

	env.post(t, "/post/1/comment", url.Values{"comment": {"First."}})
	_, body := env.post(t, "/post/1/comment", url.Values{"comment": {"Second."}})
	assert.Contains(t, body, "already commented")
}

func TestStrangerCannotDeletePost(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "author@example.com", "Author")
	env.grantPosting(t, author.ID)
	env.post(t, "/new-post", postForm)

	_, _ = env.get(t, "/logout")
	env.register(t, "stranger@example.com", "Stranger")

	_, body := env.post(t, "/delete/1", nil)
	assert.Contains(t, body, "not allowed to delete this post")

	_, home := env.get(t, "/")
	assert.Contains(t, home, "A Day at the Lake")
}

func TestPermissionWorkflow(t *testing.T) {
	env := newTestEnv(t)
	member := env.register(t, "member@example.com", "Member")

	resp, body := env.post(t, "/request-posting", url.Values{"reason": {"I write well."}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your request has been received")

	_, _ = env.get(t, "/logout")
	admin := env.register(t, "admin@example.com", "Admin")
	env.makeAdmin(t, admin.ID)

	_, body = env.get(t, "/permission")
	assert.Contains(t, body, "member@example.com")

	_, body = env.post(t, "/permission/"+member.ID.String(), url.Values{"action": {"approve"}})
	assert.Contains(t, body, "Permission updated")

	user, err := env.accounts.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.True(t, user.CanPost)
	assert.False(t, user.HasPendingRequest)
}

func TestPermissionPageForbiddenForMembers(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "member@example.com", "Member")

	_, body := env.get(t, "/permission")
	assert.Contains(t, body, "not allowed to manage posting requests")
}

func TestContactSendsEmail(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.post(t, "/contact", url.Values{
		"name":    {"Visitor"},
		"email":   {"visitor@example.com"},
		"message": {"Hello there."},
	})
	assert.Contains(t, body, "sent successfully")

	env.mailer.mu.Lock()
	defer env.mailer.mu.Unlock()
	require.Len(t, env.mailer.sent, 1)
	assert.Contains(t, env.mailer.sent[0].Body, "visitor@example.com")
}

func TestRegisterRateLimited(t *testing.T) {
	env := newTestEnv(t)

	// 5/h works out to a burst of two quick attempts; the third is rejected.
	noRedirect := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	form := url.Values{"email": {"bad"}, "password": {"x"}, "name": {"x"}}
	var last int
	for i := 0; i < 3; i++ {
		resp, err := noRedirect.PostForm(env.server.URL+"/register", form)
		require.NoError(t, err)
		_ = resp.Body.Close()
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestUnknownPostIs404(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.Get(env.server.URL + "/post/999")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

package blog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/db"
	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
	"github.com/osstd/The-Blog/internal/notify"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func newTestDatabase(t *testing.T) interfaces.Database {
	t.Helper()

	database := db.NewInMemoryDatabase()
	require.NoError(t, db.ConnectAndMigrate(context.Background(), database, db.AllSchemas()))
	t.Cleanup(func() {
		_ = database.Disconnect(context.Background())
	})
	return database
}

func registerUser(t *testing.T, accounts *AccountService, email string) *entities.User {
	t.Helper()

	user, err := accounts.Register(context.Background(), email, "Passw0rdX", "Test User")
	require.NoError(t, err)
	return user
}

func grantPosting(t *testing.T, database interfaces.Database, userID interfaces.ID) {
	t.Helper()

	users := database.Repository(entities.UserSchema())
	_, err := users.Update(context.Background(), userID, interfaces.Row{"can_post": true})
	require.NoError(t, err)
}

func makeAdmin(t *testing.T, database interfaces.Database, userID interfaces.ID) *entities.User {
	t.Helper()

	users := database.Repository(entities.UserSchema())
	row, err := users.Update(context.Background(), userID, interfaces.Row{"role": entities.RoleAdmin})
	require.NoError(t, err)
	return entities.UserFromRow(row)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) sentMessages() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeSMS struct {
	mu     sync.Mutex
	bodies []string
	result notify.SMSResult
}

func (f *fakeSMS) Send(ctx context.Context, body string) notify.SMSResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, body)
	return f.result
}

func newTestDispatcher() *notify.Dispatcher {
	return notify.NewDispatcher(2, time.Second, testLogger())
}

package blog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/notify"
)

func TestRequestPosting(t *testing.T) {
	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	mailer := &fakeMailer{}
	sms := &fakeSMS{result: notify.SMSResult{Success: true, Status: "queued", SID: "SM1"}}
	dispatcher := newTestDispatcher()
	perms := NewPermissionService(database, mailer, sms, dispatcher, testLogger())

	user := registerUser(t, accounts, "member@example.com")

	require.NoError(t, perms.Request(context.Background(), user, "I write well"))
	dispatcher.Close()

	refreshed, err := accounts.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.HasPendingRequest)
	assert.False(t, refreshed.CanPost)

	sent := mailer.sentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "I write well")
	assert.Empty(t, sent[0].Recipient) // routes to the site inbox
	assert.Len(t, sms.bodies, 1)
}

func TestRequestPostingSMSFallback(t *testing.T) {
	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	mailer := &fakeMailer{}
	sms := &fakeSMS{result: notify.SMSResult{ErrorCode: 21211, ErrorMessage: "invalid number"}}
	dispatcher := newTestDispatcher()
	perms := NewPermissionService(database, mailer, sms, dispatcher, testLogger())

	user := registerUser(t, accounts, "member@example.com")

	require.NoError(t, perms.Request(context.Background(), user, "please"))
	dispatcher.Close()

	var fallbacks int
	for _, msg := range mailer.sentMessages() {
		if msg.Subject == "Text message could not be sent" {
			fallbacks++
			assert.Contains(t, msg.Body, "invalid number")
		}
	}
	assert.Equal(t, 1, fallbacks)
}

func TestRequestPostingEmptyReason(t *testing.T) {
	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	perms := NewPermissionService(database, &fakeMailer{}, &fakeSMS{}, newTestDispatcher(), testLogger())

	user := registerUser(t, accounts, "member@example.com")

	err := perms.Request(context.Background(), user, "   ")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDecideApprove(t *testing.T) {
	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	mailer := &fakeMailer{}
	dispatcher := newTestDispatcher()
	perms := NewPermissionService(database, mailer, &fakeSMS{}, dispatcher, testLogger())

	member := registerUser(t, accounts, "member@example.com")
	adminSeed := registerUser(t, accounts, "admin@example.com")
	admin := makeAdmin(t, database, adminSeed.ID)

	require.NoError(t, perms.Request(context.Background(), member, "reason"))
	dispatcher.Close()

	notified, err := perms.Decide(context.Background(), admin, member.ID, true)
	require.NoError(t, err)
	assert.True(t, notified)

	refreshed, err := accounts.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.CanPost)
	assert.False(t, refreshed.HasPendingRequest)

	sent := mailer.sentMessages()
	last := sent[len(sent)-1]
	assert.Equal(t, "member@example.com", last.Recipient)
	assert.Contains(t, last.Subject, "accepted")
}

func TestDecideDenyAllowsRerequest(t *testing.T) {
	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	dispatcher := newTestDispatcher()
	perms := NewPermissionService(database, &fakeMailer{}, &fakeSMS{result: notify.SMSResult{Success: true}}, dispatcher, testLogger())

	member := registerUser(t, accounts, "member@example.com")
	adminSeed := registerUser(t, accounts, "admin@example.com")
	admin := makeAdmin(t, database, adminSeed.ID)

	require.NoError(t, perms.Request(context.Background(), member, "reason"))

	notified, err := perms.Decide(context.Background(), admin, member.ID, false)
	require.NoError(t, err)
	assert.True(t, notified)

	refreshed, err := accounts.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.CanPost)
	assert.False(t, refreshed.HasPendingRequest)

	// Denied users may ask again.
	require.NoError(t, perms.Request(context.Background(), refreshed, "second try"))
	dispatcher.Close()

	again, err := accounts.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.True(t, again.HasPendingRequest)
}

func TestDecideCommitsWhenEmailFails(t *testing.T) {
	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	mailer := &fakeMailer{err: fmt.Errorf("smtp down")}
	dispatcher := newTestDispatcher()
	perms := NewPermissionService(database, mailer, &fakeSMS{}, dispatcher, testLogger())

	member := registerUser(t, accounts, "member@example.com")
	adminSeed := registerUser(t, accounts, "admin@example.com")
	admin := makeAdmin(t, database, adminSeed.ID)

	notified, err := perms.Decide(context.Background(), admin, member.ID, true)
	require.NoError(t, err)
	assert.False(t, notified)

	// The permission change sticks even though the email never went out.
	refreshed, err := accounts.GetByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.CanPost)
}

func TestDecideRequiresAdmin(t *testing.T) {
	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	perms := NewPermissionService(database, &fakeMailer{}, &fakeSMS{}, newTestDispatcher(), testLogger())

	member := registerUser(t, accounts, "member@example.com")
	other := registerUser(t, accounts, "other@example.com")

	_, err := perms.Decide(context.Background(), other, member.ID, true)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestPendingRequestsAndAuthors(t *testing.T) {
	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	dispatcher := newTestDispatcher()
	perms := NewPermissionService(database, &fakeMailer{}, &fakeSMS{result: notify.SMSResult{Success: true}}, dispatcher, testLogger())

	adminSeed := registerUser(t, accounts, "admin@example.com")
	admin := makeAdmin(t, database, adminSeed.ID)

	var requesters []*entities.User
	for i := 0; i < 3; i++ {
		u := registerUser(t, accounts, fmt.Sprintf("member%d@example.com", i))
		require.NoError(t, perms.Request(context.Background(), u, "reason"))
		requesters = append(requesters, u)
	}
	dispatcher.Close()

	pending, err := perms.PendingRequests(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	_, err = perms.PendingRequests(context.Background(), requesters[0])
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = perms.Decide(context.Background(), admin, requesters[0].ID, true)
	require.NoError(t, err)

	authors, err := perms.Authors(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, requesters[0].ID, authors[0].ID)

	pending, err = perms.PendingRequests(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

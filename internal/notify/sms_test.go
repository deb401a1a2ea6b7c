package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTwilioSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550001111", r.Form.Get("To"))
		assert.Equal(t, "hello", r.Form.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status": "queued", "sid": "SM42"}`))
	}))
	defer server.Close()

	sender := NewTwilioSender(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		From:       "+15550002222",
		To:         "+15550001111",
		BaseURL:    server.URL,
	}, zap.NewNop().Sugar())

	result := sender.Send(context.Background(), "hello")
	assert.True(t, result.Success)
	assert.Equal(t, "queued", result.Status)
	assert.Equal(t, "SM42", result.SID)
}

func TestTwilioSendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "The 'To' number is not valid", "code": 21211}`))
	}))
	defer server.Close()

	sender := NewTwilioSender(TwilioConfig{AccountSID: "AC123", BaseURL: server.URL}, zap.NewNop().Sugar())

	result := sender.Send(context.Background(), "hello")
	assert.False(t, result.Success)
	assert.Equal(t, 21211, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "not valid")
}

func TestTwilioSendTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	sender := NewTwilioSender(TwilioConfig{AccountSID: "AC123", BaseURL: server.URL}, zap.NewNop().Sugar())

	result := sender.Send(context.Background(), "hello")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}

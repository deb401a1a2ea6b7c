package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "test-secret", r.Form.Get("secret"))

		if r.Form.Get("response") == "good-token" {
			w.Write([]byte(`{"success": true}`))
			return
		}
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer server.Close()

	verifier := NewGoogleVerifier("test-secret", server.URL, zap.NewNop().Sugar())

	assert.True(t, verifier.Verify(context.Background(), "good-token"))
	assert.False(t, verifier.Verify(context.Background(), "bad-token"))
	assert.False(t, verifier.Verify(context.Background(), ""))
}

func TestVerifyServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	verifier := NewGoogleVerifier("test-secret", server.URL, zap.NewNop().Sugar())
	assert.False(t, verifier.Verify(context.Background(), "token"))
}

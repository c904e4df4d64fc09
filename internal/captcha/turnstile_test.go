package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radz2291/RZ-Property/internal/config"
)

func TestVerify(t *testing.T) {
	var gotSecret, gotResponse, gotIP string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotSecret = r.PostForm.Get("secret")
		gotResponse = r.PostForm.Get("response")
		gotIP = r.PostForm.Get("remoteip")
		if gotResponse == "good" {
			w.Write([]byte(`{"success": true}`))
			return
		}
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := NewTurnstileVerifier(&config.Config{CloudflareTurnstileSecretKey: "s3cret", CloudflareSiteVerifyURL: srv.URL})

	ok, err := v.Verify(context.Background(), "good", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, "1.2.3.4", gotIP)

	ok, err = v.Verify(context.Background(), "bad", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	v := NewTurnstileVerifier(&config.Config{CloudflareTurnstileSecretKey: "s", CloudflareSiteVerifyURL: srv.URL})
	ok, err := v.Verify(context.Background(), "t", "")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestVerifyWithoutSecretPasses(t *testing.T) {
	v := NewTurnstileVerifier(&config.Config{})
	ok, err := v.Verify(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHumanToken(t *testing.T) {
	v := NewTurnstileVerifier(&config.Config{JwtSecret: "k"})

	token, err := v.GenerateHumanToken("1.1.1.1", "fp", time.Minute)
	require.NoError(t, err)

	assert.True(t, v.ValidateHumanToken(token, "1.1.1.1", "fp"))
	assert.False(t, v.ValidateHumanToken(token, "2.2.2.2", "fp"))
	assert.False(t, v.ValidateHumanToken(token, "1.1.1.1", "other"))
	assert.False(t, v.ValidateHumanToken("garbage", "1.1.1.1", "fp"))

	expired, err := v.GenerateHumanToken("1.1.1.1", "fp", -time.Minute)
	require.NoError(t, err)
	assert.False(t, v.ValidateHumanToken(expired, "1.1.1.1", "fp"))

	other := NewTurnstileVerifier(&config.Config{JwtSecret: "different"})
	assert.False(t, other.ValidateHumanToken(token, "1.1.1.1", "fp"))
}

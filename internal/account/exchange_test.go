package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv builds an Environment whose endpoints point at the test server.
func testEnv(serverURL string) Environment {
	return Environment{
		Name:                 "test",
		AuthorizeEndpointURL: serverURL + "/",
		ResourceID:           "https://resource.example.com/",
		ClientID:             "client-123",
		Scope:                "openid offline_access",
	}
}

func TestExchangeCode(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/common/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":   r.PostFormValue("grant_type"),
			"client_id":    r.PostFormValue("client_id"),
			"scope":        r.PostFormValue("scope"),
			"redirect_uri": r.PostFormValue("redirect_uri"),
			"code":         r.PostFormValue("code"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600}`))
	}))
	defer server.Close()

	env := testEnv(server.URL)
	exchanger := NewTokenExchanger(nil)

	before := time.Now()
	resp, err := exchanger.ExchangeCode(context.Background(), env.ClientID, env, "http://localhost:1234/callback", "common", "abc123")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"grant_type":   "authorization_code",
		"client_id":    "client-123",
		"scope":        "openid offline_access",
		"redirect_uri": "http://localhost:1234/callback",
		"code":         "abc123",
	}, gotForm)

	assert.Equal(t, "at-1", resp.AccessToken)
	assert.Equal(t, "rt-1", resp.RefreshToken)
	assert.WithinDuration(t, before.Add(time.Hour), resp.ExpiresOn, 10*time.Second)
}

func TestExchangeCodeProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
	}))
	defer server.Close()

	exchanger := NewTokenExchanger(nil)
	_, err := exchanger.ExchangeCode(context.Background(), "client-123", testEnv(server.URL), "http://localhost:1/callback", "common", "bad")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExchangeFailed)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Contains(t, err.Error(), "code expired")
}

func TestExchangeCodeTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	exchanger := NewTokenExchanger(nil)
	_, err := exchanger.ExchangeCode(context.Background(), "client-123", testEnv(server.URL), "http://localhost:1/callback", "common", "abc")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExchangeFailed)
	assert.Contains(t, err.Error(), "status 500")
}

func TestExchangeRefreshToken(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tenant-a/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"client_id":     r.PostFormValue("client_id"),
			"refresh_token": r.PostFormValue("refresh_token"),
			"resource":      r.PostFormValue("resource"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-2","refresh_token":"rt-2","expires_in":"3599"}`))
	}))
	defer server.Close()

	env := testEnv(server.URL)
	exchanger := NewTokenExchanger(nil)

	resp, err := exchanger.ExchangeRefreshToken(context.Background(), env, "rt-1", "tenant-a", "")
	require.NoError(t, err)

	// An empty resource falls back to the environment's resource identifier,
	// and a quoted expires_in still parses.
	assert.Equal(t, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     "client-123",
		"refresh_token": "rt-1",
		"resource":      "https://resource.example.com/",
	}, gotForm)
	assert.Equal(t, "at-2", resp.AccessToken)
	assert.Equal(t, "rt-2", resp.RefreshToken)
	assert.Equal(t, int64(3599), int64(resp.ExpiresIn))
}

func TestExchangeRefreshTokenErrorInSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"invalid_grant","error_description":"refresh token revoked"}`))
	}))
	defer server.Close()

	exchanger := NewTokenExchanger(nil)
	_, err := exchanger.ExchangeRefreshToken(context.Background(), testEnv(server.URL), "rt-1", "common", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Contains(t, err.Error(), "refresh token revoked")
}

func TestExchangeRefreshTokenEmptyAccessTokenPasses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"refresh_token":"rt-2"}`))
	}))
	defer server.Close()

	exchanger := NewTokenExchanger(nil)
	resp, err := exchanger.ExchangeRefreshToken(context.Background(), testEnv(server.URL), "rt-1", "common", "")

	// No error field means the response stands, even without an access token.
	require.NoError(t, err)
	assert.Empty(t, resp.AccessToken)
	assert.Equal(t, "rt-2", resp.RefreshToken)
}

package account

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNonce = "bm9uY2U="

// get issues a request without following redirects, so tests can observe the
// 302 issued through the response handle. Safe to call off the test
// goroutine.
func get(rawURL string) (*http.Response, error) {
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(strings.NewReader(string(body)))
	return resp, nil
}

func TestRedirectListenerDeliversCode(t *testing.T) {
	listener := NewRedirectListener(testNonce)
	port, err := listener.Start(context.Background())
	require.NoError(t, err)
	defer listener.Stop()

	require.Equal(t, port, listener.Port())
	require.Equal(t, fmt.Sprintf("http://localhost:%d/callback", port), listener.RedirectURI())

	callbackURL := fmt.Sprintf("http://localhost:%d/callback?code=abc123&state=%d,%s",
		port, port, url.QueryEscape(testNonce))

	type response struct {
		status   int
		location string
		err      error
	}
	respCh := make(chan response, 1)
	go func() {
		resp, err := get(callbackURL)
		if err != nil {
			respCh <- response{err: err}
			return
		}
		respCh <- response{status: resp.StatusCode, location: resp.Header.Get("Location")}
	}()

	result, err := listener.Await(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NoError(t, result.Err)
	assert.Equal(t, "abc123", result.Code)

	result.Response.Redirect("/")

	select {
	case resp := <-respCh:
		require.NoError(t, resp.err)
		assert.Equal(t, http.StatusFound, resp.status)
		assert.Equal(t, "/", resp.location)
	case <-time.After(5 * time.Second):
		t.Fatal("callback response was not released")
	}
}

func TestRedirectListenerSecondCallbackRejected(t *testing.T) {
	listener := NewRedirectListener(testNonce)
	port, err := listener.Start(context.Background())
	require.NoError(t, err)
	defer listener.Stop()

	callbackURL := fmt.Sprintf("http://localhost:%d/callback?code=first&state=%d,%s",
		port, port, url.QueryEscape(testNonce))

	firstDone := make(chan error, 1)
	go func() {
		_, err := get(callbackURL)
		firstDone <- err
	}()

	result, err := listener.Await(context.Background())
	require.NoError(t, err)

	// The outcome is resolved; a second callback cannot change it.
	resp, err := get(fmt.Sprintf("http://localhost:%d/callback?code=second&state=%d,%s",
		port, port, url.QueryEscape(testNonce)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "first", result.Code)

	result.Response.Redirect("/")
	select {
	case err := <-firstDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first callback response was not released")
	}
}

func TestRedirectListenerAwaitContextCancelled(t *testing.T) {
	listener := NewRedirectListener(testNonce)
	_, err := listener.Start(context.Background())
	require.NoError(t, err)
	defer listener.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = listener.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedirectListenerServesLandingPage(t *testing.T) {
	listener := NewRedirectListener(testNonce)
	port, err := listener.Start(context.Background())
	require.NoError(t, err)
	defer listener.Stop()

	base := fmt.Sprintf("http://localhost:%d", port)

	resp, err := get(base + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<html")

	resp, err = get(base + "/main.css")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")

	resp, err = get(base + "/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEvaluateCallback(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  string
	}{
		{
			name:     "valid code and state",
			query:    "code=abc123&state=53123," + url.QueryEscape(testNonce),
			wantCode: "abc123",
		},
		{
			name:    "provider error description wins",
			query:   "error=access_denied&error_description=user+cancelled&code=abc",
			wantErr: "user cancelled",
		},
		{
			name:    "provider error without description",
			query:   "error=access_denied",
			wantErr: "access_denied",
		},
		{
			name:    "nonce mismatch",
			query:   "code=abc123&state=53123,d3Jvbmc=",
			wantErr: "Nonce does not match.",
		},
		{
			name:    "missing state",
			query:   "code=abc123",
			wantErr: "Nonce does not match.",
		},
		{
			name:    "no code after valid state",
			query:   "state=53123," + url.QueryEscape(testNonce),
			wantErr: "No code received.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			code, err := evaluateCallback(testNonce, values)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestEvaluateCallbackSpaceBecomesPlus(t *testing.T) {
	// A nonce containing '+' survives a transport that decoded it to ' '.
	nonce := "a+b+c="
	values := url.Values{
		"code":  {"xyz"},
		"state": {"1234,a b c="},
	}

	code, err := evaluateCallback(nonce, values)
	require.NoError(t, err)
	assert.Equal(t, "xyz", code)
}

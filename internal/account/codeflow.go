package account

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"signon/pkg/logging"
)

// AuthorizationCodeFlow runs one interactive authorization-code login: it
// opens the provider's authorize URL in the user's browser, awaits the
// redirect listener's outcome, and exchanges the code for tokens.
type AuthorizationCodeFlow struct {
	exchanger *TokenExchanger
}

// NewAuthorizationCodeFlow creates a flow backed by the given exchanger.
func NewAuthorizationCodeFlow(exchanger *TokenExchanger) *AuthorizationCodeFlow {
	return &AuthorizationCodeFlow{exchanger: exchanger}
}

// Login performs one interactive login attempt. Any stage failure is wrapped
// in a LoginError. The browser redirect is always issued before the result
// is returned, so the user-visible tab resolves to a terminal page; the
// listener itself is closed after a short grace delay so that redirect can
// flush, even if the call unwinds with an error.
func (f *AuthorizationCodeFlow) Login(ctx context.Context, clientID string, env Environment, tenantID string, openURI OpenURIFunc) (*TokenResponse, error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, &LoginError{Message: "login failed", Reason: err}
	}

	listener := NewRedirectListener(nonce)
	port, err := listener.Start(ctx)
	if err != nil {
		listener.Stop()
		return nil, &LoginError{Message: "login failed", Reason: err}
	}
	defer time.AfterFunc(ListenerCloseGrace, listener.Stop)

	// The authorize URL carries the listener's port in redirect_uri and in
	// the state, so it can only be composed once the port is bound.
	state := fmt.Sprintf("%d,%s", port, url.QueryEscape(nonce))
	redirectURI := listener.RedirectURI()
	authorizeURL := buildAuthorizeURL(env, tenantID, clientID, redirectURI, state)

	logging.Debug("Account", "opening authorize URL for %s on port %d", env.Name, port)
	if err := openURI(ctx, authorizeURL); err != nil {
		return nil, &LoginError{Message: "failed to open authorize URL", Reason: err}
	}

	result, err := listener.Await(ctx)
	if err != nil {
		return nil, &LoginError{Message: "login failed", Reason: err}
	}

	if result.Err != nil {
		result.Response.Redirect("/?error=" + url.QueryEscape(errorMessage(result.Err)))
		return nil, &LoginError{Message: "login failed", Reason: result.Err}
	}

	tokenResponse, err := f.exchanger.ExchangeCode(ctx, clientID, env, redirectURI, tenantID, result.Code)
	if err != nil {
		result.Response.Redirect("/?error=" + url.QueryEscape(errorMessage(err)))
		return nil, &LoginError{Message: "login failed", Reason: err}
	}

	result.Response.Redirect("/")
	return tokenResponse, nil
}

// buildAuthorizeURL composes the provider's authorize URL for one attempt.
// The state component is already URL-encoded and must not be encoded a
// second time, or the nonce would not survive the round trip.
func buildAuthorizeURL(env Environment, tenantID, clientID, redirectURI, state string) string {
	params := url.Values{
		"response_type": {"code"},
		"response_mode": {"query"},
		"client_id":     {clientID},
		"scope":         {env.Scope},
		"redirect_uri":  {redirectURI},
		"resource":      {env.ResourceID},
		"prompt":        {"select_account"},
	}
	return env.authorizeURL(tenantID) + "?" + params.Encode() + "&state=" + state
}

func errorMessage(err error) string {
	if err == nil {
		return "Unknown error"
	}
	return err.Error()
}

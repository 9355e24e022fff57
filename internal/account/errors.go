package account

import "errors"

// Sentinel errors for the stages of the login lifecycle.
var (
	// ErrPortTimeout is returned when the redirect listener does not learn
	// its assigned port within the bound wait.
	ErrPortTimeout = errors.New("timeout waiting for port")

	// ErrCodeTimeout is returned when no callback arrives within the code
	// wait window.
	ErrCodeTimeout = errors.New("timeout waiting for code")

	// ErrTokenExchangeFailed is returned when the authorization-code
	// exchange fails at the transport level or with a non-success response.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrRefreshFailed is returned when the refresh-token exchange fails,
	// including the case of a successful HTTP response carrying an error
	// field in its body.
	ErrRefreshFailed = errors.New("acquiring token with refresh token failed")

	// ErrOffline is returned when the user declines to continue without
	// connectivity.
	ErrOffline = errors.New("offline")

	// ErrNotSignedIn is returned when a refresh is attempted with no stored
	// refresh token.
	ErrNotSignedIn = errors.New("not signed in")
)

// CallbackError is a failure reported through the provider's browser
// redirect: a provider-side error, a nonce mismatch, or a missing code. The
// reason is human-readable and is shown on the browser landing page.
type CallbackError struct {
	Reason string
}

func (e *CallbackError) Error() string {
	return e.Reason
}

// LoginError wraps a stage failure of an interactive login attempt with a
// stable message. The underlying cause is available via Unwrap.
type LoginError struct {
	Message string
	Reason  error
}

func (e *LoginError) Error() string {
	if e.Reason != nil {
		return e.Message + ": " + e.Reason.Error()
	}
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Reason
}

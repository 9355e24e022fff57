// Package account implements interactive OAuth2 authorization-code sign-in
// against an identity provider and maintains a renewable session.
//
// # Architecture
//
// The package is organized around a small number of cooperating components:
//
//   - RedirectListener: a transient loopback HTTP server that receives the
//     provider's browser redirect and extracts the authorization code under
//     CSRF (nonce) protection. It resolves exactly one outcome per attempt.
//   - AuthorizationCodeFlow: orchestrates opening the authorize URL in the
//     user's browser, awaiting the listener's outcome, and exchanging the
//     code for tokens.
//   - TokenExchanger: the two token-acquisition protocols against the
//     provider's token endpoint (authorization code and refresh token).
//   - ConnectivityGate: decides when to attempt network operations by racing
//     a connectivity probe against a poll timer.
//   - SessionStore: holds the current session, derives the public login
//     status, and publishes status/session change notifications.
//   - Manager: top-level sequencing of silent re-authentication, interactive
//     login, token retrieval, and logout, including refresh-token
//     persistence in the platform secret store.
//
// # Login lifecycle
//
// Status moves through Initializing -> {LoggingIn, LoggedIn, LoggedOut}.
// Initializing is left automatically once the startup silent re-auth attempt
// completes. Once LoggedIn, background refresh failures never demote the
// status; only Logout does.
//
// # Usage
//
//	mgr := account.NewManager(account.ManagerConfig{
//	    Secrets: secret.NewKeyring(),
//	})
//	mgr.Initialize(ctx)
//	token, err := mgr.GetToken(ctx)
package account

package account

import (
	"context"
	"fmt"
	"sync"

	"signon/pkg/logging"
)

// LoginStatus is the public login lifecycle state.
type LoginStatus int

const (
	// StatusInitializing is the only valid starting state. It is left
	// automatically once the startup silent re-auth attempt completes.
	StatusInitializing LoginStatus = iota

	// StatusLoggingIn means a login attempt is in flight.
	StatusLoggingIn

	// StatusLoggedIn means a session is present.
	StatusLoggedIn

	// StatusLoggedOut means no session is present.
	StatusLoggedOut
)

// String returns the string representation of the login status.
func (s LoginStatus) String() string {
	switch s {
	case StatusInitializing:
		return "Initializing"
	case StatusLoggingIn:
		return "LoggingIn"
	case StatusLoggedIn:
		return "LoggedIn"
	case StatusLoggedOut:
		return "LoggedOut"
	default:
		return fmt.Sprintf("LoginStatus(%d)", int(s))
	}
}

// SessionStore holds the current session set in memory, derives the public
// login status from it, and publishes change notifications.
//
// Status invariant: LoggedIn if and only if the session set is non-empty
// (outside the transient Initializing/LoggingIn states). Status transitions
// happen only through the store's mutation methods. StatusChanged fires only
// when the computed status differs from the previous one; SessionsChanged
// fires unconditionally on every session replacement because consumers treat
// it as a cache-invalidation signal, not a diff signal.
type SessionStore struct {
	mu       sync.Mutex
	status   LoginStatus
	sessions []Session

	statusChanged   *Emitter[LoginStatus]
	sessionsChanged *Emitter[struct{}]
	ready           *Signal
}

// NewSessionStore creates an empty store in the Initializing state.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		status:          StatusInitializing,
		statusChanged:   NewEmitter[LoginStatus](),
		sessionsChanged: NewEmitter[struct{}](),
		ready:           NewSignal(),
	}
}

// Status returns the current login status.
func (s *SessionStore) Status() LoginStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Sessions returns a copy of the current session set. Readers see either the
// old or the new set, never a mix.
func (s *SessionStore) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// OnStatusChanged subscribes to status transitions. The returned function
// removes the subscription.
func (s *SessionStore) OnStatusChanged(fn func(LoginStatus)) (unsubscribe func()) {
	return s.statusChanged.Subscribe(fn)
}

// OnSessionsChanged subscribes to session replacements. The returned
// function removes the subscription.
func (s *SessionStore) OnSessionsChanged(fn func()) (unsubscribe func()) {
	return s.sessionsChanged.Subscribe(func(struct{}) { fn() })
}

// Ready resolves once the session set has been populated (or explicitly
// cleared) for the first time. Token readers gate on it so they never
// observe the window between startup and the first session mutation.
func (s *SessionStore) Ready() *Signal {
	return s.ready
}

// BeginLoggingIn moves the status to LoggingIn. Once LoggedIn, the status
// stays LoggedIn while a background refresh is attempted, so this is a no-op
// in that state.
func (s *SessionStore) BeginLoggingIn() {
	s.mu.Lock()
	if s.status == StatusLoggedIn || s.status == StatusLoggingIn {
		s.mu.Unlock()
		return
	}
	s.status = StatusLoggingIn
	status := s.status
	s.mu.Unlock()

	s.statusChanged.Fire(status)
}

// UpdateSessions replaces the session set wholesale with one session per
// token response and fires SessionsChanged unconditionally. The status
// settles to match the new set.
func (s *SessionStore) UpdateSessions(env Environment, tokenResponses []*TokenResponse) {
	sessions := make([]Session, 0, len(tokenResponses))
	for _, resp := range tokenResponses {
		sessions = append(sessions, Session{
			Environment: env,
			UserID:      resp.UserID,
			TenantID:    resp.TenantID,
			Token:       resp.Token(),
		})
	}

	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()

	s.ready.Complete()
	s.sessionsChanged.Fire(struct{}{})
	s.SettleStatus()
	logging.Debug("Account", "session set replaced (%d sessions)", len(sessions))
}

// ClearSessions empties the session set and fires SessionsChanged. The
// status settles to LoggedOut.
func (s *SessionStore) ClearSessions() {
	s.mu.Lock()
	s.sessions = nil
	s.mu.Unlock()

	s.ready.Complete()
	s.sessionsChanged.Fire(struct{}{})
	s.SettleStatus()
}

// SettleStatus recomputes the status from the session set: LoggedIn when
// non-empty, LoggedOut otherwise. A notification fires only if the status
// actually changed.
func (s *SessionStore) SettleStatus() {
	s.mu.Lock()
	status := StatusLoggedOut
	if len(s.sessions) > 0 {
		status = StatusLoggedIn
	}
	if s.status == status {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.mu.Unlock()

	s.statusChanged.Fire(status)
}

// WaitForLogin resolves true or false once the status leaves the
// Initializing/LoggingIn states. It subscribes to status notifications and
// re-checks on each one; it never polls.
func (s *SessionStore) WaitForLogin(ctx context.Context) (bool, error) {
	notify := make(chan struct{}, 1)
	unsubscribe := s.OnStatusChanged(func(LoginStatus) {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		switch s.Status() {
		case StatusLoggedIn:
			return true, nil
		case StatusLoggedOut:
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-notify:
		}
	}
}

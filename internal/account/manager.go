package account

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"signon/internal/secret"
	"signon/internal/telemetry"
	"signon/pkg/logging"
)

// offlineNoticeDelay is how long an explicit login waits for connectivity
// before surfacing the offline prompt.
const offlineNoticeDelay = 2 * time.Second

// PromptOfflineFunc tells the user they appear to be offline and asks
// whether to keep waiting. Returning false abandons the attempt.
type PromptOfflineFunc func(ctx context.Context) bool

// ManagerConfig carries the Manager's collaborators. Zero values select
// working defaults, so tests can construct a Manager from just an
// Environment and a fake or two.
type ManagerConfig struct {
	Environment   Environment
	TenantID      string
	Secrets       secret.Store
	Reporter      telemetry.Reporter
	OpenURI       OpenURIFunc
	PromptOffline PromptOfflineFunc
	HTTPClient    *http.Client
}

func (c *ManagerConfig) applyDefaults() {
	if c.TenantID == "" {
		c.TenantID = DefaultTenantID
	}
	if c.Secrets == nil {
		c.Secrets = secret.Noop{}
	}
	if c.Reporter == nil {
		c.Reporter = telemetry.Noop{}
	}
	if c.OpenURI == nil {
		c.OpenURI = OpenBrowser
	}
	if c.PromptOffline == nil {
		c.PromptOffline = func(context.Context) bool {
			logging.Warn("Account", "no network connectivity, waiting for the identity provider to become reachable")
			return true
		}
	}
}

// Manager orchestrates the login lifecycle: silent re-authentication at
// startup, interactive logins, background refresh, logout, and token reads.
// It owns the session store and keeps the persisted refresh token and the
// in-memory session consistent: the token is persisted before a session is
// published and deleted before the session set is cleared.
type Manager struct {
	cfg       ManagerConfig
	store     *SessionStore
	exchanger *TokenExchanger
	flow      *AuthorizationCodeFlow
	gate      *ConnectivityGate

	tokenFlight singleflight.Group
}

// NewManager creates a Manager for the configured environment.
func NewManager(cfg ManagerConfig) *Manager {
	cfg.applyDefaults()
	exchanger := NewTokenExchanger(cfg.HTTPClient)
	return &Manager{
		cfg:       cfg,
		store:     NewSessionStore(),
		exchanger: exchanger,
		flow:      NewAuthorizationCodeFlow(exchanger),
		gate:      NewConnectivityGate(cfg.Environment, cfg.HTTPClient),
	}
}

// Store exposes the session store for status reads and event subscriptions.
func (m *Manager) Store() *SessionStore {
	return m.store
}

// Initialize attempts a silent re-authentication from the persisted refresh
// token. Failures never surface: the session set is cleared, the status
// settles to LoggedOut, and the attempt is reported to telemetry.
func (m *Manager) Initialize(ctx context.Context) {
	defer m.store.SettleStatus()

	if err := m.refreshSession(ctx, telemetry.TriggerActivation); err != nil {
		if !errors.Is(err, ErrNotSignedIn) {
			logging.Debug("Account", "silent re-authentication failed: %v", err)
		}
		m.store.ClearSessions()
	}
}

// Login runs one interactive login attempt.
func (m *Manager) Login(ctx context.Context) error {
	return m.login(ctx, telemetry.TriggerLogin)
}

func (m *Manager) login(ctx context.Context, trigger telemetry.Trigger) error {
	attemptID := uuid.NewString()
	defer m.store.SettleStatus()

	if err := m.waitForConnectivity(ctx); err != nil {
		m.report(attemptID, trigger, telemetry.PathInteractive, err)
		return err
	}

	m.store.BeginLoggingIn()

	env := m.cfg.Environment
	resp, err := m.flow.Login(ctx, env.ClientID, env, m.cfg.TenantID, m.cfg.OpenURI)
	if err != nil {
		m.report(attemptID, trigger, telemetry.PathInteractive, err)
		return err
	}

	m.persistRefreshToken(resp)
	m.store.UpdateSessions(env, []*TokenResponse{resp})
	m.report(attemptID, trigger, telemetry.PathInteractive, nil)
	return nil
}

// Logout removes the persisted refresh token and clears the session set.
// The token is deleted first so a crash between the two steps cannot leave
// a stored credential behind a logged-out session.
func (m *Manager) Logout(ctx context.Context) error {
	if _, err := m.store.WaitForLogin(ctx); err != nil {
		return err
	}

	if err := m.cfg.Secrets.Delete(m.secretAccount()); err != nil {
		logging.Warn("Account", "deleting persisted refresh token failed: %v", err)
	}
	m.store.ClearSessions()
	return nil
}

// GetToken returns a fresh access token. A logged-in session is renewed via
// the stored refresh token; if that fails, or no session exists, it falls
// back to an interactive login. Concurrent callers share one flight.
func (m *Manager) GetToken(ctx context.Context) (string, error) {
	v, err, _ := m.tokenFlight.Do("token", func() (any, error) {
		return m.getToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) getToken(ctx context.Context) (string, error) {
	loggedIn, err := m.store.WaitForLogin(ctx)
	if err != nil {
		return "", err
	}

	if loggedIn {
		if err := m.refreshSession(ctx, telemetry.TriggerGetToken); err == nil {
			return m.accessToken()
		} else if ctx.Err() != nil {
			return "", ctx.Err()
		} else {
			logging.Warn("Account", "session renewal failed, falling back to interactive login: %v", err)
		}
	}

	if err := m.login(ctx, telemetry.TriggerGetToken); err != nil {
		return "", err
	}
	return m.accessToken()
}

func (m *Manager) accessToken() (string, error) {
	sessions := m.store.Sessions()
	if len(sessions) == 0 {
		return "", ErrNotSignedIn
	}
	return sessions[0].Token.AccessToken, nil
}

// RefreshSession renews the current session from the persisted refresh
// token. ErrNotSignedIn is returned when no token is stored.
func (m *Manager) RefreshSession(ctx context.Context, trigger telemetry.Trigger) error {
	return m.refreshSession(ctx, trigger)
}

func (m *Manager) refreshSession(ctx context.Context, trigger telemetry.Trigger) error {
	refreshToken, err := m.cfg.Secrets.Get(m.secretAccount())
	if err != nil {
		logging.Warn("Account", "reading persisted refresh token failed: %v", err)
		return ErrNotSignedIn
	}
	if refreshToken == "" {
		return ErrNotSignedIn
	}

	attemptID := uuid.NewString()

	if err := m.gate.BecomeOnline(ctx, SilentPollInterval); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	env := m.cfg.Environment
	resp, err := m.exchanger.ExchangeRefreshToken(ctx, env, refreshToken, m.cfg.TenantID, "")
	if err != nil {
		m.report(attemptID, trigger, telemetry.PathRefreshToken, err)
		return err
	}

	m.persistRefreshToken(resp)
	m.store.UpdateSessions(env, []*TokenResponse{resp})
	m.report(attemptID, trigger, telemetry.PathRefreshToken, nil)
	return nil
}

// CurrentSession returns the first session, or nil when logged out. It
// blocks until the session set has been populated or cleared once, so
// callers racing startup do not observe a transient empty set.
func (m *Manager) CurrentSession(ctx context.Context) (*Session, error) {
	if err := m.store.Ready().Wait(ctx); err != nil {
		return nil, err
	}
	sessions := m.store.Sessions()
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// waitForConnectivity gates an interactive login on provider reachability.
// If the gate is still offline after a short delay, the user is asked
// whether to keep waiting; declining fails the attempt with ErrOffline.
func (m *Manager) waitForConnectivity(ctx context.Context) error {
	gateCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	online := make(chan struct{})
	go func() {
		if err := m.gate.BecomeOnline(gateCtx, LoginPollInterval); err == nil && gateCtx.Err() == nil {
			close(online)
		}
	}()

	notice := time.NewTimer(offlineNoticeDelay)
	defer notice.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-online:
		return nil
	case <-notice.C:
	}

	// The prompt is raced against the probe: connectivity coming back while
	// the user is still deciding wins.
	answer := make(chan bool, 1)
	go func() { answer <- m.cfg.PromptOffline(gateCtx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-online:
		return nil
	case keepWaiting := <-answer:
		if !keepWaiting {
			return ErrOffline
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-online:
		return nil
	}
}

// persistRefreshToken stores the refresh token best-effort. Store failures
// are logged and swallowed so a working login never fails on persistence.
func (m *Manager) persistRefreshToken(resp *TokenResponse) {
	if resp.RefreshToken == "" {
		return
	}
	if err := m.cfg.Secrets.Set(m.secretAccount(), resp.RefreshToken); err != nil {
		logging.Warn("Account", "persisting refresh token failed: %v", err)
	}
}

func (m *Manager) secretAccount() string {
	return m.cfg.Environment.Name
}

func (m *Manager) report(attemptID string, trigger telemetry.Trigger, path telemetry.Path, err error) {
	event := telemetry.LoginEvent{
		AttemptID:   attemptID,
		Trigger:     trigger,
		Path:        path,
		Environment: m.cfg.Environment.Name,
		Succeeded:   err == nil,
	}
	if err != nil {
		event.Message = err.Error()
	}
	m.cfg.Reporter.ReportLogin(event)
}

package cmd

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"signon/internal/account"
	"signon/internal/config"
	"signon/internal/secret"
	"signon/internal/telemetry"
	"signon/pkg/logging"
)

// renewAhead is how long before token expiry the session keeper renews.
const renewAhead = 5 * time.Minute

// minRenewDelay bounds the renewal timer so a token that is already close
// to expiry does not cause a hot refresh loop.
const minRenewDelay = time.Minute

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep the session alive until interrupted",
		Long: `Run a long-lived session keeper.

The keeper signs in silently from the stored refresh token, renews the
session ahead of token expiry, and reacts to configuration changes: when
the environment or tenant in the config file changes, it signs in to the
new one. It exits on interrupt.`,
		RunE: runRun,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := newSetup()
	if err != nil {
		return err
	}

	path := flagConfig
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	keeper := &sessionKeeper{
		ctx:     ctx,
		cfgPath: path,
		env:     s.env,
		tenant:  s.tenant,
		manager: s.manager,
	}
	keeper.attach()

	watcher := config.NewWatcher(path, keeper.handleConfigChange)
	if err := watcher.Start(); err != nil {
		logging.Warn("Run", "config watching unavailable: %v", err)
	} else {
		defer watcher.Stop()
	}

	s.manager.Initialize(ctx)

	<-ctx.Done()
	logging.Info("Run", "shutting down")
	return nil
}

// sessionKeeper owns the long-running session: it re-arms a renewal timer
// on every session change and swaps the manager when the configured
// environment or tenant changes.
type sessionKeeper struct {
	ctx     context.Context
	cfgPath string

	mu         sync.Mutex
	env        account.Environment
	tenant     string
	manager    *account.Manager
	renewTimer *time.Timer
	detach     func()
}

// attach subscribes the keeper to the current manager's events.
func (k *sessionKeeper) attach() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.attachLocked()
}

func (k *sessionKeeper) attachLocked() {
	manager := k.manager
	unsubStatus := manager.Store().OnStatusChanged(func(status account.LoginStatus) {
		logging.Info("Run", "status changed to %s", status)
	})
	unsubSessions := manager.Store().OnSessionsChanged(func() {
		k.scheduleRenewal(manager)
	})
	k.detach = func() {
		unsubStatus()
		unsubSessions()
	}
}

// scheduleRenewal arms the renewal timer from the current session's expiry.
// Called on every session change, so a refreshed token re-arms the timer.
func (k *sessionKeeper) scheduleRenewal(manager *account.Manager) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.renewTimer != nil {
		k.renewTimer.Stop()
		k.renewTimer = nil
	}
	if manager != k.manager {
		return
	}

	sessions := manager.Store().Sessions()
	if len(sessions) == 0 || sessions[0].Token.ExpiresOn.IsZero() {
		return
	}

	delay := time.Until(sessions[0].Token.ExpiresOn) - renewAhead
	if delay < minRenewDelay {
		delay = minRenewDelay
	}

	logging.Debug("Run", "next session renewal in %s", delay.Round(time.Second))
	k.renewTimer = time.AfterFunc(delay, func() {
		if k.ctx.Err() != nil {
			return
		}
		if err := manager.RefreshSession(k.ctx, telemetry.TriggerRenewal); err != nil {
			logging.Warn("Run", "session renewal failed: %v", err)
			manager.Store().SettleStatus()
		}
	})
}

// handleConfigChange reloads the config file and, if the environment or
// tenant changed, replaces the manager and signs in to the new target.
func (k *sessionKeeper) handleConfigChange() {
	cfg, err := config.Load(k.cfgPath)
	if err != nil {
		logging.Warn("Run", "reloading config failed: %v", err)
		return
	}

	env := cfg.ResolvedEnvironment()
	tenant := cfg.ResolvedTenant()
	if flagTenant != "" {
		tenant = flagTenant
	}

	k.mu.Lock()
	if env.Name == k.env.Name && tenant == k.tenant {
		k.mu.Unlock()
		return
	}

	logging.Info("Run", "configuration changed, switching to environment %s tenant %s", env.Name, tenant)

	if k.detach != nil {
		k.detach()
	}
	if k.renewTimer != nil {
		k.renewTimer.Stop()
		k.renewTimer = nil
	}

	store := secret.NewKeyring()
	store.MigrateLegacy(env.Name, env.Name)

	k.env = env
	k.tenant = tenant
	k.manager = account.NewManager(account.ManagerConfig{
		Environment:   env,
		TenantID:      tenant,
		Secrets:       store,
		Reporter:      telemetry.NewLogger(),
		PromptOffline: promptOffline,
	})
	k.attachLocked()
	manager := k.manager
	k.mu.Unlock()

	if err := manager.RefreshSession(k.ctx, telemetry.TriggerConfigChange); err != nil {
		logging.Warn("Run", "sign-in after config change failed: %v", err)
		manager.Store().ClearSessions()
	}
}

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"signon/internal/account"
	"signon/internal/config"
	"signon/internal/secret"
	"signon/internal/telemetry"
	"signon/pkg/logging"
)

// setup bundles everything a command needs after flag and config resolution.
type setup struct {
	cfg     config.Config
	env     account.Environment
	tenant  string
	manager *account.Manager
}

// newSetup loads the configuration, initializes logging, and builds the
// account manager. Flags override config file values.
func newSetup() (*setup, error) {
	path := flagConfig
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	// Logging must come up before Load so the loader's own messages land
	// somewhere. The level from the config file is applied right after.
	level := flagLogLevel
	logging.Init(logging.ParseLogLevel(level), os.Stderr)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level == "" && cfg.LogLevel != "" {
		logging.Init(logging.ParseLogLevel(cfg.LogLevel), os.Stderr)
	}

	env := cfg.ResolvedEnvironment()
	tenant := cfg.ResolvedTenant()
	if flagTenant != "" {
		tenant = flagTenant
	}

	store := secret.NewKeyring()
	store.MigrateLegacy(env.Name, env.Name)

	manager := account.NewManager(account.ManagerConfig{
		Environment:   env,
		TenantID:      tenant,
		Secrets:       store,
		Reporter:      telemetry.NewLogger(),
		PromptOffline: promptOffline,
	})

	return &setup{cfg: cfg, env: env, tenant: tenant, manager: manager}, nil
}

// promptOffline asks the user whether to keep waiting for connectivity.
// An unreadable answer or a bare return means yes.
func promptOffline(ctx context.Context) bool {
	fmt.Fprintf(os.Stderr, "%s\n", text.FgYellow.Sprint("You appear to be offline."))
	fmt.Fprint(os.Stderr, "Keep waiting for a connection? [Y/n] ")

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case <-ctx.Done():
		return false
	case line := <-answer:
		return line != "n" && line != "no"
	}
}

// formatExpiry renders a token expiry as an absolute time plus remaining
// duration, colored by how close it is.
func formatExpiry(expiresOn time.Time) string {
	remaining := time.Until(expiresOn).Round(time.Second)
	stamp := expiresOn.Local().Format("2006-01-02 15:04:05")

	switch {
	case remaining <= 0:
		return text.FgRed.Sprintf("%s (expired)", stamp)
	case remaining < 5*time.Minute:
		return text.FgYellow.Sprintf("%s (in %s)", stamp, remaining)
	default:
		return fmt.Sprintf("%s (in %s)", stamp, remaining)
	}
}

package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"signon/internal/account"
)

// Exit codes for CLI commands. These follow common conventions so scripts
// can distinguish "run login first" from "login was attempted and failed".
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the sign-in flow failed.
	ExitCodeAuthFailed = 3
)

// Persistent flags, shared by all subcommands.
var (
	flagConfig   string
	flagTenant   string
	flagLogLevel string
)

// rootCmd represents the base command for the signon application.
var rootCmd = &cobra.Command{
	Use:   "signon",
	Short: "Sign in to your identity provider from the command line",
	Long: `signon manages a browser-based sign-in session for scripts and tools:
it runs the authorization-code flow against your identity provider, keeps
the refresh token in the operating system credential store, and hands out
access tokens on demand.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "signon version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error to a semantic exit code for scripting.
func getExitCode(err error) int {
	if errors.Is(err, account.ErrNotSignedIn) {
		return ExitCodeAuthRequired
	}

	var loginErr *account.LoginError
	if errors.As(err, &loginErr) {
		return ExitCodeAuthFailed
	}
	if errors.Is(err, account.ErrOffline) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default is $HOME/.config/signon/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagTenant, "tenant", "", "directory tenant for token requests (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
}

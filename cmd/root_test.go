package cmd

import (
	"errors"
	"testing"

	"signon/internal/account"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "not signed in maps to auth required",
			err:  account.ErrNotSignedIn,
			want: ExitCodeAuthRequired,
		},
		{
			name: "wrapped not signed in maps to auth required",
			err:  errors.Join(errors.New("token: "), account.ErrNotSignedIn),
			want: ExitCodeAuthRequired,
		},
		{
			name: "login error maps to auth failed",
			err:  &account.LoginError{Message: "login failed", Reason: errors.New("nope")},
			want: ExitCodeAuthFailed,
		},
		{
			name: "offline maps to auth failed",
			err:  account.ErrOffline,
			want: ExitCodeAuthFailed,
		},
		{
			name: "anything else maps to general error",
			err:  errors.New("disk full"),
			want: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	expected := []string{"login", "logout", "status", "token", "run", "version"}

	for _, name := range expected {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	SetVersion("9.9.9")
	if GetVersion() != "9.9.9" {
		t.Errorf("Expected version 9.9.9, got %s", GetVersion())
	}
}

package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current sign-in status",
		Long: `Show the current sign-in status.

A silent re-authentication from the stored refresh token is attempted
first, so the reported status reflects whether the credential still works,
not just whether one is stored.`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := newSetup()
	if err != nil {
		return err
	}

	s.manager.Initialize(ctx)

	session, err := s.manager.CurrentSession(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Environment: %s\n", s.env.Name)
	fmt.Printf("Tenant:      %s\n", s.tenant)

	if session == nil {
		fmt.Printf("Status:      %s\n", text.FgYellow.Sprint("Not signed in"))
		return nil
	}

	fmt.Printf("Status:      %s\n", text.FgGreen.Sprint("Signed in"))
	if session.UserID != "" {
		fmt.Printf("User:        %s\n", session.UserID)
	}
	if session.TenantID != "" && session.TenantID != s.tenant {
		fmt.Printf("Directory:   %s\n", session.TenantID)
	}
	if !session.Token.ExpiresOn.IsZero() {
		fmt.Printf("Expires:     %s\n", formatExpiry(session.Token.ExpiresOn))
	}
	return nil
}

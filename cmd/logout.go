package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored refresh token",
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := newSetup()
	if err != nil {
		return err
	}

	// Settle the session state first so logout observes a stable status.
	s.manager.Initialize(ctx)

	if err := s.manager.Logout(ctx); err != nil {
		return err
	}

	fmt.Println(text.FgGreen.Sprint("Signed out"))
	return nil
}

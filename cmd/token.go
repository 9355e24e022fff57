package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"signon/internal/account"
)

var tokenInteractive bool

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an access token for scripting",
		Long: `Print a fresh access token on stdout.

By default the token comes from a silent refresh of the stored session and
the command fails with exit code 2 when no session exists. With
--interactive a browser sign-in is started instead of failing.`,
		RunE: runToken,
	}
	cmd.Flags().BoolVar(&tokenInteractive, "interactive", false, "start a browser sign-in if no session exists")
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := newSetup()
	if err != nil {
		return err
	}

	s.manager.Initialize(ctx)

	if tokenInteractive {
		token, err := s.manager.GetToken(ctx)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	session, err := s.manager.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if session == nil || session.Token.AccessToken == "" {
		return account.ErrNotSignedIn
	}

	fmt.Println(session.Token.AccessToken)
	return nil
}

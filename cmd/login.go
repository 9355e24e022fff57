package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through your browser",
		Long: `Sign in to the configured identity environment.

This opens the provider's sign-in page in your default browser, waits for
the redirect back to a local listener, and stores the resulting refresh
token in the operating system credential store.`,
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := newSetup()
	if err != nil {
		return err
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " Waiting for sign-in in your browser..."
	sp.Start()

	err = s.manager.Login(ctx)
	sp.Stop()

	if err != nil {
		fmt.Printf("%s %v\n", text.FgRed.Sprint("Sign-in failed:"), err)
		return err
	}

	session, err := s.manager.CurrentSession(ctx)
	if err != nil {
		return err
	}

	if session != nil && session.UserID != "" {
		fmt.Printf("%s as %s\n", text.FgGreen.Sprint("Signed in"), session.UserID)
	} else {
		fmt.Println(text.FgGreen.Sprint("Signed in"))
	}
	return nil
}

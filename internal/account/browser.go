package account

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// OpenURIFunc surfaces a URL to the user, normally by opening it in the
// default browser. It is an external collaborator; the Manager accepts an
// implementation via its config and defaults to OpenBrowser.
type OpenURIFunc func(ctx context.Context, uri string) error

// OpenBrowser opens the specified URL in the default web browser.
// It supports Linux, macOS, and Windows.
func OpenBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	// Start the command but don't wait for it to complete; the browser
	// opens in the background.
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

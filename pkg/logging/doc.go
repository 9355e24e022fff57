// Package logging provides a structured logging system for signon with
// subsystem-tagged output and level filtering.
//
// It is a thin wrapper around Go's standard slog package. All log entries
// carry a subsystem identifier so that output can be filtered by the area of
// the application that produced it (Account, Config, Secret, CLI, ...).
//
// Usage:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("Account", "signed in as %s", userID)
//	logging.Error("Secret", err, "failed to persist refresh token")
package logging

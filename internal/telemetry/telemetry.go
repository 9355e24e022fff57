// Package telemetry reports login attempt outcomes. Events carry no token
// material, only attempt metadata.
package telemetry

import (
	"signon/pkg/logging"
)

// Trigger identifies what initiated a login attempt.
type Trigger string

const (
	// TriggerActivation marks the silent re-authentication at startup.
	TriggerActivation Trigger = "activation"

	// TriggerLogin marks an attempt the user asked for explicitly.
	TriggerLogin Trigger = "login"

	// TriggerGetToken marks an attempt made on behalf of a token read.
	TriggerGetToken Trigger = "getToken"

	// TriggerConfigChange marks a re-login after the environment or tenant
	// configuration changed underneath a running session.
	TriggerConfigChange Trigger = "configChange"

	// TriggerRenewal marks a proactive refresh ahead of token expiry.
	TriggerRenewal Trigger = "renewal"
)

// Path identifies which protocol an attempt used.
type Path string

const (
	PathInteractive  Path = "interactive"
	PathRefreshToken Path = "refresh_token"
)

// LoginEvent describes one finished login attempt.
type LoginEvent struct {
	AttemptID   string
	Trigger     Trigger
	Path        Path
	Environment string
	Succeeded   bool
	Message     string
}

// Reporter receives login events. Implementations must not block.
type Reporter interface {
	ReportLogin(event LoginEvent)
}

// Noop discards all events.
type Noop struct{}

func (Noop) ReportLogin(LoginEvent) {}

// Logger writes events to the application log.
type Logger struct{}

// NewLogger returns a log-backed reporter.
func NewLogger() Logger {
	return Logger{}
}

func (Logger) ReportLogin(event LoginEvent) {
	outcome := "succeeded"
	if !event.Succeeded {
		outcome = "failed"
	}
	if event.Message != "" {
		logging.Info("Telemetry", "login %s (attempt=%s trigger=%s path=%s env=%s): %s",
			outcome, event.AttemptID, event.Trigger, event.Path, event.Environment, event.Message)
		return
	}
	logging.Info("Telemetry", "login %s (attempt=%s trigger=%s path=%s env=%s)",
		outcome, event.AttemptID, event.Trigger, event.Path, event.Environment)
}

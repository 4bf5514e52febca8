package backend

import (
	"errors"
	"fmt"
)

// Standard errors returned by backend dispatch.
var (
	// ErrUnhandled indicates a notification method with no registered
	// handler and no suppression entry.
	ErrUnhandled = errors.New("unhandled notification")

	// ErrUnknownCommand indicates a custom command with no registered
	// handler.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnsupportedPayloadField marks payload fields the adapter
	// recognizes from the protocol extension but does not handle.
	ErrUnsupportedPayloadField = errors.New("unsupported payload field")
)

// ConfigurationError indicates no launch command could be resolved for a
// backend. It is fatal to session startup.
type ConfigurationError struct {
	Backend string
	Reason  string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("backend %s: %s", e.Backend, e.Reason)
}

// Package workspace resolves the root directory of the project under
// analysis by querying the build tool's metadata command.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/tidwall/gjson"
)

// rootField is the metadata field naming the workspace root.
const rootField = "workspace_root"

// DefaultMetadataCommand is the cargo invocation used to locate the
// workspace root. It prints a single JSON object on stdout.
var DefaultMetadataCommand = []string{"cargo", "metadata", "--no-deps", "--format-version=1"}

// RootResolutionError reports that the metadata command failed or its
// output could not be interpreted. It is fatal to session startup.
type RootResolutionError struct {
	Dir string
	Err error
}

// Error implements the error interface.
func (e *RootResolutionError) Error() string {
	return fmt.Sprintf("resolve workspace root in %s: %v", e.Dir, e.Err)
}

// Unwrap returns the underlying error.
func (e *RootResolutionError) Unwrap() error {
	return e.Err
}

// Resolver locates workspace roots via an external metadata command.
type Resolver struct {
	command []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetadataCommand overrides the metadata command.
func WithMetadataCommand(command []string) Option {
	return func(r *Resolver) {
		r.command = command
	}
}

// NewResolver creates a resolver using the default metadata command.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{command: DefaultMetadataCommand}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root runs the metadata command in dir and extracts the workspace root
// from its JSON output. The invocation blocks until the command exits or
// ctx is cancelled; with a background context a hung metadata command
// hangs the caller. Every failure mode collapses into a
// *RootResolutionError and the session must not start.
func (r *Resolver) Root(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		return "", &RootResolutionError{Dir: dir, Err: fmt.Errorf("metadata command: %w", err)}
	}

	if !gjson.ValidBytes(out) {
		return "", &RootResolutionError{Dir: dir, Err: errors.New("metadata output is not valid JSON")}
	}

	root := gjson.GetBytes(out, rootField)
	if !root.Exists() || root.String() == "" {
		return "", &RootResolutionError{Dir: dir, Err: fmt.Errorf("metadata output missing %q", rootField)}
	}

	return root.String(), nil
}

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// RLSID identifies the primary backend profile.
	RLSID = "rls"

	// EnvRLSRoot names a source checkout of the server, used as a launch
	// fallback when no command is configured.
	EnvRLSRoot = "RLS_ROOT"
)

// RLS notification methods.
const (
	MethodWindowProgress   = "window/progress"
	MethodDiagnosticsBegin = "rustDocument/diagnosticsBegin"
	MethodDiagnosticsEnd   = "rustDocument/diagnosticsEnd"
	MethodBeginBuild       = "rustDocument/beginBuild"
)

// RLSConfig configures the RLS backend profile.
type RLSConfig struct {
	// Command overrides the launch command when non-empty. It is returned
	// verbatim, before any environment fallback is consulted.
	Command []string

	// LookupEnv overrides environment access. Defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// NewRLS constructs the RLS backend profile with its launch resolution
// and notification table.
func NewRLS(cfg RLSConfig) *Profile {
	lookup := cfg.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	p := newProfile(RLSID, func() ([]string, error) {
		return resolveRLSCommand(cfg.Command, lookup)
	})

	p.handleNotification(MethodWindowProgress, handleWindowProgress)
	p.handleNotification(MethodDiagnosticsBegin, handleDiagnosticsBegin)
	p.handleNotification(MethodDiagnosticsEnd, handleDiagnosticsEnd)
	p.handleNotification(MethodBeginBuild, handleBeginBuild)
	return p
}

// resolveRLSCommand picks the launch command: the configured command
// verbatim, else a cargo invocation against a source checkout named by
// EnvRLSRoot, else failure.
func resolveRLSCommand(configured []string, lookup func(string) (string, bool)) ([]string, error) {
	if len(configured) > 0 {
		return configured, nil
	}

	if root, ok := lookup(EnvRLSRoot); ok && root != "" {
		manifest := filepath.Join(root, "Cargo.toml")
		return []string{"cargo", "run", "--release", "--manifest-path=" + manifest}, nil
	}

	return nil, &ConfigurationError{
		Backend: RLSID,
		Reason:  "no launch command configured and " + EnvRLSRoot + " is not set",
	}
}

// progressParams mirrors the RLS window/progress extension payload.
type progressParams struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Percentage *float64 `json:"percentage"`
	Done       bool     `json:"done"`
}

func handleWindowProgress(ctx context.Context, hc *HandlerContext, params json.RawMessage) error {
	var p progressParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("decode %s: %w", MethodWindowProgress, err)
	}

	hc.Progress.UpdateProgress(hc.Workspace, p.ID, p.Done, p.Message, p.Percentage, p.Title)
	return nil
}

// handleDiagnosticsBegin is an explicit no-op. Older protocol revisions
// bracketed diagnostics with begin/end markers; begin carries nothing the
// adapter acts on, but the method stays registered for compatibility.
func handleDiagnosticsBegin(ctx context.Context, hc *HandlerContext, params json.RawMessage) error {
	return nil
}

func handleDiagnosticsEnd(ctx context.Context, hc *HandlerContext, params json.RawMessage) error {
	hc.Progress.EndBuild(hc.Workspace)
	return nil
}

func handleBeginBuild(ctx context.Context, hc *HandlerContext, params json.RawMessage) error {
	hc.Progress.BeginBuild(hc.Workspace)
	return nil
}

// Package session wires a backend profile to a running language-server
// process: launch-command resolution, workspace-root resolution, the LSP
// handshake, notification routing, and the post-handshake configuration
// push.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/veldran/rustbridge/internal/backend"
	"github.com/veldran/rustbridge/internal/document"
	"github.com/veldran/rustbridge/internal/logging"
	"github.com/veldran/rustbridge/internal/progress"
	"github.com/veldran/rustbridge/internal/settings"
	"github.com/veldran/rustbridge/internal/workspace"
)

// Config assembles the collaborators for one session. Progress, Settings,
// and Documents are shared across all sessions in the process; the caller
// owns them and threads them in explicitly.
type Config struct {
	// Profile selects the backend to launch.
	Profile *backend.Profile

	// Dir is the directory the session starts from; the workspace root is
	// resolved relative to it.
	Dir string

	// Settings is the option store pushed after handshake completion.
	Settings *settings.Store

	// Progress aggregates build/progress events.
	Progress *progress.Aggregator

	// Documents receives server-proposed edits.
	Documents *document.Store

	// Resolver locates the workspace root. Defaults to the cargo metadata
	// resolver.
	Resolver *workspace.Resolver
}

// Session is a live connection to one backend process for one workspace.
type Session struct {
	profile *backend.Profile
	cmd     *exec.Cmd
	conn    jsonrpc2.Conn
	root    string
	store   *settings.Store
	hctx    *backend.HandlerContext
	log     *logrus.Entry

	closeOnce sync.Once
	closeErr  error
}

// Start resolves the backend command and workspace root, launches the
// server process, performs the initialize handshake, and pushes the full
// settings snapshot. Resolution failures abort startup entirely; there is
// no partial or degraded session.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Profile == nil {
		return nil, errors.New("session: no backend profile")
	}

	command, err := cfg.Profile.ResolveCommand()
	if err != nil {
		return nil, err
	}

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = workspace.NewResolver()
	}
	root, err := resolver.Root(ctx, cfg.Dir)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = root
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start %s: %w", command[0], err)
	}

	s, err := connect(ctx, cfg, root, cmd, stdio{in: stdout, out: stdin})
	if err != nil {
		return nil, err
	}

	s.log.WithField("command", command[0]).Info("session started")
	return s, nil
}

// connect wires an established transport into a session: handler
// installation, the initialize handshake, and the settings push. The
// process handle may be nil when the transport is not process-backed.
func connect(ctx context.Context, cfg Config, root string, cmd *exec.Cmd, rwc io.ReadWriteCloser) (*Session, error) {
	log := logging.NewLogger("session").WithFields(logrus.Fields{
		"backend":   cfg.Profile.ID(),
		"workspace": root,
	})

	s := &Session{
		profile: cfg.Profile,
		cmd:     cmd,
		root:    root,
		store:   cfg.Settings,
		log:     log,
		hctx: &backend.HandlerContext{
			Workspace: root,
			Progress:  cfg.Progress,
			Documents: cfg.Documents,
			Log:       log,
		},
	}

	s.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.conn.Go(ctx, s.handle)

	if err := s.initialize(ctx); err != nil {
		s.Shutdown(ctx)
		return nil, err
	}

	if err := s.pushSettings(ctx); err != nil {
		s.Shutdown(ctx)
		return nil, fmt.Errorf("push settings: %w", err)
	}
	return s, nil
}

// initialize performs the handshake: the initialize request followed by
// the initialized notification.
func (s *Session) initialize(ctx context.Context) error {
	params := protocol.InitializeParams{
		ProcessID:    int32(os.Getpid()),
		RootURI:      uri.File(s.root),
		Capabilities: protocol.ClientCapabilities{},
	}

	var result protocol.InitializeResult
	if _, err := s.conn.Call(ctx, protocol.MethodInitialize, params, &result); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if err := s.conn.Notify(ctx, protocol.MethodInitialized, protocol.InitializedParams{}); err != nil {
		return fmt.Errorf("initialized: %w", err)
	}
	return nil
}

// pushSettings sends every currently set option in one payload under the
// namespace key. The push is always the full snapshot, never a diff.
func (s *Session) pushSettings(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	params := protocol.DidChangeConfigurationParams{Settings: s.store.PushPayload()}
	return s.conn.Notify(ctx, protocol.MethodWorkspaceDidChangeConfiguration, params)
}

// handle is the jsonrpc2 handler for inbound traffic. Notifications go
// through the profile's dispatch table; handler errors are logged, never
// propagated, so a bad message cannot crash the session.
func (s *Session) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if _, ok := req.(*jsonrpc2.Call); ok {
		// Server-to-client requests are outside this adapter's surface.
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}

	if err := backend.Route(ctx, s.profile, s.hctx, req.Method(), req.Params()); err != nil {
		if errors.Is(err, backend.ErrUnhandled) {
			s.log.WithField("method", req.Method()).Warn("unhandled notification")
		} else {
			s.log.WithField("method", req.Method()).WithError(err).Error("notification handler failed")
		}
	}
	return reply(ctx, nil, nil)
}

// DispatchCommand routes a host-invoked custom command through the
// profile's command table.
func (s *Session) DispatchCommand(ctx context.Context, name string, args []json.RawMessage) error {
	return backend.Dispatch(ctx, s.profile, s.hctx, name, args)
}

// Root returns the resolved workspace root.
func (s *Session) Root() string {
	return s.root
}

// Profile returns the backend profile this session runs.
func (s *Session) Profile() *backend.Profile {
	return s.profile
}

// Done is closed when the underlying connection terminates.
func (s *Session) Done() <-chan struct{} {
	return s.conn.Done()
}

// Shutdown stops the session: shutdown request, exit notification,
// connection close, and a kill for a process that ignores both. Safe to
// call more than once.
func (s *Session) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		_, _ = s.conn.Call(ctx, protocol.MethodShutdown, nil, nil)
		_ = s.conn.Notify(ctx, protocol.MethodExit, nil)
		s.closeErr = s.conn.Close()

		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
			_ = s.cmd.Wait()
		}
		s.log.Info("session stopped")
	})
	return s.closeErr
}

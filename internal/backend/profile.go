package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/veldran/rustbridge/internal/document"
	"github.com/veldran/rustbridge/internal/progress"
)

// HandlerContext carries the per-session collaborators a handler may
// touch. It is owned by the session and threaded through every dispatch,
// so handlers hold no ambient global state.
type HandlerContext struct {
	// Workspace is the resolved root keying progress state.
	Workspace string

	// Progress aggregates build/progress events into the status label.
	Progress *progress.Aggregator

	// Documents applies server-proposed edits under the version guard.
	Documents *document.Store

	// Log receives handler-level diagnostics.
	Log *logrus.Entry
}

// NotificationHandler consumes a one-way server message. Errors are
// logged by the session router, never surfaced to the server.
type NotificationHandler func(ctx context.Context, hc *HandlerContext, params json.RawMessage) error

// CommandHandler executes a server-issued custom command. The argument
// array is passed through as raw JSON.
type CommandHandler func(ctx context.Context, hc *HandlerContext, args []json.RawMessage) error

// Profile describes one backend: its identity, how to launch it, and the
// handler tables for its protocol surface. Profiles are immutable once
// constructed; registration happens only inside the package constructors.
type Profile struct {
	id            string
	resolve       func() ([]string, error)
	notifications map[string]NotificationHandler
	commands      map[string]CommandHandler
	suppressed    map[string]struct{}
}

func newProfile(id string, resolve func() ([]string, error)) *Profile {
	return &Profile{
		id:            id,
		resolve:       resolve,
		notifications: make(map[string]NotificationHandler),
		commands:      make(map[string]CommandHandler),
		suppressed:    make(map[string]struct{}),
	}
}

// handleNotification registers a notification handler. Duplicate
// registration is a programming error and panics at construction time.
func (p *Profile) handleNotification(method string, h NotificationHandler) {
	if _, exists := p.notifications[method]; exists {
		panic(fmt.Sprintf("backend %s: duplicate notification handler for %s", p.id, method))
	}
	p.notifications[method] = h
}

// handleCommand registers a custom command handler, panicking on
// duplicates like handleNotification.
func (p *Profile) handleCommand(name string, h CommandHandler) {
	if _, exists := p.commands[name]; exists {
		panic(fmt.Sprintf("backend %s: duplicate command handler for %s", p.id, name))
	}
	p.commands[name] = h
}

// suppress marks a method so the router stays quiet about it even without
// a handler.
func (p *Profile) suppress(method string) {
	p.suppressed[method] = struct{}{}
}

// ID returns the backend identifier.
func (p *Profile) ID() string {
	return p.id
}

// ResolveCommand returns the launch command for this backend, or a
// *ConfigurationError when none is resolvable.
func (p *Profile) ResolveCommand() ([]string, error) {
	return p.resolve()
}

// Notification looks up the handler for a protocol method.
func (p *Profile) Notification(method string) (NotificationHandler, bool) {
	h, ok := p.notifications[method]
	return h, ok
}

// Command looks up the handler for a custom command.
func (p *Profile) Command(name string) (CommandHandler, bool) {
	h, ok := p.commands[name]
	return h, ok
}

// SuppressedMethod reports whether a method is explicitly silenced.
func (p *Profile) SuppressedMethod(method string) bool {
	_, ok := p.suppressed[method]
	return ok
}

// Methods returns the registered notification method names, sorted.
func (p *Profile) Methods() []string {
	methods := make([]string, 0, len(p.notifications))
	for m := range p.notifications {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// Route dispatches an inbound notification through the profile's handler
// table. Unknown methods return ErrUnhandled unless suppressed.
func Route(ctx context.Context, p *Profile, hc *HandlerContext, method string, params json.RawMessage) error {
	if h, ok := p.Notification(method); ok {
		return h(ctx, hc, params)
	}
	if p.SuppressedMethod(method) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnhandled, method)
}

// Dispatch runs a custom command through the profile's command table.
func Dispatch(ctx context.Context, p *Profile, hc *HandlerContext, name string, args []json.RawMessage) error {
	h, ok := p.Command(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(ctx, hc, args)
}

// Registry holds the selectable backend profiles. Two profiles may
// coexist for the same file type; the user picks which one to run.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry builds a registry, rejecting duplicate profile ids.
func NewRegistry(profiles ...*Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		if _, exists := r.profiles[p.ID()]; exists {
			return nil, fmt.Errorf("duplicate backend profile %q", p.ID())
		}
		r.profiles[p.ID()] = p
	}
	return r, nil
}

// Lookup returns the profile registered under id.
func (r *Registry) Lookup(id string) (*Profile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// IDs returns the registered backend ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

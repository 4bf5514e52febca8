// Package main is the entry point for the rustbridge adapter.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/veldran/rustbridge/internal/backend"
	"github.com/veldran/rustbridge/internal/document"
	"github.com/veldran/rustbridge/internal/progress"
	"github.com/veldran/rustbridge/internal/session"
	"github.com/veldran/rustbridge/internal/settings"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	backendID   string
	serverCmd   string
	dir         string
	buildLib    bool
	buildBin    string
	cfgTest     bool
	gotoDefFall bool
	showVersion bool
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.backendID, "backend", backend.RLSID, "backend to run (rls or rust-analyzer)")
	flag.StringVar(&opts.serverCmd, "server-cmd", "", "override the server launch command")
	flag.StringVar(&opts.dir, "dir", ".", "directory to resolve the workspace from")
	flag.BoolVar(&opts.buildLib, "build-lib", false, "build the library target")
	flag.StringVar(&opts.buildBin, "build-bin", "", "binary target to build")
	flag.BoolVar(&opts.cfgTest, "cfg-test", false, "analyze under cfg(test)")
	flag.BoolVar(&opts.gotoDefFall, "goto-def-fallback", false, "enable goto-definition fallback")
	flag.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	flag.Parse()
	return opts
}

func run() int {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("rustbridge %s (%s)\n", version, commit)
		return 0
	}

	var command []string
	if opts.serverCmd != "" {
		command = strings.Fields(opts.serverCmd)
	}

	registry, err := backend.NewRegistry(
		backend.NewRLS(backend.RLSConfig{Command: commandFor(command, opts.backendID, backend.RLSID)}),
		backend.NewRustAnalyzer(backend.RustAnalyzerConfig{Command: commandFor(command, opts.backendID, backend.RustAnalyzerID)}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	profile, ok := registry.Lookup(opts.backendID)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown backend %q (have %v)\n", opts.backendID, registry.IDs())
		return 1
	}

	store := settings.NewStore()
	store.SetBuildLib(opts.buildLib)
	if opts.buildBin != "" {
		store.SetBuildBin(opts.buildBin)
	}
	store.SetCfgTest(opts.cfgTest)
	store.SetGotoDefFallback(opts.gotoDefFall)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := session.Start(ctx, session.Config{
		Profile:   profile,
		Dir:       opts.dir,
		Settings:  store,
		Progress:  progress.New(&statusLine{w: os.Stderr}),
		Documents: document.NewStore(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start session: %v\n", err)
		return 1
	}
	defer sess.Shutdown(context.Background())

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-signals:
	case <-sess.Done():
	}
	return 0
}

// commandFor returns the override command only for the selected backend.
func commandFor(command []string, selected, id string) []string {
	if selected == id {
		return command
	}
	return nil
}

// statusLine prints status label changes. A real host replaces this with
// its status-bar facility. An empty label is rendered as a clear rather
// than a blank line.
type statusLine struct {
	w    io.Writer
	mu   sync.Mutex
	last string
}

func (s *statusLine) Set(text string) {
	if text == "" {
		s.Clear()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == s.last {
		return
	}
	s.last = text
	fmt.Fprintf(s.w, "status: %s\n", text)
}

func (s *statusLine) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == "" {
		return
	}
	s.last = ""
	fmt.Fprintln(s.w, "status cleared")
}

// Package backend models the selectable Rust language-server backends and
// the dispatch tables that route their protocol traffic.
//
// Two profiles exist for the same file type, by design: the user may run
// either the RLS or rust-analyzer. Each Profile bundles an identity, a
// launch-command resolution strategy, a notification method table, a
// custom command table, and a suppression set for methods the adapter
// consumes without acting on.
//
// # Profiles
//
// Construct profiles through NewRLS and NewRustAnalyzer:
//
//	registry, err := backend.NewRegistry(
//	    backend.NewRLS(backend.RLSConfig{}),
//	    backend.NewRustAnalyzer(backend.RustAnalyzerConfig{
//	        Command: []string{"ra_lsp_server"},
//	    }),
//	)
//
// Handler tables are fixed at construction time; duplicate registration
// panics, so a malformed profile fails loudly at startup rather than
// shadowing a handler at dispatch time.
//
// # Dispatch
//
// Route sends an inbound notification through a profile's table. Dispatch
// runs a host-invoked custom command. Both operate on a HandlerContext
// owned by the session, which carries the progress aggregator, the
// document store, and a logger; handlers have no ambient global state.
//
// # Launch resolution
//
// The RLS profile resolves its command in order: the configured command
// verbatim, then a cargo invocation against a source checkout named by
// RLS_ROOT, then failure. The rust-analyzer profile uses its configured
// command with no fallback. Both failures are *ConfigurationError and
// fatal to session startup.
package backend

// Package settings holds the process-wide configuration options that are
// pushed to the language server after each completed handshake.
package settings

import "sync"

// Namespace is the top-level key the option snapshot is nested under in
// the configuration push payload.
const Namespace = "rust"

// Option names understood by the server.
const (
	KeyBuildLib        = "build_lib"
	KeyBuildBin        = "build_bin"
	KeyCfgTest         = "cfg_test"
	KeyGotoDefFallback = "goto_def_racer_fallback"
)

// Store is a mutable option map shared by all sessions in the process.
// It is read wholesale on every handshake completion, never diffed.
type Store struct {
	mu     sync.Mutex
	values map[string]any
}

// NewStore creates an empty option store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// SetBuildLib toggles building the library target.
func (s *Store) SetBuildLib(enable bool) {
	s.Set(KeyBuildLib, enable)
}

// SetBuildBin selects the binary target to build.
func (s *Store) SetBuildBin(target string) {
	s.Set(KeyBuildBin, target)
}

// SetCfgTest toggles analysis under cfg(test).
func (s *Store) SetCfgTest(enable bool) {
	s.Set(KeyCfgTest, enable)
}

// SetGotoDefFallback toggles the goto-definition fallback provider.
func (s *Store) SetGotoDefFallback(enable bool) {
	s.Set(KeyGotoDefFallback, enable)
}

// Set stores an arbitrary option value under name, replacing any prior
// value.
func (s *Store) Set(name string, value any) {
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
}

// Get returns the value stored under name.
func (s *Store) Get(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

// Snapshot returns a copy of every currently set option.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(map[string]any, len(s.values))
	for k, v := range s.values {
		snap[k] = v
	}
	return snap
}

// PushPayload returns the full snapshot nested under the namespace key,
// ready to send as the settings object of a configuration-change
// notification.
func (s *Store) PushPayload() map[string]any {
	return map[string]any{Namespace: s.Snapshot()}
}

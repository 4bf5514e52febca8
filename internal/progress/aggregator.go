// Package progress aggregates build and progress notifications from a
// language server into a single status label for the host status line.
package progress

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Building is the label forced by a build-start event. It overrides any
// progress-derived label until the matching diagnostics-end clears it.
const Building = "(building)"

// StatusSink is the host status-line facility. Set replaces the current
// label; Clear removes it. The label is a single optional string and is
// overwritten on every relevant event.
type StatusSink interface {
	Set(text string)
	Clear()
}

// workspaceState holds the per-workspace counters. States are created
// lazily on the first event for a workspace and live for the process
// lifetime.
type workspaceState struct {
	active     map[string]struct{}
	buildDepth int
}

// Aggregator derives the status label from interleaved progress and build
// events, keyed by workspace id. The label is last-writer-wins: a build
// label can be clobbered by a progress update before the matching
// diagnostics-end arrives. buildDepth has no non-negative floor.
type Aggregator struct {
	mu     sync.Mutex
	states map[string]*workspaceState
	sink   StatusSink
}

// New creates an aggregator reporting to the given sink. A nil sink
// disables reporting but still tracks state.
func New(sink StatusSink) *Aggregator {
	return &Aggregator{
		states: make(map[string]*workspaceState),
		sink:   sink,
	}
}

func (a *Aggregator) state(workspace string) *workspaceState {
	st, ok := a.states[workspace]
	if !ok {
		st = &workspaceState{active: make(map[string]struct{})}
		a.states[workspace] = st
	}
	return st
}

// UpdateProgress records one window/progress event. A done event removes
// the token from the active set (removing an absent token is a no-op); an
// active event inserts it (duplicates collapse). The label is recomputed
// from this event's fields: percentage, then message, then title. An empty
// active set clears the label.
func (a *Aggregator) UpdateProgress(workspace, id string, done bool, message string, percentage *float64, title string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.state(workspace)
	if done {
		delete(st.active, id)
	} else {
		st.active[id] = struct{}{}
	}

	if len(st.active) == 0 {
		a.clear()
		return
	}

	switch {
	case percentage != nil:
		a.set(fmt.Sprintf("%d%%", int(math.Round(*percentage))))
	case message != "":
		a.set("(" + message + ")")
	case title != "":
		a.set("(" + strings.ToLower(title) + ")")
	default:
		a.set("")
	}
}

// BeginBuild increments the workspace build depth and forces the label to
// Building regardless of prior state.
func (a *Aggregator) BeginBuild(workspace string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state(workspace).buildDepth++
	a.set(Building)
}

// EndBuild decrements the workspace build depth. At depth zero or below
// the label is cleared; otherwise it is left untouched.
func (a *Aggregator) EndBuild(workspace string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.state(workspace)
	st.buildDepth--
	if st.buildDepth <= 0 {
		a.clear()
	}
}

// BuildDepth returns the current build depth for a workspace.
func (a *Aggregator) BuildDepth(workspace string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state(workspace).buildDepth
}

// ActiveTokens returns the active progress token ids for a workspace,
// sorted for stable inspection.
func (a *Aggregator) ActiveTokens(workspace string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.state(workspace)
	tokens := make([]string, 0, len(st.active))
	for id := range st.active {
		tokens = append(tokens, id)
	}
	sort.Strings(tokens)
	return tokens
}

func (a *Aggregator) set(text string) {
	if a.sink != nil {
		a.sink.Set(text)
	}
}

func (a *Aggregator) clear() {
	if a.sink != nil {
		a.sink.Clear()
	}
}

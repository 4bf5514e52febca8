package progress

import (
	"testing"
)

// recordingSink captures the most recent status label.
type recordingSink struct {
	label   string
	present bool
	history []string
}

func (s *recordingSink) Set(text string) {
	s.label = text
	s.present = true
	s.history = append(s.history, text)
}

func (s *recordingSink) Clear() {
	s.label = ""
	s.present = false
	s.history = append(s.history, "<cleared>")
}

func floatPtr(v float64) *float64 { return &v }

func TestUpdateProgress_ActiveSetDeduplicates(t *testing.T) {
	agg := New(&recordingSink{})

	for _, id := range []string{"a", "b", "a", "c"} {
		agg.UpdateProgress("ws", id, false, "", nil, "")
	}

	got := agg.ActiveTokens("ws")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("ActiveTokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ActiveTokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUpdateProgress_DoneOnEmptySetIsNoOp(t *testing.T) {
	sink := &recordingSink{}
	agg := New(sink)

	agg.UpdateProgress("ws", "x", true, "", nil, "")

	if tokens := agg.ActiveTokens("ws"); len(tokens) != 0 {
		t.Errorf("ActiveTokens() = %v, want empty", tokens)
	}
	if agg.BuildDepth("ws") != 0 {
		t.Errorf("BuildDepth() = %d, want 0", agg.BuildDepth("ws"))
	}
	if sink.present {
		t.Errorf("label = %q, want cleared", sink.label)
	}
}

func TestUpdateProgress_LabelPriority(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		percentage *float64
		title      string
		want       string
	}{
		{
			name:       "percentage wins over message and title",
			message:    "m",
			percentage: floatPtr(42.0),
			title:      "T",
			want:       "42%",
		},
		{
			name:    "message when percentage absent",
			message: "doing work",
			want:    "(doing work)",
		},
		{
			name:  "title lower-cased when percentage and message absent",
			title: "Indexing",
			want:  "(indexing)",
		},
		{
			name:       "percentage rounds to nearest integer",
			percentage: floatPtr(66.7),
			want:       "67%",
		},
		{
			name: "no fields yields empty label",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			agg := New(sink)

			agg.UpdateProgress("ws", "tok", false, tt.message, tt.percentage, tt.title)

			if !sink.present {
				t.Fatal("label not set")
			}
			if sink.label != tt.want {
				t.Errorf("label = %q, want %q", sink.label, tt.want)
			}
		})
	}
}

func TestUpdateProgress_ClearsWhenLastTokenDone(t *testing.T) {
	sink := &recordingSink{}
	agg := New(sink)

	agg.UpdateProgress("ws", "tok", false, "compiling", nil, "")
	if sink.label != "(compiling)" {
		t.Fatalf("label = %q, want %q", sink.label, "(compiling)")
	}

	agg.UpdateProgress("ws", "tok", true, "", nil, "")
	if sink.present {
		t.Errorf("label = %q, want cleared", sink.label)
	}
}

func TestUpdateProgress_DoneEventStillRelabelsWhileOthersActive(t *testing.T) {
	sink := &recordingSink{}
	agg := New(sink)

	agg.UpdateProgress("ws", "a", false, "first", nil, "")
	agg.UpdateProgress("ws", "b", false, "second", nil, "")
	agg.UpdateProgress("ws", "a", true, "finishing", nil, "")

	// Last writer wins: the done event's own message is surfaced because
	// token b is still active.
	if sink.label != "(finishing)" {
		t.Errorf("label = %q, want %q", sink.label, "(finishing)")
	}
}

func TestBuildCounter_SingleCycle(t *testing.T) {
	sink := &recordingSink{}
	agg := New(sink)

	agg.BeginBuild("ws")
	if sink.label != Building {
		t.Fatalf("label = %q, want %q", sink.label, Building)
	}

	agg.EndBuild("ws")
	if agg.BuildDepth("ws") != 0 {
		t.Errorf("BuildDepth() = %d, want 0", agg.BuildDepth("ws"))
	}
	if sink.present {
		t.Errorf("label = %q, want cleared", sink.label)
	}
}

func TestBuildCounter_NestedBuildsKeepLabel(t *testing.T) {
	sink := &recordingSink{}
	agg := New(sink)

	agg.BeginBuild("ws")
	agg.BeginBuild("ws")
	agg.EndBuild("ws")

	if agg.BuildDepth("ws") != 1 {
		t.Errorf("BuildDepth() = %d, want 1", agg.BuildDepth("ws"))
	}
	if sink.label != Building {
		t.Errorf("label = %q, want %q", sink.label, Building)
	}
}

func TestBuildCounter_DepthMayGoNegative(t *testing.T) {
	sink := &recordingSink{}
	agg := New(sink)

	agg.EndBuild("ws")
	agg.EndBuild("ws")

	if agg.BuildDepth("ws") != -2 {
		t.Errorf("BuildDepth() = %d, want -2", agg.BuildDepth("ws"))
	}
	if sink.present {
		t.Errorf("label = %q, want cleared", sink.label)
	}
}

func TestBeginBuild_OverridesProgressLabel(t *testing.T) {
	sink := &recordingSink{}
	agg := New(sink)

	agg.UpdateProgress("ws", "tok", false, "indexing", nil, "")
	agg.BeginBuild("ws")

	if sink.label != Building {
		t.Errorf("label = %q, want %q", sink.label, Building)
	}
}

func TestProgressLabelClobbersBuildLabel(t *testing.T) {
	// Known last-writer-wins interaction: a progress update replaces the
	// build label while the build is still running.
	sink := &recordingSink{}
	agg := New(sink)

	agg.BeginBuild("ws")
	agg.UpdateProgress("ws", "tok", false, "checking", nil, "")

	if sink.label != "(checking)" {
		t.Errorf("label = %q, want %q", sink.label, "(checking)")
	}
	if agg.BuildDepth("ws") != 1 {
		t.Errorf("BuildDepth() = %d, want 1", agg.BuildDepth("ws"))
	}
}

func TestWorkspacesAreIndependentlyKeyed(t *testing.T) {
	agg := New(&recordingSink{})

	agg.BeginBuild("ws1")
	agg.UpdateProgress("ws2", "tok", false, "", nil, "")

	if agg.BuildDepth("ws1") != 1 {
		t.Errorf("ws1 BuildDepth() = %d, want 1", agg.BuildDepth("ws1"))
	}
	if agg.BuildDepth("ws2") != 0 {
		t.Errorf("ws2 BuildDepth() = %d, want 0", agg.BuildDepth("ws2"))
	}
	if tokens := agg.ActiveTokens("ws1"); len(tokens) != 0 {
		t.Errorf("ws1 ActiveTokens() = %v, want empty", tokens)
	}
}

func TestNilSinkStillTracksState(t *testing.T) {
	agg := New(nil)

	agg.BeginBuild("ws")
	agg.UpdateProgress("ws", "tok", false, "m", nil, "")

	if agg.BuildDepth("ws") != 1 {
		t.Errorf("BuildDepth() = %d, want 1", agg.BuildDepth("ws"))
	}
}

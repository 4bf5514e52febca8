package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/veldran/rustbridge/internal/document"
)

const (
	// RustAnalyzerID identifies the alternative analyzer profile.
	RustAnalyzerID = "rust-analyzer"

	// MethodPublishDecorations is sent by the analyzer but carries
	// rendering data the adapter has no surface for. It is registered as
	// a no-op and suppressed so the router stays quiet.
	MethodPublishDecorations = "m/publishDecorations"

	// CommandApplySourceChange applies a server-proposed source change to
	// the open documents.
	CommandApplySourceChange = "rust-analyzer.applySourceChange"
)

// unsupportedSourceChangeFields are recognized in the protocol extension
// but intentionally unhandled; their presence is surfaced as a known
// capability gap.
var unsupportedSourceChangeFields = []string{"fileSystemEdits", "cursorPosition"}

// RustAnalyzerConfig configures the rust-analyzer backend profile.
type RustAnalyzerConfig struct {
	// Command is the static launch command. There is no fallback.
	Command []string
}

// NewRustAnalyzer constructs the rust-analyzer backend profile.
func NewRustAnalyzer(cfg RustAnalyzerConfig) *Profile {
	p := newProfile(RustAnalyzerID, func() ([]string, error) {
		if len(cfg.Command) == 0 {
			return nil, &ConfigurationError{
				Backend: RustAnalyzerID,
				Reason:  "no launch command configured",
			}
		}
		return cfg.Command, nil
	})

	p.handleNotification(MethodPublishDecorations, handlePublishDecorations)
	p.suppress(MethodPublishDecorations)

	p.handleCommand(CommandApplySourceChange, handleApplySourceChange)
	return p
}

func handlePublishDecorations(ctx context.Context, hc *HandlerContext, params json.RawMessage) error {
	return nil
}

// sourceChange mirrors the applySourceChange argument object.
type sourceChange struct {
	Label           string           `json:"label"`
	SourceFileEdits []sourceFileEdit `json:"sourceFileEdits"`
}

// sourceFileEdit pairs a versioned document identifier with the edits to
// apply against it.
type sourceFileEdit struct {
	TextDocument versionedTextDocument `json:"textDocument"`
	Edits        []protocol.TextEdit   `json:"edits"`
}

type versionedTextDocument struct {
	URI     uri.URI `json:"uri"`
	Version *int    `json:"version"`
}

// handleApplySourceChange applies each source file edit in list order
// through the version-guarded applier. Stale edits are dropped with a
// debug log; recognized-but-unhandled payload fields are reported as a
// capability gap, and the source edits still apply.
func handleApplySourceChange(ctx context.Context, hc *HandlerContext, args []json.RawMessage) error {
	if len(args) == 0 {
		return errors.New("applySourceChange: missing argument")
	}
	raw := args[0]

	for _, field := range unsupportedSourceChangeFields {
		if hasPayloadField(raw, field) {
			hc.Log.WithField("field", field).Warnf("%v: %s", ErrUnsupportedPayloadField, field)
		}
	}

	var change sourceChange
	if err := json.Unmarshal(raw, &change); err != nil {
		return fmt.Errorf("decode source change: %w", err)
	}

	for _, fe := range change.SourceFileEdits {
		path := fe.TextDocument.URI.Filename()
		err := hc.Documents.ApplyEdit(path, fe.TextDocument.Version, fe.Edits)
		if err == nil {
			continue
		}
		if document.IsStale(err) {
			hc.Log.WithError(err).Debug("dropping stale source file edit")
			continue
		}
		return fmt.Errorf("apply source file edit: %w", err)
	}
	return nil
}

// hasPayloadField reports whether a field is present with meaningful
// content (non-null, and non-empty for arrays).
func hasPayloadField(raw json.RawMessage, field string) bool {
	res := gjson.GetBytes(raw, field)
	if !res.Exists() || res.Type == gjson.Null {
		return false
	}
	if res.IsArray() && len(res.Array()) == 0 {
		return false
	}
	return true
}

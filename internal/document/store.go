// Package document tracks in-memory documents with revision counters and
// applies server-proposed edits under an optimistic version guard.
package document

import (
	"os"
	"strings"
	"sync"

	"go.lsp.dev/protocol"
)

// Document is an in-memory representation of an open resource. Version is
// a monotonically tracked edit-sequence counter used for optimistic
// concurrency.
type Document struct {
	Path    string
	Content string
	Version int
}

// Store holds the open documents for the process.
type Store struct {
	mu     sync.Mutex
	docs   map[string]*Document
	loader func(path string) (string, error)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLoader overrides how document content is loaded on first open.
func WithLoader(load func(path string) (string, error)) StoreOption {
	return func(s *Store) {
		s.loader = load
	}
}

// NewStore creates a document store. The default loader reads from disk.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		docs: make(map[string]*Document),
		loader: func(path string) (string, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns the document for path, loading it on first access.
func (s *Store) Open(path string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.openLocked(path)
	if err != nil {
		return Document{}, err
	}
	return *doc, nil
}

func (s *Store) openLocked(path string) (*Document, error) {
	if doc, ok := s.docs[path]; ok {
		return doc, nil
	}

	content, err := s.loader(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	doc := &Document{Path: path, Content: content, Version: 1}
	s.docs[path] = doc
	return doc, nil
}

// Get returns a copy of the document if open.
func (s *Store) Get(path string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// Version returns the current revision counter for an open document.
func (s *Store) Version(path string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return 0, false
	}
	return doc.Version, true
}

// ApplyEdit applies edits to the document at path, opening it if needed.
// A nil expectedVersion always applies; otherwise the document's current
// revision must match or nothing is applied and a *StaleEditError is
// returned. Edits are applied atomically in the given order, and a
// successful batch bumps the revision once.
func (s *Store) ApplyEdit(path string, expectedVersion *int, edits []protocol.TextEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.openLocked(path)
	if err != nil {
		return err
	}

	if expectedVersion != nil && *expectedVersion != doc.Version {
		return &StaleEditError{Path: path, Expected: *expectedVersion, Actual: doc.Version}
	}

	content := doc.Content
	for _, edit := range edits {
		content = applyTextEdit(content, edit.Range, edit.NewText)
	}

	doc.Content = content
	doc.Version++
	return nil
}

// applyTextEdit splices newText over the line/character range in content.
// Character offsets are applied as byte indices within the line, not
// UTF-16 code units, so multibyte lines splice on byte boundaries.
// Out-of-range positions are clamped to the document bounds.
func applyTextEdit(content string, rng protocol.Range, newText string) string {
	lines := strings.Split(content, "\n")

	startLine := int(rng.Start.Line)
	startChar := int(rng.Start.Character)
	endLine := int(rng.End.Line)
	endChar := int(rng.End.Character)

	if startLine >= len(lines) {
		// Appending past the end
		return content + newText
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
		endChar = len(lines[endLine])
	}
	if startChar > len(lines[startLine]) {
		startChar = len(lines[startLine])
	}
	if endChar > len(lines[endLine]) {
		endChar = len(lines[endLine])
	}

	var b strings.Builder
	for i := 0; i < startLine; i++ {
		b.WriteString(lines[i])
		b.WriteByte('\n')
	}
	b.WriteString(lines[startLine][:startChar])
	b.WriteString(newText)
	b.WriteString(lines[endLine][endChar:])
	for i := endLine + 1; i < len(lines); i++ {
		b.WriteByte('\n')
		b.WriteString(lines[i])
	}
	return b.String()
}

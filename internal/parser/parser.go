package parser

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/synapticdev/synaptic/internal/models"
)

// LanguageParser extracts a single file's code graph from raw source.
//
// Implementations are stateless apart from their cached grammar handle
// and must tolerate syntactically broken input: tree-sitter produces a
// best-effort tree, and anything unextractable is skipped rather than
// surfaced as an error.
type LanguageParser interface {
	ParseFile(ctx context.Context, path string, source []byte) (*models.CodeGraph, error)
}

// Constructor builds a parser rooted at the given repository path.
type Constructor func(repoRoot string) LanguageParser

// Registry maps language tags to lazily constructed, cached parser
// instances. A lookup miss is not an error; callers skip the file.
type Registry struct {
	mu        sync.Mutex
	repoRoot  string
	ctors     map[string]Constructor
	instances map[string]LanguageParser
}

func NewRegistry(repoRoot string) *Registry {
	return &Registry{
		repoRoot:  repoRoot,
		ctors:     make(map[string]Constructor),
		instances: make(map[string]LanguageParser),
	}
}

// Register associates a language tag with a parser constructor.
func (r *Registry) Register(language string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[language] = ctor
	slog.Debug("parser registered", "language", language)
}

// Get returns the cached parser for a language, constructing it on first
// request. Returns nil when no parser is registered for the tag.
func (r *Registry) Get(language string) LanguageParser {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.instances[language]; ok {
		return p
	}

	ctor, ok := r.ctors[language]
	if !ok {
		slog.Warn("no parser registered", "language", language)
		return nil
	}

	p := ctor(r.repoRoot)
	r.instances[language] = p
	return p
}

// SupportedLanguages returns the sorted registered language tags.
func (r *Registry) SupportedLanguages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultRegistry returns a registry pre-loaded with all built-in parsers.
func DefaultRegistry(repoRoot string) *Registry {
	r := NewRegistry(repoRoot)
	r.Register("python", NewPythonParser)
	r.Register("javascript", NewJavaScriptParser)
	return r
}

// Shared helpers

// relativePath converts an absolute path to a forward-slash path relative
// to the repo root. Paths outside the root are returned slash-normalized.
func relativePath(repoRoot, path string) string {
	rel, err := filepath.Rel(repoRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// nodeText extracts the text content of a node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}
	return node.Content(source)
}

// childTextByField returns the text of a named field child, or "".
func childTextByField(node *sitter.Node, source []byte, field string) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return nodeText(child, source)
}

// qualify prepends the scope prefix to a local name.
func qualify(scopePrefix, name string) string {
	if scopePrefix == "" {
		return name
	}
	return scopePrefix + name
}

// entityID builds the deterministic node ID for a qualified name.
func entityID(relPath, qualified string) string {
	return relPath + "::" + qualified
}

// countLines returns the 1-indexed line count of a source buffer.
func countLines(source []byte) int {
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	return n
}

package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/synapticdev/synaptic/internal/models"
	"github.com/synapticdev/synaptic/pkg/treesitter"
)

// PythonParser extracts code entities and relationships from Python
// source files: file, class and function nodes plus defines, calls and
// imports edges. Nested definitions get dot-qualified names so that a
// method bar of class Foo becomes "Foo.bar".
type PythonParser struct {
	repoRoot string
	ts       *treesitter.Parser
}

func NewPythonParser(repoRoot string) LanguageParser {
	return &PythonParser{
		repoRoot: repoRoot,
		ts:       treesitter.NewParser(),
	}
}

func (p *PythonParser) ParseFile(ctx context.Context, path string, source []byte) (*models.CodeGraph, error) {
	tree, err := p.ts.Parse(ctx, source, "python")
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	relPath := relativePath(p.repoRoot, path)
	root := tree.RootNode()

	graph := &models.CodeGraph{}

	fileID := relPath
	graph.Nodes = append(graph.Nodes, models.NodeRecord{
		ID:        fileID,
		Type:      models.NodeFile,
		Name:      filepath.Base(relPath),
		Filepath:  relPath,
		StartLine: 1,
		EndLine:   countLines(source),
		Docstring: p.moduleDocstring(root, source),
	})

	p.extractDefinitions(root, source, relPath, fileID, "", graph)
	p.extractImports(root, source, fileID, graph)

	return graph, nil
}

// extractDefinitions walks the direct children of node looking for class
// and function definitions. The scope prefix is threaded through as an
// explicit accumulator so nested entities pick up qualified names.
func (p *PythonParser) extractDefinitions(node *sitter.Node, source []byte, relPath, parentID, scopePrefix string, graph *models.CodeGraph) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "class_definition":
			p.handleClass(child, source, relPath, parentID, scopePrefix, graph)
		case "function_definition":
			p.handleFunction(child, source, relPath, parentID, scopePrefix, graph)
		case "decorated_definition":
			// The wrapped definition is the last child of the decorator node.
			inner := child.NamedChild(int(child.NamedChildCount()) - 1)
			if inner == nil {
				continue
			}
			switch inner.Type() {
			case "class_definition":
				p.handleClass(inner, source, relPath, parentID, scopePrefix, graph)
			case "function_definition":
				p.handleFunction(inner, source, relPath, parentID, scopePrefix, graph)
			}
		}
	}
}

func (p *PythonParser) handleClass(node *sitter.Node, source []byte, relPath, parentID, scopePrefix string, graph *models.CodeGraph) {
	name := childTextByField(node, source, "name")
	if name == "" {
		return
	}

	qualified := qualify(scopePrefix, name)
	classID := entityID(relPath, qualified)

	graph.Nodes = append(graph.Nodes, models.NodeRecord{
		ID:        classID,
		Type:      models.NodeClass,
		Name:      qualified,
		Filepath:  relPath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Docstring: p.bodyDocstring(node, source),
	})
	graph.Edges = append(graph.Edges, models.EdgeRecord{
		SourceID: parentID,
		TargetID: classID,
		Type:     models.EdgeDefines,
	})

	// Methods and nested classes live in the class body.
	if body := node.ChildByFieldName("body"); body != nil {
		p.extractDefinitions(body, source, relPath, classID, qualified+".", graph)
	}
}

func (p *PythonParser) handleFunction(node *sitter.Node, source []byte, relPath, parentID, scopePrefix string, graph *models.CodeGraph) {
	name := childTextByField(node, source, "name")
	if name == "" {
		return
	}

	qualified := qualify(scopePrefix, name)
	funcID := entityID(relPath, qualified)

	graph.Nodes = append(graph.Nodes, models.NodeRecord{
		ID:        funcID,
		Type:      models.NodeFunction,
		Name:      qualified,
		Filepath:  relPath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Docstring: p.bodyDocstring(node, source),
	})
	graph.Edges = append(graph.Edges, models.EdgeRecord{
		SourceID: parentID,
		TargetID: funcID,
		Type:     models.EdgeDefines,
	})

	if body := node.ChildByFieldName("body"); body != nil {
		p.extractCalls(body, source, relPath, funcID, graph)
	}
}

// extractCalls records every call expression under node as a speculative
// edge; targets are constructed from the lexical callee name and resolved
// only by downstream storage.
func (p *PythonParser) extractCalls(node *sitter.Node, source []byte, relPath, callerID string, graph *models.CodeGraph) {
	if node.Type() == "call" {
		if callee := p.resolveCallName(node, source); callee != "" {
			graph.Edges = append(graph.Edges, models.EdgeRecord{
				SourceID: callerID,
				TargetID: entityID(relPath, callee),
				Type:     models.EdgeCalls,
			})
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child != nil {
			p.extractCalls(child, source, relPath, callerID, graph)
		}
	}
}

// resolveCallName handles simple calls (foo()) and attribute calls
// (obj.method()), returning the full dotted text in the latter case.
func (p *PythonParser) resolveCallName(call *sitter.Node, source []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier", "attribute":
		return nodeText(fn, source)
	}
	return ""
}

// extractImports handles module-level "import a, b" and "from m import x"
// statements. Targets are raw module specifiers, never repo paths.
func (p *PythonParser) extractImports(root *sitter.Node, source []byte, fileID string, graph *models.CodeGraph) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "import_statement":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				item := child.NamedChild(j)
				if item == nil {
					continue
				}
				if t := item.Type(); t == "dotted_name" || t == "aliased_import" {
					module := strings.TrimSpace(strings.SplitN(nodeText(item, source), " as ", 2)[0])
					if module != "" {
						graph.Edges = append(graph.Edges, models.EdgeRecord{
							SourceID: fileID,
							TargetID: module,
							Type:     models.EdgeImports,
						})
					}
				}
			}
		case "import_from_statement":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				item := child.NamedChild(j)
				if item == nil {
					continue
				}
				if t := item.Type(); t == "dotted_name" || t == "relative_import" {
					if module := nodeText(item, source); module != "" {
						graph.Edges = append(graph.Edges, models.EdgeRecord{
							SourceID: fileID,
							TargetID: module,
							Type:     models.EdgeImports,
						})
					}
					break
				}
			}
		}
	}
}

// moduleDocstring returns the module-level docstring: the very first
// statement must be a bare string expression; leading comments are
// skipped, anything else aborts the search.
func (p *PythonParser) moduleDocstring(root *sitter.Node, source []byte) string {
	return p.leadingString(root, source)
}

// bodyDocstring extracts the docstring from a class or function body.
func (p *PythonParser) bodyDocstring(def *sitter.Node, source []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil {
		return ""
	}
	return p.leadingString(body, source)
}

func (p *PythonParser) leadingString(block *sitter.Node, source []byte) string {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "comment":
			continue
		case "expression_statement":
			if expr := child.NamedChild(0); expr != nil && expr.Type() == "string" {
				return stripPyQuotes(nodeText(expr, source))
			}
			return ""
		default:
			return ""
		}
	}
	return ""
}

func stripPyQuotes(text string) string {
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return text
}

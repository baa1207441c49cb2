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

// JavaScriptParser extracts code entities and relationships from
// JavaScript files: function and class declarations, methods, arrow
// functions bound to variables, ES6 imports, and require() calls.
// Export wrappers are transparent.
type JavaScriptParser struct {
	repoRoot string
	ts       *treesitter.Parser
}

func NewJavaScriptParser(repoRoot string) LanguageParser {
	return &JavaScriptParser{
		repoRoot: repoRoot,
		ts:       treesitter.NewParser(),
	}
}

func (p *JavaScriptParser) ParseFile(ctx context.Context, path string, source []byte) (*models.CodeGraph, error) {
	tree, err := p.ts.Parse(ctx, source, "javascript")
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
	})

	p.extractDefinitions(root, source, relPath, fileID, "", graph)
	p.extractImports(root, source, fileID, graph)

	return graph, nil
}

func (p *JavaScriptParser) extractDefinitions(node *sitter.Node, source []byte, relPath, parentID, scopePrefix string, graph *models.CodeGraph) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_declaration":
			p.handleFunction(child, source, relPath, parentID, scopePrefix, graph)
		case "class_declaration":
			p.handleClass(child, source, relPath, parentID, scopePrefix, graph)
		case "lexical_declaration", "variable_declaration":
			p.handleVariableDeclaration(child, source, relPath, parentID, scopePrefix, graph)
		case "export_statement":
			// Treat the export wrapper as if the declaration were bare.
			p.extractDefinitions(child, source, relPath, parentID, scopePrefix, graph)
		}
	}
}

func (p *JavaScriptParser) handleFunction(node *sitter.Node, source []byte, relPath, parentID, scopePrefix string, graph *models.CodeGraph) {
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
		Docstring: p.jsdoc(node, source),
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

func (p *JavaScriptParser) handleClass(node *sitter.Node, source []byte, relPath, parentID, scopePrefix string, graph *models.CodeGraph) {
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
		Docstring: p.jsdoc(node, source),
	})
	graph.Edges = append(graph.Edges, models.EdgeRecord{
		SourceID: parentID,
		TargetID: classID,
		Type:     models.EdgeDefines,
	})

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child != nil && child.Type() == "method_definition" {
			p.handleMethod(child, source, relPath, classID, qualified+".", graph)
		}
	}
}

func (p *JavaScriptParser) handleMethod(node *sitter.Node, source []byte, relPath, parentID, scopePrefix string, graph *models.CodeGraph) {
	name := childTextByField(node, source, "name")
	if name == "" {
		return
	}

	qualified := qualify(scopePrefix, name)
	methodID := entityID(relPath, qualified)

	graph.Nodes = append(graph.Nodes, models.NodeRecord{
		ID:        methodID,
		Type:      models.NodeFunction,
		Name:      qualified,
		Filepath:  relPath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Docstring: p.jsdoc(node, source),
	})
	graph.Edges = append(graph.Edges, models.EdgeRecord{
		SourceID: parentID,
		TargetID: methodID,
		Type:     models.EdgeDefines,
	})

	if body := node.ChildByFieldName("body"); body != nil {
		p.extractCalls(body, source, relPath, methodID, graph)
	}
}

// handleVariableDeclaration catches arrow functions and function
// expressions bound via const/let/var at the current level.
func (p *JavaScriptParser) handleVariableDeclaration(node *sitter.Node, source []byte, relPath, parentID, scopePrefix string, graph *models.CodeGraph) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		valueNode := child.ChildByFieldName("value")
		if nameNode == nil || valueNode == nil {
			continue
		}
		switch valueNode.Type() {
		case "arrow_function", "function_expression", "function":
		default:
			continue
		}

		name := nodeText(nameNode, source)
		if name == "" {
			continue
		}
		qualified := qualify(scopePrefix, name)
		funcID := entityID(relPath, qualified)

		graph.Nodes = append(graph.Nodes, models.NodeRecord{
			ID:        funcID,
			Type:      models.NodeFunction,
			Name:      qualified,
			Filepath:  relPath,
			StartLine: int(child.StartPoint().Row) + 1,
			EndLine:   int(child.EndPoint().Row) + 1,
			Docstring: p.jsdoc(node, source),
		})
		graph.Edges = append(graph.Edges, models.EdgeRecord{
			SourceID: parentID,
			TargetID: funcID,
			Type:     models.EdgeDefines,
		})

		if body := valueNode.ChildByFieldName("body"); body != nil {
			p.extractCalls(body, source, relPath, funcID, graph)
		}
	}
}

func (p *JavaScriptParser) extractCalls(node *sitter.Node, source []byte, relPath, callerID string, graph *models.CodeGraph) {
	if node.Type() == "call_expression" {
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

func (p *JavaScriptParser) resolveCallName(call *sitter.Node, source []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier", "member_expression":
		return nodeText(fn, source)
	}
	return ""
}

// extractImports covers ES6 imports, re-exports with a source, and
// CommonJS require() calls anywhere in the file.
func (p *JavaScriptParser) extractImports(root *sitter.Node, source []byte, fileID string, graph *models.CodeGraph) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "import_statement", "export_statement":
			src := child.ChildByFieldName("source")
			if src == nil {
				continue
			}
			if module := stripJSQuotes(nodeText(src, source)); module != "" {
				graph.Edges = append(graph.Edges, models.EdgeRecord{
					SourceID: fileID,
					TargetID: module,
					Type:     models.EdgeImports,
				})
			}
		}
	}

	p.extractRequireCalls(root, source, fileID, graph)
}

func (p *JavaScriptParser) extractRequireCalls(node *sitter.Node, source []byte, fileID string, graph *models.CodeGraph) {
	if node.Type() == "call_expression" {
		fn := node.ChildByFieldName("function")
		if fn != nil && nodeText(fn, source) == "require" {
			if args := node.ChildByFieldName("arguments"); args != nil {
				for i := 0; i < int(args.NamedChildCount()); i++ {
					arg := args.NamedChild(i)
					if arg != nil && arg.Type() == "string" {
						if module := stripJSQuotes(nodeText(arg, source)); module != "" {
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

	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child != nil {
			p.extractRequireCalls(child, source, fileID, graph)
		}
	}
}

// jsdoc returns a block comment immediately preceding the node, but only
// when it is JSDoc-style ("/**").
func (p *JavaScriptParser) jsdoc(node *sitter.Node, source []byte) string {
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := nodeText(prev, source)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}

func stripJSQuotes(text string) string {
	for _, q := range []string{`"`, "'", "`"} {
		if len(text) >= 2 && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}

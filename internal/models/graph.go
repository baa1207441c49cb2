package models

// NodeType enumerates the kinds of code entities stored in the graph.
type NodeType string

const (
	NodeFile     NodeType = "file"
	NodeClass    NodeType = "class"
	NodeFunction NodeType = "function"
)

// EdgeType enumerates the supported relationship kinds.
type EdgeType string

const (
	EdgeDefines EdgeType = "defines"
	EdgeCalls   EdgeType = "calls"
	EdgeImports EdgeType = "imports"
)

// NodeRecord is a single entity in the code knowledge graph.
//
// Source content is never stored inline. Filepath, StartLine and EndLine
// form a pointer that the content package resolves on demand, so the
// graph stays lean no matter how large the repository is.
//
// IDs are deterministic: a file node's ID is its repo-relative path, and
// a nested entity's ID is "filepath::qualifiedName". Re-parsing an
// unchanged file therefore produces byte-identical IDs, which is what
// makes MERGE-based storage idempotent.
type NodeRecord struct {
	ID        string   `json:"id"`
	Type      NodeType `json:"type"`
	Name      string   `json:"name"`
	Filepath  string   `json:"filepath"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Docstring string   `json:"docstring,omitempty"`
}

// EdgeRecord is a directed relationship between two nodes.
//
// For calls and imports, TargetID is speculative: it is constructed from
// a lexical name and may not match any extracted node. The storage layer
// resolves these, creating ExternalLibrary placeholders for targets that
// never materialize.
type EdgeRecord struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Type     EdgeType `json:"type"`
}

// CodeGraph is the aggregate produced by an ingestion run. Insertion
// order is preserved for debuggability only; consumers must key on ID.
type CodeGraph struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// Append merges another graph's records into g, preserving order.
func (g *CodeGraph) Append(other *CodeGraph) {
	if other == nil {
		return
	}
	g.Nodes = append(g.Nodes, other.Nodes...)
	g.Edges = append(g.Edges, other.Edges...)
}

// FindNode returns the node with the given ID, or nil if absent.
func (g *CodeGraph) FindNode(id string) *NodeRecord {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

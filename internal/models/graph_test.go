package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"a/b.py", "python"},
		{"src/App.JSX", "javascript"},
		{"index.mjs", "javascript"},
		{"lib.js", "javascript"},
		{"main.go", ""},
		{"README", ""},
	}
	for _, tc := range cases {
		if got := DetectLanguage(tc.path); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestCodeGraphAppend(t *testing.T) {
	g := &CodeGraph{
		Nodes: []NodeRecord{{ID: "a.py", Type: NodeFile}},
	}
	g.Append(&CodeGraph{
		Nodes: []NodeRecord{{ID: "a.py::f", Type: NodeFunction}},
		Edges: []EdgeRecord{{SourceID: "a.py", TargetID: "a.py::f", Type: EdgeDefines}},
	})
	g.Append(nil)

	if len(g.Nodes) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Errorf("Expected 1 edge, got %d", len(g.Edges))
	}
}

func TestCodeGraphFindNode(t *testing.T) {
	g := &CodeGraph{
		Nodes: []NodeRecord{{ID: "a.py"}, {ID: "a.py::f", Name: "f"}},
	}
	if n := g.FindNode("a.py::f"); n == nil || n.Name != "f" {
		t.Errorf("FindNode returned %+v", n)
	}
	if n := g.FindNode("missing"); n != nil {
		t.Errorf("Expected nil for missing node, got %+v", n)
	}
}

func TestNodeRecordJSONOmitsEmptyDocstring(t *testing.T) {
	data, err := json.Marshal(NodeRecord{
		ID:        "a.py::f",
		Type:      NodeFunction,
		Name:      "f",
		Filepath:  "a.py",
		StartLine: 1,
		EndLine:   2,
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "docstring") {
		t.Errorf("empty docstring should be omitted: %s", data)
	}
	if !strings.Contains(string(data), `"start_line":1`) {
		t.Errorf("expected snake_case line fields: %s", data)
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/synapticdev/synaptic/internal/config"
	"github.com/synapticdev/synaptic/internal/models"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	app := fiber.New()
	handler := NewHandler(config.Load(), nil)
	SetupRoutes(app, handler)
	return app
}

func setupTestRepo(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	source := `"""Demo module."""


def greet(name):
    """Greet someone."""
    return name


def main():
    greet("world")
`
	if err := os.WriteFile(filepath.Join(tmpDir, "demo.py"), []byte(source), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return tmpDir
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	req, err := http.NewRequest("POST", path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	return resp
}

func TestIngestEndpoint(t *testing.T) {
	app := setupTestApp(t)
	repo := setupTestRepo(t)

	resp := postJSON(t, app, "/api/ingest", models.IngestRequest{Path: repo})
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var out models.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", out.Status)
	}
	if out.FilesParsed != 1 {
		t.Errorf("Expected 1 file parsed, got %d", out.FilesParsed)
	}
	if out.Graph == nil || out.Graph.FindNode("demo.py::greet") == nil {
		t.Error("expected demo.py::greet in response graph")
	}
	if out.TotalNodes != len(out.Graph.Nodes) {
		t.Errorf("total_nodes %d does not match graph (%d)", out.TotalNodes, len(out.Graph.Nodes))
	}
}

func TestIngestEndpointValidation(t *testing.T) {
	app := setupTestApp(t)

	resp := postJSON(t, app, "/api/ingest", models.IngestRequest{})
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Errorf("Expected 400 for missing path, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/api/ingest", models.IngestRequest{Path: filepath.Join(t.TempDir(), "nope")})
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Errorf("Expected 400 for missing directory, got %d", resp.StatusCode)
	}
}

func TestIngestEndpointStoreWithoutDB(t *testing.T) {
	app := setupTestApp(t)
	repo := setupTestRepo(t)

	resp := postJSON(t, app, "/api/ingest", models.IngestRequest{Path: repo, Store: true})
	defer resp.Body.Close()
	if resp.StatusCode != 503 {
		t.Errorf("Expected 503 when storage is unconfigured, got %d", resp.StatusCode)
	}
}

func TestContentEndpoint(t *testing.T) {
	app := setupTestApp(t)
	repo := setupTestRepo(t)

	query := url.Values{}
	query.Set("node_id", "demo.py::greet")
	query.Set("repo_root", repo)
	req, err := http.NewRequest("GET", "/api/content?"+query.Encode(), nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var out models.NodeContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.NodeID != "demo.py::greet" {
		t.Errorf("Expected node_id 'demo.py::greet', got '%s'", out.NodeID)
	}
	if out.Filepath != "demo.py" {
		t.Errorf("Expected filepath 'demo.py', got '%s'", out.Filepath)
	}
	if out.Content == "" {
		t.Error("expected non-empty content")
	}
}

func TestContentEndpointErrors(t *testing.T) {
	app := setupTestApp(t)
	repo := setupTestRepo(t)

	cases := []struct {
		name     string
		nodeID   string
		repoRoot string
		want     int
	}{
		{"missing params", "", "", 400},
		{"unknown node", "demo.py::nope", repo, 404},
		{"bad repo root", "demo.py::greet", filepath.Join(repo, "missing"), 400},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query := url.Values{}
			if tc.nodeID != "" {
				query.Set("node_id", tc.nodeID)
			}
			if tc.repoRoot != "" {
				query.Set("repo_root", tc.repoRoot)
			}
			req, err := http.NewRequest("GET", "/api/content?"+query.Encode(), nil)
			if err != nil {
				t.Fatalf("NewRequest failed: %v", err)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Test request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestStorageEndpointsWithoutDB(t *testing.T) {
	app := setupTestApp(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/graph"},
		{"GET", "/api/repositories/"},
		{"GET", "/api/repositories/some-id"},
		{"DELETE", "/api/repositories/some-id"},
	}

	for _, p := range paths {
		req, err := http.NewRequest(p.method, p.path, nil)
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Test request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != 503 {
			t.Errorf("%s %s: expected 503 without db, got %d", p.method, p.path, resp.StatusCode)
		}
	}
}

package api

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofiber/fiber/v3"

	"github.com/synapticdev/synaptic/internal/config"
	"github.com/synapticdev/synaptic/internal/content"
	"github.com/synapticdev/synaptic/internal/db"
	"github.com/synapticdev/synaptic/internal/embedding"
	"github.com/synapticdev/synaptic/internal/ingest"
	"github.com/synapticdev/synaptic/internal/models"
)

type Handler struct {
	cfg       *config.Config
	dbClient  *db.Neo4jClient
	writer    *db.GraphWriter
	reader    *db.GraphReader
	teiClient *embedding.TEIClient

	// Last extracted graph per repo root, so content lookups do not
	// re-scan the repository on every request.
	mu     sync.RWMutex
	graphs map[string]*models.CodeGraph
}

// NewHandler wires the API. dbClient may be nil, in which case the
// storage-backed endpoints respond 503 and pure extraction still works.
func NewHandler(cfg *config.Config, dbClient *db.Neo4jClient) *Handler {
	h := &Handler{
		cfg:       cfg,
		dbClient:  dbClient,
		teiClient: embedding.NewTEIClient(cfg.TEIURL),
		graphs:    make(map[string]*models.CodeGraph),
	}
	if dbClient != nil {
		h.writer = db.NewGraphWriter(dbClient)
		h.reader = db.NewGraphReader(dbClient)
	}
	return h
}

// Ingest scans a local repository and returns its knowledge graph.
// With store=true the graph is also merged into Neo4j, and with
// embed=true entity vectors are generated and stored as well.
func (h *Handler) Ingest(c fiber.Ctx) error {
	var input models.IngestRequest
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if input.Path == "" {
		return c.Status(400).JSON(fiber.Map{"error": "path is required"})
	}

	root, err := filepath.Abs(input.Path)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	graph, stats, err := ingest.IngestRepository(c.Context(), root, input.Blacklist)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	h.mu.Lock()
	h.graphs[root] = graph
	h.mu.Unlock()

	if input.Store {
		if h.writer == nil {
			return c.Status(503).JSON(fiber.Map{"error": "graph storage is not configured"})
		}
		if _, _, err := h.writer.WriteGraph(c.Context(), graph); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if input.Embed {
			if err := h.embedGraph(c.Context(), graph, root); err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
		}
	}

	return c.JSON(models.IngestResponse{
		Status:      "success",
		TotalNodes:  len(graph.Nodes),
		TotalEdges:  len(graph.Edges),
		FilesParsed: stats.FilesParsed,
		FilesFailed: stats.FilesFailed,
		Graph:       graph,
	})
}

func (h *Handler) embedGraph(ctx context.Context, graph *models.CodeGraph, root string) error {
	nodeVectors, err := h.teiClient.EmbedNodes(ctx, graph, root, 32)
	if err != nil {
		return err
	}
	records := make([]db.EmbeddingRecord, 0, len(nodeVectors))
	for _, nv := range nodeVectors {
		records = append(records, db.EmbeddingRecord{NodeID: nv.NodeID, Embedding: nv.Vector})
	}
	_, err = h.writer.BatchUpdateEmbeddings(ctx, records)
	return err
}

// NodeContent resolves a node's pointer and returns only the relevant
// source lines, reading them from disk on demand.
func (h *Handler) NodeContent(c fiber.Ctx) error {
	nodeID := c.Query("node_id")
	repoRoot := c.Query("repo_root")
	if nodeID == "" || repoRoot == "" {
		return c.Status(400).JSON(fiber.Map{"error": "node_id and repo_root are required"})
	}

	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		return c.Status(400).JSON(fiber.Map{"error": "repo_root is not a valid directory"})
	}

	graph, err := h.graphFor(c.Context(), root)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	node := graph.FindNode(nodeID)
	if node == nil {
		return c.Status(404).JSON(fiber.Map{"error": "node not found: " + nodeID})
	}

	text, err := content.NodeContent(graph, nodeID, root)
	switch {
	case err == nil:
	case errors.Is(err, content.ErrInvalidRange):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, fs.ErrNotExist):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(models.NodeContentResponse{
		NodeID:    nodeID,
		Filepath:  node.Filepath,
		StartLine: node.StartLine,
		EndLine:   node.EndLine,
		Content:   text,
	})
}

// graphFor returns the cached graph for a root, re-scanning on miss.
func (h *Handler) graphFor(ctx context.Context, root string) (*models.CodeGraph, error) {
	h.mu.RLock()
	graph, ok := h.graphs[root]
	h.mu.RUnlock()
	if ok {
		return graph, nil
	}

	graph, _, err := ingest.IngestRepository(ctx, root, nil)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.graphs[root] = graph
	h.mu.Unlock()
	return graph, nil
}

// GetGraph exports the stored graph from Neo4j.
func (h *Handler) GetGraph(c fiber.Ctx) error {
	if h.reader == nil {
		return c.Status(503).JSON(fiber.Map{"error": "graph storage is not configured"})
	}
	graph, err := h.reader.GetGraph(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(graph)
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Search embeds the query text and runs a vector similarity search over
// stored entities.
func (h *Handler) Search(c fiber.Ctx) error {
	if h.reader == nil {
		return c.Status(503).JSON(fiber.Map{"error": "graph storage is not configured"})
	}

	var input searchRequest
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if input.Query == "" {
		return c.Status(400).JSON(fiber.Map{"error": "query is required"})
	}
	if input.Limit <= 0 {
		input.Limit = 5
	}

	vectors, err := h.teiClient.Embed(c.Context(), []string{input.Query})
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": err.Error()})
	}
	if len(vectors) == 0 {
		return c.Status(502).JSON(fiber.Map{"error": "embedding service returned no vectors"})
	}

	results, err := h.reader.VectorSearch(c.Context(), vectors[0], input.Limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if results == nil {
		results = []db.SearchResult{}
	}
	return c.JSON(results)
}

// ListRepositories returns all registered repositories.
func (h *Handler) ListRepositories(c fiber.Ctx) error {
	if h.dbClient == nil {
		return c.Status(503).JSON(fiber.Map{"error": "graph storage is not configured"})
	}
	repos, err := db.ListRepositories(c.Context(), h.dbClient)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if repos == nil {
		repos = []*models.Repository{}
	}
	return c.JSON(repos)
}

// CreateRepository registers a local repository and ingests it in the
// background, updating its status record as the run progresses.
func (h *Handler) CreateRepository(c fiber.Ctx) error {
	if h.dbClient == nil {
		return c.Status(503).JSON(fiber.Map{"error": "graph storage is not configured"})
	}

	var input models.CreateRepositoryInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if input.Path == "" {
		return c.Status(400).JSON(fiber.Map{"error": "path is required"})
	}

	root, err := filepath.Abs(input.Path)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		return c.Status(400).JSON(fiber.Map{"error": "path is not a valid directory"})
	}

	name := input.Name
	if name == "" {
		name = filepath.Base(root)
	}

	repo := &models.Repository{
		Path:   root,
		Name:   name,
		Status: "pending",
	}
	created, err := db.CreateRepository(c.Context(), h.dbClient, repo)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	go h.ingestRepository(created)

	return c.Status(201).JSON(created)
}

func (h *Handler) ingestRepository(repo *models.Repository) {
	ctx := context.Background()

	if err := db.UpdateRepositoryStats(ctx, h.dbClient, repo.ID, "ingesting", 0, 0); err != nil {
		slog.Error("failed to mark repository ingesting", "repo", repo.ID, "err", err)
	}

	graph, _, err := ingest.IngestRepository(ctx, repo.Path, nil)
	if err != nil {
		slog.Error("background ingestion failed", "repo", repo.ID, "err", err)
		_ = db.UpdateRepositoryStats(ctx, h.dbClient, repo.ID, "error", 0, 0)
		return
	}

	h.mu.Lock()
	h.graphs[repo.Path] = graph
	h.mu.Unlock()

	if _, _, err := h.writer.WriteGraph(ctx, graph); err != nil {
		slog.Error("failed to store graph", "repo", repo.ID, "err", err)
		_ = db.UpdateRepositoryStats(ctx, h.dbClient, repo.ID, "error", 0, 0)
		return
	}

	if err := db.UpdateRepositoryStats(ctx, h.dbClient, repo.ID, "ready", len(graph.Nodes), len(graph.Edges)); err != nil {
		slog.Error("failed to update repository stats", "repo", repo.ID, "err", err)
	}
}

// GetRepository returns a single repository record.
func (h *Handler) GetRepository(c fiber.Ctx) error {
	if h.dbClient == nil {
		return c.Status(503).JSON(fiber.Map{"error": "graph storage is not configured"})
	}
	repo, err := db.GetRepository(c.Context(), h.dbClient, c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if repo == nil {
		return c.Status(404).JSON(fiber.Map{"error": "repository not found"})
	}
	return c.JSON(repo)
}

// DeleteRepository removes a repository record.
func (h *Handler) DeleteRepository(c fiber.Ctx) error {
	if h.dbClient == nil {
		return c.Status(503).JSON(fiber.Map{"error": "graph storage is not configured"})
	}
	if err := db.DeleteRepository(c.Context(), h.dbClient, c.Params("id")); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(204)
}

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/synapticdev/synaptic/internal/content"
	"github.com/synapticdev/synaptic/internal/models"
)

// TEIClient talks to a text-embeddings-inference style server.
type TEIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTEIClient(baseURL string) *TEIClient {
	return &TEIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type EmbedRequest struct {
	Inputs []string `json:"inputs"`
}

func (c *TEIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqBody, err := json.Marshal(EmbedRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embed", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TEI error (status %d): %s", resp.StatusCode, string(body))
	}

	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return embeddings, nil
}

// NodeEmbedding pairs a node ID with its computed vector.
type NodeEmbedding struct {
	NodeID string
	Vector []float32
}

// EmbedNodes reads each class/function node's source through its pointer
// and embeds it in batches. Nodes whose source cannot be read are
// skipped; file nodes are never embedded.
func (c *TEIClient) EmbedNodes(ctx context.Context, graph *models.CodeGraph, repoRoot string, batchSize int) ([]NodeEmbedding, error) {
	if batchSize <= 0 {
		batchSize = 32
	}

	var ids []string
	var texts []string
	for _, node := range graph.Nodes {
		if node.Type == models.NodeFile {
			continue
		}
		snippet, err := content.NodeContent(graph, node.ID, repoRoot)
		if err != nil || snippet == "" {
			slog.Warn("skipping node for embedding", "node", node.ID, "err", err)
			continue
		}
		ids = append(ids, node.ID)
		texts = append(texts, snippet)
	}

	var out []NodeEmbedding
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.Embed(ctx, texts[start:end])
		if err != nil {
			return out, fmt.Errorf("embedding batch failed: %w", err)
		}
		for i, vec := range vectors {
			out = append(out, NodeEmbedding{NodeID: ids[start+i], Vector: vec})
		}
	}
	return out, nil
}

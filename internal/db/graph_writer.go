package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/synapticdev/synaptic/internal/models"
)

// DefaultBatchSize is the number of records per UNWIND transaction.
const DefaultBatchSize = 200

var secondaryLabels = map[models.NodeType]string{
	models.NodeFile:     "File",
	models.NodeClass:    "Class",
	models.NodeFunction: "Function",
}

// GraphWriter pushes an extracted CodeGraph into Neo4j with batched,
// idempotent UNWIND+MERGE writes keyed on the deterministic node IDs.
type GraphWriter struct {
	client    *Neo4jClient
	batchSize int
}

func NewGraphWriter(client *Neo4jClient) *GraphWriter {
	return &GraphWriter{client: client, batchSize: DefaultBatchSize}
}

// WriteGraph merges all nodes, then all edges. Speculative edge targets
// that match no extracted node get an ExternalLibrary placeholder so the
// relationship is preserved for later resolution.
func (w *GraphWriter) WriteGraph(ctx context.Context, graph *models.CodeGraph) (nodesMerged, edgesMerged int, err error) {
	nodesMerged, err = w.writeNodes(ctx, graph.Nodes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to write nodes: %w", err)
	}

	edgesMerged, err = w.writeEdges(ctx, graph.Edges)
	if err != nil {
		return nodesMerged, 0, fmt.Errorf("failed to write edges: %w", err)
	}

	slog.Info("graph written", "nodes_merged", nodesMerged, "edges_merged", edgesMerged)
	return nodesMerged, edgesMerged, nil
}

func (w *GraphWriter) writeNodes(ctx context.Context, nodes []models.NodeRecord) (int, error) {
	// Group by type so each batch can carry the right secondary label
	// without needing APOC's dynamic labels.
	byType := make(map[models.NodeType][]map[string]any)
	for _, n := range nodes {
		byType[n.Type] = append(byType[n.Type], map[string]any{
			"id":         n.ID,
			"type":       string(n.Type),
			"name":       n.Name,
			"filepath":   n.Filepath,
			"start_line": n.StartLine,
			"end_line":   n.EndLine,
			"docstring":  n.Docstring,
		})
	}

	merged := 0
	for nodeType, records := range byType {
		label, ok := secondaryLabels[nodeType]
		if !ok {
			label = "CodeEntity"
		}
		query := fmt.Sprintf(`
			UNWIND $batch AS rec
			MERGE (n:CodeEntity:%s {id: rec.id})
			SET n.name       = rec.name,
			    n.filepath   = rec.filepath,
			    n.start_line = rec.start_line,
			    n.end_line   = rec.end_line,
			    n.docstring  = rec.docstring,
			    n.type       = rec.type
		`, label)

		for _, batch := range chunked(records, w.batchSize) {
			if err := w.runBatch(ctx, query, batch); err != nil {
				return merged, err
			}
			merged += len(batch)
		}
	}
	return merged, nil
}

func (w *GraphWriter) writeEdges(ctx context.Context, edges []models.EdgeRecord) (int, error) {
	records := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		records = append(records, map[string]any{
			"source_id": e.SourceID,
			"target_id": e.TargetID,
			"type":      string(e.Type),
		})
	}

	// FOREACH + CASE keeps the conditional placeholder creation and the
	// per-type relationship MERGE in one round trip, without APOC.
	query := `
		UNWIND $batch AS rec

		MATCH (src:CodeEntity {id: rec.source_id})

		OPTIONAL MATCH (tgt:CodeEntity {id: rec.target_id})
		WITH src, rec, tgt AS resolved

		FOREACH (_ IN CASE WHEN resolved IS NULL THEN [1] ELSE [] END |
			MERGE (ext:ExternalLibrary {id: rec.target_id})
			SET ext.name = rec.target_id
		)

		WITH src, rec
		MATCH (tgt {id: rec.target_id})

		FOREACH (_ IN CASE WHEN rec.type = 'defines' THEN [1] ELSE [] END |
			MERGE (src)-[:DEFINES]->(tgt)
		)
		FOREACH (_ IN CASE WHEN rec.type = 'calls' THEN [1] ELSE [] END |
			MERGE (src)-[:CALLS]->(tgt)
		)
		FOREACH (_ IN CASE WHEN rec.type = 'imports' THEN [1] ELSE [] END |
			MERGE (src)-[:IMPORTS]->(tgt)
		)
	`

	merged := 0
	for _, batch := range chunked(records, w.batchSize) {
		if err := w.runBatch(ctx, query, batch); err != nil {
			return merged, err
		}
		merged += len(batch)
	}
	return merged, nil
}

func (w *GraphWriter) runBatch(ctx context.Context, query string, batch []map[string]any) error {
	_, err := w.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"batch": batch})
		return nil, err
	})
	return err
}

// ClearAll removes every code entity and placeholder from the graph.
func (w *GraphWriter) ClearAll(ctx context.Context) error {
	_, err := w.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (n)
			WHERE n:CodeEntity OR n:ExternalLibrary
			DETACH DELETE n
		`
		_, err := tx.Run(ctx, query, nil)
		return nil, err
	})
	return err
}

func chunked(records []map[string]any, size int) [][]map[string]any {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]map[string]any
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}

package db

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/synapticdev/synaptic/internal/models"
)

// GraphReader answers queries against the stored code graph.
type GraphReader struct {
	client *Neo4jClient
}

func NewGraphReader(client *Neo4jClient) *GraphReader {
	return &GraphReader{client: client}
}

// GetNode fetches a single stored entity by its deterministic ID.
// Returns nil when the ID matches nothing.
func (r *GraphReader) GetNode(ctx context.Context, id string) (*models.NodeRecord, error) {
	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (n:CodeEntity {id: $id})
			RETURN n.id AS id, n.type AS type, n.name AS name,
			       n.filepath AS filepath, n.start_line AS start_line,
			       n.end_line AS end_line, n.docstring AS docstring
		`
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			return nil, records.Err()
		}
		return nodeFromRecord(records.Record()), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.(*models.NodeRecord), nil
}

// GetGraph exports the full stored graph in the same shape the
// extraction engine produces.
func (r *GraphReader) GetGraph(ctx context.Context) (*models.CodeGraph, error) {
	graph := &models.CodeGraph{}

	nodesResult, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (n:CodeEntity)
			RETURN n.id AS id, n.type AS type, n.name AS name,
			       n.filepath AS filepath, n.start_line AS start_line,
			       n.end_line AS end_line, n.docstring AS docstring
			ORDER BY n.filepath, n.start_line
		`
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		var nodes []models.NodeRecord
		for records.Next(ctx) {
			if n := nodeFromRecord(records.Record()); n != nil {
				nodes = append(nodes, *n)
			}
		}
		return nodes, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}
	graph.Nodes = nodesResult.([]models.NodeRecord)

	edgesResult, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (src:CodeEntity)-[rel:DEFINES|CALLS|IMPORTS]->(tgt)
			RETURN src.id AS source_id, tgt.id AS target_id, toLower(type(rel)) AS type
		`
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		var edges []models.EdgeRecord
		for records.Next(ctx) {
			rec := records.Record()
			edge := models.EdgeRecord{}
			if v, ok := rec.Get("source_id"); ok {
				edge.SourceID, _ = v.(string)
			}
			if v, ok := rec.Get("target_id"); ok {
				edge.TargetID, _ = v.(string)
			}
			if v, ok := rec.Get("type"); ok {
				if s, isStr := v.(string); isStr {
					edge.Type = models.EdgeType(s)
				}
			}
			edges = append(edges, edge)
		}
		return edges, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	graph.Edges = edgesResult.([]models.EdgeRecord)

	return graph, nil
}

func nodeFromRecord(rec *neo4j.Record) *models.NodeRecord {
	node := &models.NodeRecord{}
	if v, ok := rec.Get("id"); ok {
		node.ID, _ = v.(string)
	}
	if v, ok := rec.Get("type"); ok {
		if s, isStr := v.(string); isStr {
			node.Type = models.NodeType(s)
		}
	}
	if v, ok := rec.Get("name"); ok {
		node.Name, _ = v.(string)
	}
	if v, ok := rec.Get("filepath"); ok {
		node.Filepath, _ = v.(string)
	}
	if v, ok := rec.Get("start_line"); ok {
		if n, isInt := v.(int64); isInt {
			node.StartLine = int(n)
		}
	}
	if v, ok := rec.Get("end_line"); ok {
		if n, isInt := v.(int64); isInt {
			node.EndLine = int(n)
		}
	}
	if v, ok := rec.Get("docstring"); ok {
		node.Docstring, _ = v.(string)
	}
	return node
}

package db

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// EmbeddingRecord pairs a node ID with its vector.
type EmbeddingRecord struct {
	NodeID    string
	Embedding []float32
}

// CreateVectorIndex creates the cosine vector index over entity
// embeddings. Dimensions match the local sentence-transformer output.
func (c *Neo4jClient) CreateVectorIndex(ctx context.Context) error {
	_, err := c.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			CREATE VECTOR INDEX entity_embeddings IF NOT EXISTS
			FOR (n:CodeEntity) ON (n.embedding)
			OPTIONS {indexConfig: {
				` + "`" + `vector.dimensions` + "`" + `: 384,
				` + "`" + `vector.similarity_function` + "`" + `: 'cosine'
			}}
		`
		_, err := tx.Run(ctx, query, nil)
		return nil, err
	})
	return err
}

// BatchUpdateEmbeddings stores vectors on already-merged entity nodes.
func (w *GraphWriter) BatchUpdateEmbeddings(ctx context.Context, records []EmbeddingRecord) (int, error) {
	batch := make([]map[string]any, 0, len(records))
	for _, r := range records {
		batch = append(batch, map[string]any{
			"node_id":   r.NodeID,
			"embedding": r.Embedding,
		})
	}

	query := `
		UNWIND $batch AS rec
		MATCH (n:CodeEntity {id: rec.node_id})
		SET n.embedding = rec.embedding
	`

	updated := 0
	for _, chunk := range chunked(batch, w.batchSize) {
		if err := w.runBatch(ctx, query, chunk); err != nil {
			return updated, fmt.Errorf("failed to update embeddings: %w", err)
		}
		updated += len(chunk)
	}
	return updated, nil
}

// SearchResult is one hit from a vector similarity query.
type SearchResult struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Filepath  string  `json:"filepath"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Score     float64 `json:"score"`
}

// VectorSearch returns the entities nearest to the query embedding.
func (r *GraphReader) VectorSearch(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error) {
	result, err := r.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			CALL db.index.vector.queryNodes('entity_embeddings', $limit, $embedding)
			YIELD node, score
			RETURN node.id AS id, node.name AS name, node.type AS type,
			       node.filepath AS filepath, node.start_line AS start_line,
			       node.end_line AS end_line, score
			ORDER BY score DESC
		`
		records, err := tx.Run(ctx, query, map[string]any{
			"embedding": embedding,
			"limit":     limit,
		})
		if err != nil {
			return nil, err
		}

		var results []SearchResult
		for records.Next(ctx) {
			rec := records.Record()
			hit := SearchResult{}
			if v, ok := rec.Get("id"); ok {
				hit.ID, _ = v.(string)
			}
			if v, ok := rec.Get("name"); ok {
				hit.Name, _ = v.(string)
			}
			if v, ok := rec.Get("type"); ok {
				hit.Type, _ = v.(string)
			}
			if v, ok := rec.Get("filepath"); ok {
				hit.Filepath, _ = v.(string)
			}
			if v, ok := rec.Get("start_line"); ok {
				if n, isInt := v.(int64); isInt {
					hit.StartLine = int(n)
				}
			}
			if v, ok := rec.Get("end_line"); ok {
				if n, isInt := v.(int64); isInt {
					hit.EndLine = int(n)
				}
			}
			if v, ok := rec.Get("score"); ok {
				hit.Score, _ = v.(float64)
			}
			results = append(results, hit)
		}
		return results, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	return result.([]SearchResult), nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/synapticdev/synaptic/internal/models"
)

func CreateRepository(ctx context.Context, client *Neo4jClient, repo *models.Repository) (*models.Repository, error) {
	repo.ID = uuid.New().String()

	_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			CREATE (r:Repository {
				id: $id,
				path: $path,
				name: $name,
				status: $status,
				lastIngested: $lastIngested,
				nodesCount: 0,
				edgesCount: 0
			})
			RETURN r
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":           repo.ID,
			"path":         repo.Path,
			"name":         repo.Name,
			"status":       repo.Status,
			"lastIngested": time.Now().UTC(),
		})
		return nil, err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	return repo, nil
}

func GetRepository(ctx context.Context, client *Neo4jClient, id string) (*models.Repository, error) {
	result, err := client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Repository {id: $id})
			RETURN r.id AS id, r.path AS path, r.name AS name,
			       r.status AS status, r.lastIngested AS lastIngested,
			       r.nodesCount AS nodesCount, r.edgesCount AS edgesCount
		`
		records, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			return nil, records.Err()
		}
		return repositoryFromRecord(records.Record()), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.(*models.Repository), nil
}

func ListRepositories(ctx context.Context, client *Neo4jClient) ([]*models.Repository, error) {
	result, err := client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Repository)
			RETURN r.id AS id, r.path AS path, r.name AS name,
			       r.status AS status, r.lastIngested AS lastIngested,
			       r.nodesCount AS nodesCount, r.edgesCount AS edgesCount
			ORDER BY r.name
		`
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		var repos []*models.Repository
		for records.Next(ctx) {
			repos = append(repos, repositoryFromRecord(records.Record()))
		}
		return repos, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	return result.([]*models.Repository), nil
}

func DeleteRepository(ctx context.Context, client *Neo4jClient, id string) error {
	_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Repository {id: $id})
			DETACH DELETE r
		`
		_, err := tx.Run(ctx, query, map[string]any{"id": id})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}
	return nil
}

// UpdateRepositoryStats records the outcome of an ingestion run.
func UpdateRepositoryStats(ctx context.Context, client *Neo4jClient, id, status string, nodesCount, edgesCount int) error {
	_, err := client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (r:Repository {id: $id})
			SET r.status = $status,
			    r.nodesCount = $nodesCount,
			    r.edgesCount = $edgesCount,
			    r.lastIngested = $lastIngested
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"id":           id,
			"status":       status,
			"nodesCount":   nodesCount,
			"edgesCount":   edgesCount,
			"lastIngested": time.Now().UTC(),
		})
		return nil, err
	})
	return err
}

func repositoryFromRecord(rec *neo4j.Record) *models.Repository {
	repo := &models.Repository{}
	if v, ok := rec.Get("id"); ok {
		repo.ID, _ = v.(string)
	}
	if v, ok := rec.Get("path"); ok {
		repo.Path, _ = v.(string)
	}
	if v, ok := rec.Get("name"); ok {
		repo.Name, _ = v.(string)
	}
	if v, ok := rec.Get("status"); ok {
		repo.Status, _ = v.(string)
	}
	if v, ok := rec.Get("lastIngested"); ok {
		if ts, isTime := v.(time.Time); isTime {
			repo.LastIngested = ts
		}
	}
	if v, ok := rec.Get("nodesCount"); ok {
		if n, isInt := v.(int64); isInt {
			repo.NodesCount = int(n)
		}
	}
	if v, ok := rec.Get("edgesCount"); ok {
		if n, isInt := v.(int64); isInt {
			repo.EdgesCount = int(n)
		}
	}
	return repo
}

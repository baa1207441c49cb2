package db

import (
	"context"
	"os"
	"testing"
)

func setupTestNeo4j(t *testing.T) *Neo4jClient {
	t.Helper()

	uri := os.Getenv("SYNAPTIC_NEO4J_URI")
	if uri == "" {
		uri = "bolt://localhost:7687"
	}

	client, err := NewNeo4jClient(context.Background(), Neo4jConfig{
		URI:      uri,
		Username: os.Getenv("SYNAPTIC_NEO4J_USER"),
		Password: os.Getenv("SYNAPTIC_NEO4J_PASSWORD"),
	})
	if err != nil {
		t.Skipf("Neo4j not available: %v", err)
	}
	return client
}

func TestNewNeo4jClient(t *testing.T) {
	// This test requires a running Neo4j instance.
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	client := setupTestNeo4j(t)
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Failed to ping: %v", err)
	}
}

package models

import "time"

// Repository tracks an ingested codebase and its lifecycle status.
type Repository struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	LastIngested time.Time `json:"lastIngested"`
	Status       string    `json:"status"` // pending, ingesting, ready, error
	NodesCount   int       `json:"nodesCount"`
	EdgesCount   int       `json:"edgesCount"`
}

// CreateRepositoryInput is the payload for registering a repository.
type CreateRepositoryInput struct {
	Path string `json:"path" validate:"required"`
	Name string `json:"name"`
}

// IngestRequest is the payload for the /api/ingest endpoint.
type IngestRequest struct {
	Path      string   `json:"path"`
	Blacklist []string `json:"blacklist,omitempty"`
	Store     bool     `json:"store,omitempty"`
	Embed     bool     `json:"embed,omitempty"`
}

// IngestResponse is the body returned by /api/ingest.
type IngestResponse struct {
	Status      string     `json:"status"`
	TotalNodes  int        `json:"total_nodes"`
	TotalEdges  int        `json:"total_edges"`
	FilesParsed int        `json:"files_parsed"`
	FilesFailed int        `json:"files_failed"`
	Graph       *CodeGraph `json:"graph"`
}

// NodeContentResponse wraps an on-demand source read for one node.
type NodeContentResponse struct {
	NodeID    string `json:"node_id"`
	Filepath  string `json:"filepath"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Content   string `json:"content"`
}

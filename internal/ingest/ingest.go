// Package ingest orchestrates a full repository scan: crawl, dispatch to
// language parsers, and merge per-file graphs into one result.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/synapticdev/synaptic/internal/crawler"
	"github.com/synapticdev/synaptic/internal/models"
	"github.com/synapticdev/synaptic/internal/parser"
)

// DefaultWorkers bounds concurrent file parses.
const DefaultWorkers = 4

// Stats summarizes an ingestion run. Only these aggregates cross the
// orchestrator boundary; individual file failures never abort the run.
type Stats struct {
	FilesParsed int      `json:"files_parsed"`
	FilesFailed int      `json:"files_failed"`
	Errors      []string `json:"errors,omitempty"`
}

// FileSource produces the candidate file sequence. It must call fn once
// per (path, language) pair and may be lazy and unbounded; the
// orchestrator never materializes it.
type FileSource func(ctx context.Context, fn func(crawler.Entry) error) error

// Ingestor dispatches crawled files through a parser registry and merges
// the per-file graphs. Files are parsed concurrently with a bounded
// worker pool; the merged graph is append-only under a single mutex.
type Ingestor struct {
	registry *parser.Registry
	workers  int
}

func New(registry *parser.Registry, workers int) *Ingestor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Ingestor{registry: registry, workers: workers}
}

// Run consumes the file source and returns the merged graph plus run
// statistics. A single file's failure (including a panic inside the
// extraction) is isolated: it is counted, logged, and the run continues.
func (in *Ingestor) Run(ctx context.Context, files FileSource) (*models.CodeGraph, *Stats, error) {
	merged := &models.CodeGraph{}
	stats := &Stats{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)

	err := files(gctx, func(entry crawler.Entry) error {
		// Cooperative cancellation between files; a single file's tree
		// walk is never interrupted mid-flight.
		if err := gctx.Err(); err != nil {
			return err
		}

		lang := in.registry.Get(entry.Language)
		if lang == nil {
			// Lookup miss, not an error: skip the file.
			return nil
		}

		g.Go(func() error {
			graph, parseErr := in.parseOne(gctx, lang, entry)

			mu.Lock()
			defer mu.Unlock()
			if parseErr != nil {
				stats.FilesFailed++
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", entry.Path, parseErr))
				slog.Error("parse failed", "file", entry.Path, "language", entry.Language, "err", parseErr)
				return nil
			}
			merged.Append(graph)
			stats.FilesParsed++
			return nil
		})
		return nil
	})

	if waitErr := g.Wait(); waitErr != nil && err == nil {
		err = waitErr
	}
	if err != nil {
		return nil, nil, err
	}

	slog.Info("ingestion finished",
		"files_parsed", stats.FilesParsed,
		"files_failed", stats.FilesFailed,
		"total_nodes", len(merged.Nodes),
		"total_edges", len(merged.Edges))

	return merged, stats, nil
}

// parseOne reads and parses a single file, converting panics from the
// grammar engine or extraction logic into ordinary errors.
func (in *Ingestor) parseOne(ctx context.Context, lang parser.LanguageParser, entry crawler.Entry) (graph *models.CodeGraph, err error) {
	defer func() {
		if r := recover(); r != nil {
			graph = nil
			err = fmt.Errorf("extraction panic: %v", r)
		}
	}()

	source, readErr := os.ReadFile(entry.Path)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read file: %w", readErr)
	}

	return lang.ParseFile(ctx, entry.Path, source)
}

// IngestRepository scans a local repository rooted at repoPath with the
// built-in parsers and default crawler filtering. This is the main entry
// point used by the API layer.
func IngestRepository(ctx context.Context, repoPath string, blacklist []string) (*models.CodeGraph, *Stats, error) {
	info, err := os.Stat(repoPath)
	if err != nil {
		return nil, nil, fmt.Errorf("repository path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("repository path is not a directory: %s", repoPath)
	}

	slog.Info("ingestion started", "repo", repoPath)

	c := crawler.New(repoPath, blacklist, 0)
	in := New(parser.DefaultRegistry(repoPath), DefaultWorkers)
	return in.Run(ctx, c.Crawl)
}

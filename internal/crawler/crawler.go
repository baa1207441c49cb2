// Package crawler walks a repository tree and yields candidate source
// files lazily, pruning blacklisted directories and oversized files.
package crawler

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/synapticdev/synaptic/internal/models"
)

// DefaultBlacklist holds gitignore-style patterns pruned during crawling.
var DefaultBlacklist = []string{
	".git",
	"__pycache__",
	"node_modules",
	"venv",
	".venv",
	"env",
	".env",
	".tox",
	".mypy_cache",
	".pytest_cache",
	"dist",
	"build",
	".eggs",
	"*.egg-info",
	".idea",
	".vscode",
}

// DefaultMaxFileSize is the size cap above which files are skipped.
const DefaultMaxFileSize int64 = 1 << 20 // 1 MiB

// Entry is one candidate file: an absolute path plus its language tag.
type Entry struct {
	Path     string
	Language string
}

// Crawler recursively walks a directory tree yielding supported source
// files. The walk is lazy and restartable: nothing is materialized up
// front, and each Crawl call starts fresh.
type Crawler struct {
	root        string
	maxFileSize int64
	matcher     *ignore.GitIgnore
}

// New builds a crawler rooted at root. A nil blacklist falls back to
// DefaultBlacklist; maxFileSize <= 0 falls back to DefaultMaxFileSize.
func New(root string, blacklist []string, maxFileSize int64) *Crawler {
	if blacklist == nil {
		blacklist = DefaultBlacklist
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Crawler{
		root:        root,
		maxFileSize: maxFileSize,
		matcher:     ignore.CompileIgnoreLines(blacklist...),
	}
}

// Crawl walks the tree in lexical order, invoking fn for every supported
// file. Blacklisted directories are pruned entirely so their children
// are never visited. Returning an error from fn aborts the walk.
func (c *Crawler) Crawl(ctx context.Context, fn func(Entry) error) error {
	slog.Info("crawl started", "root", c.root)
	files := 0

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are logged and skipped, not fatal.
			slog.Warn("crawl error", "path", path, "err", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == c.root {
			return nil
		}

		rel, relErr := filepath.Rel(c.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if c.matcher.MatchesPath(rel) || c.matcher.MatchesPath(rel+"/") {
				slog.Debug("excluded", "path", rel)
				return filepath.SkipDir
			}
			return nil
		}

		if c.matcher.MatchesPath(rel) {
			return nil
		}

		lang := models.DetectLanguage(path)
		if lang == "" {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			slog.Warn("stat failed", "path", rel, "err", statErr)
			return nil
		}
		if info.Size() > c.maxFileSize {
			slog.Warn("file too large", "path", rel, "size", info.Size(), "limit", c.maxFileSize)
			return nil
		}

		files++
		return fn(Entry{Path: path, Language: lang})
	})

	if err == nil {
		slog.Info("crawl finished", "root", c.root, "files", files)
	}
	return err
}

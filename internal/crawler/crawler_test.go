package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func crawlPaths(t *testing.T, c *Crawler) []string {
	t.Helper()
	var paths []string
	err := c.Crawl(context.Background(), func(e Entry) error {
		rel, relErr := filepath.Rel(c.root, e.Path)
		if relErr != nil {
			t.Fatalf("Rel failed: %v", relErr)
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("Crawl failed: %v", err)
	}
	return paths
}

func TestCrawlFiltersAndLanguages(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, tmpDir, "main.py", "print('hi')\n")
	writeFile(t, tmpDir, "src/app.js", "console.log('hi');\n")
	writeFile(t, tmpDir, "src/component.jsx", "export default 1;\n")
	writeFile(t, tmpDir, "README.md", "# readme\n")
	writeFile(t, tmpDir, "node_modules/dep/index.js", "module.exports = 1;\n")
	writeFile(t, tmpDir, "__pycache__/main.cpython-311.pyc", "binary\n")
	writeFile(t, tmpDir, ".git/config", "[core]\n")

	c := New(tmpDir, nil, 0)
	paths := crawlPaths(t, c)

	want := map[string]bool{
		"main.py":           true,
		"src/app.js":        true,
		"src/component.jsx": true,
	}
	if len(paths) != len(want) {
		t.Fatalf("Expected %d files, got %d: %v", len(want), len(paths), paths)
	}
	for _, p := range paths {
		if !want[p] {
			t.Errorf("unexpected file crawled: %s", p)
		}
	}
}

func TestCrawlCustomBlacklist(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, tmpDir, "keep.py", "x = 1\n")
	writeFile(t, tmpDir, "generated/skip.py", "x = 1\n")
	// A custom blacklist replaces the default, so node_modules is visible.
	writeFile(t, tmpDir, "node_modules/dep.js", "module.exports = 1;\n")

	c := New(tmpDir, []string{"generated"}, 0)
	paths := crawlPaths(t, c)

	found := map[string]bool{}
	for _, p := range paths {
		found[p] = true
	}
	if !found["keep.py"] {
		t.Error("keep.py should be crawled")
	}
	if found["generated/skip.py"] {
		t.Error("generated/skip.py should be pruned")
	}
	if !found["node_modules/dep.js"] {
		t.Error("custom blacklist should not prune node_modules")
	}
}

func TestCrawlSkipsOversizedFiles(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, tmpDir, "small.py", "x = 1\n")
	big := make([]byte, 128)
	for i := range big {
		big[i] = 'a'
	}
	writeFile(t, tmpDir, "big.py", string(big))

	c := New(tmpDir, nil, 64)
	paths := crawlPaths(t, c)

	if len(paths) != 1 || paths[0] != "small.py" {
		t.Errorf("Expected only small.py, got %v", paths)
	}
}

func TestCrawlCancellation(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "a.py", "x = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(tmpDir, nil, 0)
	err := c.Crawl(ctx, func(e Entry) error { return nil })
	if err == nil {
		t.Error("expected context error from cancelled crawl")
	}
}

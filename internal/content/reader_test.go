package content

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapticdev/synaptic/internal/models"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.py")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestReadLines(t *testing.T) {
	path := writeTemp(t, []byte("one\ntwo\nthree\nfour\n"))

	got, err := ReadLines(path, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "two\nthree", got)

	got, err = ReadLines(path, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "one", got)
}

func TestReadLinesClampsEnd(t *testing.T) {
	path := writeTemp(t, []byte("one\ntwo"))

	got, err := ReadLines(path, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", got)
}

func TestReadLinesStartBeyondEOF(t *testing.T) {
	path := writeTemp(t, []byte("one\n"))

	got, err := ReadLines(path, 50, 60)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestReadLinesInvalidRange(t *testing.T) {
	path := writeTemp(t, []byte("one\n"))

	_, err := ReadLines(path, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ReadLines(path, 5, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestReadLinesMissingFile(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "absent.py"), 1, 2)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadLinesNormalizesCRLF(t *testing.T) {
	path := writeTemp(t, []byte("one\r\ntwo\r\nthree\r\n"))

	got, err := ReadLines(path, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", got)
}

func TestReadLinesLatin1Fallback(t *testing.T) {
	// "café" in latin-1: 0xE9 is invalid as UTF-8.
	path := writeTemp(t, []byte{'c', 'a', 'f', 0xE9, '\n', 'x', '\n'})

	got, err := ReadLines(path, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "café", got)
}

func TestNodeContent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "pkg", "mod.py"),
		[]byte("def f():\n    return 1\n\nx = 2\n"), 0644))

	graph := &models.CodeGraph{
		Nodes: []models.NodeRecord{
			{ID: "pkg/mod.py::f", Type: models.NodeFunction, Name: "f", Filepath: "pkg/mod.py", StartLine: 1, EndLine: 2},
		},
	}

	got, err := NodeContent(graph, "pkg/mod.py::f", root)
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    return 1", got)
}

func TestNodeContentUnknownNode(t *testing.T) {
	graph := &models.CodeGraph{}

	_, err := NodeContent(graph, "missing.py::f", t.TempDir())
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

// Package content resolves node pointers (filepath + line range) to raw
// source text on demand, so the graph itself never stores content inline.
package content

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/synapticdev/synaptic/internal/models"
)

// ErrInvalidRange reports a malformed line range. Callers branch on it
// to distinguish bad input from a missing file.
var ErrInvalidRange = errors.New("invalid line range")

// ErrNodeNotFound reports a node ID absent from the graph.
var ErrNodeNotFound = errors.New("node not found")

// legacyEncodings are attempted in order when a file is not valid UTF-8.
var legacyEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"latin-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

// ReadLines reads the inclusive 1-indexed [startLine, endLine] range from
// a file, joined by newlines. endLine beyond the last line is clamped.
// Returns an error wrapping fs.ErrNotExist when the file is missing and
// ErrInvalidRange when the range itself is malformed.
func ReadLines(path string, startLine, endLine int) (string, error) {
	if startLine < 1 || endLine < startLine {
		return "", fmt.Errorf("%w: start_line=%d, end_line=%d", ErrInvalidRange, startLine, endLine)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}

	text, usedEncoding := decode(path, raw)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if startLine > len(lines) {
		return "", nil
	}
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}

	slog.Debug("lines read", "file", path, "start", startLine, "end", end, "encoding", usedEncoding)
	return strings.Join(lines[startLine-1:end], "\n"), nil
}

// decode tries UTF-8 first, then the legacy 8-bit encodings, and falls
// back to lossy replacement decoding as a last resort.
func decode(path string, raw []byte) (string, string) {
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}

	for _, candidate := range legacyEncodings {
		decoded, err := candidate.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		slog.Debug("non-utf8 source decoded", "file", path, "encoding", candidate.name)
		return string(decoded), candidate.name
	}

	slog.Warn("encoding fallback to lossy decode", "file", path)
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), "utf-8(replace)"
}

// NodeContent looks a node up by ID and reads its source from disk via
// its pointer. repoRoot resolves the node's repo-relative filepath.
func NodeContent(graph *models.CodeGraph, nodeID, repoRoot string) (string, error) {
	node := graph.FindNode(nodeID)
	if node == nil {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	absPath := filepath.Join(repoRoot, filepath.FromSlash(node.Filepath))
	return ReadLines(absPath, node.StartLine, node.EndLine)
}

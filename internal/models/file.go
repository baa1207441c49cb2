package models

import (
	"path/filepath"
	"strings"
)

// LanguageByExtension maps file extensions to the language tags used by
// the parser registry.
var LanguageByExtension = map[string]string{
	".py":  "python",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
}

// DetectLanguage returns the language tag for a path, or "" when the
// extension has no registered parser.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return LanguageByExtension[ext]
}

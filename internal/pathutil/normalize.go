package pathutil

import (
	"path/filepath"
	"strings"
)

// SVGExt is the extension selected from a source directory.
const SVGExt = ".svg"

// Normalize returns a canonical filesystem path string.
// It removes trailing slashes, collapses "." and "..", and
// preserves relative paths when provided.
func Normalize(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}

// IsSVG reports whether name ends in ".svg", ignoring case.
func IsSVG(name string) bool {
	return len(name) >= len(SVGExt) && strings.EqualFold(name[len(name)-len(SVGExt):], SVGExt)
}

// Within reports whether child is parent or lies beneath it. Both paths are
// made absolute first; symlinks are not resolved.
func Within(parent, child string) bool {
	p, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	c, err := filepath.Abs(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(p, c)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

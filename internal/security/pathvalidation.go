// Package security guards the file names the report writer derives from
// recording names.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscapes is returned when an output path resolves outside its
// output directory.
var ErrPathEscapes = errors.New("path escapes output directory")

// maxFilenameLen bounds names derived from recording identifiers.
const maxFilenameLen = 128

// WithinDirectory checks lexically that path stays inside dir once both
// are cleaned. Report outputs may live on an in-memory filesystem, so no
// symlinks are resolved here.
func WithinDirectory(path, dir string) error {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPathEscapes, path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscapes, path, dir)
	}
	return nil
}

// SanitizeFilename turns a recording name into a single path element.
// Runs of characters other than ASCII letters, digits, '.', '_' and '-'
// become one underscore; leading and trailing dots and underscores are
// trimmed. An empty result is "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		if safeRune(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

func safeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}

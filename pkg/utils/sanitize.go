// Package utils provides filename sanitization and query preprocessing
// shared across the search pipeline.
package utils

import (
	"os"
	"strings"
)

// SanitizeFilename keeps only alphanumerics, dot, underscore, and dash.
// Everything else becomes an underscore.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isFilenameSafe(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isFilenameSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}

// SanitizePath sanitizes each component of a filesystem path, preserving
// a leading separator for absolute paths.
func SanitizePath(path string) string {
	sep := string(os.PathSeparator)
	parts := strings.Split(path, sep)
	sanitized := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		sanitized = append(sanitized, SanitizeFilename(p))
	}
	joined := strings.Join(sanitized, sep)
	if strings.HasPrefix(path, sep) {
		return sep + joined
	}
	return joined
}

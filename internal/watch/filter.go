package watch

import (
	"path/filepath"
	"strings"
)

// ShouldIgnore reports whether a change to path must not trigger a rebuild:
// hidden files and editor swap or temp files.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) ||
		base == "4913" {
		return true
	}
	return false
}

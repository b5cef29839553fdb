package render

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed defaults/*.html
var defaultTemplates embed.FS

// WriteDefaults writes the starter index and article templates into dir under
// the given names. Existing files are left alone unless force is set.
func WriteDefaults(dir, indexName, articleName string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template dir: %w", err)
	}

	pairs := []struct{ src, dst string }{
		{"defaults/index_template.html", indexName},
		{"defaults/article_template.html", articleName},
	}
	var written []string
	for _, p := range pairs {
		dst := filepath.Join(dir, p.dst)
		if _, err := os.Stat(dst); err == nil && !force {
			continue
		}
		data, err := defaultTemplates.ReadFile(p.src)
		if err != nil {
			return written, fmt.Errorf("read embedded template %s: %w", p.src, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, fmt.Errorf("write template %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}

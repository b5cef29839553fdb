package config

import "path/filepath"

// SiteDir returns the output directory for a site identifier.
func (s *Settings) SiteDir(site string) string {
	return filepath.Join(s.Output.BaseDirectory, site)
}

// TemplatePath returns the full path of a named template.
func (s *Settings) TemplatePath(name string) string {
	return filepath.Join(s.Templates.Dir, name)
}

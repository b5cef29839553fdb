package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeySite       = "site"
	KeyPath       = "path"
	KeyArticleID  = "article_id"
	KeyTemplate   = "template"
	KeyOp         = "op"
	KeyTrigger    = "trigger"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Site(s string) slog.Attr         { return slog.String(KeySite, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func ArticleID(id int) slog.Attr      { return slog.Int(KeyArticleID, id) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Op(op string) slog.Attr          { return slog.String(KeyOp, op) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

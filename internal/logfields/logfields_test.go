package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies helper key stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, BuildID("b1")},
		{"Stage", KeyStage, Stage("rendering")},
		{"DurationMS", KeyDurationMS, DurationMS(1.5)},
		{"Site", KeySite, Site("example.com")},
		{"Path", KeyPath, Path("/tmp/x")},
		{"ArticleID", KeyArticleID, ArticleID(3)},
		{"Template", KeyTemplate, Template("index_template.html")},
		{"Op", KeyOp, Op("push")},
		{"Trigger", KeyTrigger, Trigger("quiet")},
		{"Count", KeyCount, Count(2)},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should be empty, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error value %q", a.Value.String())
	}
}

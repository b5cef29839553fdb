package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func TestClassifiedError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ClassifiedError
		expected string
	}{
		{
			name:     "error without cause",
			err:      ValidationError("site name invalid").Build(),
			expected: "[validation:fatal] site name invalid",
		},
		{
			name:     "error with cause",
			err:      ConfigReadError("config.json", fmt.Errorf("file not found")).Build(),
			expected: "[config_read:error] cannot read catalog: file not found",
		},
		{
			name:     "publish is a warning",
			err:      PublishError("push", fmt.Errorf("exit status 128")).Build(),
			expected: "[publish:warning] publish step failed: exit status 128",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.err.Error(); got != test.expected {
				t.Errorf("Error() = %q, want %q", got, test.expected)
			}
		})
	}
}

func TestClassifiedError_WithContextDoesNotMutate(t *testing.T) {
	base := ArticleReadError("articles/a.md", io.EOF).Build()
	derived := base.WithContext("article_id", 4)

	if _, ok := base.Context().Get("article_id"); ok {
		t.Fatal("WithContext mutated the original error")
	}
	if v, _ := derived.Context().Get("article_id"); v != 4 {
		t.Errorf("article_id = %v, want 4", v)
	}
	if p, _ := derived.Context().GetString("path"); p != "articles/a.md" {
		t.Errorf("path = %q, want articles/a.md", p)
	}
}

func TestAsClassifiedFindsWrappedErrors(t *testing.T) {
	inner := TemplateError("index_template.html", io.ErrUnexpectedEOF).Build()
	wrapped := fmt.Errorf("rendering: %w", inner)

	got, ok := AsClassified(wrapped)
	if !ok {
		t.Fatal("expected classified error in chain")
	}
	if got.Category() != CategoryTemplate {
		t.Errorf("Category = %v, want %v", got.Category(), CategoryTemplate)
	}
	if !HasCategory(wrapped, CategoryTemplate) {
		t.Error("HasCategory should see through fmt wrapping")
	}
	if !stdErrors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("cause should remain reachable via errors.Is")
	}
	if GetCategory(io.EOF) != CategoryInternal {
		t.Error("unclassified errors should report CategoryInternal")
	}
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", fmt.Errorf("boom"), 1},
		{"validation", ValidationError("bad site").Build(), 2},
		{"config parse", ConfigParseError("c.json", io.EOF).Build(), 7},
		{"publish", PublishError("push", io.EOF).Build(), 8},
		{"output", OutputDirError("site", io.EOF).Build(), 11},
		{"runtime", RuntimeError("watcher died").Build(), 12},
		{"internal", InternalError("bug").Build(), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	code := -1
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.out = &out
	a.exit = func(c int) { code = c }

	a.HandleError(ValidationError("invalid site name: x").Build())

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if got := out.String(); got != "invalid site name: x\n" {
		t.Errorf("output = %q", got)
	}
}

package markdown_test

import (
	"strings"
	"testing"

	"studyhub/internal/platform/markdown"
)

func TestParseWithoutHeader(t *testing.T) {
	t.Parallel()
	note, err := markdown.Parse("# Week\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(note.Meta) != 0 || note.Body != "# Week\n" {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	t.Parallel()
	rendered, err := markdown.Note{Meta: map[string]any{"week": "2026-W42"}, Body: "# Week"}.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(rendered, "---\nweek: 2026-W42\n---\n\n# Week\n") {
		t.Fatalf("unexpected render:\n%s", rendered)
	}
	note, err := markdown.Parse(rendered)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if note.Meta["week"] != "2026-W42" || note.Body != "# Week\n" {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestParseMissingFence(t *testing.T) {
	t.Parallel()
	if _, err := markdown.Parse("---\nweek: x\n# body"); err == nil {
		t.Fatalf("expected error for unterminated header")
	}
}

func TestBlockReplaceKeepsSurroundingText(t *testing.T) {
	t.Parallel()
	block := markdown.Block{Name: "goals"}
	body := block.Replace("# Week\n\nmy notes\n", "first")
	body = block.Replace(body, "second")

	if strings.Count(body, "studyhub:goals:start") != 1 {
		t.Fatalf("block duplicated:\n%s", body)
	}
	if !strings.Contains(body, "my notes") {
		t.Fatalf("hand-written text lost:\n%s", body)
	}
	got, ok := block.Contents(body)
	if !ok || got != "second" {
		t.Fatalf("contents = %q, %v", got, ok)
	}
}

func TestBlockReplaceEmptyBody(t *testing.T) {
	t.Parallel()
	got := markdown.Block{Name: "x"}.Replace("", "gen")
	want := "<!-- studyhub:x:start -->\ngen\n<!-- studyhub:x:end -->\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"studyhub/internal/modules/subject/domain"
	subjectout "studyhub/internal/modules/subject/port/out"
	"studyhub/internal/platform/markdown"
	"studyhub/internal/platform/slug"
)

var outlineBlock = markdown.Block{Name: "outline"}

// VaultSubjectExporter writes <dir>/subjects/<slug>.md. Re-exports only
// rewrite the outline block.
type VaultSubjectExporter struct {
	dir string
}

func NewVaultSubjectExporter(dir string) subjectout.NoteExporter {
	return &VaultSubjectExporter{dir: filepath.Join(dir, "subjects")}
}

func (e *VaultSubjectExporter) Export(_ context.Context, subject domain.Subject) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create subject dir: %w", err)
	}
	path := filepath.Join(e.dir, slug.Make(subject.Name)+".md")

	note := markdown.Note{Body: "# " + subject.Name + "\n"}
	if existing, err := os.ReadFile(path); err == nil {
		if parsed, parseErr := markdown.Parse(string(existing)); parseErr == nil && strings.TrimSpace(parsed.Body) != "" {
			note.Body = parsed.Body
		}
	}
	note.Body = outlineBlock.Replace(note.Body, renderOutline(subject))
	note.Meta = map[string]any{
		"subject_id": subject.ID,
		"color":      subject.Color,
		"sections":   len(subject.Sections),
		"topics":     subject.TopicCount(),
	}
	rendered, err := note.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write subject note: %w", err)
	}
	return path, nil
}

func renderOutline(subject domain.Subject) string {
	if len(subject.Sections) == 0 {
		return "_No sections yet._"
	}
	var sb strings.Builder
	for _, sec := range subject.Sections {
		fmt.Fprintf(&sb, "## %s\n\n", sec.Name)
		for _, t := range sec.Topics {
			fmt.Fprintf(&sb, "- %s", t.Name)
			if t.Notes != "" {
				fmt.Fprintf(&sb, ": %s", t.Notes)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

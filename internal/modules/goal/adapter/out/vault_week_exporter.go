package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"studyhub/internal/modules/goal/domain"
	goalout "studyhub/internal/modules/goal/port/out"
	weekdomain "studyhub/internal/modules/week/domain"
	"studyhub/internal/platform/markdown"
)

var goalsBlock = markdown.Block{Name: "goals"}

// VaultWeekExporter writes one Markdown note per week. Text outside the
// managed block survives re-exports.
type VaultWeekExporter struct {
	dir string
}

func NewVaultWeekExporter(dir string) goalout.WeekExporter {
	return &VaultWeekExporter{dir: filepath.Join(dir, "weeks")}
}

func (e *VaultWeekExporter) Export(_ context.Context, window weekdomain.Window, goals []domain.WeeklyGoal) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.dir, window.Key()+".md")

	note := markdown.Note{Body: fmt.Sprintf("# Week %s\n\n## Notes\n", window.Label())}
	if existing, err := os.ReadFile(path); err == nil {
		if parsed, parseErr := markdown.Parse(string(existing)); parseErr == nil && strings.TrimSpace(parsed.Body) != "" {
			note.Body = parsed.Body
		}
	}
	note.Body = goalsBlock.Replace(note.Body, renderGoals(goals))

	summary := domain.WeekSummary(goals, window.Start)
	note.Meta = map[string]any{
		"schema_version":   domain.SchemaVersion,
		"week":             window.Key(),
		"week_start":       window.Start.Format("2006-01-02"),
		"week_end":         window.End.Format("2006-01-02"),
		"goal_count":       summary.Count,
		"completed_topics": summary.CompletedTopics,
		"total_topics":     summary.TotalTopics,
	}
	rendered, err := note.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write week note: %w", err)
	}
	return path, nil
}

func renderGoals(goals []domain.WeeklyGoal) string {
	if len(goals) == 0 {
		return "_No goals this week._"
	}
	var sb strings.Builder
	for i, g := range goals {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "### %s (%d%%)\n\n", g.Subject, domain.Progress(g))
		if len(g.Topics) == 0 {
			sb.WriteString("_No topics._\n")
			continue
		}
		for _, t := range g.Topics {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Fprintf(&sb, "- [%s] %s\n", mark, t.Title)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

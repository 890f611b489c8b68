package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"

	"studyhub/internal/ui/theme"
)

// ProgressBar renders a static bar for a 0..100 percentage followed by the
// number, e.g. "██████░░░░ 60%".
func ProgressBar(percent, width int) string {
	if width < 4 {
		width = 4
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	bar := progress.New(
		progress.WithSolidFill(string(theme.Green)),
		progress.WithoutPercentage(),
		progress.WithWidth(width),
	)
	bar.EmptyColor = string(theme.Surface1)
	return fmt.Sprintf("%s %3d%%", bar.ViewAs(float64(percent)/100), percent)
}

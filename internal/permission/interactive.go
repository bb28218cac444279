package permission

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/huh"
)

// Interactive prompts on the terminal before each gated tool call.
// Escape or Ctrl+C counts as a denial.
type Interactive struct{}

// Allow renders a confirm form and blocks until the user answers.
func (Interactive) Allow(toolName, detail string) bool {
	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Allow %s?", toolName)).
			Description(detail).
			Affirmative("Allow").
			Negative("Deny").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		slog.Debug("permission prompt aborted", "tool", toolName, "error", err)
		return false
	}
	return confirmed
}

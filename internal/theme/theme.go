package theme

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
)

// Colors
var (
	Primary = lipgloss.Color("#33A8FF")
	Muted   = lipgloss.Color("#6B7280")
	Success = lipgloss.Color("#10B981")
	Error   = lipgloss.Color("#EF4444")
)

// Shared styles
var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	RetryStyle = lipgloss.NewStyle().
			Foreground(Error)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
)

// StatusColor maps a policy version state to a theme color: the default
// version is highlighted, stored versions are muted.
func StatusColor(status string) color.Color {
	if strings.EqualFold(status, "default") {
		return Success
	}
	return Muted
}

// RenderStatus renders a status string with a colored bullet.
func RenderStatus(status string) string {
	c := StatusColor(status)
	bullet := lipgloss.NewStyle().Foreground(c).Render("●")
	return bullet + " " + status
}

// Retry writes the red "retry N times" notice shown between attempts.
func Retry(w io.Writer, attempt int) {
	if w == nil {
		return
	}
	lipgloss.Fprintln(w, RetryStyle.Render(fmt.Sprintf("retry %d times", attempt)))
}

// Done writes a green success line.
func Done(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	lipgloss.Fprintln(w, SuccessStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// Failed writes a bold red failure line.
func Failed(w io.Writer, err error) {
	if w == nil || err == nil {
		return
	}
	lipgloss.Fprintln(w, ErrorStyle.Render("✗ "+err.Error()))
}

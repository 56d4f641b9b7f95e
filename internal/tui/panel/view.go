package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/forcequit/fq/internal/terminate"
	"github.com/forcequit/fq/internal/ui"
)

// Styles for the panel
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.ColorQuit)

	descStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorQuit)

	disabledButtonStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ui.ColorMuted).
				Foreground(ui.ColorMuted)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	preservedStyle = lipgloss.NewStyle().Foreground(ui.ColorPass)
	quitStyle      = lipgloss.NewStyle().Foreground(ui.ColorQuit)
	failStyle      = lipgloss.NewStyle().Foreground(ui.ColorFail)
	mutedStyle     = lipgloss.NewStyle().Foreground(ui.ColorMuted)

	trayStyle = lipgloss.NewStyle().
			Foreground(ui.ColorQuit).
			Bold(true)
)

const (
	buttonLabel  = "Force Quit All Non-Essential Applications"
	runningLabel = "Force Quitting..."
)

// renderView renders the full panel.
func (m *Model) renderView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("fq"))
	b.WriteString("\n")
	b.WriteString(descStyle.Render("Force quit all non-essential applications"))
	b.WriteString("\n\n")

	if m.state == StateRunning {
		b.WriteString(disabledButtonStyle.Render(runningLabel))
	} else {
		b.WriteString(buttonStyle.Render(buttonLabel))
	}
	b.WriteString("\n")

	switch m.state {
	case StateConfirming:
		b.WriteString(dialogStyle.BorderForeground(ui.ColorWarn).Render(
			ui.RenderWarn(ui.IconWarn+" Confirm Force Quit") + "\n\n" +
				"This will force quit all non-essential applications.\n" +
				"Essential system processes and development tools will be preserved.\n\n" +
				"Continue? [y/N]"))
		b.WriteString("\n")

	case StateDone:
		b.WriteString(dialogStyle.BorderForeground(ui.ColorPass).Render(m.renderResult()))
		b.WriteString("\n")

	case StateError:
		b.WriteString(dialogStyle.BorderForeground(ui.ColorFail).Render(
			ui.RenderFail(ui.IconFail+" Error") + "\n\n" +
				fmt.Sprintf("An error occurred: %v", m.err)))
		b.WriteString("\n")
	}

	if len(m.events) > 0 {
		b.WriteString("\n")
		b.WriteString(m.log.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// renderResult renders the completion report.
func (m *Model) renderResult() string {
	t := m.tally
	var b strings.Builder
	heading := "Force Quit Complete"
	if t.DryRun {
		heading = "Dry Run Complete"
	}
	b.WriteString(ui.RenderPass(ui.IconPass + " " + heading))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Applications quit: %d\n", t.Quit)
	fmt.Fprintf(&b, "Essential apps preserved: %d", t.Preserved)
	if n := len(t.Failures); n > 0 {
		b.WriteString("\n")
		b.WriteString(ui.RenderWarn(fmt.Sprintf("%d step(s) reported errors", n)))
	}
	return b.String()
}

// renderEvents renders one line per application event.
func (m *Model) renderEvents() string {
	lines := make([]string, 0, len(m.events))
	for _, e := range m.events {
		lines = append(lines, renderEvent(e))
	}
	return strings.Join(lines, "\n")
}

func renderEvent(e terminate.Event) string {
	switch e.Kind {
	case terminate.EventPreserved:
		line := fmt.Sprintf("%s %s", ui.IconPreserve, e.Name)
		if e.Verdict.Match != "" {
			line += mutedStyle.Render(fmt.Sprintf("  (%s %q)", e.Verdict.Reason, e.Verdict.Match))
		}
		return preservedStyle.Render(line)
	case terminate.EventQuit:
		return quitStyle.Render(fmt.Sprintf("%s %s", ui.IconQuit, e.Name))
	case terminate.EventWouldQuit:
		return quitStyle.Render(fmt.Sprintf("%s %s", ui.IconQuit, e.Name)) + mutedStyle.Render("  (dry run)")
	case terminate.EventKillSkipped:
		return mutedStyle.Render(fmt.Sprintf("  %s quit cleanly", e.Name))
	case terminate.EventQuitFailed:
		return failStyle.Render(fmt.Sprintf("  %s quit: %v", e.Name, e.Err))
	case terminate.EventKillFailed:
		return failStyle.Render(fmt.Sprintf("  %s kill: %v", e.Name, e.Err))
	case terminate.EventEnumerationFailed:
		return failStyle.Render(fmt.Sprintf("%s could not list applications: %v", ui.IconFail, e.Err))
	}
	return mutedStyle.Render(string(e.Kind))
}

// renderTrayBar renders the collapsed single-line form.
func (m *Model) renderTrayBar() string {
	var status string
	switch m.state {
	case StateRunning:
		status = fmt.Sprintf("running (%d)", len(m.events))
	case StateDone:
		status = fmt.Sprintf("%d quit, %d preserved", m.tally.Quit, m.tally.Preserved)
	case StateError:
		status = "error"
	case StateConfirming:
		status = "confirm?"
	default:
		status = "idle"
	}
	return fmt.Sprintf("%s %s  %s",
		trayStyle.Render("⊗ fq"),
		status,
		mutedStyle.Render("f force quit · h show · q exit"))
}

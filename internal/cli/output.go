package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// reporter prints cargo-style "label message" status lines. Labels are
// coloured only when the destination is a terminal.
type reporter struct {
	out, err     io.Writer
	status, warn lipgloss.Style
}

func newReporter(out, errOut io.Writer) *reporter {
	return &reporter{
		out:    out,
		err:    errOut,
		status: lipgloss.NewRenderer(out).NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		warn:   lipgloss.NewRenderer(errOut).NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
	}
}

// Status prints an informational line to stdout.
func (r *reporter) Status(label, msg string) {
	fmt.Fprintf(r.out, "%s %s\n", r.status.Render(label), msg)
}

// Warn prints a warning to stderr. It satisfies workspace.Reporter.
func (r *reporter) Warn(label, msg string) {
	fmt.Fprintf(r.err, "%s %s: %s\n", r.warn.Render("warn"), label, msg)
}

// printError reports a fatal command error.
func printError(w io.Writer, err error) {
	style := lipgloss.NewRenderer(w).NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	fmt.Fprintf(w, "%s %v\n", style.Render("error:"), err)
}

package output

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Color constants using the ANSI 256-color palette.
const (
	// ColorPrimary is used for headers (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for positive status indicators (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorDanger is used for deletions (red).
	ColorDanger = lipgloss.Color("196")

	// ColorMuted is used for secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	labelStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	stagedStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	deleteStyle = lipgloss.NewStyle().Foreground(ColorDanger)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
)

// PrettyFormatter formats output with lipgloss styling for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	title := "Patch generation"
	if r.Operation == "reconcile" {
		title = "Tree reconciliation"
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	if r.Skipped {
		fmt.Fprintln(w, mutedStyle.Render("  skipped: no manifest to work against"))
		return nil
	}

	if r.Mode != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("mode:"), r.Mode)
	}
	if r.Operation == "generate" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("staged:"),
			stagedStyle.Render(fmt.Sprintf("%d files (%s)", r.FilesStaged, humanize.IBytes(r.BytesStaged))))
	}
	if r.FilesScanned > 0 {
		fmt.Fprintf(w, "  %s %d files\n", labelStyle.Render("scanned:"), r.FilesScanned)
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("deleted:"),
		deleteStyle.Render(fmt.Sprintf("%d", r.FilesDeleted)))
	if r.DirsPruned > 0 {
		fmt.Fprintf(w, "  %s %d\n", labelStyle.Render("pruned:"), r.DirsPruned)
	}
	if r.ArchivePath != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("archive:"), r.ArchivePath)
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("elapsed:"), mutedStyle.Render(r.Elapsed.String()))

	return nil
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)

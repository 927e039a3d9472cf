package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// PlainFormatter formats output as simple tab-separated text.
// It produces plain output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Skipped {
		_, err := fmt.Fprintf(w, "%s: skipped (no manifest)\n", r.Operation)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	rows := [][2]string{
		{"operation", r.Operation},
	}
	if r.Mode != "" {
		rows = append(rows, [2]string{"mode", r.Mode})
	}
	if r.Operation == "generate" {
		rows = append(rows,
			[2]string{"staged", fmt.Sprintf("%d (%s)", r.FilesStaged, humanize.IBytes(r.BytesStaged))},
		)
	}
	if r.FilesScanned > 0 {
		rows = append(rows, [2]string{"scanned", fmt.Sprintf("%d", r.FilesScanned)})
	}
	rows = append(rows, [2]string{"deleted", fmt.Sprintf("%d", r.FilesDeleted)})
	if r.DirsPruned > 0 {
		rows = append(rows, [2]string{"pruned", fmt.Sprintf("%d", r.DirsPruned)})
	}
	if r.ArchivePath != "" {
		rows = append(rows, [2]string{"archive", r.ArchivePath})
	}
	rows = append(rows, [2]string{"elapsed", r.Elapsed.String()})

	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)

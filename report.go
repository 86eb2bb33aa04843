package pageprobe

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	notRunStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	detailStyle = lipgloss.NewStyle().PaddingLeft(4)
)

func statusLabel(st Status) string {
	label := fmt.Sprintf("%-7s", st)
	switch st {
	case Passed:
		return passStyle.Render(label)
	case Failed:
		return failStyle.Render(label)
	default:
		return notRunStyle.Render(label)
	}
}

// WriteReport writes one line per case followed by a summary. Failure
// details are indented under the failed case.
func WriteReport(w io.Writer, r RunResult) error {
	var b strings.Builder
	for i, c := range r.Cases {
		fmt.Fprintf(&b, "%s %d. %s", statusLabel(c.Status), i+1, c.Name)
		if c.Status != NotRun {
			fmt.Fprintf(&b, " (%v)", c.Duration.Round(time.Millisecond))
		}
		b.WriteByte('\n')
		if c.Detail != "" {
			b.WriteString(detailStyle.Render(c.Detail))
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "\n%d passed, %d failed, %d not run in %v\n",
		r.Count(Passed), r.Count(Failed), r.Count(NotRun), r.Duration.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSONReport writes r as indented JSON.
func WriteJSONReport(w io.Writer, r RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("pageprobe: report: %w", err)
	}
	return nil
}

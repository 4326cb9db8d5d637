package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// durationPrecision keeps rendered case durations readable.
const durationPrecision = time.Millisecond

var (
	reportTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86")).
				Bold(true)

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	timeoutStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// Render formats the report for terminal output: a per-category summary,
// failing case details, and the final verdict line. Verbose additionally
// lists every passing case.
func (r *Report) Render(verbose bool) string {
	var b strings.Builder

	b.WriteString(reportTitleStyle.Render("Package verification report"))
	b.WriteString("\n\n")

	perCategory := r.PerCategory()
	for _, category := range Categories() {
		results := perCategory[category]
		if len(results) == 0 {
			continue
		}

		passed := 0
		for _, res := range results {
			if res.Passed {
				passed++
			}
		}

		b.WriteString(categoryStyle.Render(string(category)))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d passed", passed, len(results))))
		b.WriteString("\n")

		for _, res := range results {
			switch {
			case res.Passed:
				if verbose {
					b.WriteString("  " + passStyle.Render("✓") + " " + res.Name)
					b.WriteString(dimStyle.Render("  " + res.Duration.Round(durationPrecision).String()))
					b.WriteString("\n")
				}
			case res.TimedOut:
				b.WriteString("  " + timeoutStyle.Render("⧖ "+res.Name+" (timed out)") + "\n")
				writeIndentedOutput(&b, res.Output)
			default:
				b.WriteString("  " + failStyle.Render("✗ "+res.Name) + "\n")
				writeIndentedOutput(&b, res.Output)
			}
		}
		b.WriteString("\n")
	}

	summary := fmt.Sprintf("%d total, %d passed, %d failed", r.Total(), r.Passed(), r.Failed())
	if r.Failed() == 0 {
		b.WriteString(passStyle.Render("✅ " + summary))
	} else {
		b.WriteString(failStyle.Render("❌ " + summary))
	}
	b.WriteString("\n")

	return b.String()
}

func writeIndentedOutput(b *strings.Builder, output string) {
	if output == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		b.WriteString(dimStyle.Render("      "+line) + "\n")
	}
}

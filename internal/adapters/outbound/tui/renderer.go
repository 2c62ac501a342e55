// Package tui renders run results for the terminal.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openkraft/headeraudit/internal/domain"
)

var (
	accent    = lipgloss.Color("#2563EB") // blue
	fg        = lipgloss.Color("#E8E6E3") // light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	idStyle       = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// NothingToReport is printed when a run produced no discrepancies.
const NothingToReport = "nothing to report"

// RenderSummary formats a finished run: counters, skip reasons and the
// discrepancy table in manifest order.
func RenderSummary(s *domain.RunSummary) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("headeraudit")
	subtitle := dimStyle.Render(s.Manifest)
	if s.SourceRevision != "" {
		subtitle += "\n" + faintStyle.Render("source @ "+shortHash(s.SourceRevision))
	}
	verdict := passStyle.Bold(true).Render("all headers match")
	if s.Flagged > 0 {
		verdict = failStyle.Bold(true).Render(fmt.Sprintf("%d mismatched", s.Flagged))
	}
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + verdict))
	b.WriteString("\n\n")

	// ── Counters ──
	checked := s.OK + s.Flagged
	fmt.Fprintf(&b, "  %s %s\n", padRight("rows read", 20), dimStyle.Render(fmt.Sprintf("%d", s.RowsRead)))
	if s.RowsDropped > 0 {
		fmt.Fprintf(&b, "  %s %s\n", padRight("dropped", 20), warnStyle.Render(fmt.Sprintf("%d incomplete", s.RowsDropped)))
	}
	fmt.Fprintf(&b, "  %s %s  %s\n", padRight("confirmed", 20), ratioBar(s.OK, checked, 20), passStyle.Render(fmt.Sprintf("%d", s.OK)))
	fmt.Fprintf(&b, "  %s %s  %s\n", padRight("flagged", 20), ratioBar(s.Flagged, checked, 20), failStyle.Render(fmt.Sprintf("%d", s.Flagged)))

	for _, reason := range sortedReasons(s.Skipped) {
		fmt.Fprintf(&b, "    %s %s %s\n",
			skipStyle.Render("○"),
			skipStyle.Render(padRight("skipped: "+reason, 32)),
			skipStyle.Render(fmt.Sprintf("%d", s.Skipped[reason])),
		)
	}

	b.WriteString("\n")
	b.WriteString("  " + separatorLine)
	b.WriteString("\n\n")

	// ── Discrepancies ──
	if len(s.Discrepancies) == 0 {
		b.WriteString("  " + passStyle.Render(NothingToReport) + "\n\n")
		return b.String()
	}

	b.WriteString("  " + titleStyle.Render("Discrepancies") + "\n\n")
	for _, d := range s.Discrepancies {
		renderDiscrepancy(&b, d)
	}
	if s.ReportPath != "" {
		b.WriteString("\n  " + dimStyle.Render("report written to "+s.ReportPath) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func renderDiscrepancy(b *strings.Builder, d domain.Discrepancy) {
	actual := d.Actual()
	if actual == "" {
		actual = "(unknown)"
	}
	fmt.Fprintf(b, "    %s %s  %s %s %s\n",
		failStyle.Render("●"),
		idStyle.Render(padRight(d.ID, 12)),
		dimStyle.Render(actual),
		faintStyle.Render("→"),
		passStyle.Render(d.ExpectedLabel),
	)
}

// RenderClassification formats the result of classifying one local file.
func RenderClassification(path string, template domain.DeclaredTemplate, expected domain.Variant, ok bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s %s\n", padRight("file", 10), dimStyle.Render(path))
	fmt.Fprintf(&b, "  %s %s\n", padRight("template", 10), titleStyle.Render(string(template)))
	if !ok {
		fmt.Fprintf(&b, "  %s %s\n", padRight("expected", 10), skipStyle.Render("no expectation for this template"))
		return b.String()
	}
	fmt.Fprintf(&b, "  %s %s %s\n", padRight("expected", 10),
		passStyle.Render(string(expected)),
		dimStyle.Render("("+expected.Label()+")"))
	return b.String()
}

// RenderVariants lists the known marker tokens and their labels.
func RenderVariants() string {
	var b strings.Builder
	for _, v := range domain.KnownVariants {
		fmt.Fprintf(&b, "  %s %s\n", titleStyle.Render(padRight(string(v), 22)), dimStyle.Render(v.Label()))
	}
	return b.String()
}

func sortedReasons(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k, n := range m {
		if n > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func ratioBar(n, total, width int) string {
	filled := 0
	if total > 0 {
		filled = max(0, min(n*width/total, width))
	}
	empty := width - filled

	color := success
	if n > 0 && total > 0 && n*2 < total {
		color = warning
	}
	filledStr := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	emptyStr := lipgloss.NewStyle().Foreground(faint).Render(strings.Repeat("░", empty))
	return filledStr + emptyStr
}

func shortHash(h string) string {
	if len(h) > 7 && !strings.HasSuffix(h, "-dirty") {
		return h[:7]
	}
	if i := strings.Index(h, "-"); i > 7 {
		return h[:7] + h[i:]
	}
	return h
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderHistory formats past runs, oldest first, with the change in flagged
// pages against the previous run.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No audit history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Audit History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := shortHash(e.SourceRevision)
		if hash == "" {
			hash = "·······"
		}
		day := e.Timestamp
		if len(day) > 10 {
			day = day[:10]
		}

		flagged := passStyle.Render("0 flagged")
		if e.Flagged > 0 {
			flagged = failStyle.Render(fmt.Sprintf("%d flagged", e.Flagged))
		}

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(day),
			faintStyle.Render(hash),
			dimStyle.Render(fmt.Sprintf("%d/%d ok", e.OK, e.Rows)),
			flagged,
		)

		if i > 0 {
			diff := e.Flagged - entries[i-1].Flagged
			if diff > 0 {
				line += "  " + failStyle.Render(fmt.Sprintf("↑%d", diff))
			} else if diff < 0 {
				line += "  " + passStyle.Render(fmt.Sprintf("↓%d", -diff))
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

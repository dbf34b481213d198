package tui

import (
	"fmt"
	"strings"

	"github.com/sirenlab/calltriage/internal/assess"
	"github.com/sirenlab/calltriage/internal/policy"
)

// RenderReport formats a one-shot assessment for the terminal.
func RenderReport(report assess.Report) string {
	var b strings.Builder

	sevStyle := StyleLabel.Foreground(SeverityColor(report.Severity.String()))
	b.WriteString(StyleLabel.Render("Severity: "))
	b.WriteString(sevStyle.Render(report.Severity.String()))
	if report.Critical {
		b.WriteString("  " + StyleError.Render("CRITICAL"))
	}
	b.WriteString("\n")

	if len(report.Units) == 0 {
		b.WriteString(StyleMuted.Render("No units recommended."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(StyleLabel.Render("Units:"))
	b.WriteString("\n")
	for _, entry := range report.Rationales {
		line := fmt.Sprintf("  %-10s %s", entry.Unit, StyleMuted.Render(entry.Rationale))
		b.WriteString(line)
		b.WriteString("\n")
	}

	if report.SuggestedCount > 0 {
		b.WriteString(StyleLabel.Render("Suggested victim count: "))
		b.WriteString(fmt.Sprintf("%d", report.SuggestedCount))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderUpdate formats one live recommendation update for the feed
// command, compact enough to interleave with transcript lines.
func RenderUpdate(units []policy.RationaleEntry, severity policy.Severity) string {
	names := make([]string, len(units))
	for i, entry := range units {
		names[i] = string(entry.Unit)
	}

	sevStyle := StyleLabel.Foreground(SeverityColor(severity.String()))
	head := fmt.Sprintf("%s %s", sevStyle.Render("["+severity.String()+"]"), strings.Join(names, ", "))

	var b strings.Builder
	b.WriteString(head)
	for _, entry := range units {
		b.WriteString("\n")
		b.WriteString(StyleSubtle.Render("    " + entry.Rationale))
	}
	return b.String()
}

// RenderRules formats the active rule table.
func RenderRules(rules []policy.Rule) string {
	if len(rules) == 0 {
		return StyleMuted.Render("No rules loaded.") + "\n"
	}

	var b strings.Builder
	b.WriteString(StyleLabel.Render(fmt.Sprintf("%-24s %-9s %-20s %-9s %s", "ID", "SEVERITY", "UNITS", "CRITICAL", "RATIONALE")))
	b.WriteString("\n")

	for _, rule := range rules {
		units := make([]string, len(rule.Units))
		for i, u := range rule.Units {
			units[i] = string(u)
		}
		critical := fmt.Sprintf("%-9s", "")
		if rule.Critical {
			critical = StyleError.Render(fmt.Sprintf("%-9s", "yes"))
		}

		sevStyle := StyleMuted.Foreground(SeverityColor(rule.Severity.String()))
		b.WriteString(fmt.Sprintf("%-24s %s %-20s %s %s",
			rule.ID,
			sevStyle.Render(fmt.Sprintf("%-9s", rule.Severity)),
			strings.Join(units, ", "),
			critical,
			StyleMuted.Render(rule.Rationale)))
		b.WriteString("\n")
	}

	return b.String()
}

// # cmd/apiscribe/ui.go
package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"apiscribe/internal/core/app"
	"apiscribe/internal/core/config"
	"apiscribe/internal/core/diagnostics"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// formatSummary prints the run totals followed by every diagnostic, once,
// in the collector's sorted order.
func formatSummary(res *app.Result, root string) string {
	var b strings.Builder

	out := res.OutputDir
	if rel, err := filepath.Rel(root, out); err == nil && !strings.HasPrefix(rel, "..") {
		out = rel
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("apiscribe: %s (%s)", res.Project, res.Backend)))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("%d modules, %d pages, %d files -> %s in %v",
		res.Modules, res.Pages, len(res.Files), out, res.Duration.Round(1e6))))
	b.WriteString("\n")

	counts := diagnostics.Counts(res.Diagnostics)
	if !diagnostics.HasWarnings(res.Diagnostics) && len(res.BrokenLinks) == 0 {
		b.WriteString(successStyle.Render("✅ No warnings"))
		b.WriteString("\n")
	} else {
		var parts []string
		for _, kind := range []diagnostics.Kind{
			diagnostics.ParseError,
			diagnostics.DegradedSymbol,
			diagnostics.UnresolvedReference,
			diagnostics.IOWarning,
		} {
			if n := counts[kind]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, kind))
			}
		}
		if n := len(res.BrokenLinks); n > 0 {
			parts = append(parts, fmt.Sprintf("%d broken-link", n))
		}
		b.WriteString(warningStyle.Render("⚠️  " + strings.Join(parts, ", ")))
		b.WriteString("\n")
	}

	for _, d := range res.Diagnostics {
		line := "   " + d.String()
		switch d.Kind.Severity() {
		case diagnostics.SeverityError:
			line = errorStyle.Render(line)
		case diagnostics.SeverityInfo:
			line = statusStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, broken := range res.BrokenLinks {
		b.WriteString("   " + broken.String())
		b.WriteString("\n")
	}
	return b.String()
}

func formatIssues(source string, issues []config.Issue) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("apiscribe check: " + source))
	b.WriteString("\n")
	if len(issues) == 0 {
		b.WriteString(successStyle.Render("✅ Configuration is valid"))
		b.WriteString("\n")
		return b.String()
	}
	for _, issue := range issues {
		style := warningStyle
		if issue.Error {
			style = errorStyle
		}
		b.WriteString(style.Render(issue.String()))
		b.WriteString("\n")
	}
	return b.String()
}

// Package report renders completed analysis results: a sectioned text
// report, TSV rows, a SARIF document and markdown injection between
// marker comments.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pyscan/internal/app"
	"pyscan/internal/diag"
	"pyscan/internal/parser"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	advisoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	cleanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))
)

type TextRenderer struct {
	// Color enables lipgloss styling; plain output is used for files and
	// pipes.
	Color bool
}

// Render produces the per-entity report. Every entity of the file appears,
// with an explicit "no issues found" for clean ones.
func (r *TextRenderer) Render(res app.Result) string {
	var buf strings.Builder

	title := fmt.Sprintf("pyscan report for %s (indent unit %d)", res.File.Name, res.IndentUnit)
	buf.WriteString(r.styled(headerStyle, title))
	buf.WriteString("\n")
	if res.Advisory != "" {
		fmt.Fprintf(&buf, "note: %s\n", res.Advisory)
	}

	byPath := make(map[string][]diag.Diagnostic)
	for _, d := range res.Diagnostics {
		byPath[d.Path] = append(byPath[d.Path], d)
	}

	for _, path := range EntityPaths(res.File) {
		fmt.Fprintf(&buf, "== %s\n", path)
		diags := byPath[path]
		delete(byPath, path)
		if len(diags) == 0 {
			buf.WriteString("   " + r.styled(cleanStyle, "no issues found") + "\n")
			continue
		}
		for _, d := range diags {
			buf.WriteString("   " + r.renderDiag(d) + "\n")
		}
	}

	// Diagnostics for paths outside the entity walk (malformed headers
	// degrade to unnamed entities) still need a home.
	for _, d := range res.Diagnostics {
		if rest, ok := byPath[d.Path]; ok {
			fmt.Fprintf(&buf, "== %s\n", d.Path)
			for _, dd := range rest {
				buf.WriteString("   " + r.renderDiag(dd) + "\n")
			}
			delete(byPath, d.Path)
		}
	}

	return buf.String()
}

func (r *TextRenderer) renderDiag(d diag.Diagnostic) string {
	style := warnStyle
	if d.Severity == diag.SevAdvisory {
		style = advisoryStyle
	}
	label := r.styled(style, fmt.Sprintf("%s [%s]", d.Severity, d.Code))
	if d.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", label, d.Line, d.Message)
	}
	return fmt.Sprintf("%s %s", label, d.Message)
}

func (r *TextRenderer) styled(style lipgloss.Style, s string) string {
	if !r.Color {
		return s
	}
	return style.Render(s)
}

// Summary is the one-line outcome used by watch mode and at the end of a
// run.
func (r *TextRenderer) Summary(res app.Result) string {
	if len(res.Diagnostics) == 0 {
		return r.styled(cleanStyle, fmt.Sprintf("%s: clean", res.File.Name))
	}
	warnings, advisories := 0, 0
	for _, d := range res.Diagnostics {
		if d.Severity == diag.SevAdvisory {
			advisories++
		} else {
			warnings++
		}
	}
	return r.styled(warnStyle, fmt.Sprintf("%s: %d warnings, %d advisories",
		res.File.Name, warnings, advisories))
}

// EntityPaths lists the file and every function and class, depth first in
// source order, using the same path notation diagnostics carry.
func EntityPaths(f *parser.File) []string {
	paths := []string{f.Name}
	var walkFn func(prefix string, fn *parser.Function)
	var walkCl func(prefix string, cl *parser.Class)

	walkFn = func(prefix string, fn *parser.Function) {
		name := fn.Name
		if name == "" {
			name = "<malformed def>"
		}
		path := prefix + " > " + name
		paths = append(paths, path)
		for _, child := range fn.Functions {
			walkFn(path, child)
		}
		for _, child := range fn.Classes {
			walkCl(path, child)
		}
	}
	walkCl = func(prefix string, cl *parser.Class) {
		name := cl.Name
		if name == "" {
			name = "<malformed class>"
		}
		path := prefix + " > " + name
		paths = append(paths, path)
		for _, m := range cl.Methods {
			walkFn(path, m)
		}
		for _, child := range cl.Classes {
			walkCl(path, child)
		}
	}

	for _, fn := range f.Functions {
		walkFn(f.Name, fn)
	}
	for _, cl := range f.Classes {
		walkCl(f.Name, cl)
	}
	return paths
}

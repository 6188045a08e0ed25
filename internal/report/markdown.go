package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pyscan/internal/app"
	"pyscan/internal/diag"
)

// GenerateMarkdown renders results as a markdown fragment: a summary
// table per file plus one bullet list per entity that has findings.
func GenerateMarkdown(results []app.Result) string {
	var buf strings.Builder

	buf.WriteString("## pyscan findings\n\n")
	buf.WriteString("| file | warnings | advisories |\n")
	buf.WriteString("| --- | ---: | ---: |\n")
	for _, res := range results {
		warnings, advisories := 0, 0
		for _, d := range res.Diagnostics {
			if d.Severity == diag.SevAdvisory {
				advisories++
			} else {
				warnings++
			}
		}
		fmt.Fprintf(&buf, "| `%s` | %d | %d |\n", res.Path, warnings, advisories)
	}

	for _, res := range results {
		if len(res.Diagnostics) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n### %s\n\n", res.Path)
		for _, d := range res.Diagnostics {
			if d.Line > 0 {
				fmt.Fprintf(&buf, "- **%s** `%s` line %d: %s\n", d.Code, d.Path, d.Line, d.Message)
			} else {
				fmt.Fprintf(&buf, "- **%s** `%s`: %s\n", d.Code, d.Path, d.Message)
			}
		}
	}

	return buf.String()
}

// InjectReport writes the rendered fragment between marker comments in an
// existing markdown file, replacing whatever was there before. The write
// goes through a temp file in the same directory so a crash never leaves
// the target half-written.
func InjectReport(filePath, marker, fragment string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read markdown file %q: %w", filePath, err)
	}

	next, err := ReplaceBetweenMarkers(string(content), marker, fragment)
	if err != nil {
		return err
	}

	dir := filepath.Dir(filePath)
	tmp, err := os.CreateTemp(dir, ".markdown-inject-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", filePath, err)
	}
	tmpName := tmp.Name()

	writeErr := error(nil)
	if _, err := tmp.WriteString(next); err != nil {
		writeErr = fmt.Errorf("write temp markdown file %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("close temp markdown file %q: %w", tmpName, err)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, filePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace markdown file %q: %w", filePath, err)
	}
	return nil
}

// ReplaceBetweenMarkers swaps the content between
// "<!-- pyscan:MARKER:start -->" and "<!-- pyscan:MARKER:end -->".
// Both markers must appear exactly once.
func ReplaceBetweenMarkers(content, marker, replacement string) (string, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return "", fmt.Errorf("markdown marker must not be empty")
	}

	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}

	start := fmt.Sprintf("<!-- pyscan:%s:start -->", marker)
	end := fmt.Sprintf("<!-- pyscan:%s:end -->", marker)

	startCount := strings.Count(content, start)
	endCount := strings.Count(content, end)
	if startCount != 1 || endCount != 1 {
		return "", fmt.Errorf("markdown marker %q must appear exactly once for start and end", marker)
	}

	startIdx := strings.Index(content, start)
	endIdx := strings.Index(content, end)
	if endIdx < startIdx {
		return "", fmt.Errorf("invalid marker order for %q", marker)
	}

	prefix := content[:startIdx+len(start)]
	suffix := content[endIdx:]
	cleanReplacement := strings.TrimRight(replacement, "\r\n")

	return prefix + newline + cleanReplacement + newline + suffix, nil
}

package report

import (
	"fmt"
	"io"
	"strings"

	"pyscan/internal/app"
)

// WriteTSV emits one row per diagnostic. Columns: file, entity path,
// line, severity, code, message. Tabs and newlines inside messages are
// replaced so rows stay one line each.
func WriteTSV(w io.Writer, results []app.Result) error {
	if _, err := fmt.Fprintln(w, "file\tentity\tline\tseverity\tcode\tmessage"); err != nil {
		return err
	}
	for _, res := range results {
		for _, d := range res.Diagnostics {
			row := strings.Join([]string{
				res.Path,
				d.Path,
				fmt.Sprintf("%d", d.Line),
				d.Severity.String(),
				string(d.Code),
				sanitizeField(d.Message),
			}, "\t")
			if _, err := fmt.Fprintln(w, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

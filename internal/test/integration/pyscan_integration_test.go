package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyscan/internal/app"
	"pyscan/internal/config"
	"pyscan/internal/diag"
	"pyscan/internal/history"
	"pyscan/internal/report"
)

func createTestFiles(t *testing.T, tmpDir string) {
	mainPy := `import os
import sys

def main():
    target = sys.argv[1]
    print(target)

main()
`
	err := os.WriteFile(filepath.Join(tmpDir, "main.py"), []byte(mainPy), 0644)
	require.NoError(t, err)

	shapesPy := `class Rect:
    sides = 4

    def __init__(self, w, h):
        self.w = w
        self.h = h

    def area(self):
        return self.w * self.h

r = Rect(3, 4)
print(r.area())
`
	err = os.WriteFile(filepath.Join(tmpDir, "shapes.py"), []byte(shapesPy), 0644)
	require.NoError(t, err)
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg := config.Default()
	svc := app.NewService(cfg)
	ctx := context.Background()

	results := make([]app.Result, 0, 2)
	for _, name := range []string{"main.py", "shapes.py"} {
		res, err := svc.AnalyzeFile(ctx, filepath.Join(tmpDir, name))
		require.NoError(t, err)
		results = append(results, res)
	}

	// main.py: os is imported and never used; everything else resolves.
	require.Len(t, results[0].Diagnostics, 1)
	assert.Equal(t, diag.CodeUnusedImport, results[0].Diagnostics[0].Code)
	assert.Contains(t, results[0].Diagnostics[0].Message, "'os'")

	// shapes.py: Rect is instantiated, area is called through the
	// receiver, __init__ is runtime-invoked. Nothing to report.
	assert.Empty(t, results[1].Diagnostics)

	// Every renderer consumes the same results.
	text := (&report.TextRenderer{}).Render(results[1])
	assert.Contains(t, text, "== shapes.py > Rect > area")
	assert.Contains(t, text, "no issues found")

	var tsv bytes.Buffer
	require.NoError(t, report.WriteTSV(&tsv, results))
	assert.Contains(t, tsv.String(), "unused-import")

	sarifDoc, err := report.GenerateSARIF(tmpDir, results)
	require.NoError(t, err)
	assert.Contains(t, string(sarifDoc), `"PYS001"`)
	assert.Contains(t, string(sarifDoc), `"main.py"`)
}

func TestHistoryTrendIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "app.py")

	store, err := history.Open(filepath.Join(tmpDir, "history.db"))
	require.NoError(t, err)
	defer store.Close()

	cfg := config.Default()
	svc := app.NewService(cfg)
	ctx := context.Background()

	record := func(source string) {
		require.NoError(t, os.WriteFile(target, []byte(source), 0644))
		res, err := svc.AnalyzeFile(ctx, target)
		require.NoError(t, err)

		counts := make(map[diag.Code]int)
		for _, d := range res.Diagnostics {
			counts[d.Code]++
		}
		require.NoError(t, store.SaveRun(history.Run{
			RunID:        res.RunID,
			FilePath:     target,
			IndentUnit:   res.IndentUnit,
			LogicalLines: res.LogicalLines,
			Counts:       counts,
			Duration:     res.Duration,
		}))
	}

	// First run carries two unused imports, the second fixes them.
	record("import os\nimport sys\nx = 1\nprint(x)\n")
	record("x = 1\nprint(x)\n")

	delta, ok, err := store.Trend(target)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -2, delta)
}

func TestSuppressionIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "app.py")
	require.NoError(t, os.WriteFile(target, []byte("import os\nx = 1\nprint(x)\n"), 0644))

	cfg := config.Default()
	cfg.Suppress = []string{"unused-import"}

	res, err := app.NewService(cfg).AnalyzeFile(context.Background(), target)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gobwas/glob"

	"pyscan/internal/app"
	"pyscan/internal/config"
	"pyscan/internal/diag"
	"pyscan/internal/history"
	"pyscan/internal/observability"
	"pyscan/internal/report"
	"pyscan/internal/watcher"
)

// App wires the analysis service to the boundary: file discovery, report
// output, history and watch mode.
type App struct {
	cfg     *config.Config
	service *app.Service
	store   *history.Store

	metricsServer *observability.Server
	traceShutdown func(context.Context) error

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	teaProgram *tea.Program

	resultsMu sync.Mutex
	results   map[string]app.Result
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		cfg:     cfg,
		service: app.NewService(cfg),
		results: make(map[string]app.Result),
	}

	for _, pattern := range cfg.Paths.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude_dirs pattern %q: %w", pattern, err)
		}
		a.excludeDirs = append(a.excludeDirs, g)
	}
	for _, pattern := range cfg.Paths.ExcludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude_files pattern %q: %w", pattern, err)
		}
		a.excludeFiles = append(a.excludeFiles, g)
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			a.traceShutdown = shutdown
		}
	}

	if cfg.Observability.MetricsAddr != "" {
		a.metricsServer = observability.NewServer(cfg.Observability.MetricsAddr)
		if err := a.metricsServer.Start(ctx); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *App) Close(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}
	if a.metricsServer != nil {
		_ = a.metricsServer.Stop(ctx)
	}
	if a.traceShutdown != nil {
		_ = a.traceShutdown(ctx)
	}
}

// CollectFiles expands files and directories into the list of Python
// files to analyze, honoring the configured exclude globs.
func (a *App) CollectFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	files := make([]string, 0)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			// Explicit file arguments bypass the .py filter; the service
			// attaches an advisory for odd extensions.
			add(path)
			continue
		}
		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				if a.excludeDir(p) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(p, ".py") && !a.excludeFile(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func (a *App) excludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range a.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (a *App) excludeFile(path string) bool {
	base := filepath.Base(path)
	for _, g := range a.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// RunOnce analyses each file and records history. Files that cannot be
// read are logged and skipped; analysis itself never fails.
func (a *App) RunOnce(ctx context.Context, files []string) []app.Result {
	results := make([]app.Result, 0, len(files))
	for _, path := range files {
		res, err := a.service.AnalyzeFile(ctx, path)
		if err != nil {
			slog.Error("skipping file", "path", path, "error", err)
			continue
		}
		results = append(results, res)
		a.recordRun(res)

		a.resultsMu.Lock()
		a.results[res.Path] = res
		a.resultsMu.Unlock()
	}
	return results
}

func (a *App) recordRun(res app.Result) {
	if a.store == nil {
		return
	}
	counts := make(map[diag.Code]int)
	for _, d := range res.Diagnostics {
		counts[d.Code]++
	}
	run := history.Run{
		RunID:        res.RunID,
		FilePath:     res.Path,
		IndentUnit:   res.IndentUnit,
		LogicalLines: res.LogicalLines,
		Counts:       counts,
		Duration:     res.Duration,
	}
	if err := a.store.SaveRun(run); err != nil {
		slog.Warn("failed to record run", "path", res.Path, "error", err)
	}
}

// Warnings counts warning-severity diagnostics across results, for the
// process exit code.
func (a *App) Warnings(results []app.Result) int {
	n := 0
	for _, res := range results {
		for _, d := range res.Diagnostics {
			if d.Severity == diag.SevWarning {
				n++
			}
		}
	}
	return n
}

// Output renders results in the configured format. Optional side outputs
// (TSV and SARIF files) are written regardless of the primary format.
func (a *App) Output(results []app.Result) error {
	// lipgloss degrades styling on non-terminal stdout on its own.
	renderer := &report.TextRenderer{Color: true}

	switch a.cfg.Report.Format {
	case "text":
		for _, res := range results {
			fmt.Print(renderer.Render(res))
		}
		for _, res := range results {
			fmt.Println(renderer.Summary(res))
		}
	case "tsv":
		if err := report.WriteTSV(os.Stdout, results); err != nil {
			return err
		}
	case "sarif":
		doc, err := a.generateSARIF(results)
		if err != nil {
			return err
		}
		fmt.Println(string(doc))
	case "markdown":
		fragment := report.GenerateMarkdown(results)
		if a.cfg.Report.MarkdownFile != "" {
			marker := a.cfg.Report.MarkdownMarker
			if marker == "" {
				marker = "report"
			}
			if err := report.InjectReport(a.cfg.Report.MarkdownFile, marker, fragment); err != nil {
				return err
			}
		} else {
			fmt.Print(fragment)
		}
	default:
		return fmt.Errorf("unknown report format %q", a.cfg.Report.Format)
	}

	if a.cfg.Report.TSV != "" {
		f, err := os.Create(a.cfg.Report.TSV)
		if err != nil {
			return err
		}
		if err := report.WriteTSV(f, results); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if a.cfg.Report.SARIF != "" {
		doc, err := a.generateSARIF(results)
		if err != nil {
			return err
		}
		if err := os.WriteFile(a.cfg.Report.SARIF, doc, 0o644); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) generateSARIF(results []app.Result) ([]byte, error) {
	root, err := os.Getwd()
	if err != nil {
		root = ""
	}
	return report.GenerateSARIF(root, results)
}

// HandleChanges is the watcher callback: re-analyze each changed file and
// report the outcome plus the history trend.
func (a *App) HandleChanges(paths []string) {
	ctx := context.Background()
	renderer := &report.TextRenderer{Color: true}

	sort.Strings(paths)
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			// Deleted files drop out of the result set.
			a.resultsMu.Lock()
			delete(a.results, path)
			a.resultsMu.Unlock()
			continue
		}

		res, err := a.service.AnalyzeFile(ctx, path)
		if err != nil {
			slog.Error("re-analysis failed", "path", path, "error", err)
			continue
		}
		a.recordRun(res)

		a.resultsMu.Lock()
		a.results[res.Path] = res
		a.resultsMu.Unlock()

		line := renderer.Summary(res)
		if a.store != nil {
			if delta, ok, err := a.store.Trend(res.Path); err == nil && ok {
				switch {
				case delta < 0:
					line += fmt.Sprintf(" (%d fewer than last run)", -delta)
				case delta > 0:
					line += fmt.Sprintf(" (%d more than last run)", delta)
				}
			}
		}

		if a.teaProgram == nil {
			fmt.Println(line)
		}
	}

	if a.teaProgram != nil {
		a.teaProgram.Send(updateMsg{results: a.snapshotResults()})
	}
}

func (a *App) snapshotResults() []app.Result {
	a.resultsMu.Lock()
	defer a.resultsMu.Unlock()

	out := make([]app.Result, 0, len(a.results))
	for _, res := range a.results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (a *App) StartWatcher(ctx context.Context, paths []string) error {
	limiter := watcher.NewLimiter(a.cfg.Watch.Rate, a.cfg.Watch.Burst)
	w, err := watcher.NewWatcher(
		a.cfg.Watch.Debounce,
		limiter,
		a.cfg.Paths.ExcludeDirs,
		a.cfg.Paths.ExcludeFiles,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	// Runs until the process exits.
	return w.Watch(paths)
}

func (a *App) RunUI(initial []app.Result) error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	go func() {
		a.teaProgram.Send(updateMsg{results: initial})
	}()

	_, err := p.Run()
	return err
}

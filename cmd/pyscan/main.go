package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pyscan/internal/config"
	"pyscan/internal/version"
)

var (
	configPath  = flag.String("config", "./pyscan.toml", "Path to config file")
	watchMode   = flag.Bool("watch", false, "Re-analyze files as they change")
	ui          = flag.Bool("ui", false, "Enable terminal UI mode (implies -watch)")
	format      = flag.String("format", "", "Report format: text, tsv, sarif, markdown (overrides config)")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("pyscan %s\n", version.Version)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	if *ui {
		// In UI mode, avoid terminal logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) && *configPath == "./pyscan.toml" {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	if *format != "" {
		cfg.Report.Format = *format
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	ctx := context.Background()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close(ctx)

	files, err := app.CollectFiles(paths)
	if err != nil {
		slog.Error("failed to collect files", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no Python files found")
		os.Exit(1)
	}

	results := app.RunOnce(ctx, files)
	if err := app.Output(results); err != nil {
		slog.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	if !*watchMode && !*ui {
		if app.Warnings(results) > 0 {
			os.Exit(2)
		}
		os.Exit(0)
	}

	if err := app.StartWatcher(ctx, paths); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	if *ui {
		if err := app.RunUI(results); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
	} else {
		// Block forever
		select {}
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "pyscan", "pyscan.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "pyscan", "pyscan.log")
	}

	return "pyscan.log"
}

// Package app runs the analysis pipeline end to end for one file: raw
// lines through the preprocessor, structural builder and scope resolver,
// with the preprocessor's indentation findings merged into the resolver
// stream by line number.
package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pyscan/internal/config"
	"pyscan/internal/diag"
	"pyscan/internal/errors"
	"pyscan/internal/observability"
	"pyscan/internal/parser"
	"pyscan/internal/resolver"
)

type Service struct {
	cfg *config.Config
}

func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Result is one completed analysis run over one file.
type Result struct {
	RunID        string
	Path         string
	File         *parser.File
	IndentUnit   int
	LogicalLines int
	Diagnostics  []diag.Diagnostic
	Duration     time.Duration
	// Advisory carries non-fatal boundary notes, such as a path without
	// a .py suffix.
	Advisory string
}

// AnalyzeFile reads and analyses one file. Unreadable input is a boundary
// error surfaced before the core runs.
func (s *Service) AnalyzeFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "read source file"),
			errors.CtxPath, path)
	}

	res := s.AnalyzeSource(ctx, filepath.Base(path), splitLines(string(data)))
	res.Path = path
	if !strings.HasSuffix(path, ".py") {
		res.Advisory = "path does not end in .py; analyzing anyway"
	}
	return res, nil
}

// AnalyzeSource runs the core pipeline over raw lines. It never fails: a
// malformed construct degrades locally and analysis continues over the
// rest of the input.
func (s *Service) AnalyzeSource(ctx context.Context, name string, raw []string) Result {
	_, span := observability.Tracer.Start(ctx, "service.AnalyzeSource")
	defer span.End()
	start := time.Now()

	pre := s.preprocess(name, raw)
	file := s.build(name, pre)
	resolved := s.resolve(file)

	merged := mergeByLine(resolved, pre.Diagnostics)
	final := s.suppress(merged)

	observability.FilesAnalyzedTotal.Inc()
	observability.LogicalLines.Observe(float64(len(pre.Lines)))
	for _, d := range final {
		observability.DiagnosticsTotal.WithLabelValues(string(d.Code)).Inc()
	}

	return Result{
		RunID:        uuid.NewString(),
		File:         file,
		IndentUnit:   pre.IndentUnit,
		LogicalLines: len(pre.Lines),
		Diagnostics:  final,
		Duration:     time.Since(start),
	}
}

func (s *Service) preprocess(name string, raw []string) parser.PreprocessResult {
	timer := time.Now()
	pre := (&parser.Preprocessor{UnitOverride: s.cfg.IndentUnit}).Run(name, raw)
	observability.AnalysisDuration.WithLabelValues("preprocess").Observe(time.Since(timer).Seconds())
	return pre
}

func (s *Service) build(name string, pre parser.PreprocessResult) *parser.File {
	timer := time.Now()
	file := parser.BuildFile(name, pre.Lines)
	observability.AnalysisDuration.WithLabelValues("build").Observe(time.Since(timer).Seconds())
	return file
}

func (s *Service) resolve(file *parser.File) []diag.Diagnostic {
	timer := time.Now()
	var list diag.List
	resolver.New(&list).Resolve(file)
	observability.AnalysisDuration.WithLabelValues("resolve").Observe(time.Since(timer).Seconds())
	return list.Items()
}

func (s *Service) suppress(diags []diag.Diagnostic) []diag.Diagnostic {
	codes, err := s.cfg.SuppressedCodes()
	if err != nil || len(codes) == 0 {
		// Config validation happens at load time; an error here means an
		// unvalidated Config, which suppresses nothing.
		return diags
	}
	var out diag.List
	sink := diag.NewSuppressing(&out, codes)
	for _, d := range diags {
		sink.Emit(d)
	}
	return out.Items()
}

// mergeByLine splices the preprocessor's indentation diagnostics into the
// resolver stream: each one lands before the first resolver diagnostic
// with an equal or later line, preserving traversal order otherwise.
func mergeByLine(stream, indent []diag.Diagnostic) []diag.Diagnostic {
	if len(indent) == 0 {
		return stream
	}
	out := make([]diag.Diagnostic, 0, len(stream)+len(indent))
	i := 0
	for _, d := range stream {
		for i < len(indent) && indent[i].Line <= d.Line {
			out = append(out, indent[i])
			i++
		}
		out = append(out, d)
	}
	out = append(out, indent[i:]...)
	return out
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// Package history persists per-run diagnostic counts in a sqlite file so
// watch mode can report whether a file is trending cleaner or worse.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"pyscan/internal/diag"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one analysis of one file.
type Run struct {
	RunID        string
	FilePath     string
	Timestamp    time.Time
	IndentUnit   int
	LogicalLines int
	Counts       map[diag.Code]int
	Duration     time.Duration
}

// Total sums the per-code counts.
func (r Run) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.RunID == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if run.FilePath == "" {
		return fmt.Errorf("run file path must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	query := `
INSERT INTO runs (
  run_id, file_path, ts_utc, indent_unit, logical_lines,
  unused_import_count, unused_function_count, undefined_reference_count,
  inconsistent_indent_count, implicit_global_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, file_path) DO UPDATE SET
  ts_utc=excluded.ts_utc,
  indent_unit=excluded.indent_unit,
  logical_lines=excluded.logical_lines,
  unused_import_count=excluded.unused_import_count,
  unused_function_count=excluded.unused_function_count,
  undefined_reference_count=excluded.undefined_reference_count,
  inconsistent_indent_count=excluded.inconsistent_indent_count,
  implicit_global_count=excluded.implicit_global_count,
  duration_ms=excluded.duration_ms
`
	return s.withRetry("save run", func() error {
		_, err := s.db.Exec(
			query,
			run.RunID,
			run.FilePath,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.IndentUnit,
			run.LogicalLines,
			run.Counts[diag.CodeUnusedImport],
			run.Counts[diag.CodeUnusedFunction],
			run.Counts[diag.CodeUndefinedReference],
			run.Counts[diag.CodeInconsistentIndent],
			run.Counts[diag.CodeImplicitGlobal],
			run.Duration.Milliseconds(),
		)
		return err
	})
}

// LoadRuns returns the runs recorded for one file, oldest first.
func (s *Store) LoadRuns(filePath string, since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  run_id, file_path, ts_utc, indent_unit, logical_lines,
  unused_import_count, unused_function_count, undefined_reference_count,
  inconsistent_indent_count, implicit_global_count, duration_ms
FROM runs
WHERE file_path = ?
`
	args := []any{filePath}
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			run        Run
		)
		counts := make(map[diag.Code]int, len(diag.AllCodes))
		var unusedImport, unusedFunction, undefinedRef, badIndent, implicitGlobal int
		if err := rows.Scan(
			&run.RunID,
			&run.FilePath,
			&tsRaw,
			&run.IndentUnit,
			&run.LogicalLines,
			&unusedImport,
			&unusedFunction,
			&undefinedRef,
			&badIndent,
			&implicitGlobal,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond

		counts[diag.CodeUnusedImport] = unusedImport
		counts[diag.CodeUnusedFunction] = unusedFunction
		counts[diag.CodeUndefinedReference] = undefinedRef
		counts[diag.CodeInconsistentIndent] = badIndent
		counts[diag.CodeImplicitGlobal] = implicitGlobal
		run.Counts = counts

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// Trend compares the two most recent runs for a file. Delta is the change
// in total findings; a negative delta means the file got cleaner. ok is
// false when fewer than two runs exist.
func (s *Store) Trend(filePath string) (delta int, ok bool, err error) {
	runs, err := s.LoadRuns(filePath, time.Time{})
	if err != nil {
		return 0, false, err
	}
	if len(runs) < 2 {
		return 0, false, nil
	}
	prev := runs[len(runs)-2]
	last := runs[len(runs)-1]
	return last.Total() - prev.Total(), true, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

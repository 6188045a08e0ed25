// Package diag defines the closed set of diagnostic codes the analysis
// engine can emit, the record type produced for each finding, and the
// ordered sink the engine writes to.
package diag

import (
	"fmt"
	"strings"
)

// Code identifies one kind of finding. The set is closed: every consumer
// (report renderers, suppression config, SARIF rules) switches exhaustively
// over these values.
type Code string

const (
	CodeUnusedImport       Code = "unused-import"
	CodeUnusedFunction     Code = "unused-function-or-class"
	CodeUndefinedReference Code = "undefined-or-out-of-scope-reference"
	CodeInconsistentIndent Code = "inconsistent-indentation"
	CodeImplicitGlobal     Code = "implicit-global-use"
)

// AllCodes lists every code in stable order, for rule tables and
// suppression validation.
var AllCodes = []Code{
	CodeUnusedImport,
	CodeUnusedFunction,
	CodeUndefinedReference,
	CodeInconsistentIndent,
	CodeImplicitGlobal,
}

// Valid reports whether c is a member of the closed code set.
func (c Code) Valid() bool {
	for _, known := range AllCodes {
		if c == known {
			return true
		}
	}
	return false
}

type Severity uint8

const (
	SevAdvisory Severity = iota
	SevWarning
)

func (s Severity) String() string {
	switch s {
	case SevAdvisory:
		return "ADVISORY"
	case SevWarning:
		return "WARNING"
	}
	return "UNKNOWN"
}

// Diagnostic is one finding. Immutable once emitted; ordering is emission
// order, which equals traversal order of the analysed file.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Line     int    // 1-based source line, 0 if not tied to a line
	Path     string // enclosing entity path, e.g. "file.py > Rect > __init__"
	Message  string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s [%s] line %d (%s): %s", d.Severity, d.Code, d.Line, d.Path, d.Message)
	}
	return fmt.Sprintf("%s [%s] (%s): %s", d.Severity, d.Code, d.Path, d.Message)
}

// Sink accepts diagnostics in emission order. Implementations must not
// reorder records; the engine never reads them back.
type Sink interface {
	Emit(d Diagnostic)
}

// List is the default Sink: an append-only in-memory list. The zero value
// is ready to use.
type List struct {
	items []Diagnostic
}

func (l *List) Emit(d Diagnostic) {
	l.items = append(l.items, d)
}

// Items returns the emitted diagnostics in order. The slice aliases the
// list's backing array; callers must not modify it.
func (l *List) Items() []Diagnostic {
	return l.items
}

func (l *List) Len() int {
	return len(l.items)
}

// CountByCode tallies emitted diagnostics per code.
func (l *List) CountByCode() map[Code]int {
	counts := make(map[Code]int, len(AllCodes))
	for _, d := range l.items {
		counts[d.Code]++
	}
	return counts
}

// Suppressing wraps a sink and drops diagnostics whose code is in the
// suppression set. Suppression is a boundary concern: the engine itself
// always emits everything.
type Suppressing struct {
	Next       Sink
	Suppressed map[Code]bool
}

func NewSuppressing(next Sink, codes []Code) *Suppressing {
	set := make(map[Code]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return &Suppressing{Next: next, Suppressed: set}
}

func (s *Suppressing) Emit(d Diagnostic) {
	if s.Suppressed[d.Code] {
		return
	}
	s.Next.Emit(d)
}

// ParseCodes validates a list of code strings from configuration or flags.
func ParseCodes(raw []string) ([]Code, error) {
	codes := make([]Code, 0, len(raw))
	for _, r := range raw {
		c := Code(strings.TrimSpace(r))
		if c == "" {
			continue
		}
		if !c.Valid() {
			return nil, fmt.Errorf("unknown diagnostic code %q", r)
		}
		codes = append(codes, c)
	}
	return codes, nil
}

package parser

import (
	"strings"
	"testing"

	"pyscan/internal/diag"
)

func preprocess(t *testing.T, src string) PreprocessResult {
	t.Helper()
	p := &Preprocessor{}
	return p.Run("test.py", strings.Split(src, "\n"))
}

func lineTexts(res PreprocessResult) []string {
	out := make([]string, len(res.Lines))
	for i, ln := range res.Lines {
		out[i] = ln.Text
	}
	return out
}

func TestPreprocessStripsCommentsAndBlanks(t *testing.T) {
	res := preprocess(t, `# header comment
x = 5  # trailing

y = x + 1`)

	want := []string{"x=5", "y=x+1"}
	got := lineTexts(res)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if res.Lines[0].Number != 2 || res.Lines[1].Number != 4 {
		t.Errorf("line numbers = %d, %d, want 2, 4", res.Lines[0].Number, res.Lines[1].Number)
	}
}

func TestPreprocessHashInsideString(t *testing.T) {
	res := preprocess(t, `color = "#ff0000"`)
	if len(res.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(res.Lines))
	}
	if !strings.Contains(res.Lines[0].Text, "#ff0000") {
		t.Errorf("quoted hash was stripped: %q", res.Lines[0].Text)
	}
}

func TestPreprocessTripleQuoteComment(t *testing.T) {
	res := preprocess(t, `"""
Module docstring spanning
several lines.
"""
x = 1`)

	got := lineTexts(res)
	if len(got) != 1 || got[0] != "x=1" {
		t.Errorf("got %v, want [x=1]", got)
	}
}

func TestPreprocessAssignedTripleQuoteLiteral(t *testing.T) {
	// A same-line literal is kept; an unterminated one collapses to ""
	// and swallows lines up to the closing marker.
	res := preprocess(t, `doc = """short"""
long = """first
second
"""
x = 1`)

	got := lineTexts(res)
	want := []string{`doc="""short"""`, `long=""`, "x=1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPreprocessGroupedImport(t *testing.T) {
	res := preprocess(t, `from os import (
    path,
    sep,
)
x = path`)

	got := lineTexts(res)
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 lines", got)
	}
	imp, ok := parseImport(got[0], res.Lines[0].Number)
	if !ok {
		t.Fatalf("collapsed import %q did not parse", got[0])
	}
	names := imp.BoundNames()
	if len(names) != 2 || names[0] != "path" || names[1] != "sep" {
		t.Errorf("bound names = %v, want [path sep]", names)
	}
	if res.Lines[0].Number != 1 {
		t.Errorf("collapsed import line = %d, want 1", res.Lines[0].Number)
	}
}

func TestPreprocessIndentUnitInference(t *testing.T) {
	res := preprocess(t, `def f():
  x = 1
  if x:
    return x`)

	if res.IndentUnit != 2 {
		t.Fatalf("indent unit = %d, want 2", res.IndentUnit)
	}
	depths := []int{0, 1, 1, 2}
	for i, want := range depths {
		if res.Lines[i].Depth != want {
			t.Errorf("line %d depth = %d, want %d", i, res.Lines[i].Depth, want)
		}
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
}

func TestPreprocessInconsistentIndent(t *testing.T) {
	res := preprocess(t, `def f():
    x = 1
      y = 2`)

	if res.IndentUnit != 4 {
		t.Fatalf("indent unit = %d, want 4", res.IndentUnit)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(res.Diagnostics), res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Code != diag.CodeInconsistentIndent || d.Line != 3 {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestPreprocessMixedTabsAndSpaces(t *testing.T) {
	res := preprocess(t, "def f():\n\t x = 1")
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeInconsistentIndent {
			found = true
		}
	}
	if !found {
		t.Error("expected an inconsistent-indentation diagnostic for mixed tabs and spaces")
	}
}

func TestPreprocessUnitOverride(t *testing.T) {
	p := &Preprocessor{UnitOverride: 4}
	res := p.Run("test.py", []string{"def f():", "  x = 1"})
	if res.IndentUnit != 4 {
		t.Fatalf("indent unit = %d, want override 4", res.IndentUnit)
	}
	if len(res.Diagnostics) == 0 {
		t.Error("expected a diagnostic for width 2 under unit 4")
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"x   =   5", "x=5"},
		{"f( a , b )", "f(a, b)"},
		{"x : int = 5", "x: int=5"},
		{`s = "keep  inside"`, `s="keep  inside"`},
		{"def foo( a, b ):", "def foo(a, b):"},
	}
	for _, tc := range tests {
		if got := normalizeText(tc.in); got != tc.want {
			t.Errorf("normalizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

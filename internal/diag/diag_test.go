package diag

import (
	"strings"
	"testing"
)

func TestListPreservesEmissionOrder(t *testing.T) {
	var l List
	l.Emit(Diagnostic{Code: CodeUnusedImport, Line: 1})
	l.Emit(Diagnostic{Code: CodeUndefinedReference, Line: 9})
	l.Emit(Diagnostic{Code: CodeUnusedImport, Line: 3})

	items := l.Items()
	if len(items) != 3 || l.Len() != 3 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Line != 1 || items[1].Line != 9 || items[2].Line != 3 {
		t.Errorf("order changed: %v", items)
	}
}

func TestCountByCode(t *testing.T) {
	var l List
	l.Emit(Diagnostic{Code: CodeUnusedImport})
	l.Emit(Diagnostic{Code: CodeUnusedImport})
	l.Emit(Diagnostic{Code: CodeImplicitGlobal})

	counts := l.CountByCode()
	if counts[CodeUnusedImport] != 2 {
		t.Errorf("unused-import count = %d, want 2", counts[CodeUnusedImport])
	}
	if counts[CodeImplicitGlobal] != 1 {
		t.Errorf("implicit-global count = %d, want 1", counts[CodeImplicitGlobal])
	}
	if counts[CodeInconsistentIndent] != 0 {
		t.Errorf("unexpected count for absent code")
	}
}

func TestSuppressingDropsOnlyListedCodes(t *testing.T) {
	var out List
	sink := NewSuppressing(&out, []Code{CodeUnusedImport, CodeImplicitGlobal})

	sink.Emit(Diagnostic{Code: CodeUnusedImport})
	sink.Emit(Diagnostic{Code: CodeUndefinedReference})
	sink.Emit(Diagnostic{Code: CodeImplicitGlobal})
	sink.Emit(Diagnostic{Code: CodeUnusedFunction})

	items := out.Items()
	if len(items) != 2 {
		t.Fatalf("got %d diagnostics after suppression, want 2: %v", len(items), items)
	}
	if items[0].Code != CodeUndefinedReference || items[1].Code != CodeUnusedFunction {
		t.Errorf("wrong survivors: %v", items)
	}
}

func TestParseCodes(t *testing.T) {
	codes, err := ParseCodes([]string{" unused-import ", "", "implicit-global-use"})
	if err != nil {
		t.Fatalf("ParseCodes: %v", err)
	}
	if len(codes) != 2 || codes[0] != CodeUnusedImport || codes[1] != CodeImplicitGlobal {
		t.Errorf("codes = %v", codes)
	}

	if _, err := ParseCodes([]string{"no-such-code"}); err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestCodeValid(t *testing.T) {
	for _, c := range AllCodes {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if Code("bogus").Valid() {
		t.Error("bogus code reported valid")
	}
}

func TestSeverityString(t *testing.T) {
	if SevAdvisory.String() != "ADVISORY" || SevWarning.String() != "WARNING" {
		t.Errorf("severity strings: %s / %s", SevAdvisory, SevWarning)
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Code:     CodeUndefinedReference,
		Severity: SevWarning,
		Line:     12,
		Path:     "app.py > main",
		Message:  "name 'total' is not defined in this scope",
	}
	s := d.String()
	for _, want := range []string{"WARNING", "line 12", "app.py > main", "'total'"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}

	noLine := Diagnostic{Code: CodeUnusedImport, Path: "app.py"}
	if strings.Contains(noLine.String(), "line") {
		t.Errorf("line fragment present for line 0: %q", noLine.String())
	}
}

package parser

import (
	"strings"
	"testing"
)

func buildSource(t *testing.T, src string) *File {
	t.Helper()
	p := &Preprocessor{}
	res := p.Run("test.py", strings.Split(src, "\n"))
	return BuildFile("test.py", res.Lines)
}

func TestBuildFileTopLevel(t *testing.T) {
	f := buildSource(t, `import os
from sys import argv

LIMIT = 100

def main():
    print(argv)

class Runner:
    pass

main()`)

	if len(f.Imports) != 2 {
		t.Fatalf("imports = %d, want 2", len(f.Imports))
	}
	if f.Imports[0].Module != "os" {
		t.Errorf("import module = %q, want os", f.Imports[0].Module)
	}
	if len(f.Globals) != 1 || f.Globals[0].Targets[0] != "LIMIT" {
		t.Errorf("globals = %+v", f.Globals)
	}
	if len(f.Functions) != 1 || f.Functions[0].Name != "main" {
		t.Errorf("functions = %+v", f.Functions)
	}
	if len(f.Classes) != 1 || f.Classes[0].Name != "Runner" {
		t.Errorf("classes = %+v", f.Classes)
	}
}

func TestBuildNestedFunctions(t *testing.T) {
	f := buildSource(t, `def outer():
    def inner():
        def deepest():
            pass
        deepest()
    inner()`)

	if len(f.Functions) != 1 {
		t.Fatalf("top-level functions = %d, want 1", len(f.Functions))
	}
	outer := f.Functions[0]
	if len(outer.Functions) != 1 || outer.Functions[0].Name != "inner" {
		t.Fatalf("outer children = %+v", outer.Functions)
	}
	inner := outer.Functions[0]
	if len(inner.Functions) != 1 || inner.Functions[0].Name != "deepest" {
		t.Fatalf("inner children = %+v", inner.Functions)
	}
	// The nesting handling is uniform: the deepest function body parsed
	// the same way as the top one.
	if len(inner.Functions[0].Body) != 1 {
		t.Errorf("deepest body = %+v", inner.Functions[0].Body)
	}
}

func TestBuildClassMembers(t *testing.T) {
	f := buildSource(t, `class Rect(Shape):
    sides = 4

    def __init__(self, w, h):
        self.w = w
        self.h = h

    def area(self):
        return self.w * self.h`)

	if len(f.Classes) != 1 {
		t.Fatalf("classes = %d, want 1", len(f.Classes))
	}
	cl := f.Classes[0]
	if cl.Name != "Rect" || len(cl.Parents) != 1 || cl.Parents[0] != "Shape" {
		t.Errorf("class header = %+v", cl)
	}
	if len(cl.Variables) != 1 || cl.Variables[0].Targets[0] != "sides" {
		t.Errorf("class variables = %+v", cl.Variables)
	}
	if len(cl.Methods) != 2 {
		t.Fatalf("methods = %d, want 2", len(cl.Methods))
	}
	init := cl.Methods[0]
	if init.Name != "__init__" || len(init.Params) != 3 {
		t.Errorf("__init__ = %+v", init)
	}
	// self.w = w assigns to an attribute, not a bare name; it is still
	// collected on the method for later analysis.
	if len(init.Assignments) != 2 {
		t.Errorf("__init__ assignments = %+v", init.Assignments)
	}
}

func TestBuildMethodLocalsAreNotClassVariables(t *testing.T) {
	f := buildSource(t, `class C:
    level = 1

    def m(self):
        local = 2
        if local:
            deeper = 3`)

	cl := f.Classes[0]
	if len(cl.Variables) != 1 {
		t.Errorf("class variables = %+v, want only level", cl.Variables)
	}
	m := cl.Methods[0]
	if len(m.Assignments) != 2 {
		t.Errorf("method assignments = %+v, want local and deeper", m.Assignments)
	}
}

func TestBuildMalformedHeaderDegrades(t *testing.T) {
	f := buildSource(t, `def 123bad():
    x = 1

def good():
    pass`)

	if len(f.Functions) != 2 {
		t.Fatalf("functions = %d, want 2", len(f.Functions))
	}
	if f.Functions[0].Name != "" {
		t.Errorf("malformed def name = %q, want empty", f.Functions[0].Name)
	}
	// The broken header still owns its body and the rest of the file
	// builds normally.
	if len(f.Functions[0].Assignments) != 1 {
		t.Errorf("malformed def assignments = %+v", f.Functions[0].Assignments)
	}
	if f.Functions[1].Name != "good" {
		t.Errorf("second function = %q, want good", f.Functions[1].Name)
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	src := `import os

def outer(a):
    x = a
    def inner():
        return x
    return inner

class C:
    def m(self):
        for i in range(3):
            print(i)

outer(1)`

	p := &Preprocessor{}
	res := p.Run("test.py", strings.Split(src, "\n"))
	f := BuildFile("test.py", res.Lines)

	flat := f.FlattenLines()
	if len(flat) != len(res.Lines) {
		t.Fatalf("flattened %d lines, preprocessed %d", len(flat), len(res.Lines))
	}
	for i := range flat {
		if flat[i] != res.Lines[i] {
			t.Errorf("line %d: flattened %+v, preprocessed %+v", i, flat[i], res.Lines[i])
		}
	}
}

func TestParseFunctionHeader(t *testing.T) {
	name, params, ok := parseFunctionHeader("def area(w, h=1, *args, **kwargs)->int:")
	if !ok || name != "area" {
		t.Fatalf("name = %q ok = %v", name, ok)
	}
	if len(params) != 4 {
		t.Fatalf("params = %+v", params)
	}
	if params[1].Name != "h" || params[1].Default != "1" {
		t.Errorf("default param = %+v", params[1])
	}
	if params[2].Star != "*" || params[2].Name != "args" {
		t.Errorf("star param = %+v", params[2])
	}
	if params[3].Star != "**" || params[3].Name != "kwargs" {
		t.Errorf("double-star param = %+v", params[3])
	}
}

func TestParseAssignmentForms(t *testing.T) {
	a, ok := parseAssignment("x, y=point()", 1)
	if !ok || len(a.Targets) != 2 {
		t.Fatalf("tuple assignment = %+v ok=%v", a, ok)
	}

	a, ok = parseAssignment("total+=n", 2)
	if !ok || !a.Augmented || a.Targets[0] != "total" || a.RHS != "n" {
		t.Fatalf("augmented assignment = %+v ok=%v", a, ok)
	}

	a, ok = parseAssignment("count: int=0", 3)
	if !ok || a.TypeHint != "int" || a.Targets[0] != "count" {
		t.Fatalf("hinted assignment = %+v ok=%v", a, ok)
	}

	if _, ok := parseAssignment("a==b", 4); ok {
		t.Error("comparison parsed as assignment")
	}
}

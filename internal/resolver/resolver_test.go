package resolver

import (
	"strings"
	"testing"

	"pyscan/internal/diag"
	"pyscan/internal/parser"
)

func analyze(t *testing.T, src string) []diag.Diagnostic {
	t.Helper()
	p := &parser.Preprocessor{}
	res := p.Run("test.py", strings.Split(src, "\n"))
	file := parser.BuildFile("test.py", res.Lines)

	var list diag.List
	New(&list).Resolve(file)
	return list.Items()
}

func codesOf(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func findDiag(diags []diag.Diagnostic, code diag.Code) *diag.Diagnostic {
	for i := range diags {
		if diags[i].Code == code {
			return &diags[i]
		}
	}
	return nil
}

func TestUnusedImport(t *testing.T) {
	diags := analyze(t, `import os
import sys

def main():
    print(sys.argv)

main()`)

	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v", diags)
	}
	d := diags[0]
	if d.Code != diag.CodeUnusedImport || d.Line != 1 {
		t.Errorf("diagnostic = %+v", d)
	}
	if !strings.Contains(d.Message, "'os'") {
		t.Errorf("message = %q", d.Message)
	}
}

func TestImportUsedViaAlias(t *testing.T) {
	diags := analyze(t, `import numpy as np

x = np.zeros(3)
print(x)`)

	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
}

func TestFromImportItemsTrackedSeparately(t *testing.T) {
	diags := analyze(t, `from os import path, sep

print(path)`)

	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v", diags)
	}
	if diags[0].Code != diag.CodeUnusedImport || !strings.Contains(diags[0].Message, "'sep'") {
		t.Errorf("diagnostic = %+v", diags[0])
	}
}

func TestUnusedFunctionAndClass(t *testing.T) {
	diags := analyze(t, `def helper():
    pass

class Widget:
    pass

def main():
    pass

main()`)

	if len(diags) != 2 {
		t.Fatalf("diagnostics = %v", diags)
	}
	for _, d := range diags {
		if d.Code != diag.CodeUnusedFunction {
			t.Errorf("diagnostic = %+v", d)
		}
	}
	if !strings.Contains(diags[0].Message, "'helper'") || !strings.Contains(diags[1].Message, "'Widget'") {
		t.Errorf("messages = %q, %q", diags[0].Message, diags[1].Message)
	}
}

func TestDunderMethodsExemptFromUnused(t *testing.T) {
	diags := analyze(t, `class Point:
    def __init__(self, x):
        self.x = x

    def __repr__(self):
        return str(self.x)

p = Point(1)
print(p)`)

	if d := findDiag(diags, diag.CodeUnusedFunction); d != nil {
		t.Errorf("dunder reported unused: %+v", d)
	}
}

func TestUndefinedReference(t *testing.T) {
	diags := analyze(t, `def f():
    return count+1

f()`)

	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v", diags)
	}
	d := diags[0]
	if d.Code != diag.CodeUndefinedReference || d.Severity != diag.SevWarning || d.Line != 2 {
		t.Errorf("diagnostic = %+v", d)
	}
	if d.Path != "test.py > f" {
		t.Errorf("path = %q", d.Path)
	}
}

func TestUndefinedReportedOncePerScope(t *testing.T) {
	diags := analyze(t, `def f():
    print(missing)
    print(missing)
    return missing

f()`)

	count := 0
	for _, d := range diags {
		if d.Code == diag.CodeUndefinedReference {
			count++
		}
	}
	if count != 1 {
		t.Errorf("undefined reported %d times, want 1: %v", count, diags)
	}
}

func TestSiblingFunctionScopesAreIsolated(t *testing.T) {
	diags := analyze(t, `def first():
    secret = 1
    return secret

def second():
    return secret

first()
second()`)

	d := findDiag(diags, diag.CodeUndefinedReference)
	if d == nil {
		t.Fatalf("no undefined diagnostic: %v", diags)
	}
	if d.Path != "test.py > second" {
		t.Errorf("path = %q", d.Path)
	}
}

func TestNestedFunctionSeesEnclosingLocals(t *testing.T) {
	diags := analyze(t, `def outer():
    x = 1
    def inner():
        return x
    return inner()

outer()`)

	if d := findDiag(diags, diag.CodeUndefinedReference); d != nil {
		t.Errorf("closure read reported undefined: %+v", d)
	}
}

func TestUseBeforeLocalDeclaration(t *testing.T) {
	// Locals appear in line order: a read above the assignment resolves
	// to nothing (or to the file scope, which is empty here).
	diags := analyze(t, `def f():
    print(value)
    value = 1
    return value

f()`)

	d := findDiag(diags, diag.CodeUndefinedReference)
	if d == nil || d.Line != 2 {
		t.Errorf("diagnostics = %v, want undefined at line 2", diags)
	}
}

func TestBuiltinsAreSilent(t *testing.T) {
	diags := analyze(t, `items = [1, 2, 3]
print(len(items), range(10), isinstance(items, list))`)

	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
}

func TestAttributeCallResolvesSoftly(t *testing.T) {
	diags := analyze(t, `import math

def area(r):
    return math.sqrt(r)

area(2)`)

	// math.sqrt marks nothing undefined and keeps the import used.
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
}

func TestChainedCallMarksDefinitionUsed(t *testing.T) {
	diags := analyze(t, `def get_parent():
    pass

def run(node):
    node.get_parent().show()

run(None)`)

	if d := findDiag(diags, diag.CodeUnusedFunction); d != nil {
		t.Errorf("chained segment did not mark use: %+v", d)
	}
	if d := findDiag(diags, diag.CodeUndefinedReference); d != nil {
		t.Errorf("attribute segment reported undefined: %+v", d)
	}
}

func TestImplicitGlobalUse(t *testing.T) {
	diags := analyze(t, `counter = 0

def bump():
    print(counter)
    counter = counter+1

bump()
print(counter)`)

	d := findDiag(diags, diag.CodeImplicitGlobal)
	if d == nil {
		t.Fatalf("no implicit-global diagnostic: %v", diags)
	}
	if d.Line != 4 || !strings.Contains(d.Message, "'counter'") {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestGlobalStatementSuppressesImplicitGlobal(t *testing.T) {
	diags := analyze(t, `counter = 0

def bump():
    global counter
    print(counter)
    counter = counter+1

bump()
print(counter)`)

	if d := findDiag(diags, diag.CodeImplicitGlobal); d != nil {
		t.Errorf("global statement not honored: %+v", d)
	}
}

func TestLoopVariableAfterLoopIsAdvisory(t *testing.T) {
	diags := analyze(t, `def f(items):
    for item in items:
        print(item)
    print(item)

f([1])`)

	d := findDiag(diags, diag.CodeUndefinedReference)
	if d == nil {
		t.Fatalf("no advisory: %v", diags)
	}
	if d.Severity != diag.SevAdvisory || d.Line != 4 {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestLoopVariableInsideLoopIsClean(t *testing.T) {
	diags := analyze(t, `def f(items):
    for item in items:
        print(item)

f([1])`)

	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
}

func TestControlHeadersDoNotOpenScopes(t *testing.T) {
	diags := analyze(t, `def f(flag):
    if flag:
        inner = 1
    return inner

f(True)`)

	// inner is declared inside the if body but the function scope holds
	// it; the read after the block resolves.
	if d := findDiag(diags, diag.CodeUndefinedReference); d != nil {
		t.Errorf("control block leaked a scope: %+v", d)
	}
}

func TestWithAsBindsName(t *testing.T) {
	diags := analyze(t, `def read(path):
    with open(path) as handle:
        return handle.read()

read("x")`)

	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
}

func TestClassVariableAndMethodResolution(t *testing.T) {
	diags := analyze(t, `class Rect:
    sides = 4

    def __init__(self, w, h):
        self.w = w
        self.h = h

    def area(self):
        return self.w*self.h

r = Rect(2, 3)
print(r.area(), Rect.sides)`)

	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
}

func TestUnusedMethodReported(t *testing.T) {
	diags := analyze(t, `class C:
    def used(self):
        pass

    def forgotten(self):
        pass

c = C()
c.used()`)

	d := findDiag(diags, diag.CodeUnusedFunction)
	if d == nil {
		t.Fatalf("no unused-function diagnostic: %v", diags)
	}
	if !strings.Contains(d.Message, "'forgotten'") || d.Path != "test.py > C" {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestMethodSharedNameMarksAllCandidates(t *testing.T) {
	// Without receiver types, x.save() keeps every class's save alive.
	diags := analyze(t, `class Disk:
    def save(self):
        pass

class Cloud:
    def save(self):
        pass

def store(target):
    target.save()

store(Disk())
store(Cloud())`)

	if d := findDiag(diags, diag.CodeUnusedFunction); d != nil {
		t.Errorf("shared method name reported unused: %+v", d)
	}
}

func TestDiagnosticsFollowTraversalOrder(t *testing.T) {
	diags := analyze(t, `import os

def f():
    return missing

f()`)

	codes := codesOf(diags)
	// The undefined reference surfaces while f's scope is open; the
	// unused import waits for the file scope to close.
	if len(codes) != 2 || codes[0] != diag.CodeUndefinedReference || codes[1] != diag.CodeUnusedImport {
		t.Errorf("order = %v", codes)
	}
}

func TestFunctionLocalImport(t *testing.T) {
	diags := analyze(t, `def f():
    import json
    return json.dumps({})

def g():
    import json
    return 1

f()
g()`)

	// g's local import is never used; f's is.
	count := 0
	for _, d := range diags {
		if d.Code == diag.CodeUnusedImport {
			count++
			if d.Path != "test.py > g" {
				t.Errorf("unused import path = %q", d.Path)
			}
		}
	}
	if count != 1 {
		t.Errorf("unused imports = %d, want 1: %v", count, diags)
	}
}

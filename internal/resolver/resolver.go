// Package resolver walks the structural tree depth-first with an explicit
// scope stack and emits the scope diagnostics: unused imports, functions
// and classes that are never referenced, undefined or out-of-scope names,
// and reads of file-level names that a function later shadows without a
// global declaration.
package resolver

import (
	"fmt"
	"math"
	"strings"

	"pyscan/internal/diag"
	"pyscan/internal/parser"
)

type Engine struct {
	sink diag.Sink

	// methods indexes every class-scope method and nested-class
	// declaration by name. Attribute-call references (`r.area()`) carry no
	// receiver type, so they mark every declaration of that name used.
	methods map[string][]*declaration

	// pendingClasses holds class scopes whose unused reports are deferred
	// to the end of the file: methods are typically called from outside
	// the class body, after its scope has been left.
	pendingClasses []*Scope
}

func New(sink diag.Sink) *Engine {
	return &Engine{sink: sink, methods: make(map[string][]*declaration)}
}

// Resolve traverses one file. Diagnostics are emitted to the sink in
// traversal order: file order top to bottom, depth first, with each
// scope's unused-name findings at the point that scope closes.
func (e *Engine) Resolve(f *parser.File) {
	scope := newScope(ScopeFile, f.Name, nil)

	// The file root is seeded up front: imports, global assignment
	// targets and every top-level function and class name are visible to
	// all descendants.
	for _, imp := range f.Imports {
		for _, n := range imp.BoundNames() {
			scope.declare(n, declImport, imp.Line)
		}
	}
	for _, a := range f.Globals {
		for _, t := range a.Targets {
			if isBareName(t) {
				scope.declare(t, declAssign, a.Line)
			}
		}
	}
	for _, fn := range f.Functions {
		if fn.Name != "" {
			scope.declare(fn.Name, declFunction, fn.Line)
		}
	}
	for _, cl := range f.Classes {
		if cl.Name != "" {
			scope.declare(cl.Name, declClass, cl.Line)
		}
	}

	e.walk(fileNode(f), scope)
	for _, cs := range e.pendingClasses {
		e.closeScope(cs)
	}
	e.closeScope(scope)
}

// node is the resolver's flat view of one tree entity: its body statements
// plus child lookups keyed by header line.
type node struct {
	body    []parser.Stmt
	funcs   map[int]*parser.Function
	classes map[int]*parser.Class
	assigns map[int]*parser.Assignment
}

func fileNode(f *parser.File) node {
	return makeNode(f.Body, f.Functions, f.Classes, f.Globals)
}

func funcNode(fn *parser.Function) node {
	return makeNode(fn.Body, fn.Functions, fn.Classes, fn.Assignments)
}

func classNode(cl *parser.Class) node {
	return makeNode(cl.Body, cl.Methods, cl.Classes, cl.Variables)
}

func makeNode(body []parser.Stmt, fns []*parser.Function, cls []*parser.Class, assigns []*parser.Assignment) node {
	n := node{
		body:    body,
		funcs:   make(map[int]*parser.Function, len(fns)),
		classes: make(map[int]*parser.Class, len(cls)),
		assigns: make(map[int]*parser.Assignment, len(assigns)),
	}
	for _, fn := range fns {
		n.funcs[fn.Line] = fn
	}
	for _, cl := range cls {
		n.classes[cl.Line] = cl
	}
	for _, a := range assigns {
		n.assigns[a.Line] = a
	}
	return n
}

func (e *Engine) walk(n node, scope *Scope) {
	for i, stmt := range n.body {
		switch stmt.Kind {
		case parser.KindAssignment:
			e.resolveAssignment(n, stmt, scope)
		case parser.KindControl:
			e.resolveControl(n, i, stmt, scope)
		case parser.KindReturn:
			e.resolveReturn(stmt, scope)
		case parser.KindExpression:
			e.resolveUses(parser.ExtractRefs(stmt.Line.Text), stmt.Line.Number, scope)
		case parser.KindScopeDecl:
			e.resolveScopeDecl(stmt, scope)
		case parser.KindImport, parser.KindFromImport:
			e.resolveImport(stmt, scope)
		case parser.KindFunctionDef:
			e.enterFunction(n.funcs[stmt.Line.Number], scope)
		case parser.KindClassDef:
			e.enterClass(n.classes[stmt.Line.Number], scope)
		case parser.KindUnknown:
			// Unclassifiable text is skipped, not guessed at.
		}
	}
}

func (e *Engine) resolveAssignment(n node, stmt parser.Stmt, scope *Scope) {
	a := n.assigns[stmt.Line.Number]
	if a == nil {
		// Assignments nested inside a class body's control blocks are not
		// collected as class variables; re-parse them here.
		var ok bool
		a, ok = parser.ParseAssignment(stmt.Line.Text, stmt.Line.Number)
		if !ok {
			return
		}
	}

	declared, used := parser.AnalyzeAssignment(a)
	e.resolveUses(used, a.Line, scope)
	for _, name := range declared {
		if scope.widened[name] {
			scope.file().declare(name, declAssign, a.Line)
			continue
		}
		scope.declare(name, declAssign, a.Line)
	}
}

func (e *Engine) resolveControl(n node, idx int, stmt parser.Stmt, scope *Scope) {
	text := stmt.Line.Text
	first := firstKeyword(text)

	switch first {
	case "for":
		targets, iterable, ok := parser.SplitForHeader(text)
		if !ok {
			return
		}
		e.resolveUses(parser.ExtractRefs(iterable), stmt.Line.Number, scope)
		end := loopEndLine(n.body, idx)
		for _, t := range targets {
			if !isBareName(t) {
				continue
			}
			d := scope.declare(t, declLoopVar, stmt.Line.Number)
			if d.kind == declLoopVar {
				d.loopEnd = end
			}
		}
	case "if", "elif", "while":
		cond := strings.TrimSuffix(strings.TrimSpace(text[len(first):]), ":")
		e.resolveUses(parser.ExtractRefs(cond), stmt.Line.Number, scope)
	case "with", "except":
		body := strings.TrimSuffix(strings.TrimSpace(text[len(first):]), ":")
		expr := body
		if as := parser.KeywordIndex(body, "as"); as >= 0 {
			expr = body[:as]
			bound := strings.TrimSpace(body[as+len("as"):])
			if isBareName(bound) {
				scope.declare(bound, declAssign, stmt.Line.Number)
			}
		}
		e.resolveUses(parser.ExtractRefs(expr), stmt.Line.Number, scope)
	case "else", "try", "finally":
		// No expression of their own; they never open a scope either.
	}
}

func (e *Engine) resolveReturn(stmt parser.Stmt, scope *Scope) {
	text := stmt.Line.Text
	rest := strings.TrimSpace(text[len(firstKeyword(text)):])
	if rest != "" {
		e.resolveUses(parser.ExtractRefs(rest), stmt.Line.Number, scope)
	}
}

func (e *Engine) resolveScopeDecl(stmt parser.Stmt, scope *Scope) {
	text := stmt.Line.Text
	rest := strings.TrimSpace(text[len(firstKeyword(text)):])
	for _, name := range strings.Split(rest, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			scope.widened[name] = true
		}
	}
}

func (e *Engine) resolveImport(stmt parser.Stmt, scope *Scope) {
	if scope.kind == ScopeFile {
		return // seeded up front
	}
	imp, ok := parseImportLine(stmt.Line.Text, stmt.Line.Number)
	if !ok {
		return
	}
	for _, n := range imp.BoundNames() {
		scope.declare(n, declImport, imp.Line)
	}
}

func (e *Engine) enterFunction(fn *parser.Function, scope *Scope) {
	if fn == nil {
		return
	}
	// Default values are evaluated in the defining scope.
	for _, p := range fn.Params {
		if p.Default != "" {
			e.resolveUses(parser.ExtractRefs(p.Default), fn.Line, scope)
		}
	}

	name := fn.Name
	if name == "" {
		name = "<malformed def>"
	} else if scope.kind == ScopeFunction {
		// Nested functions become visible to their later siblings.
		scope.declare(name, declFunction, fn.Line)
	}

	fnScope := newScope(ScopeFunction, scope.path+" > "+name, scope)
	for _, p := range fn.Params {
		if p.Name == "" {
			continue
		}
		d := fnScope.declare(p.Name, declParam, fn.Line)
		d.used = true // parameters are not subject to unused reporting
	}
	for _, a := range fn.Assignments {
		for _, t := range a.Targets {
			if isBareName(t) {
				fnScope.assignsLater[t] = true
			}
		}
	}

	e.walk(funcNode(fn), fnScope)
	e.closeScope(fnScope)
}

func (e *Engine) enterClass(cl *parser.Class, scope *Scope) {
	if cl == nil {
		return
	}
	for _, parent := range cl.Parents {
		e.resolveUses(parser.ExtractRefs(parent), cl.Line, scope)
	}

	name := cl.Name
	if name == "" {
		name = "<malformed class>"
	} else if scope.kind == ScopeFunction {
		scope.declare(name, declClass, cl.Line)
	}

	clScope := newScope(ScopeClass, scope.path+" > "+name, scope)
	for _, a := range cl.Variables {
		for _, t := range a.Targets {
			if isBareName(t) {
				clScope.declare(t, declAssign, a.Line)
			}
		}
	}
	for _, m := range cl.Methods {
		if m.Name != "" {
			d := clScope.declare(m.Name, declFunction, m.Line)
			e.methods[m.Name] = append(e.methods[m.Name], d)
		}
	}
	for _, nested := range cl.Classes {
		if nested.Name != "" {
			d := clScope.declare(nested.Name, declClass, nested.Line)
			e.methods[nested.Name] = append(e.methods[nested.Name], d)
		}
	}

	e.walk(classNode(cl), clScope)
	e.pendingClasses = append(e.pendingClasses, clScope)
}

func (e *Engine) resolveUses(refs []parser.Ref, line int, scope *Scope) {
	for _, ref := range refs {
		e.resolveName(ref, line, scope)
	}
}

func (e *Engine) resolveName(ref parser.Ref, line int, scope *Scope) {
	if ref.Attr {
		// The receiver type is unknown, so an attribute call can only mark
		// plausible targets used; it is never itself reported undefined.
		if d, _ := scope.lookup(ref.Name); d != nil {
			d.used = true
		}
		for _, md := range e.methods[ref.Name] {
			md.used = true
		}
		return
	}

	d, holder := scope.lookup(ref.Name)
	if d == nil {
		if pythonBuiltins[ref.Name] {
			return
		}
		if scope.flagged[ref.Name] {
			return
		}
		scope.flagged[ref.Name] = true
		e.sink.Emit(diag.Diagnostic{
			Code:     diag.CodeUndefinedReference,
			Severity: diag.SevWarning,
			Line:     line,
			Path:     scope.path,
			Message:  fmt.Sprintf("reference to undefined or out-of-scope name '%s'", ref.Name),
		})
		return
	}

	d.used = true

	// Reading a file-level name that this function assigns later, with no
	// global declaration in between, relies on Python's implicit global
	// lookup and then silently shadows it.
	if holder.kind == ScopeFile && holder != scope {
		if fs := enclosingFunction(scope); fs != nil && fs.assignsLater[ref.Name] &&
			!fs.widened[ref.Name] && !fs.flagged["global:"+ref.Name] {
			fs.flagged["global:"+ref.Name] = true
			e.sink.Emit(diag.Diagnostic{
				Code:     diag.CodeImplicitGlobal,
				Severity: diag.SevWarning,
				Line:     line,
				Path:     scope.path,
				Message:  fmt.Sprintf("'%s' reads the file-level value but is assigned locally later; declare it global or rename the local", ref.Name),
			})
			return
		}
	}

	if d.kind == declLoopVar && holder == scope && d.loopEnd > 0 && line > d.loopEnd &&
		!scope.flagged["loop:"+ref.Name] {
		scope.flagged["loop:"+ref.Name] = true
		e.sink.Emit(diag.Diagnostic{
			Code:     diag.CodeUndefinedReference,
			Severity: diag.SevAdvisory,
			Line:     line,
			Path:     scope.path,
			Message:  fmt.Sprintf("loop variable '%s' is used after the loop that defined it", ref.Name),
		})
	}
}

// closeScope reports this scope's never-used imports and never-referenced
// functions and classes, in declaration order.
func (e *Engine) closeScope(s *Scope) {
	for _, d := range s.order {
		if d.used {
			continue
		}
		switch d.kind {
		case declImport:
			e.sink.Emit(diag.Diagnostic{
				Code:     diag.CodeUnusedImport,
				Severity: diag.SevWarning,
				Line:     d.line,
				Path:     s.path,
				Message:  fmt.Sprintf("import '%s' is never used", d.name),
			})
		case declFunction:
			if isDunder(d.name) {
				continue // __init__ and friends are called by the runtime
			}
			e.sink.Emit(diag.Diagnostic{
				Code:     diag.CodeUnusedFunction,
				Severity: diag.SevWarning,
				Line:     d.line,
				Path:     s.path,
				Message:  fmt.Sprintf("function '%s' is never called", d.name),
			})
		case declClass:
			e.sink.Emit(diag.Diagnostic{
				Code:     diag.CodeUnusedFunction,
				Severity: diag.SevWarning,
				Line:     d.line,
				Path:     s.path,
				Message:  fmt.Sprintf("class '%s' is never used", d.name),
			})
		}
	}
}

func enclosingFunction(s *Scope) *Scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.kind == ScopeFunction {
			return cur
		}
	}
	return nil
}

// loopEndLine finds the last source line of the loop block headed by
// body[idx], using the first later statement at or above the header's
// depth as the boundary.
func loopEndLine(body []parser.Stmt, idx int) int {
	d := body[idx].Line.Depth
	for j := idx + 1; j < len(body); j++ {
		if body[j].Line.Depth <= d {
			return body[j].Line.Number - 1
		}
	}
	return math.MaxInt
}

func firstKeyword(text string) string {
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return text[:i]
		}
	}
	return text
}

func isBareName(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func isDunder(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// parseImportLine re-parses a function-local import statement.
func parseImportLine(text string, line int) (parser.Import, bool) {
	return parser.ParseImport(text, line)
}

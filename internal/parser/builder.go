package parser

import "sort"

// BuildFile materializes the File → {Function, Class} tree from the
// preprocessed line stream. The builder recurses on sub-slices with no
// depth-specific special casing beyond relative depth, so arbitrarily
// nested constructs parse the same as singly nested ones. A malformed
// header yields a default entity of the same kind; one broken construct
// never aborts the rest of the build.
func BuildFile(name string, lines []Line) *File {
	f := &File{Name: name}
	buildBody(lines, &fileCollector{file: f})
	return f
}

// collector receives what buildBody finds at one scope's body level.
type collector interface {
	addStmt(Stmt)
	addImport(Import)
	addAssignment(a *Assignment, depth int)
	addFunction(fn *Function)
	addClass(cl *Class)
}

func buildBody(lines []Line, c collector) {
	i := 0
	for i < len(lines) {
		ln := lines[i]
		kind := Classify(ln.Text)
		c.addStmt(Stmt{Line: ln, Kind: kind})

		switch kind {
		case KindFunctionDef:
			end := blockEnd(lines, i)
			c.addFunction(buildFunction(ln, lines[i+1:end]))
			i = end
		case KindClassDef:
			end := blockEnd(lines, i)
			c.addClass(buildClass(ln, lines[i+1:end]))
			i = end
		case KindImport, KindFromImport:
			if imp, ok := parseImport(ln.Text, ln.Number); ok {
				c.addImport(imp)
			}
			i++
		case KindAssignment:
			if a, ok := parseAssignment(ln.Text, ln.Number); ok {
				c.addAssignment(a, ln.Depth)
			}
			i++
		default:
			i++
		}
	}
}

// blockEnd returns the index of the first line at or above the header's
// depth, i.e. one past the header's body.
func blockEnd(lines []Line, header int) int {
	d := lines[header].Depth
	for j := header + 1; j < len(lines); j++ {
		if lines[j].Depth <= d {
			return j
		}
	}
	return len(lines)
}

func buildFunction(header Line, body []Line) *Function {
	fn := &Function{Line: header.Number, Depth: header.Depth}
	if name, params, ok := parseFunctionHeader(header.Text); ok {
		fn.Name = name
		fn.Params = params
	}
	buildBody(body, &functionCollector{fn: fn})
	return fn
}

func buildClass(header Line, body []Line) *Class {
	cl := &Class{Line: header.Number, Depth: header.Depth}
	if name, parents, ok := parseClassHeader(header.Text); ok {
		cl.Name = name
		cl.Parents = parents
	}
	bodyDepth := header.Depth + 1
	if len(body) > 0 {
		bodyDepth = body[0].Depth
	}
	buildBody(body, &classCollector{cl: cl, bodyDepth: bodyDepth})
	return cl
}

type fileCollector struct{ file *File }

func (c *fileCollector) addStmt(s Stmt)       { c.file.Body = append(c.file.Body, s) }
func (c *fileCollector) addImport(imp Import) { c.file.Imports = append(c.file.Imports, imp) }
func (c *fileCollector) addAssignment(a *Assignment, _ int) {
	c.file.Globals = append(c.file.Globals, a)
}
func (c *fileCollector) addFunction(fn *Function) { c.file.Functions = append(c.file.Functions, fn) }
func (c *fileCollector) addClass(cl *Class)       { c.file.Classes = append(c.file.Classes, cl) }

type functionCollector struct{ fn *Function }

func (c *functionCollector) addStmt(s Stmt) { c.fn.Body = append(c.fn.Body, s) }
func (c *functionCollector) addImport(Import) {
	// Function-local imports stay in the body; the resolver declares their
	// bound names lazily like any other local binding.
}
func (c *functionCollector) addAssignment(a *Assignment, _ int) {
	c.fn.Assignments = append(c.fn.Assignments, a)
}
func (c *functionCollector) addFunction(fn *Function) { c.fn.Functions = append(c.fn.Functions, fn) }
func (c *functionCollector) addClass(cl *Class)       { c.fn.Classes = append(c.fn.Classes, cl) }

type classCollector struct {
	cl        *Class
	bodyDepth int
}

func (c *classCollector) addStmt(s Stmt)   { c.cl.Body = append(c.cl.Body, s) }
func (c *classCollector) addImport(Import) {}
func (c *classCollector) addAssignment(a *Assignment, depth int) {
	// Only assignments at the class body's own level are class variables;
	// anything deeper was inside a control block, which still belongs to
	// the class scope, but never inside a method (methods consume their
	// own lines before this collector sees them).
	if depth == c.bodyDepth {
		c.cl.Variables = append(c.cl.Variables, a)
	}
}
func (c *classCollector) addFunction(fn *Function) { c.cl.Methods = append(c.cl.Methods, fn) }
func (c *classCollector) addClass(cl *Class)       { c.cl.Classes = append(c.cl.Classes, cl) }

// FlattenLines reconstructs the ordered logical lines of the whole tree,
// used by the round-trip tests: a node's body statements merged with its
// children's reconstructions, sorted by source line.
func (f *File) FlattenLines() []Line {
	var out []Line
	for _, s := range f.Body {
		out = append(out, s.Line)
	}
	for _, fn := range f.Functions {
		out = append(out, fn.flatten()...)
	}
	for _, cl := range f.Classes {
		out = append(out, cl.flatten()...)
	}
	sortLines(out)
	return dedupeLines(out)
}

func (fn *Function) flatten() []Line {
	var out []Line
	for _, s := range fn.Body {
		out = append(out, s.Line)
	}
	for _, child := range fn.Functions {
		out = append(out, child.flatten()...)
	}
	for _, child := range fn.Classes {
		out = append(out, child.flatten()...)
	}
	return out
}

func (cl *Class) flatten() []Line {
	var out []Line
	for _, s := range cl.Body {
		out = append(out, s.Line)
	}
	for _, m := range cl.Methods {
		out = append(out, m.flatten()...)
	}
	for _, child := range cl.Classes {
		out = append(out, child.flatten()...)
	}
	return out
}

func sortLines(lines []Line) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].Number < lines[j].Number })
}

func dedupeLines(lines []Line) []Line {
	out := lines[:0]
	for i, ln := range lines {
		if i == 0 || ln.Number != lines[i-1].Number {
			out = append(out, ln)
		}
	}
	return out
}

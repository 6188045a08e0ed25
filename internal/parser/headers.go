package parser

import "strings"

// parseFunctionHeader extracts the name and parameter list from a
// `def name(params)->ret:` line. ok is false when the header does not
// parse; the builder then degrades to a default entity instead of
// aborting the build.
func parseFunctionHeader(text string) (name string, params []Param, ok bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "def"))
	open := indexOutsideQuotes(rest, '(')
	if open <= 0 {
		return "", nil, false
	}
	name = strings.TrimSpace(rest[:open])
	if !isIdentifier(name) {
		return "", nil, false
	}

	closing := matchBracket(rest, open)
	if closing < 0 {
		return "", nil, false
	}
	tail := strings.TrimSpace(rest[closing+1:])
	if tail != ":" && !(strings.HasPrefix(tail, "->") && strings.HasSuffix(tail, ":")) {
		return "", nil, false
	}

	inner := rest[open+1 : closing]
	if strings.TrimSpace(inner) == "" {
		return name, nil, true
	}
	for _, part := range splitTopLevel(inner, ',') {
		if part == "" {
			continue
		}
		params = append(params, parseParam(part))
	}
	return name, params, true
}

func parseParam(part string) Param {
	p := Param{}
	for strings.HasPrefix(part, "*") {
		p.Star += "*"
		part = part[1:]
	}
	if eq := findAssignment(part); eq != nil && eq.augment == "" {
		p.Default = strings.TrimSpace(part[eq.index+1:])
		part = strings.TrimSpace(part[:eq.index])
	}
	// Drop a type hint; only the name matters for scope purposes.
	if colon := indexOutsideQuotes(part, ':'); colon >= 0 {
		part = strings.TrimSpace(part[:colon])
	}
	p.Name = strings.TrimSpace(part)
	return p
}

// parseClassHeader extracts the name and parent list from a
// `class Name(Parent, ...):` or `class Name:` line.
func parseClassHeader(text string) (name string, parents []string, ok bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "class"))
	if !strings.HasSuffix(rest, ":") {
		return "", nil, false
	}
	rest = strings.TrimSpace(rest[:len(rest)-1])

	open := indexOutsideQuotes(rest, '(')
	if open < 0 {
		if !isIdentifier(rest) {
			return "", nil, false
		}
		return rest, nil, true
	}

	name = strings.TrimSpace(rest[:open])
	if !isIdentifier(name) {
		return "", nil, false
	}
	closing := matchBracket(rest, open)
	if closing < 0 || strings.TrimSpace(rest[closing+1:]) != "" {
		return "", nil, false
	}
	inner := rest[open+1 : closing]
	for _, part := range splitTopLevel(inner, ',') {
		if part != "" {
			parents = append(parents, part)
		}
	}
	return name, parents, true
}

// parseImport parses `import a.b as c` and `from a import (b as x, c)`
// lines into an Import record.
func parseImport(text string, line int) (Import, bool) {
	if strings.HasPrefix(text, "import ") {
		rest := strings.TrimSpace(text[len("import "):])
		if rest == "" {
			return Import{}, false
		}
		imp := Import{Line: line}
		imp.Module, imp.Alias = splitAlias(rest)
		return imp, true
	}

	rest := strings.TrimSpace(text[len("from "):])
	sep := strings.Index(rest, " import")
	if sep < 0 {
		return Import{}, false
	}
	// Normalization removes the space before an opening paren, so both
	// "import x" and "import(x)" occur here.
	after := rest[sep+len(" import"):]
	if after == "" || (after[0] != ' ' && after[0] != '(') {
		return Import{}, false
	}
	imp := Import{Line: line, Module: strings.TrimSpace(rest[:sep])}
	items := strings.TrimSpace(after)
	items = strings.TrimPrefix(items, "(")
	items = strings.TrimSuffix(items, ")")
	for _, part := range splitTopLevel(items, ',') {
		if part == "" {
			continue
		}
		name, alias := splitAlias(part)
		imp.Items = append(imp.Items, ImportItem{Name: name, Alias: alias})
	}
	if len(imp.Items) == 0 {
		return Import{}, false
	}
	return imp, true
}

func splitAlias(s string) (name, alias string) {
	if i := strings.Index(s, " as "); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(" as "):])
	}
	return strings.TrimSpace(s), ""
}

// parseAssignment parses one assignment-classified line. Compound
// operators are normalized here: the target is also recorded as read by
// marking the assignment augmented.
func parseAssignment(text string, line int) (*Assignment, bool) {
	op := findAssignment(text)
	if op == nil {
		return nil, false
	}

	lhsEnd := op.index - len(op.augment)
	lhs := strings.TrimSpace(text[:lhsEnd])
	rhs := strings.TrimSpace(text[op.index+1:])
	if lhs == "" || rhs == "" {
		return nil, false
	}

	a := &Assignment{Line: line, RHS: rhs, Augmented: op.augment != ""}

	// A type hint only applies to a single bare target: `x: int = 5`.
	targets := splitTopLevel(lhs, ',')
	if len(targets) == 1 {
		if colon := indexOutsideQuotes(targets[0], ':'); colon >= 0 && bracketBalance(targets[0][:colon]) == 0 {
			a.TypeHint = strings.TrimSpace(targets[0][colon+1:])
			targets[0] = strings.TrimSpace(targets[0][:colon])
		}
	}
	for _, t := range targets {
		if t != "" {
			a.Targets = append(a.Targets, t)
		}
	}
	if len(a.Targets) == 0 {
		return nil, false
	}
	return a, true
}

// ParseImport parses a plain or from-import line; the resolver uses it for
// imports that appear inside function bodies.
func ParseImport(text string, line int) (Import, bool) {
	return parseImport(text, line)
}

// ParseAssignment parses an assignment-classified line. The builder calls
// it through parseAssignment; the resolver re-parses body statements that
// were not collected structurally (assignments nested in control blocks of
// a class body).
func ParseAssignment(text string, line int) (*Assignment, bool) {
	return parseAssignment(text, line)
}

// SplitForHeader splits a `for TARGETS in EXPR:` header into its loop
// targets and the iterated expression.
func SplitForHeader(text string) (targets []string, iterable string, ok bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "for"))
	rest = strings.TrimSuffix(rest, ":")
	in := keywordIndex(rest, "in")
	if in < 0 {
		return nil, "", false
	}
	for _, t := range splitTopLevel(rest[:in], ',') {
		if t != "" {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return nil, "", false
	}
	return targets, strings.TrimSpace(rest[in+len("in"):]), true
}

// matchBracket returns the index of the bracket closing the one at open,
// or -1. Unbalanced input at this stage indicates a classifier defect, not
// malformed source, so callers treat -1 as a recoverable degradation.
func matchBracket(s string, open int) int {
	mask := quoteMask(s)
	depth := 0
	for i := open; i < len(s); i++ {
		if mask[i] {
			continue
		}
		if openBracket(s[i]) {
			depth++
		} else if closeBracket(s[i]) {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

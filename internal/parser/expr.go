package parser

import "strings"

// Reference extraction. Given raw expression text the analyzer returns the
// set of referenced names: quoted text is skipped, bracket nesting is
// respected, inline conditionals are split and chained call segments each
// contribute their own name (`a.get_parent().show()` references a,
// get_parent and show). Plain attribute segments (`a.b`) reference only
// the base name.

// Ref is one extracted name reference. Attr marks an attribute-call
// segment (`get_parent` in `a.get_parent()`): without type inference the
// receiver is unknown, so such references mark a matching declaration as
// used but are never themselves reported undefined.
type Ref struct {
	Name string
	Attr bool
}

// ExtractRefs returns the referenced names of an expression, duplicates
// collapsed, in first-appearance order.
func ExtractRefs(text string) []Ref {
	seen := make(map[string]bool)
	var out []Ref
	collectRefs(text, seen, &out)
	return out
}

// RefNames is a convenience for callers that only need the name set.
func RefNames(text string) []string {
	refs := ExtractRefs(text)
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names
}

func collectRefs(text string, seen map[string]bool, out *[]Ref) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	// Inline conditional: A if COND else B, split only at top level.
	if a, cond, b, ok := splitConditional(text); ok {
		collectRefs(a, seen, out)
		collectRefs(cond, seen, out)
		collectRefs(b, seen, out)
		return
	}

	for _, tok := range scanTokens(text) {
		if pythonKeywords[tok.text] {
			continue
		}
		// A plain attribute read (`a.b`) references only its base.
		if tok.dotted && !tok.called {
			continue
		}
		if !seen[tok.text] {
			seen[tok.text] = true
			*out = append(*out, Ref{Name: tok.text, Attr: tok.dotted})
		}
	}
}

// splitConditional recognizes `A if COND else B` with both keywords at
// bracket depth zero and outside quotes.
func splitConditional(text string) (a, cond, b string, ok bool) {
	ifIdx := keywordIndex(text, "if")
	if ifIdx <= 0 {
		return "", "", "", false
	}
	elseIdx := keywordIndex(text[ifIdx:], "else")
	if elseIdx < 0 {
		return "", "", "", false
	}
	elseIdx += ifIdx
	return text[:ifIdx], text[ifIdx+len("if"):elseIdx], text[elseIdx+len("else"):], true
}

// KeywordIndex finds a freestanding keyword at bracket depth zero outside
// quotes, or -1.
func KeywordIndex(text, kw string) int {
	return keywordIndex(text, kw)
}

func keywordIndex(text, kw string) int {
	mask := quoteMask(text)
	depth := 0
	for i := 0; i+len(kw) <= len(text); i++ {
		if mask[i] {
			continue
		}
		c := text[i]
		if openBracket(c) {
			depth++
			continue
		}
		if closeBracket(c) {
			depth--
			continue
		}
		if depth != 0 || text[i:i+len(kw)] != kw {
			continue
		}
		before := i == 0 || !isIdentByte(text[i-1])
		after := i+len(kw) == len(text) || !isIdentByte(text[i+len(kw)])
		if before && after {
			return i
		}
	}
	return -1
}

// AnalyzeAssignment splits an assignment into declared names and read
// references. Bare-name targets declare; dotted, indexed or call-qualified
// targets read their base name (and any bracketed sub-expression) instead.
// An augmented assignment reads its own target before declaring it.
func AnalyzeAssignment(a *Assignment) (declared []string, used []Ref) {
	seen := make(map[string]bool)
	addUse := func(refs ...Ref) {
		for _, r := range refs {
			if r.Name != "" && !seen[r.Name] {
				seen[r.Name] = true
				used = append(used, r)
			}
		}
	}

	for _, target := range a.Targets {
		if isIdentifier(target) {
			declared = append(declared, target)
			if a.Augmented {
				addUse(Ref{Name: target})
			}
			continue
		}
		addUse(targetRefs(target)...)
	}

	if a.TypeHint != "" {
		addUse(ExtractRefs(a.TypeHint)...)
	}
	addUse(ExtractRefs(a.RHS)...)
	return declared, used
}

// targetRefs extracts the names a non-bare assignment target reads: the
// base name, every called chain segment, and anything inside subscript
// brackets.
func targetRefs(target string) []Ref {
	var refs []Ref
	for _, tok := range scanTokens(target) {
		if pythonKeywords[tok.text] {
			continue
		}
		if tok.dotted && !tok.called {
			continue
		}
		refs = append(refs, Ref{Name: tok.text, Attr: tok.dotted})
	}
	return refs
}

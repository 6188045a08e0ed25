package parser

import "strings"

// Scanning helpers shared by the preprocessor, classifier and expression
// analyzer. All of them treat single- and double-quoted spans as opaque and
// track (), [] and {} nesting; none of them implement a real grammar.

// quoteMask returns a bool per byte of s, true when the byte sits inside a
// quoted string (the delimiting quotes themselves are included). A quote
// preceded by a backslash does not toggle state.
func quoteMask(s string) []bool {
	mask := make([]bool, len(s))
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			mask[i] = true
			if c == quote && !isEscaped(s, i) {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			mask[i] = true
		}
	}
	return mask
}

func isEscaped(s string, i int) bool {
	backslashes := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		backslashes++
	}
	return backslashes%2 == 1
}

// indexOutsideQuotes returns the index of the first occurrence of c that is
// not inside a quoted string, or -1.
func indexOutsideQuotes(s string, c byte) int {
	mask := quoteMask(s)
	for i := 0; i < len(s); i++ {
		if s[i] == c && !mask[i] {
			return i
		}
	}
	return -1
}

func openBracket(c byte) bool  { return c == '(' || c == '[' || c == '{' }
func closeBracket(c byte) bool { return c == ')' || c == ']' || c == '}' }

// bracketBalance returns the nesting delta of s, counting brackets outside
// quotes only. A well-formed logical line has balance zero.
func bracketBalance(s string) int {
	mask := quoteMask(s)
	depth := 0
	for i := 0; i < len(s); i++ {
		if mask[i] {
			continue
		}
		if openBracket(s[i]) {
			depth++
		} else if closeBracket(s[i]) {
			depth--
		}
	}
	return depth
}

// splitTopLevel splits s at every occurrence of sep that is outside quotes
// and at bracket depth zero. Parts are trimmed of surrounding spaces; empty
// parts are kept so callers can detect malformed input.
func splitTopLevel(s string, sep byte) []string {
	mask := quoteMask(s)
	depth := 0
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if mask[i] {
			continue
		}
		c := s[i]
		switch {
		case openBracket(c):
			depth++
		case closeBracket(c):
			depth--
		case c == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

// assignmentOp describes the operator found by findAssignment.
type assignmentOp struct {
	index   int    // byte index of the '=' sign
	augment string // "+", "-", "*", "/", "//", "**", "%", "^", "&", "|" or ""
}

// findAssignment locates the top-level assignment operator in s, honoring
// the invariant that any further '=' must be balanced inside quotes or
// brackets. Comparison (==, !=, <=, >=), arrow (->) and keyword-argument
// '=' signs never qualify. Returns nil when s is not an assignment.
func findAssignment(s string) *assignmentOp {
	mask := quoteMask(s)
	depth := 0
	var found *assignmentOp
	for i := 0; i < len(s); i++ {
		if mask[i] {
			continue
		}
		c := s[i]
		if openBracket(c) {
			depth++
			continue
		}
		if closeBracket(c) {
			depth--
			continue
		}
		if c != '=' || depth != 0 {
			continue
		}
		// Two-char comparison operators and '=='.
		if i+1 < len(s) && s[i+1] == '=' {
			i++ // skip the second '='
			continue
		}
		if i > 0 && strings.IndexByte("=<>!", s[i-1]) >= 0 {
			continue
		}
		if found != nil {
			// A second bare '=' at top level: chained assignment or
			// something stranger. Not recognized.
			return nil
		}
		op := &assignmentOp{index: i}
		if i > 0 {
			switch s[i-1] {
			case '+', '-', '%', '^', '&', '|':
				op.augment = string(s[i-1])
			case '*', '/':
				op.augment = string(s[i-1])
				if i > 1 && s[i-2] == s[i-1] {
					op.augment = string(s[i-2]) + string(s[i-1])
				}
			}
		}
		found = op
	}
	return found
}

// pythonKeywords are structural tokens, never name references.
var pythonKeywords = map[string]bool{
	"and": true, "or": true, "not": true, "is": true, "in": true,
	"if": true, "elif": true, "else": true, "for": true, "while": true,
	"return": true, "yield": true, "raise": true, "break": true,
	"continue": true, "pass": true, "def": true, "class": true,
	"import": true, "from": true, "as": true, "global": true,
	"nonlocal": true, "lambda": true, "try": true, "except": true,
	"finally": true, "with": true, "assert": true, "del": true,
	"True": true, "False": true, "None": true,
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isStringPrefix reports whether tok is a string-literal prefix such as
// the f in f"{x}".
func isStringPrefix(tok string) bool {
	if len(tok) > 2 {
		return false
	}
	for i := 0; i < len(tok); i++ {
		switch tok[i] {
		case 'f', 'r', 'b', 'u', 'F', 'R', 'B', 'U':
		default:
			return false
		}
	}
	return true
}

// token is one identifier occurrence found by scanTokens.
type token struct {
	text       string
	start      int
	dotted     bool // preceded by '.', i.e. an attribute segment
	called     bool // immediately followed by '('
	subscripts bool // immediately followed by '['
}

// scanTokens yields every identifier-shaped token of s that is outside
// quotes. Numeric literals (digit-led tokens) are skipped entirely.
func scanTokens(s string) []token {
	mask := quoteMask(s)
	var tokens []token
	i := 0
	for i < len(s) {
		if mask[i] || !isIdentByte(s[i]) {
			i++
			continue
		}
		start := i
		for i < len(s) && isIdentByte(s[i]) {
			i++
		}
		if !isIdentStart(s[start]) {
			continue // numeric literal, possibly with a unit-style suffix
		}
		if i < len(s) && (s[i] == '"' || s[i] == '\'') && isStringPrefix(s[start:i]) {
			continue // f"...", r'...' and friends
		}
		tok := token{text: s[start:i], start: start}
		if start > 0 && s[start-1] == '.' {
			tok.dotted = true
		}
		if i < len(s) && s[i] == '(' {
			tok.called = true
		}
		if i < len(s) && s[i] == '[' {
			tok.subscripts = true
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

package parser

import "strings"

// LineKind is the closed classification of a logical line. The classifier
// and the resolver switch exhaustively over it so a new kind cannot be
// silently ignored.
type LineKind int

const (
	KindUnknown LineKind = iota
	KindFunctionDef
	KindClassDef
	KindImport
	KindFromImport
	KindAssignment
	KindControl
	KindReturn // return, yield, raise, break, continue, pass
	KindScopeDecl
	KindExpression
)

func (k LineKind) String() string {
	switch k {
	case KindFunctionDef:
		return "function-def"
	case KindClassDef:
		return "class-def"
	case KindImport:
		return "import"
	case KindFromImport:
		return "from-import"
	case KindAssignment:
		return "assignment"
	case KindControl:
		return "control"
	case KindReturn:
		return "return"
	case KindScopeDecl:
		return "scope-decl"
	case KindExpression:
		return "expression"
	}
	return "unknown"
}

var controlKeywords = []string{"if", "elif", "else", "for", "while", "try", "except", "finally", "with"}

var returnKeywords = []string{"return", "yield", "raise", "break", "continue", "pass"}

// Classify decides the kind of one normalized logical line. Precedence:
// def/class headers, imports, assignment, control headers, return family,
// scope declarations, then anything call-shaped as an expression.
func Classify(text string) LineKind {
	switch {
	case isHeader(text, "def"):
		return KindFunctionDef
	case isHeader(text, "class"):
		return KindClassDef
	case strings.HasPrefix(text, "import "):
		return KindImport
	case strings.HasPrefix(text, "from "):
		return KindFromImport
	}

	if findAssignment(text) != nil {
		return KindAssignment
	}

	first := firstWord(text)
	for _, kw := range controlKeywords {
		if first == kw && strings.HasSuffix(text, ":") {
			return KindControl
		}
	}
	for _, kw := range returnKeywords {
		if first == kw {
			return KindReturn
		}
	}
	if first == "global" || first == "nonlocal" {
		return KindScopeDecl
	}

	if isCallLike(text) {
		return KindExpression
	}
	return KindUnknown
}

// isHeader matches `def ...:` and `class ...:` shapes. Validity of what
// sits between keyword and colon is the header parser's concern: a line
// that announces a def but fails to parse still owns its indented body,
// as a default entity.
func isHeader(text, keyword string) bool {
	if !strings.HasPrefix(text, keyword+" ") && !strings.HasPrefix(text, keyword+"\t") {
		return false
	}
	return strings.HasSuffix(text, ":")
}

func firstWord(text string) string {
	for i := 0; i < len(text); i++ {
		if !isIdentByte(text[i]) {
			return text[:i]
		}
	}
	return text
}

// isCallLike reports whether the line starts with an identifier followed
// by '.' or '(' somewhere outside quotes, i.e. a bare call or attribute
// expression statement.
func isCallLike(text string) bool {
	tokens := scanTokens(text)
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if tok.called {
			return true
		}
		end := tok.start + len(tok.text)
		if end < len(text) && text[end] == '.' {
			return true
		}
	}
	return false
}

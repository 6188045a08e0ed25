package parser

import (
	"fmt"
	"strings"

	"pyscan/internal/diag"
)

// Preprocessor turns physical source lines into ordered logical lines:
// comments are stripped, grouped imports are collapsed, whitespace is
// canonicalized and indentation is converted to a depth integer. It also
// raises the indentation diagnostics, which the engine later merges into
// the resolver's stream by line number.
type Preprocessor struct {
	// UnitOverride forces the indentation unit instead of inferring it
	// from the first indented line. Zero means infer.
	UnitOverride int
}

type PreprocessResult struct {
	Lines       []Line
	IndentUnit  int
	Diagnostics []diag.Diagnostic
}

const (
	tripleDouble = `"""`
	tripleSingle = `'''`
)

type rawLogical struct {
	number int
	indent string
	text   string
}

// Run processes the raw lines of one file. name is used as the entity path
// on emitted diagnostics.
func (p *Preprocessor) Run(name string, raw []string) PreprocessResult {
	logical := p.collect(raw)

	res := PreprocessResult{}
	unit := p.UnitOverride
	indentChar := byte(0)

	for _, ll := range logical {
		text := normalizeText(ll.text)
		if text == "" {
			continue
		}

		width := len(ll.indent)
		if width > 0 {
			if mixed, ch := indentStyle(ll.indent); mixed {
				res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
					Code:     diag.CodeInconsistentIndent,
					Severity: diag.SevWarning,
					Line:     ll.number,
					Path:     name,
					Message:  "indentation mixes tabs and spaces",
				})
			} else if indentChar == 0 {
				indentChar = ch
			} else if ch != indentChar {
				res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
					Code:     diag.CodeInconsistentIndent,
					Severity: diag.SevWarning,
					Line:     ll.number,
					Path:     name,
					Message:  "indentation character differs from the rest of the file",
				})
			}
			if unit == 0 {
				unit = width
			}
		}

		depth := 0
		if width > 0 && unit > 0 {
			if width%unit != 0 {
				res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
					Code:     diag.CodeInconsistentIndent,
					Severity: diag.SevWarning,
					Line:     ll.number,
					Path:     name,
					Message:  fmt.Sprintf("indentation of %d is not a multiple of the file unit %d", width, unit),
				})
			}
			depth = width / unit
		}

		res.Lines = append(res.Lines, Line{Number: ll.number, Depth: depth, Text: text})
	}

	if unit == 0 {
		unit = 4
	}
	res.IndentUnit = unit
	return res
}

// collect strips comments and collapses grouped imports, producing one
// rawLogical per surviving logical line.
func (p *Preprocessor) collect(raw []string) []rawLogical {
	var (
		out       []rawLogical
		inComment bool
		inLiteral bool
		marker    string
		pending   *rawLogical // grouped import under collection
	)

	flushPending := func() {
		if pending != nil {
			out = append(out, *pending)
			pending = nil
		}
	}

	for i, physical := range raw {
		number := i + 1
		text := physical

		if inComment || inLiteral {
			idx := strings.Index(text, marker)
			if idx < 0 {
				continue
			}
			rest := text[idx+len(marker):]
			if inLiteral {
				// The assignment line was already emitted with the
				// literal collapsed; trailing code after the closing
				// marker is outside best-effort range and dropped.
				inLiteral = false
				continue
			}
			inComment = false
			// Code may follow the closing marker on the same physical
			// line; a trailing single-line comment is stripped like any
			// other.
			text = rest
			if strings.TrimSpace(text) == "" {
				continue
			}
		}

		indent := leadingWhitespace(physical)
		code, state, stateMarker := stripComments(text)
		switch state {
		case blockComment:
			inComment = true
			marker = stateMarker
		case blockLiteral:
			inLiteral = true
			marker = stateMarker
		}

		code = strings.TrimRight(code, " \t\r")
		body := strings.TrimSpace(code)

		if pending != nil {
			if body != "" {
				pending.text += body
			}
			if bracketBalance(pending.text) <= 0 {
				flushPending()
			}
			continue
		}

		if body == "" {
			continue
		}

		if (strings.HasPrefix(body, "import ") || strings.HasPrefix(body, "from ")) &&
			bracketBalance(body) > 0 {
			pending = &rawLogical{number: number, indent: indent, text: body}
			continue
		}

		out = append(out, rawLogical{number: number, indent: indent, text: body})
	}
	flushPending()
	return out
}

type scanState int

const (
	plain scanState = iota
	blockComment
	blockLiteral
)

// stripComments removes a trailing single-line comment and handles
// triple-quoted spans on one physical line. A triple-quote that is part of
// a recognized assignment is a string literal: a same-line literal is kept
// verbatim, an unterminated one is collapsed to "" and opens literal state.
// Any other triple-quote opens (or wholly contains) a comment block.
func stripComments(s string) (string, scanState, string) {
	var out strings.Builder
	var quote byte
	i := 0
	for i < len(s) {
		c := s[i]
		if quote != 0 {
			out.WriteByte(c)
			if c == quote && !isEscaped(s, i) {
				quote = 0
			}
			i++
			continue
		}
		if c == '#' {
			return out.String(), plain, ""
		}
		if c == '"' || c == '\'' {
			m := string(c) + string(c) + string(c)
			if strings.HasPrefix(s[i:], m) {
				closing := strings.Index(s[i+3:], m)
				if isAssignmentPrefix(out.String()) {
					if closing >= 0 {
						out.WriteString(s[i : i+3+closing+3])
						i += 3 + closing + 3
						continue
					}
					out.WriteString(`""`)
					return out.String(), blockLiteral, m
				}
				if closing >= 0 {
					i += 3 + closing + 3
					continue
				}
				return out.String(), blockComment, m
			}
			quote = c
			out.WriteByte(c)
			i++
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String(), plain, ""
}

// isAssignmentPrefix reports whether the code preceding a triple-quote
// marker ends in an open assignment, which makes the marker a string
// literal rather than a comment delimiter.
func isAssignmentPrefix(prefix string) bool {
	trimmed := strings.TrimRight(prefix, " \t")
	if trimmed == "" {
		return false
	}
	op := findAssignment(trimmed)
	if op == nil {
		return false
	}
	// The marker must be on the right-hand side, possibly after an open
	// bracket or comma, not buried in the middle of complete code.
	return true
}

func leadingWhitespace(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return s[:i]
		}
	}
	return s
}

// indentStyle reports whether the indent mixes tabs and spaces, and the
// character it uses when uniform.
func indentStyle(indent string) (mixed bool, ch byte) {
	hasTab := strings.IndexByte(indent, '\t') >= 0
	hasSpace := strings.IndexByte(indent, ' ') >= 0
	if hasTab && hasSpace {
		return true, 0
	}
	if hasTab {
		return false, '\t'
	}
	return false, ' '
}

const punctuation = "=+-*/%<>!&|^~,:.()[]{}@;"

// normalizeText canonicalizes one logical line: whitespace runs outside
// quotes collapse to one space, spaces adjacent to punctuation are removed,
// then exactly one space is reinserted after every comma and colon that is
// outside quotes and not at end of line.
func normalizeText(s string) string {
	collapsed := collapseSpaces(s)
	stripped := stripPunctSpaces(collapsed)
	return reinsertSpaces(stripped)
}

func collapseSpaces(s string) string {
	var out strings.Builder
	var quote byte
	lastSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			out.WriteByte(c)
			if c == quote && !isEscaped(s, i) {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			out.WriteByte(c)
			lastSpace = false
			continue
		}
		if c == ' ' || c == '\t' {
			if !lastSpace {
				out.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		out.WriteByte(c)
		lastSpace = false
	}
	return strings.TrimSpace(out.String())
}

func stripPunctSpaces(s string) string {
	mask := quoteMask(s)
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' && !mask[i] {
			prevPunct := i > 0 && strings.IndexByte(punctuation, s[i-1]) >= 0
			nextPunct := i+1 < len(s) && strings.IndexByte(punctuation, s[i+1]) >= 0
			if prevPunct || nextPunct {
				continue
			}
		}
		out.WriteByte(c)
	}
	return out.String()
}

func reinsertSpaces(s string) string {
	mask := quoteMask(s)
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		out.WriteByte(c)
		if (c == ',' || c == ':') && !mask[i] && i+1 < len(s) && s[i+1] != ' ' && s[i+1] != '=' {
			out.WriteByte(' ')
		}
	}
	return out.String()
}

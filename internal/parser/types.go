// Package parser turns raw Python source lines into a structural model:
// File, Function and Class records nested by indentation, plus the
// assignments and name references each of them contains. It is a
// best-effort, quotation- and bracket-aware string scan, not a grammar.
//
// Known unsupported input, by design: assignments spanning multiple logical
// lines, formatted-string interpolation, and the `not`/`in` keywords used
// outside loop headers. These are documented gaps, not silent guesses.
package parser

// Line is one logical line after preprocessing: comments stripped, grouped
// imports collapsed, whitespace normalized. Number is the 1-based physical
// line the logical line started on.
type Line struct {
	Number int
	Depth  int
	Text   string
}

// Stmt is a classified line retained in a node's body. Bodies keep every
// statement of their scope, including nested def/class headers, so the
// resolver can traverse in source order; nested bodies live on the child
// nodes instead.
type Stmt struct {
	Line Line
	Kind LineKind
}

// Param is one function parameter.
type Param struct {
	Name    string
	Default string // raw default-value text, "" if none
	Star    string // "", "*" or "**"
}

// ImportItem is one name pulled in by a from-import.
type ImportItem struct {
	Name  string
	Alias string
}

// Import is a plain or from-import statement.
type Import struct {
	Module string
	Alias  string
	Items  []ImportItem // nil for plain imports
	Line   int
}

// BoundNames returns the names this import makes visible in its scope.
func (imp Import) BoundNames() []string {
	if len(imp.Items) > 0 {
		names := make([]string, 0, len(imp.Items))
		for _, item := range imp.Items {
			if item.Alias != "" {
				names = append(names, item.Alias)
			} else {
				names = append(names, item.Name)
			}
		}
		return names
	}
	if imp.Alias != "" {
		return []string{imp.Alias}
	}
	// "import a.b" binds the root package name.
	name := imp.Module
	if i := indexOutsideQuotes(name, '.'); i >= 0 {
		name = name[:i]
	}
	return []string{name}
}

// Assignment is one single-logical-line assignment. Compound operators are
// normalized before analysis: `x += 1` is stored with Augmented set and
// analyzed as `x = x + 1`.
type Assignment struct {
	Targets   []string // raw target texts, one per top-level comma
	RHS       string
	TypeHint  string
	Line      int
	Augmented bool
}

// Function represents a def, whether free, nested or a method; methods and
// free functions share one representation since parameter and body handling
// is identical. A Function exclusively owns its nested entities.
type Function struct {
	Name        string
	Params      []Param
	Line        int
	Depth       int
	Assignments []*Assignment
	Functions   []*Function
	Classes     []*Class
	Body        []Stmt
}

// Class represents a class definition. Variables holds only assignments at
// the class body's exact indentation level; anything deeper belongs to the
// method that contains it.
type Class struct {
	Name      string
	Parents   []string
	Line      int
	Depth     int
	Variables []*Assignment
	Methods   []*Function
	Classes   []*Class
	Body      []Stmt
}

// File is the root of the structural model, immutable once built.
type File struct {
	Name      string
	Imports   []Import
	Globals   []*Assignment
	Functions []*Function
	Classes   []*Class
	Body      []Stmt
}

package resolver

// A Scope is one frame of the resolver's stack: declaration and use
// bookkeeping for the file root, a function body or a class body. Control
// headers never open a scope. Scopes are a non-owning view over the
// structural tree, created on entry and discarded on exit.

type ScopeKind int

const (
	ScopeFile ScopeKind = iota
	ScopeFunction
	ScopeClass
)

type declKind int

const (
	declImport declKind = iota
	declAssign
	declFunction
	declClass
	declParam
	declLoopVar
)

type declaration struct {
	name    string
	kind    declKind
	line    int
	used    bool
	loopEnd int // last body line of the defining loop, loop variables only
}

type Scope struct {
	kind   ScopeKind
	path   string
	parent *Scope
	decls  map[string]*declaration
	order  []*declaration

	// widened holds names named in a global/nonlocal statement so far.
	widened map[string]bool
	// assignsLater holds every bare target assigned anywhere in a
	// function's body, known up front so reads of a file-level name that
	// is shadowed later can be flagged as implicit global use.
	assignsLater map[string]bool
	// flagged tracks names already reported in this scope, one
	// diagnostic per name per scope.
	flagged map[string]bool
}

func newScope(kind ScopeKind, path string, parent *Scope) *Scope {
	return &Scope{
		kind:         kind,
		path:         path,
		parent:       parent,
		decls:        make(map[string]*declaration),
		widened:      make(map[string]bool),
		assignsLater: make(map[string]bool),
		flagged:      make(map[string]bool),
	}
}

// declare records a name in this scope. A name declared twice keeps its
// first declaration; later assignments are ordinary rebinds.
func (s *Scope) declare(name string, kind declKind, line int) *declaration {
	if d, ok := s.decls[name]; ok {
		return d
	}
	d := &declaration{name: name, kind: kind, line: line}
	s.decls[name] = d
	s.order = append(s.order, d)
	return d
}

// lookup walks the scope chain. It returns the declaration and the scope
// that holds it, or nils.
func (s *Scope) lookup(name string) (*declaration, *Scope) {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.decls[name]; ok {
			return d, cur
		}
	}
	return nil, nil
}

func (s *Scope) file() *Scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

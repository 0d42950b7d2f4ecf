// Package types implements the signature hierarchy (spec.md §4.B) and the
// relational type algebra (spec.md §4.C) that sit on top of it.
//
// The two are kept in one package, rather than split across "sig" and
// "types" packages, because they are mutually referential in the data
// model: a ProductType entry is a tuple of *PrimSig, and a PrimSig's Field
// carries a Type. The teacher repo makes the same call for the same
// reason — internal/core/adt hosts both the structural vertex graph and
// the value/kind algebra in a single package rather than splitting them
// across a boundary that would have to go both ways.
package types

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/internal/alloydebug"
	"alloylang.org/alloy/internal/bitset"
	"alloylang.org/alloy/token"
)

// Sig is the common interface implemented by PrimSig and SubsetSig.
type Sig interface {
	ID() int
	SigName() string
}

// PrimSig is a primitive (extension) signature. Primitive sigs form a tree
// rooted at UNIV; NONE and SIGINT are its two other built-ins.
type PrimSig struct {
	id         int
	Name       string
	IsAbstract bool
	Parent     *PrimSig
	Children   []*PrimSig
	Fields     []*Field
	Pos        token.Pos

	graph       *Graph
	parentName  string // pending until ResolveHierarchy
	hasParent   bool
	ancestors   *bitset.Set // includes self id and UNIV; computed on freeze
	descendants *bitset.Set // includes self id; computed on freeze
}

// ID returns the PrimSig's unique id within its owning Graph.
func (s *PrimSig) ID() int { return s.id }

// SigName returns the sig's display name.
func (s *PrimSig) SigName() string { return s.Name }

func (s *PrimSig) String() string { return s.Name }

// FieldsForDisplay returns s.Fields in declaration order, or alphabetized
// by name when ALLOY_DEBUG=sortfields=1 is set — useful for diffing a
// diagnostic dump across two runs whose declaration order differs only
// cosmetically.
func (s *PrimSig) FieldsForDisplay() []*Field {
	if !alloydebug.Flags.SortFields {
		return s.Fields
	}
	sorted := append([]*Field(nil), s.Fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

// IsSubtypeOf reports whether s ⊑ other: other lies on s's chain to UNIV,
// s is NONE, or other is UNIV.
func (s *PrimSig) IsSubtypeOf(other *PrimSig) bool {
	if s == nil || other == nil {
		return false
	}
	s.graph.Check(other.graph)
	if s == s.graph.none {
		return true
	}
	if other == other.graph.univ {
		return true
	}
	if s.ancestors == nil || other.ancestors == nil {
		panic(errors.Newf(errors.Fatal, token.NoPos, "types: IsSubtypeOf called before SigGraph.ResolveHierarchy"))
	}
	return s.ancestors.Has(other.id)
}

// Intersect returns the more specific of s and other when one contains the
// other (per IsSubtypeOf), else NONE.
func (s *PrimSig) Intersect(other *PrimSig) *PrimSig {
	s.graph.Check(other.graph)
	switch {
	case s == other:
		return s
	case s.IsSubtypeOf(other):
		return s
	case other.IsSubtypeOf(s):
		return other
	default:
		return s.graph.none
	}
}

// SubsetSig is a declared subset of the union of one or more parent sigs
// (primitive or subset). Its membership is not tree-structured; the type
// algebra only ever sees its union-of-primitive upper bound.
type SubsetSig struct {
	id      int
	Name    string
	Parents []Sig
	Pos     token.Pos

	graph       *Graph
	parentNames []string // pending until ResolveHierarchy
	bound       *bitset.Set
}

func (s *SubsetSig) ID() int         { return s.id }
func (s *SubsetSig) SigName() string { return s.Name }
func (s *SubsetSig) String() string  { return s.Name }

// PrimBound returns the set of primitive sigs (by id, in the owning
// Graph's bitset space) whose union s is a subset of.
func (s *SubsetSig) PrimBound() *bitset.Set { return s.bound }

// Type returns the Type naming every primitive sig in s's precomputed
// descendant bound: the union-of-primitive upper bound a subset sig
// contributes when it is referenced directly in a type position.
func (s *SubsetSig) Type() Type {
	var entries []ProductType
	for _, p := range s.graph.prims {
		if s.bound.Has(p.id) {
			entries = append(entries, NewProductType(p))
		}
	}
	return MakeProduct(entries...)
}

// Multiplicity marks the declared cardinality of a Field.
type Multiplicity int

const (
	MultNone Multiplicity = iota
	MultOne
	MultLone
	MultSome
	MultSet
)

func (m Multiplicity) String() string {
	switch m {
	case MultOne:
		return "one"
	case MultLone:
		return "lone"
	case MultSome:
		return "some"
	case MultSet:
		return "set"
	default:
		return ""
	}
}

// Field belongs to a declaring PrimSig. Its Type's first ProductType column
// is always restricted to Owner (spec.md §3 Field).
type Field struct {
	Owner *PrimSig
	Name  string
	Type  Type
	Mult  Multiplicity
	Pos   token.Pos
}

// Graph owns all PrimSigs, SubsetSigs, and Fields created in one analysis
// session. It is mutated only during Pass 1 (Resolver); after
// ResolveHierarchy returns without error it is frozen (spec.md §5).
type Graph struct {
	id uuid.UUID

	byName map[string]Sig
	prims  []*PrimSig
	subs   []*SubsetSig
	nextID int

	univ, none, sigint *PrimSig

	frozen bool
}

// NewGraph creates a Graph with its three built-in sigs already registered:
// UNIV (root), NONE (bottom), and SIGINT (direct child of UNIV).
func NewGraph() *Graph {
	g := &Graph{
		byName: make(map[string]Sig),
		id:     uuid.New(),
	}
	g.univ = g.newPrimSig("univ", false)
	g.univ.hasParent = false
	g.none = g.newPrimSig("none", false)
	g.sigint = g.newPrimSig("int", false)
	g.sigint.Parent = g.univ
	g.sigint.hasParent = true
	g.univ.Children = append(g.univ.Children, g.sigint)
	g.byName["univ"] = g.univ
	g.byName["none"] = g.none
	g.byName["int"] = g.sigint
	return g
}

// ModuleID returns the unique identity of this Graph's owning analysis
// session. Types and PrimSigs from different Graphs must never be mixed
// (spec.md §5); the operators that combine them enforce this themselves
// through Check, which panics with a Fatal diagnostic on a mismatch.
func (g *Graph) ModuleID() uuid.UUID { return g.id }

// Check panics with a Fatal diagnostic if g and other are not the same
// analysis session. spec.md §5 forbids ever combining PrimSigs, SubsetSigs,
// or Types that trace back to different Graphs; IsSubtypeOf, Intersect, and
// every binary Type operator (via Type.checkOwner) call this before doing
// any work, turning the "must never be mixed" rule into a runtime-checked
// invariant instead of something a caller has to remember to verify by
// comparing ModuleIDs itself.
func (g *Graph) Check(other *Graph) {
	if g.id != other.id {
		panic(errors.Newf(errors.Fatal, token.NoPos,
			"types: combining sigs from different SigGraphs (module %s vs %s)", g.id, other.id))
	}
}

// Univ, None, and SigInt return the three built-in PrimSigs.
func (g *Graph) Univ() *PrimSig   { return g.univ }
func (g *Graph) None() *PrimSig   { return g.none }
func (g *Graph) SigInt() *PrimSig { return g.sigint }

func (g *Graph) newPrimSig(name string, abstract bool) *PrimSig {
	s := &PrimSig{id: g.nextID, Name: name, IsAbstract: abstract, graph: g}
	g.nextID++
	g.prims = append(g.prims, s)
	return s
}

// AddPrimSig registers a new primitive sig extending parentName (the empty
// string means UNIV). Resolution of parentName to an actual PrimSig is
// deferred to ResolveHierarchy, so forward references within one module
// are allowed. Fails with Syntax if name clashes with an already
// registered sig in this Graph.
func (g *Graph) AddPrimSig(name, parentName string, isAbstract bool, pos token.Pos) (*PrimSig, errors.Error) {
	if g.frozen {
		panic(errors.Newf(errors.Fatal, pos, "types: AddPrimSig called after SigGraph frozen"))
	}
	if _, exists := g.byName[name]; exists {
		return nil, errors.Newf(errors.Syntax, pos, "sig %q already declared", name)
	}
	s := g.newPrimSig(name, isAbstract)
	s.Pos = pos
	s.parentName = parentName
	s.hasParent = true
	g.byName[name] = s
	return s, nil
}

// AddSubsetSig registers a new subset sig whose extent is a subset of the
// union of the named parents. parents must be non-empty. Resolution of
// names to Sig values is deferred to ResolveHierarchy.
func (g *Graph) AddSubsetSig(name string, parentNames []string, pos token.Pos) (*SubsetSig, errors.Error) {
	if g.frozen {
		panic(errors.Newf(errors.Fatal, pos, "types: AddSubsetSig called after SigGraph frozen"))
	}
	if len(parentNames) == 0 {
		return nil, errors.Newf(errors.Syntax, pos, "subset sig %q must have at least one parent", name)
	}
	if _, exists := g.byName[name]; exists {
		return nil, errors.Newf(errors.Syntax, pos, "sig %q already declared", name)
	}
	s := &SubsetSig{id: g.nextID, Name: name, Pos: pos, graph: g, parentNames: parentNames}
	g.nextID++
	g.subs = append(g.subs, s)
	g.byName[name] = s
	return s, nil
}

// ResolveHierarchy resolves all pending textual parent references into sig
// values, links the primitive tree, computes ancestor/descendant bitsets
// for O(1) subtype queries, computes each SubsetSig's primitive bound, and
// freezes the Graph. It must be called exactly once, before any type
// operation is performed against sigs in this Graph.
func (g *Graph) ResolveHierarchy() *errors.List {
	var errs errors.List
	if g.frozen {
		errs.Addf(errors.Fatal, token.NoPos, "ResolveHierarchy called twice")
		return &errs
	}

	for _, s := range g.prims {
		if s == g.univ || s == g.none || s == g.sigint {
			continue // built-ins are wired by NewGraph; NONE stays parentless by invariant
		}
		name := s.parentName
		if name == "" {
			s.Parent = g.univ
			continue
		}
		target, ok := g.byName[name]
		if !ok {
			errs.AddfPath(errors.Syntax, []string{s.Name}, s.Pos, "unknown sig %q", name)
			continue
		}
		parent, ok := target.(*PrimSig)
		if !ok {
			errs.AddfPath(errors.Syntax, []string{s.Name}, s.Pos, "%q extends subset sig %q: only primitive sigs can be extended", s.Name, name)
			continue
		}
		if parent == g.none || parent == g.sigint {
			errs.AddfPath(errors.Syntax, []string{s.Name}, s.Pos, "%q cannot extend built-in %q", s.Name, name)
			continue
		}
		s.Parent = parent
	}
	for _, s := range g.prims {
		if s.Parent != nil {
			s.Parent.Children = append(s.Parent.Children, s)
		}
	}

	for _, s := range g.subs {
		parents := make([]Sig, 0, len(s.parentNames))
		for _, name := range s.parentNames {
			target, ok := g.byName[name]
			if !ok {
				errs.AddfPath(errors.Syntax, []string{s.Name}, s.Pos, "unknown sig %q", name)
				continue
			}
			if target == Sig(g.none) {
				errs.AddfPath(errors.TypeArity, []string{s.Name}, s.Pos, "subset sig %q cannot subset NONE", s.Name)
				continue
			}
			if target == Sig(g.univ) {
				errs.AddfPath(errors.TypeArity, []string{s.Name}, s.Pos, "subset sig %q cannot subset UNIV explicitly", s.Name)
				continue
			}
			parents = append(parents, target)
		}
		s.Parents = parents
	}

	if errs.Err() != nil {
		return &errs
	}

	// Compute ancestor/descendant bitsets for primitive sigs by walking
	// parent pointers; UNIV has no parent so its chain terminates there.
	for _, s := range g.prims {
		anc := bitset.New(len(g.prims))
		for cur := s; cur != nil; cur = cur.Parent {
			anc.Add(cur.id)
		}
		s.ancestors = anc
	}
	for _, s := range g.prims {
		s.descendants = bitset.New(len(g.prims))
		s.descendants.Add(s.id)
	}
	for _, s := range g.prims {
		for cur := s.Parent; cur != nil; cur = cur.Parent {
			cur.descendants.Add(s.id)
		}
	}

	// Compute each subset sig's bound: the union of the descendant sets of
	// its primitive parents and of the bounds of its subset parents. A
	// subset parent's bound is computed on demand, whatever the
	// declaration order; a cycle among subset parents is reported via a
	// visiting set.
	bounds := make(map[*SubsetSig]*bitset.Set)
	visiting := make(map[*SubsetSig]bool)
	var boundOf func(s *SubsetSig) *bitset.Set
	boundOf = func(s *SubsetSig) *bitset.Set {
		if b, ok := bounds[s]; ok {
			return b
		}
		if visiting[s] {
			errs.AddfPath(errors.Syntax, []string{s.Name}, s.Pos, "cyclic subset sig parents involving %q", s.Name)
			return bitset.New(len(g.prims))
		}
		visiting[s] = true
		b := bitset.New(len(g.prims))
		for _, p := range s.Parents {
			switch pp := p.(type) {
			case *PrimSig:
				b = b.Union(pp.descendants)
			case *SubsetSig:
				b = b.Union(boundOf(pp))
			}
		}
		visiting[s] = false
		bounds[s] = b
		return b
	}
	for _, s := range g.subs {
		s.bound = boundOf(s)
	}

	g.frozen = true
	return &errs
}

// Lookup resolves a name to the Sig registered under it, if any.
func (g *Graph) Lookup(name string) (Sig, bool) {
	s, ok := g.byName[name]
	return s, ok
}

// Prims returns all primitive sigs in declaration order (built-ins first).
func (g *Graph) Prims() []*PrimSig { return g.prims }

// Subsets returns all subset sigs in declaration order.
func (g *Graph) Subsets() []*SubsetSig { return g.subs }

func (g *Graph) String() string {
	return fmt.Sprintf("Graph{prims=%d subsets=%d}", len(g.prims), len(g.subs))
}

package types

import (
	"sort"
	"strings"

	"github.com/mpvl/unique"

	"alloylang.org/alloy/internal/alloydebug"
)

// MaxArity is the largest supported relation arity (spec.md §1 Non-goals,
// §6 numeric semantics: a 32-bit arity bitmask needs indices 1..30).
const MaxArity = 30

// ProductType is a single tuple-shape: an ordered list of 1..MaxArity
// PrimSig references. If any position holds NONE, every position holds
// NONE — the canonical "empty tuple of arity n".
type ProductType struct {
	Sigs []*PrimSig
}

// NewProductType builds a ProductType, canonicalizing to all-NONE if any
// column is NONE.
func NewProductType(sigs ...*PrimSig) ProductType {
	p := ProductType{Sigs: append([]*PrimSig(nil), sigs...)}
	for _, s := range p.Sigs {
		if s == s.graph.none {
			none := s.graph.none
			for i := range p.Sigs {
				p.Sigs[i] = none
			}
			break
		}
	}
	return p
}

// Arity returns the tuple's length.
func (p ProductType) Arity() int { return len(p.Sigs) }

// Equals reports element-wise identity.
func (p ProductType) Equals(q ProductType) bool {
	if len(p.Sigs) != len(q.Sigs) {
		return false
	}
	for i := range p.Sigs {
		if p.Sigs[i] != q.Sigs[i] {
			return false
		}
	}
	return true
}

// IsSubsumedBy reports whether p ⊑ q: matching arity and p[i] ⊑ q[i] for
// every column i.
func (p ProductType) IsSubsumedBy(q ProductType) bool {
	if len(p.Sigs) != len(q.Sigs) {
		return false
	}
	for i := range p.Sigs {
		if !p.Sigs[i].IsSubtypeOf(q.Sigs[i]) {
			return false
		}
	}
	return true
}

// product concatenates two tuples.
func (p ProductType) product(q ProductType) ProductType {
	sigs := make([]*PrimSig, 0, len(p.Sigs)+len(q.Sigs))
	sigs = append(sigs, p.Sigs...)
	sigs = append(sigs, q.Sigs...)
	return NewProductType(sigs...)
}

// join drops the shared middle column: a.b columns are a[:-1] ++ b[1:].
func (p ProductType) join(q ProductType) ProductType {
	sigs := make([]*PrimSig, 0, len(p.Sigs)+len(q.Sigs)-2)
	sigs = append(sigs, p.Sigs[:len(p.Sigs)-1]...)
	a, b := p.Sigs[len(p.Sigs)-1], q.Sigs[0]
	sigs = append(sigs, a.Intersect(b))
	sigs = append(sigs, q.Sigs[1:]...)
	return NewProductType(sigs...)
}

func (p ProductType) String() string {
	names := make([]string, len(p.Sigs))
	for i, s := range p.Sigs {
		names[i] = s.Name
	}
	return strings.Join(names, "->")
}

// Type is an immutable value: a canonical, duplicate-and-subsumption-free
// set of ProductType entries plus two flags, isInt and isBool. Types are
// never mutated; every algebraic operator returns a fresh value.
type Type struct {
	isInt   bool
	isBool  bool
	entries []ProductType // insertion order; canonical
	arities uint32        // bit k-1 set iff some entry has arity k
}

// Empty is the Type with no entries and no flags.
var Empty = Type{}

// Int is the Type with isInt set and no entries.
func Int() Type { return Type{isInt: true} }

// Formula is the Type with isBool set and no entries.
func Formula() Type { return Type{isBool: true} }

// IsInt reports the isInt flag.
func (t Type) IsInt() bool { return t.isInt }

// IsBool reports the isBool flag.
func (t Type) IsBool() bool { return t.isBool }

// Entries returns the canonical ProductType entries, in insertion order.
func (t Type) Entries() []ProductType { return t.entries }

// IsEmpty reports whether t has no entries and no flags.
func (t Type) IsEmpty() bool { return len(t.entries) == 0 && !t.isInt && !t.isBool }

// HasArity reports whether any entry has the given arity.
func (t Type) HasArity(k int) bool {
	if k < 1 || k > MaxArity {
		return false
	}
	return t.arities&(1<<uint(k-1)) != 0
}

// HasCommonArity reports whether t and u share at least one arity.
func (t Type) HasCommonArity(u Type) bool {
	return t.arities&u.arities != 0
}

// owner returns the *Graph that t's entries trace back to, or nil if t has
// no entries (an Empty, Int, or Formula Type carries no PrimSig and so
// belongs to every Graph equally).
func (t Type) owner() *Graph {
	if len(t.entries) == 0 || len(t.entries[0].Sigs) == 0 {
		return nil
	}
	return t.entries[0].Sigs[0].graph
}

// checkOwner panics with a Fatal diagnostic if t and u both carry entries
// but trace back to different SigGraphs. Every binary Type operator in
// ops.go (Product, Intersect, Join, ...) calls this before combining any
// PrimSigs, so spec.md §5's "must never be mixed" rule is checked at the
// point of use rather than left to a caller comparing ModuleIDs by hand.
func (t Type) checkOwner(u Type) {
	a, b := t.owner(), u.owner()
	if a == nil || b == nil {
		return
	}
	a.Check(b)
}

// Make returns the singleton Type for a PrimSig (an arity-1 entry naming
// it), used by the Resolver to compute a sig's own Type.
func Make(s *PrimSig) Type {
	return build([]ProductType{NewProductType(s)})
}

// MakeProduct returns the Type consisting of exactly the given entries,
// canonicalized.
func MakeProduct(entries ...ProductType) Type {
	return build(entries)
}

// build canonicalizes a raw list of candidate entries: dedups identical
// tuples (via the corpus's mpvl/unique sort-and-compact idiom) and then
// sweeps for subsumption so no entry of the result subsumes another,
// preserving first-seen order among survivors.
func build(raw []ProductType) Type {
	if len(raw) == 0 {
		return Empty
	}
	deduped := dedupeIdentical(raw)

	var entries []ProductType
	for _, x := range deduped {
		entries = insertCanonical(entries, x)
	}
	return Type{entries: entries, arities: aritiesOf(entries)}
}

// dedupeIdentical removes exact duplicate tuples while preserving the
// first-seen order, using mpvl/unique's sort-then-compact Interface.
func dedupeIdentical(raw []ProductType) []ProductType {
	tagged := make([]indexedProduct, len(raw))
	for i, p := range raw {
		tagged[i] = indexedProduct{p: p, order: i}
	}
	sort.Slice(tagged, func(i, j int) bool { return tagged[i].order < tagged[j].order })

	byKey := make([]indexedProduct, len(tagged))
	copy(byKey, tagged)
	n := unique.Sort(byProductKey(byKey))
	byKey = byKey[:n]

	sort.Slice(byKey, func(i, j int) bool { return byKey[i].order < byKey[j].order })
	out := make([]ProductType, len(byKey))
	for i, ip := range byKey {
		out[i] = ip.p
	}
	return out
}

type indexedProduct struct {
	p     ProductType
	order int
}

// byProductKey sorts and compares ProductType entries structurally (by
// arity, then by per-column sig id) so mpvl/unique.Sort can identify exact
// duplicates.
type byProductKey []indexedProduct

func (b byProductKey) Len() int      { return len(b) }
func (b byProductKey) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byProductKey) Less(i, j int) bool {
	return compareProduct(b[i].p, b[j].p) < 0
}
func (b byProductKey) Equal(i, j int) bool {
	return compareProduct(b[i].p, b[j].p) == 0
}

func compareProduct(p, q ProductType) int {
	if len(p.Sigs) != len(q.Sigs) {
		return len(p.Sigs) - len(q.Sigs)
	}
	for i := range p.Sigs {
		if p.Sigs[i].id != q.Sigs[i].id {
			return p.Sigs[i].id - q.Sigs[i].id
		}
	}
	return 0
}

// insertCanonical applies the canonicalization rule: if an existing entry
// subsumes x, drop x; if x subsumes an existing entry, remove it.
func insertCanonical(entries []ProductType, x ProductType) []ProductType {
	for _, e := range entries {
		if e.Arity() == x.Arity() && x.IsSubsumedBy(e) {
			return entries
		}
	}
	out := make([]ProductType, 0, len(entries)+1)
	for _, e := range entries {
		if e.Arity() == x.Arity() && e.IsSubsumedBy(x) {
			continue
		}
		out = append(out, e)
	}
	out = append(out, x)
	return out
}

func aritiesOf(entries []ProductType) uint32 {
	var mask uint32
	for _, e := range entries {
		k := e.Arity()
		if k >= 1 && k <= MaxArity {
			mask |= 1 << uint(k-1)
		}
	}
	return mask
}

// Equals reports whether t and u are subsumption-equivalent: each subsumes
// the other (spec.md §8 invariant 8).
func (t Type) Equals(u Type) bool {
	if t.isInt != u.isInt || t.isBool != u.isBool {
		return false
	}
	return subsumesSet(t.entries, u.entries) && subsumesSet(u.entries, t.entries)
}

func subsumesSet(a, b []ProductType) bool {
	for _, y := range b {
		found := false
		for _, x := range a {
			if y.IsSubsumedBy(x) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	if t.IsEmpty() {
		return "EMPTY"
	}
	parts := make([]string, 0, len(t.entries)+2)
	if t.isInt {
		parts = append(parts, "int")
	}
	if t.isBool {
		parts = append(parts, "bool")
	}
	entries := t.entries
	if !alloydebug.Flags.DisableFold {
		entries = Fold(entries)
	}
	for _, e := range entries {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, " + ")
}

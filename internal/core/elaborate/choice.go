package elaborate

import (
	"fmt"
	"log"

	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/internal/alloydebug"
	"alloylang.org/alloy/internal/core/types"
	"alloylang.org/alloy/token"
)

// selectCandidate implements spec.md §4.G's top-down narrowing over a
// bottom-up candidate set: filter by compatibility with the outer
// constraint, then break ties by (1) smallest ExtraWeight, (2) a unique
// most-specific surviving Type. Anything left over after both tiers is
// reported as Ambiguous.
func selectCandidate(cands []Expr, pos token.Pos, want types.Type, anyWant bool) (Expr, errors.Error) {
	if alloydebug.Flags.LogElab {
		log.Printf("elaborate: %d candidate(s) at %s, want=%s anyWant=%v", len(cands), pos, want, anyWant)
	}

	compat := cands
	if !anyWant {
		compat = compat[:0:0]
		for _, c := range cands {
			if compatibleType(c.Type(), want) {
				compat = append(compat, c)
			}
		}
	}
	if len(compat) == 0 {
		return nil, errors.Newf(errors.Type, pos,
			"no candidate is compatible with the expected type %s", want)
	}
	if len(compat) == 1 {
		return compat[0], nil
	}

	minWeight := compat[0].ExtraWeight()
	for _, c := range compat[1:] {
		if c.ExtraWeight() < minWeight {
			minWeight = c.ExtraWeight()
		}
	}
	var tier1 []Expr
	for _, c := range compat {
		if c.ExtraWeight() == minWeight {
			tier1 = append(tier1, c)
		}
	}
	if len(tier1) == 1 {
		return tier1[0], nil
	}

	var mostSpecific []Expr
	for _, c := range tier1 {
		specific := true
		for _, d := range tier1 {
			if d == c {
				continue
			}
			if !typeSubsumedBy(c.Type(), d.Type()) {
				specific = false
				break
			}
		}
		if specific {
			mostSpecific = append(mostSpecific, c)
		}
	}
	if len(mostSpecific) == 1 {
		return mostSpecific[0], nil
	}

	if alloydebug.Flags.LogElab {
		log.Printf("elaborate: %d candidate(s) survive tie-breaking at %s, reporting Ambiguous", len(tier1), pos)
	}
	candidates := make([]errors.Candidate, len(tier1))
	for i, c := range tier1 {
		candidates[i] = errors.Candidate{
			Description: fmt.Sprintf("%T: %s", c, c.Type()),
			Pos:         c.Pos(),
		}
	}
	return nil, errors.NewAmbiguous(pos, nil, candidates)
}

// compatibleType reports whether t may stand where want is expected: for a
// formula or int constraint, the corresponding flag must be set; for a
// relational constraint, t and want must share an arity and their
// entry-wise intersection must be non-empty.
func compatibleType(t, want types.Type) bool {
	if want.IsBool() {
		return t.IsBool()
	}
	if want.IsInt() {
		return t.IsInt()
	}
	return t.HasCommonArity(want) && !types.Intersect(t, want).IsEmpty()
}

// typeSubsumedBy reports whether a ⊑ b: every entry of a is subsumed by
// some entry of b of the same arity, and a's int/bool flags are also set
// on b. Mirrors types.Type.Equals' own subsumesSet check, exposed here via
// the public Entries/IsSubsumedBy API since tie-breaking is this package's
// concern, not the type algebra's.
func typeSubsumedBy(a, b types.Type) bool {
	if a.IsInt() && !b.IsInt() {
		return false
	}
	if a.IsBool() && !b.IsBool() {
		return false
	}
	for _, x := range a.Entries() {
		found := false
		for _, y := range b.Entries() {
			if x.Arity() == y.Arity() && x.IsSubsumedBy(y) {
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

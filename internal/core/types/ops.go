package types

import (
	"context"

	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/token"
)

// Product returns { a·b : a ∈ A, b ∈ B }, failing with TypeArity if any
// resulting tuple would exceed MaxArity.
func Product(pos token.Pos, a, b Type) (Type, errors.Error) {
	a.checkOwner(b)
	var raw []ProductType
	for _, x := range a.entries {
		for _, y := range b.entries {
			if x.Arity()+y.Arity() > MaxArity {
				return Empty, errors.Newf(errors.TypeArity, pos,
					"relation of arity > %d is unsupported", MaxArity)
			}
			raw = append(raw, x.product(y))
		}
	}
	return build(raw), nil
}

// Intersect returns { a∩b : arity(a)=arity(b) } with pointwise sig
// intersection, dropping pairs whose intersection is the NONE-canonical
// tuple, so two disjoint Types intersect to Empty.
func Intersect(a, b Type) Type {
	a.checkOwner(b)
	if !a.HasCommonArity(b) {
		return Empty
	}
	var raw []ProductType
	for _, x := range a.entries {
		for _, y := range b.entries {
			if x.Arity() != y.Arity() {
				continue
			}
			sigs := make([]*PrimSig, x.Arity())
			for i := range sigs {
				sigs[i] = x.Sigs[i].Intersect(y.Sigs[i])
			}
			p := NewProductType(sigs...)
			if p.Sigs[0] == p.Sigs[0].graph.none {
				continue
			}
			raw = append(raw, p)
		}
	}
	return build(raw)
}

// UnionWithCommonArity returns the union of the entries of a and b, kept
// only where their arity occurs in both a and b, dropping flags. If
// nothing changes, returns a as-is. When a and b share no arity at all
// (for instance two Formula Types), a is returned unchanged, flags
// included, rather than Empty.
func UnionWithCommonArity(a, b Type) Type {
	a.checkOwner(b)
	if !a.HasCommonArity(b) {
		return a
	}
	raw := make([]ProductType, 0, len(a.entries)+len(b.entries))
	for _, x := range a.entries {
		if b.HasArity(x.Arity()) {
			raw = append(raw, x)
		}
	}
	for _, y := range b.entries {
		if a.HasArity(y.Arity()) {
			raw = append(raw, y)
		}
	}
	result := build(raw)
	if result.Equals(a) {
		return a
	}
	return result
}

// PickCommonArity returns the entries of a whose arity exists in b.
func PickCommonArity(a, b Type) Type {
	a.checkOwner(b)
	if !a.HasCommonArity(b) {
		return Empty
	}
	var raw []ProductType
	for _, x := range a.entries {
		if b.HasArity(x.Arity()) {
			raw = append(raw, x)
		}
	}
	return build(raw)
}

// Join returns { a⋈b : arity(a)+arity(b) > 2 }, dropping unary⋈unary
// pairs, and failing with TypeArity if a resulting tuple would exceed
// MaxArity.
func Join(pos token.Pos, a, b Type) (Type, errors.Error) {
	a.checkOwner(b)
	var raw []ProductType
	for _, x := range a.entries {
		for _, y := range b.entries {
			if x.Arity()+y.Arity() <= 2 {
				continue
			}
			if x.Arity()+y.Arity()-2 > MaxArity {
				return Empty, errors.Newf(errors.TypeArity, pos,
					"relation of arity > %d is unsupported", MaxArity)
			}
			raw = append(raw, x.join(y))
		}
	}
	return build(raw), nil
}

// Transpose flips binary entries of a; non-binary entries are dropped. The
// result is empty if a has no binary entries.
func Transpose(a Type) Type {
	var raw []ProductType
	for _, x := range a.entries {
		if x.Arity() != 2 {
			continue
		}
		raw = append(raw, NewProductType(x.Sigs[1], x.Sigs[0]))
	}
	return build(raw)
}

// DomainRestrict restricts the first column of each entry of a by each
// unary entry of b.
func DomainRestrict(a, b Type) Type {
	a.checkOwner(b)
	var raw []ProductType
	for _, x := range a.entries {
		if x.Arity() == 0 {
			continue
		}
		for _, y := range b.entries {
			if y.Arity() != 1 {
				continue
			}
			sigs := append([]*PrimSig(nil), x.Sigs...)
			sigs[0] = sigs[0].Intersect(y.Sigs[0])
			raw = append(raw, NewProductType(sigs...))
		}
	}
	return build(raw)
}

// RangeRestrict restricts the last column of each entry of a by each
// unary entry of b.
func RangeRestrict(a, b Type) Type {
	a.checkOwner(b)
	var raw []ProductType
	for _, x := range a.entries {
		if x.Arity() == 0 {
			continue
		}
		for _, y := range b.entries {
			if y.Arity() != 1 {
				continue
			}
			sigs := append([]*PrimSig(nil), x.Sigs...)
			last := len(sigs) - 1
			sigs[last] = sigs[last].Intersect(y.Sigs[0])
			raw = append(raw, NewProductType(sigs...))
		}
	}
	return build(raw)
}

// Extract returns the entries of a with the given arity.
func Extract(a Type, k int) Type {
	if !a.HasArity(k) {
		return Empty
	}
	var raw []ProductType
	for _, x := range a.entries {
		if x.Arity() == k {
			raw = append(raw, x)
		}
	}
	return build(raw)
}

// Closure computes u ∪ u·u ∪ u·u·u … where u = Extract(a, 2), iterating a
// fixed point. ctx is checked once per iteration (spec.md §5); a
// cancellation yields a Cancelled error and abandons the computation
// without mutating any caller-visible state (every operator here is
// pure).
func Closure(ctx context.Context, pos token.Pos, a Type) (Type, errors.Error) {
	u := Extract(a, 2)
	if u.IsEmpty() {
		return Empty, nil
	}
	answer := u
	cur := u
	for {
		select {
		case <-ctx.Done():
			return Empty, errors.Newf(errors.Cancelled, pos, "closure cancelled: %v", ctx.Err())
		default:
		}
		next, err := Join(pos, u, cur)
		if err != nil {
			return Empty, err
		}
		nextAnswer := UnionWithCommonArity(answer, next)
		if next.IsEmpty() || (nextAnswer.Equals(answer) && next.Equals(cur)) {
			answer = nextAnswer
			break
		}
		answer = nextAnswer
		cur = next
	}
	return answer, nil
}

package types

// Fold is a cosmetic display transform (spec.md §4.C "Fold for display"):
// when a group of same-arity entries differs only in one column, and the
// values taken by that column exhaust the direct children of a common
// abstract parent, the group is folded into a single entry naming the
// parent instead. Fold never affects algebraic decisions, only String()
// output; per spec.md §9 Open Questions, a group that cannot be folded is
// simply left as-is rather than treated as an error.
func Fold(entries []ProductType) []ProductType {
	out := entries
	for {
		next, changed := foldOnce(out)
		if !changed {
			return next
		}
		out = next
	}
}

func foldOnce(entries []ProductType) ([]ProductType, bool) {
	if len(entries) < 2 {
		return entries, false
	}
	arity := entries[0].Arity()
	for _, e := range entries {
		if e.Arity() != arity {
			return entries, false
		}
	}
	for col := 0; col < arity; col++ {
		for _, group := range groupByAllColumnsExcept(entries, col) {
			if parent, ok := foldableParent(entries, group, col); ok {
				return replaceGroup(entries, group, col, parent), true
			}
		}
	}
	return entries, false
}

// groupByAllColumnsExcept partitions entry indices into groups that agree
// on every column except col, preserving first-seen order.
func groupByAllColumnsExcept(entries []ProductType, col int) [][]int {
	var order []string
	groups := make(map[string][]int)
	for i, e := range entries {
		k := sigKeyExcept(e, col)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	result := make([][]int, 0, len(order))
	for _, k := range order {
		if g := groups[k]; len(g) > 1 {
			result = append(result, g)
		}
	}
	return result
}

func sigKeyExcept(e ProductType, col int) string {
	b := make([]byte, 0, 4*len(e.Sigs))
	for i, s := range e.Sigs {
		if i == col {
			continue
		}
		b = append(b, byte(s.id), byte(s.id>>8), byte(s.id>>16), byte(s.id>>24))
	}
	return string(b)
}

// foldableParent reports whether the sigs appearing in column col across
// group exactly match the full set of direct children of some common
// abstract parent.
func foldableParent(entries []ProductType, group []int, col int) (*PrimSig, bool) {
	first := entries[group[0]].Sigs[col]
	if first.Parent == nil || !first.Parent.IsAbstract {
		return nil, false
	}
	parent := first.Parent
	if len(group) != len(parent.Children) {
		return nil, false
	}
	seen := make(map[*PrimSig]bool, len(group))
	for _, idx := range group {
		s := entries[idx].Sigs[col]
		if s.Parent != parent {
			return nil, false
		}
		seen[s] = true
	}
	for _, c := range parent.Children {
		if !seen[c] {
			return nil, false
		}
	}
	return parent, true
}

func replaceGroup(entries []ProductType, group []int, col int, parent *PrimSig) []ProductType {
	inGroup := make(map[int]bool, len(group))
	for _, i := range group {
		inGroup[i] = true
	}
	out := make([]ProductType, 0, len(entries)-len(group)+1)
	folded := false
	for i, e := range entries {
		if !inGroup[i] {
			out = append(out, e)
			continue
		}
		if !folded {
			sigs := append([]*PrimSig(nil), e.Sigs...)
			sigs[col] = parent
			out = append(out, ProductType{Sigs: sigs})
			folded = true
		}
	}
	return out
}

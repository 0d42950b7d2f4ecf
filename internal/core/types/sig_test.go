package types

import (
	"testing"

	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/token"
)

func TestPrimSigHierarchy(t *testing.T) {
	g := NewGraph()
	a, err := g.AddPrimSig("A", "", false, token.NoPos)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.AddPrimSig("B", "A", false, token.NoPos)
	if err != nil {
		t.Fatal(err)
	}
	if errs := g.ResolveHierarchy(); errs.Err() != nil {
		t.Fatal(errs.Err())
	}

	if !b.IsSubtypeOf(a) {
		t.Errorf("B should be subtype of A")
	}
	if a.IsSubtypeOf(b) {
		t.Errorf("A should not be subtype of B")
	}
	if !b.IsSubtypeOf(g.Univ()) {
		t.Errorf("B should be subtype of UNIV")
	}
	if !g.None().IsSubtypeOf(a) {
		t.Errorf("NONE should be subtype of A")
	}
}

func TestPrimSigIntersect(t *testing.T) {
	g := NewGraph()
	a, _ := g.AddPrimSig("A", "", false, token.NoPos)
	_, _ = g.AddPrimSig("B", "", false, token.NoPos)
	c, _ := g.AddPrimSig("C", "A", false, token.NoPos)
	if errs := g.ResolveHierarchy(); errs.Err() != nil {
		t.Fatal(errs.Err())
	}
	b, _ := g.Lookup("B")

	if got := a.Intersect(c); got != c {
		t.Errorf("A.intersect(C) = %v, want C", got)
	}
	if got := a.Intersect(b.(*PrimSig)); got != g.None() {
		t.Errorf("A.intersect(B) = %v, want NONE", got)
	}
}

func TestSigNameClash(t *testing.T) {
	g := NewGraph()
	if _, err := g.AddPrimSig("A", "", false, token.NoPos); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddPrimSig("A", "", false, token.NoPos); err == nil {
		t.Fatal("expected name clash error")
	}
}

func TestResolveUnknownParent(t *testing.T) {
	g := NewGraph()
	if _, err := g.AddPrimSig("A", "Ghost", false, token.NoPos); err != nil {
		t.Fatal(err)
	}
	errs := g.ResolveHierarchy()
	if errs.Err() == nil {
		t.Fatal("expected unknown sig error")
	}
}

func TestSubsetSigBound(t *testing.T) {
	g := NewGraph()
	a, _ := g.AddPrimSig("A", "", false, token.NoPos)
	b, _ := g.AddPrimSig("B", "", false, token.NoPos)
	_, err := g.AddSubsetSig("S", []string{"A", "B"}, token.NoPos)
	if err != nil {
		t.Fatal(err)
	}
	if errs := g.ResolveHierarchy(); errs.Err() != nil {
		t.Fatal(errs.Err())
	}
	s, _ := g.Lookup("S")
	sub := s.(*SubsetSig)
	if !sub.PrimBound().Has(a.ID()) || !sub.PrimBound().Has(b.ID()) {
		t.Errorf("subset sig bound missing a parent's descendants")
	}
}

func TestSubsetCannotSubsetNoneOrUniv(t *testing.T) {
	g := NewGraph()
	if _, err := g.AddSubsetSig("S1", []string{"none"}, token.NoPos); err != nil {
		t.Fatal(err)
	}
	if errs := g.ResolveHierarchy(); errs.Err() == nil {
		t.Fatal("expected error subsetting NONE")
	}

	g2 := NewGraph()
	if _, err := g2.AddSubsetSig("S2", []string{"univ"}, token.NoPos); err != nil {
		t.Fatal(err)
	}
	if errs := g2.ResolveHierarchy(); errs.Err() == nil {
		t.Fatal("expected error subsetting UNIV")
	}
}

func TestIsSubtypeOfAcrossGraphsPanics(t *testing.T) {
	g1 := NewGraph()
	a, _ := g1.AddPrimSig("A", "", false, token.NoPos)
	if errs := g1.ResolveHierarchy(); errs.Err() != nil {
		t.Fatal(errs.Err())
	}

	g2 := NewGraph()
	b, _ := g2.AddPrimSig("B", "", false, token.NoPos)
	if errs := g2.ResolveHierarchy(); errs.Err() != nil {
		t.Fatal(errs.Err())
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("want a panic combining sigs from different SigGraphs")
		}
		e, ok := r.(errors.Error)
		if !ok {
			t.Fatalf("panic value = %#v, want an errors.Error", r)
		}
		if e.Kind() != errors.Fatal {
			t.Errorf("panic Kind = %v, want Fatal", e.Kind())
		}
	}()
	a.IsSubtypeOf(b)
}

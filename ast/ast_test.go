package ast

import (
	"testing"

	"alloylang.org/alloy/token"
)

func TestNewIntLitRange(t *testing.T) {
	testCases := []struct {
		text    string
		wantErr bool
		want    int32
	}{
		{"0", false, 0},
		{"42", false, 42},
		{"-42", false, -42},
		{"2147483647", false, 2147483647},
		{"-2147483648", false, -2147483648},
		{"2147483648", true, 0},
		{"-2147483649", true, 0},
		{"99999999999999999999", true, 0},
		{"not-a-number", true, 0},
	}
	for _, tc := range testCases {
		lit, err := NewIntLit(token.NoPos, tc.text)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NewIntLit(%q): want error, got none", tc.text)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewIntLit(%q): unexpected error: %v", tc.text, err)
			continue
		}
		if lit.Value != tc.want {
			t.Errorf("NewIntLit(%q).Value = %d, want %d", tc.text, lit.Value, tc.want)
		}
	}
}

func TestDeclNodesImplementDecl(t *testing.T) {
	var decls = []Decl{
		&SigDecl{Name: "A"},
		&FieldDecl{Name: "f"},
		&FunDecl{Name: "fn"},
		&PredDecl{Name: "p"},
		&FactDecl{Name: "fact"},
		&AssertDecl{Name: "assert"},
		&CommandDecl{Kind: "run", Target: "p"},
	}
	for _, d := range decls {
		if d.Pos() != token.NoPos {
			t.Errorf("%T: zero-value Pos should be NoPos", d)
		}
	}
}

func TestExprNodesImplementExpr(t *testing.T) {
	var exprs = []Expr{
		&Ident{Name: "x"},
		&IntLit{Value: 1},
		&Unary{Op: UnaryTranspose, X: &Ident{Name: "r"}},
		&Binary{Op: BinaryProduct, X: &Ident{Name: "a"}, Y: &Ident{Name: "b"}},
		&Dot{L: &Ident{Name: "a"}, R: &Ident{Name: "f"}},
		&Quant{Kind: QuantAll, Vars: []*Param{{Name: "x"}}, Body: &Ident{Name: "x"}},
		&Let{Name: "x", Value: &IntLit{Value: 1}, Body: &Ident{Name: "x"}},
		&Call{Fun: "f", Args: []Expr{&Ident{Name: "a"}}},
		&ITE{Cond: &Ident{Name: "c"}, Then: &Ident{Name: "a"}, Else: &Ident{Name: "b"}},
	}
	for _, x := range exprs {
		_ = x.Pos()
	}
}

func TestSigDeclIsSubset(t *testing.T) {
	prim := &SigDecl{Name: "A"}
	if prim.IsSubset() {
		t.Errorf("primitive sig decl should not report IsSubset")
	}
	subset := &SigDecl{Name: "S", InParents: []string{"A", "B"}}
	if !subset.IsSubset() {
		t.Errorf("subset sig decl with InParents should report IsSubset")
	}
}

package compile

import (
	"context"
	"testing"

	"alloylang.org/alloy/ast"
	"alloylang.org/alloy/internal/core/types"
	"alloylang.org/alloy/token"
)

func mustIdent(name string) *ast.Ident { return &ast.Ident{Name: name} }

func TestCompileSigHierarchy(t *testing.T) {
	// S1: sig A {} sig B extends A {}
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.SigDecl{Name: "B", Extends: "A"},
		},
	}
	mod, errs := Compile(context.Background(), file)
	if errs.Err() != nil {
		t.Fatalf("unexpected errors: %v", errs.Err())
	}
	a, ok := mod.Sigs.Lookup("A")
	if !ok {
		t.Fatal("A not registered")
	}
	b, ok := mod.Sigs.Lookup("B")
	if !ok {
		t.Fatal("B not registered")
	}
	ap, bp := a.(*types.PrimSig), b.(*types.PrimSig)
	if !bp.IsSubtypeOf(ap) {
		t.Errorf("B should be a subtype of A")
	}
	if ap.IsSubtypeOf(bp) {
		t.Errorf("A should not be a subtype of B")
	}
}

func TestCompileFieldType(t *testing.T) {
	// sig A { f: A }
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{
				Name: "A",
				Fields: []*ast.FieldDecl{
					{Name: "f", Type: mustIdent("A")},
				},
			},
		},
	}
	mod, errs := Compile(context.Background(), file)
	if errs.Err() != nil {
		t.Fatalf("unexpected errors: %v", errs.Err())
	}
	a, _ := mod.Sigs.Lookup("A")
	prim := a.(*types.PrimSig)
	if len(prim.Fields) != 1 {
		t.Fatalf("want 1 field on A, got %d", len(prim.Fields))
	}
	f := prim.Fields[0]
	if !f.Type.HasArity(2) {
		t.Errorf("field f should have arity 2 (A->A), got %v", f.Type)
	}
}

func TestCompileUnknownParentIsSyntaxError(t *testing.T) {
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A", Extends: "Ghost"},
		},
	}
	_, errs := Compile(context.Background(), file)
	if errs.Err() == nil {
		t.Fatal("expected a Syntax error for unknown extends target")
	}
}

func TestCompileOverloadedFunctions(t *testing.T) {
	// fun p[x: A]: A ... ; fun p[x: B]: B ...  (S4)
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.SigDecl{Name: "B"},
			&ast.FunDecl{
				Name:   "p",
				Params: []*ast.Param{{Name: "x", Type: mustIdent("A")}},
				Return: mustIdent("A"),
				Body:   mustIdent("x"),
			},
			&ast.FunDecl{
				Name:   "p",
				Params: []*ast.Param{{Name: "x", Type: mustIdent("B")}},
				Return: mustIdent("B"),
				Body:   mustIdent("x"),
			},
		},
	}
	mod, errs := Compile(context.Background(), file)
	if errs.Err() != nil {
		t.Fatalf("unexpected errors: %v", errs.Err())
	}
	if len(mod.Funcs["p"]) != 2 {
		t.Fatalf("want 2 overloads of p, got %d", len(mod.Funcs["p"]))
	}
}

func TestCompileFactsAndAsserts(t *testing.T) {
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.FactDecl{Name: "", Body: mustIdent("A")},
			&ast.AssertDecl{Name: "noEmpty", Body: mustIdent("A")},
			&ast.CommandDecl{Kind: "check", Target: "noEmpty", Position: token.NoPos},
		},
	}
	mod, errs := Compile(context.Background(), file)
	if errs.Err() != nil {
		t.Fatalf("unexpected errors: %v", errs.Err())
	}
	if len(mod.Facts) != 1 || len(mod.Asserts) != 1 || len(mod.Commands) != 1 {
		t.Fatalf("missing decls: facts=%d asserts=%d commands=%d",
			len(mod.Facts), len(mod.Asserts), len(mod.Commands))
	}
}

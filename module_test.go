package alloy

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"alloylang.org/alloy/ast"
)

func TestCompileEndToEnd(t *testing.T) {
	// sig A {}; sig B extends A { f: A }
	// pred nonEmpty[x: A] { some y: A | y = x }
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.SigDecl{
				Name:    "B",
				Extends: "A",
				Fields:  []*ast.FieldDecl{{Name: "f", Type: &ast.Ident{Name: "A"}}},
			},
			&ast.PredDecl{
				Name:   "nonEmpty",
				Params: []*ast.Param{{Name: "x", Type: &ast.Ident{Name: "A"}}},
				Body: &ast.Quant{
					Kind: ast.QuantSome,
					Vars: []*ast.Param{{Name: "y", Type: &ast.Ident{Name: "A"}}},
					Body: &ast.Binary{Op: ast.BinaryEquals, X: &ast.Ident{Name: "y"}, Y: &ast.Ident{Name: "x"}},
				},
			},
		},
	}

	mod, errs := Compile(context.Background(), file)
	if errs.Err() != nil {
		t.Fatalf("unexpected errors: %v", errs.Err())
	}
	if mod.ID == (uuid.UUID{}) {
		t.Error("Module.ID should be a non-zero uuid")
	}
	if _, ok := mod.Sigs.Lookup("B"); !ok {
		t.Error("B should be registered in the elaborated Module's Sigs")
	}
	if len(mod.Preds["nonEmpty"]) != 1 {
		t.Fatalf("want 1 elaborated nonEmpty, got %d", len(mod.Preds["nonEmpty"]))
	}
}

func TestCompileStopsBeforeElaborateOnHierarchyError(t *testing.T) {
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A", Extends: "Ghost"},
		},
	}
	mod, errs := Compile(context.Background(), file)
	if errs.Err() == nil {
		t.Fatal("want an error for the unknown parent")
	}
	if mod != nil {
		t.Error("want a nil Module when Pass 1 fails to produce a hierarchy")
	}
}

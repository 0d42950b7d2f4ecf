package elaborate

import (
	"context"
	"testing"

	"alloylang.org/alloy/ast"
	"alloylang.org/alloy/internal/core/compile"
)

func mustIdent(name string) *ast.Ident { return &ast.Ident{Name: name} }

func compileOrFatal(t *testing.T, file *ast.File) *compile.Module {
	t.Helper()
	mod, errs := compile.Compile(context.Background(), file)
	if errs.Err() != nil {
		t.Fatalf("unexpected compile errors: %v", errs.Err())
	}
	return mod
}

func TestElaborateDisjointEqualityWarns(t *testing.T) {
	// S2: fact { A = B } where A and B are unrelated sigs.
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.SigDecl{Name: "B"},
			&ast.FactDecl{
				Name: "",
				Body: &ast.Binary{Op: ast.BinaryEquals, X: mustIdent("A"), Y: mustIdent("B")},
			},
		},
	}
	mod := compileOrFatal(t, file)
	prog, errs := Elaborate(context.Background(), mod)
	if errs.Err() != nil {
		t.Fatalf("unexpected elaboration errors: %v", errs.Err())
	}
	if len(errs.Warnings()) != 1 {
		t.Fatalf("want 1 warning for disjoint equality, got %d", len(errs.Warnings()))
	}
	if len(prog.Facts) != 1 {
		t.Fatalf("want 1 elaborated fact, got %d", len(prog.Facts))
	}
}

func TestElaborateOverloadedCallDisambiguates(t *testing.T) {
	// S4: two overloads of p, called with an argument of sig A; only the
	// A-typed overload is applicable, so the call resolves without
	// ambiguity even though the name is shared.
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
			&ast.FunDecl{
				Name:   "callsP",
				Params: []*ast.Param{{Name: "a", Type: mustIdent("A")}},
				Return: mustIdent("A"),
				Body:   &ast.Call{Fun: "p", Args: []ast.Expr{mustIdent("a")}},
			},
		},
	}
	mod := compileOrFatal(t, file)
	prog, errs := Elaborate(context.Background(), mod)
	if errs.Err() != nil {
		t.Fatalf("unexpected elaboration errors: %v", errs.Err())
	}
	fns := prog.Funcs["callsP"]
	if len(fns) != 1 {
		t.Fatalf("want 1 elaborated callsP, got %d", len(fns))
	}
	call, ok := fns[0].Typed.(*Call)
	if !ok {
		t.Fatalf("callsP body should elaborate to a Call, got %T", fns[0].Typed)
	}
	if call.Target.TargetName() != "p" {
		t.Errorf("call target name = %q, want p", call.Target.TargetName())
	}
}

func TestElaborateAmbiguousCallReportsAmbiguous(t *testing.T) {
	// S4's ambiguous branch: both overloads of p take a sig that the
	// argument's type is compatible with (here, the argument is itself
	// ambiguous between A and B via a union-typed variable), so neither
	// overload can be preferred over the other.
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.SigDecl{Name: "B"},
			&ast.SigDecl{Name: "S", InParents: []string{"A", "B"}},
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
			&ast.FunDecl{
				Name:   "callsP",
				Params: []*ast.Param{{Name: "s", Type: mustIdent("S")}},
				Body:   &ast.Call{Fun: "p", Args: []ast.Expr{mustIdent("s")}},
			},
		},
	}
	mod := compileOrFatal(t, file)
	_, errs := Elaborate(context.Background(), mod)
	if errs.Err() == nil {
		t.Fatal("want an error elaborating callsP's ambiguous call")
	}
}

func TestElaborateUnaryJoinIsTypeError(t *testing.T) {
	// S6: two unary (sig-typed parameter) expressions joined via dot must fail
	// with a Type error, never silently produce an empty relation.
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.SigDecl{Name: "B"},
			&ast.FunDecl{
				Name:   "bad",
				Params: []*ast.Param{{Name: "a", Type: mustIdent("A")}, {Name: "b", Type: mustIdent("B")}},
				Body:   &ast.Dot{L: mustIdent("a"), R: mustIdent("b")},
			},
		},
	}
	mod := compileOrFatal(t, file)
	_, errs := Elaborate(context.Background(), mod)
	if errs.Err() == nil {
		t.Fatal("want a Type error joining two unary sets")
	}
}

func TestElaborateFieldJoin(t *testing.T) {
	// sig A { f: A }; fun g[a: A]: A { a.f }
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{
				Name:   "A",
				Fields: []*ast.FieldDecl{{Name: "f", Type: mustIdent("A")}},
			},
			&ast.FunDecl{
				Name:   "g",
				Params: []*ast.Param{{Name: "a", Type: mustIdent("A")}},
				Body:   &ast.Dot{L: mustIdent("a"), R: mustIdent("f")},
			},
		},
	}
	mod := compileOrFatal(t, file)
	prog, errs := Elaborate(context.Background(), mod)
	if errs.Err() != nil {
		t.Fatalf("unexpected elaboration errors: %v", errs.Err())
	}
	fns := prog.Funcs["g"]
	if len(fns) != 1 {
		t.Fatalf("want 1 elaborated g, got %d", len(fns))
	}
	if _, ok := fns[0].Typed.(*Join); !ok {
		t.Errorf("g's body should elaborate to a Join, got %T", fns[0].Typed)
	}
}

func TestElaborateCommandScopeAcceptsSig(t *testing.T) {
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.PredDecl{Name: "p", Body: &ast.Binary{Op: ast.BinaryIn, X: mustIdent("A"), Y: mustIdent("A")}},
			&ast.CommandDecl{
				Kind:   "run",
				Target: "p",
				Scopes: []ast.ScopeEntry{{Sig: mustIdent("A"), Count: 3}},
			},
		},
	}
	mod := compileOrFatal(t, file)
	_, errs := Elaborate(context.Background(), mod)
	if errs.Err() != nil {
		t.Fatalf("unexpected errors elaborating a sig-scoped command: %v", errs.Err())
	}
}

func TestElaborateCommandScopeRejectsNonUnary(t *testing.T) {
	file := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{Name: "A"},
			&ast.PredDecl{Name: "p", Body: &ast.Binary{Op: ast.BinaryIn, X: mustIdent("A"), Y: mustIdent("A")}},
			&ast.CommandDecl{
				Kind:   "run",
				Target: "p",
				Scopes: []ast.ScopeEntry{{
					Sig:   &ast.Binary{Op: ast.BinaryProduct, X: mustIdent("A"), Y: mustIdent("A")},
					Count: 3,
				}},
			},
		},
	}
	mod := compileOrFatal(t, file)
	_, errs := Elaborate(context.Background(), mod)
	if errs.Err() == nil {
		t.Fatal("want a Type error for a binary-relation scope bound")
	}
}

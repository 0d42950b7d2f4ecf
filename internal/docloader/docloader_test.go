package docloader

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"alloylang.org/alloy/ast"
	"alloylang.org/alloy/token"
)

// posEq treats all positions as equal by source-order rather than by
// token.Pos's unexported file/line/col fields: every node docloader
// builds carries token.NoPos, so the only thing worth diffing here is
// tree shape.
var posEq = cmp.Comparer(func(a, b token.Pos) bool { return a.Compare(b) == 0 })

func TestLoadYAMLBuildsMatchingTree(t *testing.T) {
	doc := []byte(`
sigs:
  - name: A
    fields:
      - {name: f, mult: one, type: A}
  - name: B
    extends: A
funcs:
  - name: id
    params:
      - {name: x, type: A}
    return: A
    body: {kind: ident, name: x}
preds:
  - name: nonEmpty
    params:
      - {name: x, type: A}
    body:
      kind: quant
      quantifier: some
      vars:
        - {name: y, type: A}
      body: {kind: binary, op: "=", x: y, y: x}
`)

	got, err := Load(doc, "yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := &ast.File{
		Decls: []ast.Decl{
			&ast.SigDecl{
				Name:   "A",
				Fields: []*ast.FieldDecl{{Name: "f", Mult: ast.MultOne, Type: &ast.Ident{Name: "A"}}},
			},
			&ast.SigDecl{Name: "B", Extends: "A"},
			&ast.FunDecl{
				Name:   "id",
				Params: []*ast.Param{{Name: "x", Type: &ast.Ident{Name: "A"}}},
				Return: &ast.Ident{Name: "A"},
				Body:   &ast.Ident{Name: "x"},
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

	if diff := cmp.Diff(want, got, posEq); diff != "" {
		t.Errorf("Load(yaml) mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadJSONMatchesYAML(t *testing.T) {
	yamlDoc := []byte(`
sigs:
  - {name: A}
funcs:
  - name: f
    params: []
    body: {kind: int, value: 3}
`)
	jsonDoc := []byte(`{
		"sigs": [{"name": "A"}],
		"funcs": [{"name": "f", "params": [], "body": {"kind": "int", "value": 3}}]
	}`)

	fromYAML, err := Load(yamlDoc, "yaml")
	if err != nil {
		t.Fatalf("Load(yaml): %v", err)
	}
	fromJSON, err := Load(jsonDoc, "json")
	if err != nil {
		t.Fatalf("Load(json): %v", err)
	}

	if diff := cmp.Diff(fromYAML, fromJSON, posEq); diff != "" {
		t.Errorf("yaml/json parity mismatch (-yaml +json):\n%s", diff)
	}
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	doc := []byte(`
facts:
  - name: bogus
    body: {kind: wizardry}
`)
	if _, err := Load(doc, "yaml"); err == nil {
		t.Fatal("want an error for an unknown expression kind")
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load([]byte(`{}`), "toml"); err == nil {
		t.Fatal("want an error for an unsupported format")
	}
}

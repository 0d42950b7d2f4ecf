package token

import "testing"

func TestPositionStringFormats(t *testing.T) {
	p := Position{Filename: "m.yaml", Line: 3, Column: 5}
	if got, want := p.String(), "m.yaml:3:5"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	noFile := Position{Line: 1, Column: 1}
	if got, want := noFile.String(), "1:1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	invalid := Position{}
	if got, want := invalid.String(), "-"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPosIsValid(t *testing.T) {
	if NoPos.IsValid() {
		t.Error("NoPos.IsValid() = true, want false")
	}
	f := NewFile("m.yaml")
	p := f.Pos(1, 1)
	if !p.IsValid() {
		t.Error("Pos from a real File at line 1 should be valid")
	}
	if f.Pos(0, 1).IsValid() {
		t.Error("Pos at line 0 should not be valid")
	}
}

func TestPosCompareOrdersNoPosFirst(t *testing.T) {
	f := NewFile("m.yaml")
	a := f.Pos(1, 1)
	b := f.Pos(2, 1)

	if NoPos.Compare(a) >= 0 {
		t.Error("NoPos should compare before any real position")
	}
	if a.Compare(NoPos) <= 0 {
		t.Error("a real position should compare after NoPos")
	}
	if a.Compare(b) >= 0 {
		t.Error("earlier line should compare before later line")
	}
	if a.Compare(a) != 0 {
		t.Error("a position should compare equal to itself")
	}
}

func TestPosCompareOrdersByFilenameThenLineThenColumn(t *testing.T) {
	fa := NewFile("a.yaml")
	fb := NewFile("b.yaml")

	if fa.Pos(5, 5).Compare(fb.Pos(1, 1)) >= 0 {
		t.Error("a.yaml should sort before b.yaml regardless of line/column")
	}
	if fa.Pos(1, 9).Compare(fa.Pos(1, 1)) <= 0 {
		t.Error("same file, same line: higher column should sort after")
	}
}

func TestPosPositionExpandsFileName(t *testing.T) {
	f := NewFile("model.json")
	p := f.Pos(2, 4)
	got := p.Position()
	if got.Filename != "model.json" || got.Line != 2 || got.Column != 4 {
		t.Errorf("Position() = %+v, want Filename=model.json Line=2 Column=4", got)
	}
	if NoPos.Position() != (Position{}) {
		t.Error("NoPos.Position() should be the zero Position")
	}
}

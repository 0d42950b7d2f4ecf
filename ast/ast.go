// Package ast defines the untyped parse-tree node variants the Resolver
// and Elaborator consume (spec.md §6 Inputs). Lexing and concrete-syntax
// parsing are external collaborators (spec.md §1); this package is the
// contract an external parser (or, for this repository's own demo
// harness, cmd/alloycheck's structured-document loader) must build
// against.
//
// Following spec.md §9's "closed tagged variants" design note, the node
// set is a closed interface hierarchy with unexported marker methods, the
// same pattern the teacher corpus uses for both its concrete syntax tree
// (cue/ast) and its internal typed tree (internal/core/adt): one switch
// over a sealed set of struct types, no open visitor interface per node.
package ast

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/token"
)

// Node is the common interface of every AST node.
type Node interface {
	Pos() token.Pos
	node()
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// File is the root of one compiled unit: an ordered list of declarations.
type File struct {
	Position token.Pos
	Decls    []Decl
}

func (f *File) Pos() token.Pos { return f.Position }
func (*File) node()            {}

// Param is a function/predicate/quantifier-bound parameter declaration.
type Param struct {
	Position token.Pos
	Name     string
	Type     Expr
}

func (p *Param) Pos() token.Pos { return p.Position }

// SigDecl declares a primitive or subset signature.
//
//	sig A {}                   // Extends == "", InParents == nil
//	sig B extends A {}         // Extends == "A"
//	sig S in A + B {}          // InParents == ["A","B"], a subset sig
type SigDecl struct {
	Position   token.Pos
	Name       string
	IsAbstract bool
	Extends    string
	InParents  []string
	Fields     []*FieldDecl
}

func (d *SigDecl) Pos() token.Pos { return d.Position }
func (*SigDecl) node()            {}
func (*SigDecl) declNode()        {}

// IsSubset reports whether this declares a subset sig (has "in" parents)
// rather than a primitive one.
func (d *SigDecl) IsSubset() bool { return len(d.InParents) > 0 }

// Mult is a field or variable multiplicity mark.
type Mult int

const (
	MultNone Mult = iota
	MultOne
	MultLone
	MultSome
	MultSet
)

// FieldDecl declares a field of the enclosing sig.
type FieldDecl struct {
	Position token.Pos
	Name     string
	Mult     Mult
	Type     Expr
}

func (d *FieldDecl) Pos() token.Pos { return d.Position }
func (*FieldDecl) node()            {}
func (*FieldDecl) declNode()        {}

// FunDecl declares a function: a named, parameterized expression with a
// return type and a body.
type FunDecl struct {
	Position token.Pos
	Name     string
	Params   []*Param
	Return   Expr // may be nil: an unconstrained return type
	Body     Expr
}

func (d *FunDecl) Pos() token.Pos { return d.Position }
func (*FunDecl) node()            {}
func (*FunDecl) declNode()        {}

// PredDecl declares a predicate: a named, parameterized formula. Its Type
// is always FORMULA (spec.md §4.F).
type PredDecl struct {
	Position token.Pos
	Name     string
	Params   []*Param
	Body     Expr
}

func (d *PredDecl) Pos() token.Pos { return d.Position }
func (*PredDecl) node()            {}
func (*PredDecl) declNode()        {}

// FactDecl declares a (possibly anonymous) fact.
type FactDecl struct {
	Position token.Pos
	Name     string
	Body     Expr
}

func (d *FactDecl) Pos() token.Pos { return d.Position }
func (*FactDecl) node()            {}
func (*FactDecl) declNode()        {}

// AssertDecl declares a named assertion.
type AssertDecl struct {
	Position token.Pos
	Name     string
	Body     Expr
}

func (d *AssertDecl) Pos() token.Pos { return d.Position }
func (*AssertDecl) node()            {}
func (*AssertDecl) declNode()        {}

// ScopeEntry binds a sig reference to a count in a CommandDecl's "for"
// clause, e.g. the "3 A" in "run p for 3 A". Supplemented from
// original_source/ (see SPEC_FULL.md §4.D): the Elaborator type-checks Sig
// but the bound itself is consumed only by the (out-of-scope) SAT backend.
type ScopeEntry struct {
	Sig   Expr
	Count int
}

// CommandDecl declares a run or check command over a predicate or assert.
type CommandDecl struct {
	Position token.Pos
	Kind     string // "run" or "check"
	Target   string
	Scopes   []ScopeEntry
}

func (d *CommandDecl) Pos() token.Pos { return d.Position }
func (*CommandDecl) node()            {}
func (*CommandDecl) declNode()        {}

// Ident is a bare name reference: a sig, field, function parameter, let
// binding, or quantified variable, disambiguated by the Elaborator.
type Ident struct {
	Position token.Pos
	Name     string
}

func (x *Ident) Pos() token.Pos { return x.Position }
func (*Ident) node()            {}
func (*Ident) exprNode()        {}

// IntLit is a 32-bit signed integer literal. Construct with NewIntLit to
// get spec.md §6 numeric-semantics range checking.
type IntLit struct {
	Position token.Pos
	Value    int32
}

func (x *IntLit) Pos() token.Pos { return x.Position }
func (*IntLit) node()            {}
func (*IntLit) exprNode()        {}

// NewIntLit parses text as an arbitrary-precision decimal (via
// github.com/cockroachdb/apd/v3, the corpus's numeric-literal library) and
// rejects it with a Syntax error if it does not fit a 32-bit signed range,
// rather than silently truncating (spec.md §6).
func NewIntLit(pos token.Pos, text string) (*IntLit, errors.Error) {
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, errors.Newf(errors.Syntax, pos, "invalid integer literal %q: %v", text, err)
	}
	i64, err := d.Int64()
	if err != nil || i64 < math.MinInt32 || i64 > math.MaxInt32 {
		return nil, errors.Newf(errors.Syntax, pos,
			"integer literal %q does not fit in a 32-bit signed range", text)
	}
	return &IntLit{Position: pos, Value: int32(i64)}, nil
}

// UnaryOp enumerates the unary relational operators.
type UnaryOp int

const (
	UnaryTranspose        UnaryOp = iota // ~r
	UnaryClosure                         // ^r
	UnaryReflexiveClosure                // *r
	UnaryNot                             // !f
)

// Unary applies a unary operator to X.
type Unary struct {
	Position token.Pos
	Op       UnaryOp
	X        Expr
}

func (x *Unary) Pos() token.Pos { return x.Position }
func (*Unary) node()            {}
func (*Unary) exprNode()        {}

// BinaryOp enumerates the binary relational and logical operators, not
// counting dot-join, which gets its own node (Dot) because of its
// distinctive partial-application elaboration rule (spec.md §4.G).
type BinaryOp int

const (
	BinaryProduct BinaryOp = iota // ->
	BinaryUnion                   // +
	BinaryIntersect               // &
	BinaryDifference              // -
	BinaryDomainRestr             // <:
	BinaryRangeRestr              // :>
	BinaryEquals                  // =
	BinaryIn                      // in
	BinaryAnd                     // &&
	BinaryOr                      // ||
	BinaryImplies                 // =>
)

// Binary applies a binary operator to X and Y.
type Binary struct {
	Position token.Pos
	Op       BinaryOp
	X, Y     Expr
}

func (x *Binary) Pos() token.Pos { return x.Position }
func (*Binary) node()            {}
func (*Binary) exprNode()        {}

// Dot is relational join / field selection / function-call sugar: L.R.
// See spec.md §4.G for its distinctive elaboration rule.
type Dot struct {
	Position token.Pos
	L, R     Expr
}

func (x *Dot) Pos() token.Pos { return x.Position }
func (*Dot) node()            {}
func (*Dot) exprNode()        {}

// Quantifier enumerates the quantified-formula kinds.
type Quantifier int

const (
	QuantAll Quantifier = iota
	QuantSome
	QuantNo
	QuantOne
	QuantLone
)

// Quant is a quantified formula: `<quant> v1:T1, v2:T2 | Body`.
type Quant struct {
	Position token.Pos
	Kind     Quantifier
	Vars     []*Param
	Body     Expr
}

func (x *Quant) Pos() token.Pos { return x.Position }
func (*Quant) node()            {}
func (*Quant) exprNode()        {}

// Let binds Name to Value within Body.
type Let struct {
	Position token.Pos
	Name     string
	Value    Expr
	Body     Expr
}

func (x *Let) Pos() token.Pos { return x.Position }
func (*Let) node()            {}
func (*Let) exprNode()        {}

// Call is a function application: Fun[Args...].
type Call struct {
	Position token.Pos
	Fun      string
	Args     []Expr
}

func (x *Call) Pos() token.Pos { return x.Position }
func (*Call) node()            {}
func (*Call) exprNode()        {}

// ITE is an if-then-else expression.
type ITE struct {
	Position         token.Pos
	Cond, Then, Else Expr
}

func (x *ITE) Pos() token.Pos { return x.Position }
func (*ITE) node()            {}
func (*ITE) exprNode()        {}

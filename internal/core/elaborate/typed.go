// Package elaborate implements Pass 2: it walks the untyped expression
// bodies left behind by compile.Compile and produces a typed expression
// tree. Most nodes' Types follow deterministically from their
// already-elaborated operands; only a bare name (Ident) or a bracket call
// (Call) carries genuine ambiguity, since either can name more than one
// sig/field/variable or overload. Those two node kinds build a candidate
// list and narrow it with selectCandidate's three-tier rule — filter by
// the outer Type constraint, then by least ExtraWeight, then by most
// specific Type (spec.md §4.G) — everything else computes its Type
// directly from its operands and is checked against the outer constraint
// by the elaborate dispatcher itself.
//
// CUE's own evaluator has no direct analogue of overloaded-name
// disambiguation over a relational type algebra; the candidate machinery
// here is original to this package, grounded only in the behavior
// spec.md §4.G and §9 describe, though its error-accumulation discipline
// and closed-variant dispatch follow the same shape used throughout this
// repository's other packages (see ast.Node, internal/core/adt.Expr in
// the teacher).
package elaborate

import (
	"alloylang.org/alloy/internal/core/types"
	"alloylang.org/alloy/token"
)

// Expr is a typed expression node: a closed tagged variant, matching the
// "no visitor polymorphism" design note (spec.md §9).
type Expr interface {
	Pos() token.Pos
	Type() types.Type
	ExtraWeight() int
	Synthesized() bool
	typedNode()
}

// base is embedded by every concrete Expr variant to supply the common
// Pos/Type/ExtraWeight/Synthesized accessors without per-variant
// boilerplate.
type base struct {
	Position token.Pos
	Ty       types.Type
	Weight   int
	Synth    bool
}

func (b base) Pos() token.Pos    { return b.Position }
func (b base) Type() types.Type  { return b.Ty }
func (b base) ExtraWeight() int  { return b.Weight }
func (b base) Synthesized() bool { return b.Synth }
func (base) typedNode()          {}

// SigRef names a primitive or subset sig directly.
type SigRef struct {
	base
	Sig interface {
		SigName() string
	}
}

// FieldRef names a field of an enclosing sig.
type FieldRef struct {
	base
	Field *types.Field
}

// VarRef names a bound variable: a function/predicate parameter, a let
// binding, or a quantified variable.
type VarRef struct {
	base
	Name string
}

// IntLit is an elaborated integer literal.
type IntLit struct {
	base
	Value int32
}

// Unary is an elaborated unary relational or logical operator.
type Unary struct {
	base
	Op UnaryOp
	X  Expr
}

// UnaryOp mirrors ast.UnaryOp for the typed tree (kept distinct so the
// typed tree never imports ast, per the ownership note in spec.md §9).
type UnaryOp int

const (
	OpTranspose UnaryOp = iota
	OpClosure
	OpReflexiveClosure
	OpNot
)

// Binary is an elaborated binary relational or logical operator, other
// than join (see Join).
type Binary struct {
	base
	Op   BinaryOp
	X, Y Expr
}

// BinaryOp mirrors ast.BinaryOp for the typed tree.
type BinaryOp int

const (
	OpProduct BinaryOp = iota
	OpUnion
	OpIntersect
	OpDifference
	OpDomainRestr
	OpRangeRestr
	OpEquals
	OpIn
	OpAnd
	OpOr
	OpImplies
)

// Join is the typed result of a dot expression that elaborated to a
// relational join (as opposed to a cast or a call), per spec.md §4.G.
type Join struct {
	base
	L, R Expr
}

// Cast2SigInt is synthesized when a dot expression joins an integer-typed
// left operand with a SIGINT right operand (spec.md §4.G); it carries a
// nonzero ExtraWeight so a direct match is preferred during tie-breaking.
type Cast2SigInt struct {
	base
	X Expr
}

// BoundVar is a quantifier-bound variable declaration (name plus Type,
// not itself a reference).
type BoundVar struct {
	Name string
	Ty   types.Type
}

// Quantifier mirrors ast.Quantifier for the typed tree.
type Quantifier int

const (
	QuantAll Quantifier = iota
	QuantSome
	QuantNo
	QuantOne
	QuantLone
)

// Quant is an elaborated quantified formula.
type Quant struct {
	base
	Kind Quantifier
	Vars []BoundVar
	Body Expr
}

// Let is an elaborated let binding.
type Let struct {
	base
	Name  string
	Value Expr
	Body  Expr
}

// CallTarget identifies the resolved function behind a Call node.
type CallTarget interface {
	TargetName() string
}

// Call is an elaborated, fully-applied function call.
type Call struct {
	base
	Target CallTarget
	Args   []Expr
}

// ITE is an elaborated if-then-else expression.
type ITE struct {
	base
	Cond, Then, Else Expr
}

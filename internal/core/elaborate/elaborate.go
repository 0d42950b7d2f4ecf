package elaborate

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"alloylang.org/alloy/ast"
	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/internal/alloydebug"
	"alloylang.org/alloy/internal/core/compile"
	"alloylang.org/alloy/internal/core/types"
)

// Program is the fully elaborated output of Pass 2: every predicate,
// function, fact, and assert body replaced by a typed expression tree.
type Program struct {
	Sigs    *types.Graph
	Funcs   map[string][]*ElaboratedFunc
	Preds   map[string][]*ElaboratedPred
	Facts   []*ElaboratedFact
	Asserts []*ElaboratedAssert
}

// ElaboratedFunc is a function whose body has been type-checked and
// disambiguated.
type ElaboratedFunc struct {
	*compile.Function
	Typed Expr
}

// TargetName identifies this function as a Call target by name, so the
// typed tree can reference it without importing compile's Function type
// into every Call site's construction logic.
func (f *ElaboratedFunc) TargetName() string { return f.Function.Name }

// ElaboratedPred is a predicate whose body has been type-checked.
type ElaboratedPred struct {
	*compile.Predicate
	Typed Expr
}

// TargetName identifies this predicate as a Call target by name; a
// predicate invoked as an expression always yields FORMULA (spec.md
// §4.F).
func (p *ElaboratedPred) TargetName() string { return p.Predicate.Name }

// ElaboratedFact is a fact whose body has been type-checked against
// FORMULA.
type ElaboratedFact struct {
	Name  string
	Typed Expr
}

// ElaboratedAssert is an assertion whose body has been type-checked
// against FORMULA.
type ElaboratedAssert struct {
	Name  string
	Typed Expr
}

// varScope is a lexical chain of name -> Type bindings for function and
// predicate parameters, let clauses, and quantified variables.
type varScope struct {
	parent *varScope
	name   string
	ty     types.Type
}

func (s *varScope) push(name string, ty types.Type) *varScope {
	return &varScope{parent: s, name: norm.NFC.String(name), ty: ty}
}

func (s *varScope) lookup(name string) (types.Type, bool) {
	name = norm.NFC.String(name)
	for p := s; p != nil; p = p.parent {
		if p.name == name {
			return p.ty, true
		}
	}
	return types.Empty, false
}

type elaborator struct {
	ctx  context.Context
	mod  *compile.Module
	errs *errors.List
}

// Elaborate runs Pass 2 over a Pass-1 module, type-checking and
// disambiguating every function, predicate, fact, and assert body.
// Per spec.md §7, each declaration is isolated: a failure in one body
// does not prevent the others from being elaborated and reported. ctx is
// threaded down to every types.Closure call reached while elaborating a
// body (the ^ and * operators), so a cancelled or timed-out ctx abandons
// the in-progress closure instead of running it to completion.
func Elaborate(ctx context.Context, mod *compile.Module) (*Program, *errors.List) {
	el := &elaborator{ctx: ctx, mod: mod, errs: &errors.List{}}
	prog := &Program{
		Sigs:  mod.Sigs,
		Funcs: map[string][]*ElaboratedFunc{},
		Preds: map[string][]*ElaboratedPred{},
	}

	for name, overloads := range mod.Funcs {
		for _, fn := range overloads {
			sc := (*varScope)(nil)
			for _, p := range fn.Params {
				sc = sc.push(p.Name, p.Type)
			}
			want, anyWant := fn.Return, fn.Return.IsEmpty()
			typed, err := el.elaborate(fn.Body, sc, want, anyWant)
			if err != nil {
				el.errs.Add(err)
				continue
			}
			prog.Funcs[name] = append(prog.Funcs[name], &ElaboratedFunc{Function: fn, Typed: typed})
		}
	}

	for name, overloads := range mod.Preds {
		for _, p := range overloads {
			sc := (*varScope)(nil)
			for _, par := range p.Params {
				sc = sc.push(par.Name, par.Type)
			}
			typed, err := el.elaborate(p.Body, sc, types.Formula(), false)
			if err != nil {
				el.errs.Add(err)
				continue
			}
			prog.Preds[name] = append(prog.Preds[name], &ElaboratedPred{Predicate: p, Typed: typed})
		}
	}

	for _, f := range mod.Facts {
		typed, err := el.elaborate(f.Body, nil, types.Formula(), false)
		if err != nil {
			el.errs.Add(err)
			continue
		}
		prog.Facts = append(prog.Facts, &ElaboratedFact{Name: f.Name, Typed: typed})
	}

	for _, a := range mod.Asserts {
		typed, err := el.elaborate(a.Body, nil, types.Formula(), false)
		if err != nil {
			el.errs.Add(err)
			continue
		}
		prog.Asserts = append(prog.Asserts, &ElaboratedAssert{Name: a.Name, Typed: typed})
	}

	for _, c := range mod.Commands {
		el.elaborateCommand(c)
	}

	return prog, el.errs
}

// elaborateCommand type-checks a run/check command's scope bounds: each
// ScopeEntry.Sig must resolve to a unary relational Type, with only
// arity-1 entries and no int or bool flag. A sig name passes, and so does
// a union or intersection of sigs; a product, or the int sig, is rejected.
// The Count is left untouched; honoring a scope bound is a SAT backend's
// job.
func (el *elaborator) elaborateCommand(c *ast.CommandDecl) {
	for _, se := range c.Scopes {
		t, err := el.elaborateTypeExpr(se.Sig, nil)
		if err != nil {
			el.errs.Add(err)
			continue
		}
		if t.IsInt() || t.IsBool() || len(t.Entries()) == 0 {
			el.errs.Add(errors.Newf(errors.Type, se.Sig.Pos(),
				"command scope bound must name a sig"))
			continue
		}
		for _, entry := range t.Entries() {
			if entry.Arity() != 1 {
				el.errs.Add(errors.Newf(errors.Type, se.Sig.Pos(),
					"command scope bound must name a sig, not a relation of arity %d", entry.Arity()))
				break
			}
		}
	}
}

// elaborate is the combined bottom-up/top-down step for one untyped
// node: it builds the candidate set for e (recursing into subexpressions
// with an unconstrained want, since composite operator Types are
// determined by their operands rather than by the enclosing context) and
// immediately narrows to a single candidate against (want, anyWant). This
// collapses spec.md §4.G's two separate passes into one recursive walk;
// the two-tier tie-break and Ambiguous/Type reporting are preserved
// exactly at every point a real choice exists (Ident, Call).
func (el *elaborator) elaborate(e ast.Expr, sc *varScope, want types.Type, anyWant bool) (Expr, errors.Error) {
	var result Expr
	var err errors.Error

	switch x := e.(type) {
	case nil:
		return nil, nil

	case *ast.Ident:
		// Ident and Call already narrow against (want, anyWant) internally
		// via selectCandidate, since they are the only nodes with a real
		// candidate set; re-checking below is then a no-op for them.
		return el.elaborateIdent(x, sc, want, anyWant)

	case *ast.IntLit:
		result = &IntLit{base: base{Position: x.Position, Ty: types.Int()}, Value: x.Value}

	case *ast.Unary:
		result, err = el.elaborateUnary(x, sc)

	case *ast.Binary:
		result, err = el.elaborateBinary(x, sc)

	case *ast.Dot:
		result, err = el.elaborateDot(x, sc)

	case *ast.Quant:
		result, err = el.elaborateQuant(x, sc)

	case *ast.Let:
		result, err = el.elaborateLet(x, sc, want, anyWant)

	case *ast.Call:
		return el.elaborateCall(x, sc, want, anyWant)

	case *ast.ITE:
		result, err = el.elaborateITE(x, sc, want, anyWant)

	default:
		return nil, errors.Newf(errors.Fatal, e.Pos(), "unsupported expression %T", e)
	}

	if err != nil {
		return nil, err
	}
	if !anyWant && !compatibleType(result.Type(), want) {
		return nil, errors.Newf(errors.Type, e.Pos(),
			"expression of type %s is not compatible with the expected type %s", result.Type(), want)
	}
	return result, nil
}

// elaborateIdent builds the candidate set for a bare name reference: a
// lexically bound variable, a sig, or any field of that name on any
// primitive sig (spec.md §4.G "Name reference").
func (el *elaborator) elaborateIdent(x *ast.Ident, sc *varScope, want types.Type, anyWant bool) (Expr, errors.Error) {
	var cands []Expr
	name := norm.NFC.String(x.Name)

	if t, ok := sc.lookup(name); ok {
		cands = append(cands, &VarRef{base: base{Position: x.Position, Ty: t}, Name: x.Name})
	}
	if sig, ok := el.mod.Sigs.Lookup(name); ok {
		if prim, ok := sig.(*types.PrimSig); ok {
			t := types.Make(prim)
			if prim == el.mod.Sigs.SigInt() {
				t = types.Int()
			}
			cands = append(cands, &SigRef{base: base{Position: x.Position, Ty: t}, Sig: prim})
		} else if sub, ok := sig.(*types.SubsetSig); ok {
			cands = append(cands, &SigRef{base: base{Position: x.Position, Ty: sub.Type()}, Sig: sub})
		}
	}
	for _, prim := range el.mod.Sigs.Prims() {
		for _, f := range prim.Fields {
			if norm.NFC.String(f.Name) == name {
				cands = append(cands, &FieldRef{base: base{Position: x.Position, Ty: f.Type}, Field: f})
			}
		}
	}

	if len(cands) == 0 {
		return nil, errors.Newf(errors.Syntax, x.Position, "reference %q not found", x.Name)
	}
	return selectCandidate(cands, x.Position, want, anyWant)
}

func (el *elaborator) elaborateUnary(x *ast.Unary, sc *varScope) (Expr, errors.Error) {
	xt, err := el.elaborate(x.X, sc, types.Empty, true)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case ast.UnaryTranspose:
		return &Unary{base: base{Position: x.Position, Ty: types.Transpose(xt.Type())}, Op: OpTranspose, X: xt}, nil
	case ast.UnaryClosure:
		t, err := types.Closure(el.ctx, x.Position, xt.Type())
		if err != nil {
			return nil, err
		}
		return &Unary{base: base{Position: x.Position, Ty: t}, Op: OpClosure, X: xt}, nil
	case ast.UnaryReflexiveClosure:
		// Approximation: the identity relation over a relation's own
		// domain/range is not representable by the nine core operators
		// alone, so reflexive closure is treated as plain closure here.
		t, err := types.Closure(el.ctx, x.Position, xt.Type())
		if err != nil {
			return nil, err
		}
		return &Unary{base: base{Position: x.Position, Ty: t}, Op: OpReflexiveClosure, X: xt}, nil
	case ast.UnaryNot:
		return &Unary{base: base{Position: x.Position, Ty: types.Formula()}, Op: OpNot, X: xt}, nil
	}
	return nil, errors.Newf(errors.Fatal, x.Position, "unsupported unary operator")
}

func (el *elaborator) elaborateBinary(x *ast.Binary, sc *varScope) (Expr, errors.Error) {
	lt, err := el.elaborate(x.X, sc, types.Empty, true)
	if err != nil {
		return nil, err
	}
	rt, err := el.elaborate(x.Y, sc, types.Empty, true)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case ast.BinaryProduct:
		t, err := types.Product(x.Position, lt.Type(), rt.Type())
		if err != nil {
			return nil, err
		}
		return &Binary{base: base{Position: x.Position, Ty: t}, Op: OpProduct, X: lt, Y: rt}, nil

	case ast.BinaryUnion:
		t := types.UnionWithCommonArity(lt.Type(), rt.Type())
		return &Binary{base: base{Position: x.Position, Ty: t}, Op: OpUnion, X: lt, Y: rt}, nil

	case ast.BinaryIntersect:
		t := types.Intersect(lt.Type(), rt.Type())
		return &Binary{base: base{Position: x.Position, Ty: t}, Op: OpIntersect, X: lt, Y: rt}, nil

	case ast.BinaryDifference:
		// Set difference has no dedicated operator in the core algebra
		// (spec.md §4.C); approximate its shape with pickCommonArity,
		// since difference never introduces a new arity.
		t := types.PickCommonArity(lt.Type(), rt.Type())
		return &Binary{base: base{Position: x.Position, Ty: t}, Op: OpDifference, X: lt, Y: rt}, nil

	case ast.BinaryDomainRestr:
		t := types.DomainRestrict(rt.Type(), lt.Type())
		return &Binary{base: base{Position: x.Position, Ty: t}, Op: OpDomainRestr, X: lt, Y: rt}, nil

	case ast.BinaryRangeRestr:
		t := types.RangeRestrict(lt.Type(), rt.Type())
		return &Binary{base: base{Position: x.Position, Ty: t}, Op: OpRangeRestr, X: lt, Y: rt}, nil

	case ast.BinaryEquals:
		if lt.Type().HasCommonArity(rt.Type()) && types.Intersect(lt.Type(), rt.Type()).IsEmpty() {
			const msg = "equality between disjoint types is always false"
			if alloydebug.Flags.Strict {
				return nil, errors.Newf(errors.Type, x.Position, msg)
			}
			el.errs.Add(errors.Newf(errors.Warning, x.Position, msg))
		}
		return &Binary{base: base{Position: x.Position, Ty: types.Formula()}, Op: OpEquals, X: lt, Y: rt}, nil

	case ast.BinaryIn:
		return &Binary{base: base{Position: x.Position, Ty: types.Formula()}, Op: OpIn, X: lt, Y: rt}, nil
	case ast.BinaryAnd:
		return &Binary{base: base{Position: x.Position, Ty: types.Formula()}, Op: OpAnd, X: lt, Y: rt}, nil
	case ast.BinaryOr:
		return &Binary{base: base{Position: x.Position, Ty: types.Formula()}, Op: OpOr, X: lt, Y: rt}, nil
	case ast.BinaryImplies:
		return &Binary{base: base{Position: x.Position, Ty: types.Formula()}, Op: OpImplies, X: lt, Y: rt}, nil
	}
	return nil, errors.Newf(errors.Fatal, x.Position, "unsupported binary operator")
}

// elaborateDot handles L.R: relational join, or (when L is int-typed and
// R is SIGINT) an inserted cast (spec.md §4.G). Dot-based partial
// application of multi-parameter functions (`a.f` meaning `f[a]` with
// further dots supplying more arguments) is not implemented — none of
// this repository's test scenarios exercise it, and bracket-call syntax
// (ast.Call) covers function application fully.
func (el *elaborator) elaborateDot(x *ast.Dot, sc *varScope) (Expr, errors.Error) {
	lt, err := el.elaborate(x.L, sc, types.Empty, true)
	if err != nil {
		return nil, err
	}
	rt, err := el.elaborate(x.R, sc, types.Empty, true)
	if err != nil {
		return nil, err
	}

	if lt.Type().IsInt() && !lt.Type().IsBool() {
		if sr, ok := rt.(*SigRef); ok {
			if prim, ok := sr.Sig.(*types.PrimSig); ok && prim == el.mod.Sigs.SigInt() {
				return &Cast2SigInt{base: base{Position: x.Position, Ty: types.Int(), Weight: 1}, X: lt}, nil
			}
		}
	}

	joined, jerr := types.Join(x.Position, lt.Type(), rt.Type())
	if jerr != nil {
		return nil, jerr
	}
	if joined.IsEmpty() && isPureUnary(lt.Type()) && isPureUnary(rt.Type()) {
		return nil, errors.Newf(errors.Type, x.Position, "cannot join two unary sets")
	}
	return &Join{base: base{Position: x.Position, Ty: joined}, L: lt, R: rt}, nil
}

// isPureUnary reports whether t has arity-1 entries and no entries of any
// other arity, the shape spec.md §8 scenario S6 rejects when joined with
// another such Type.
func isPureUnary(t types.Type) bool {
	if !t.HasArity(1) {
		return false
	}
	for k := 2; k <= types.MaxArity; k++ {
		if t.HasArity(k) {
			return false
		}
	}
	return true
}

func (el *elaborator) elaborateQuant(x *ast.Quant, sc *varScope) (Expr, errors.Error) {
	inner := sc
	vars := make([]BoundVar, 0, len(x.Vars))
	for _, v := range x.Vars {
		vt, err := el.elaborateTypeExpr(v.Type, inner)
		if err != nil {
			return nil, err
		}
		vars = append(vars, BoundVar{Name: v.Name, Ty: vt})
		inner = inner.push(v.Name, vt)
	}
	body, err := el.elaborate(x.Body, inner, types.Formula(), false)
	if err != nil {
		return nil, err
	}
	var kind Quantifier
	switch x.Kind {
	case ast.QuantAll:
		kind = QuantAll
	case ast.QuantSome:
		kind = QuantSome
	case ast.QuantNo:
		kind = QuantNo
	case ast.QuantOne:
		kind = QuantOne
	case ast.QuantLone:
		kind = QuantLone
	}
	return &Quant{base: base{Position: x.Position, Ty: types.Formula()}, Kind: kind, Vars: vars, Body: body}, nil
}

func (el *elaborator) elaborateLet(x *ast.Let, sc *varScope, want types.Type, anyWant bool) (Expr, errors.Error) {
	value, err := el.elaborate(x.Value, sc, types.Empty, true)
	if err != nil {
		return nil, err
	}
	inner := sc.push(x.Name, value.Type())
	body, err := el.elaborate(x.Body, inner, want, anyWant)
	if err != nil {
		return nil, err
	}
	return &Let{base: base{Position: x.Position, Ty: body.Type()}, Name: x.Name, Value: value, Body: body}, nil
}

func (el *elaborator) elaborateITE(x *ast.ITE, sc *varScope, want types.Type, anyWant bool) (Expr, errors.Error) {
	cond, err := el.elaborate(x.Cond, sc, types.Formula(), false)
	if err != nil {
		return nil, err
	}
	then, err := el.elaborate(x.Then, sc, want, anyWant)
	if err != nil {
		return nil, err
	}
	els, err := el.elaborate(x.Else, sc, want, anyWant)
	if err != nil {
		return nil, err
	}
	t := types.UnionWithCommonArity(then.Type(), els.Type())
	return &ITE{base: base{Position: x.Position, Ty: t}, Cond: cond, Then: then, Else: els}, nil
}

// elaborateCall handles bracket-syntax application f[args]: every
// same-named overload (function or predicate) is checked for
// applicability (spec.md §4.G "applicable"), and the surviving
// candidates are narrowed by selectCandidate exactly like an Ident's.
func (el *elaborator) elaborateCall(x *ast.Call, sc *varScope, want types.Type, anyWant bool) (Expr, errors.Error) {
	args := make([]Expr, 0, len(x.Args))
	for _, a := range x.Args {
		at, err := el.elaborate(a, sc, types.Empty, true)
		if err != nil {
			return nil, err
		}
		args = append(args, at)
	}

	name := norm.NFC.String(x.Fun)
	funcs, preds := el.mod.Funcs[name], el.mod.Preds[name]
	if len(funcs) == 0 && len(preds) == 0 {
		return nil, errors.Newf(errors.Syntax, x.Position, "function or predicate %q not found", x.Fun)
	}

	var cands []Expr
	for _, fn := range funcs {
		if !applicable(fn.Params, args) {
			continue
		}
		target := &ElaboratedFunc{Function: fn}
		ret := fn.Return
		if ret.IsEmpty() {
			ret = types.Formula()
		}
		cands = append(cands, &Call{base: base{Position: x.Position, Ty: ret}, Target: target, Args: args})
	}
	for _, p := range preds {
		if !applicable(p.Params, args) {
			continue
		}
		target := &ElaboratedPred{Predicate: p}
		cands = append(cands, &Call{base: base{Position: x.Position, Ty: types.Formula()}, Target: target, Args: args})
	}
	if len(cands) == 0 {
		return nil, errors.Newf(errors.Type, x.Position, "no overload of %q is applicable to the given arguments", x.Fun)
	}
	return selectCandidate(cands, x.Position, want, anyWant)
}

// applicable implements spec.md §4.G's applicability rule: every
// parameter's Type must share an arity with the corresponding argument's
// Type, and when both carry relational entries, those entries must
// intersect. This repository requires an exact parameter count (the
// spec's "params.size() ≤ args.size()" headroom exists to support
// dot-chained partial application, which elaborateDot does not
// implement; see its doc comment).
func applicable(params []compile.Param, args []Expr) bool {
	if len(params) != len(args) {
		return false
	}
	for i, p := range params {
		at := args[i].Type()
		if !at.HasCommonArity(p.Type) {
			return false
		}
		if len(at.Entries()) > 0 && len(p.Type.Entries()) > 0 {
			if types.Intersect(at, p.Type).IsEmpty() {
				return false
			}
		}
	}
	return true
}

// elaborateTypeExpr resolves a type-position expression (a quantified
// variable's declared Type, or a command's scope bound) directly to a
// Type, along the lines of compile.resolver.resolveTypeExpr for fields and
// parameters, since these positions are never ambiguous — they are
// algebraic combinations of sig references, not overloaded names. It
// handles names, unary operators, and binary operators; unlike the
// resolver's version it does not handle a dot join, an integer literal,
// or a call, and reports any of those as an unsupported (Fatal) type
// expression.
func (el *elaborator) elaborateTypeExpr(e ast.Expr, sc *varScope) (types.Type, errors.Error) {
	switch x := e.(type) {
	case nil:
		return types.Empty, nil
	case *ast.Ident:
		name := norm.NFC.String(x.Name)
		if t, ok := sc.lookup(name); ok {
			return t, nil
		}
		sig, ok := el.mod.Sigs.Lookup(name)
		if !ok {
			return types.Empty, errors.Newf(errors.Syntax, x.Position, "unknown sig %q", x.Name)
		}
		switch s := sig.(type) {
		case *types.PrimSig:
			if s == el.mod.Sigs.SigInt() {
				return types.Int(), nil
			}
			return types.Make(s), nil
		case *types.SubsetSig:
			return s.Type(), nil
		}
		return types.Empty, errors.Newf(errors.Fatal, x.Position, "sig %q has unknown kind", x.Name)
	case *ast.Unary:
		xt, err := el.elaborateTypeExpr(x.X, sc)
		if err != nil {
			return types.Empty, err
		}
		switch x.Op {
		case ast.UnaryTranspose:
			return types.Transpose(xt), nil
		case ast.UnaryClosure, ast.UnaryReflexiveClosure:
			return types.Closure(el.ctx, x.Position, xt)
		default:
			return types.Formula(), nil
		}
	case *ast.Binary:
		lt, err := el.elaborateTypeExpr(x.X, sc)
		if err != nil {
			return types.Empty, err
		}
		rt, err := el.elaborateTypeExpr(x.Y, sc)
		if err != nil {
			return types.Empty, err
		}
		switch x.Op {
		case ast.BinaryProduct:
			return types.Product(x.Position, lt, rt)
		case ast.BinaryUnion:
			return types.UnionWithCommonArity(lt, rt), nil
		case ast.BinaryIntersect:
			return types.Intersect(lt, rt), nil
		case ast.BinaryDomainRestr:
			return types.DomainRestrict(rt, lt), nil
		case ast.BinaryRangeRestr:
			return types.RangeRestrict(lt, rt), nil
		default:
			return types.Formula(), nil
		}
	default:
		return types.Empty, errors.Newf(errors.Fatal, e.Pos(), "unsupported type expression %T", e)
	}
}

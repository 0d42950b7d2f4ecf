// Package compile implements Pass 1 of the analyzer: it walks the untyped
// parse tree produced by an external parser (ast.File) and produces a
// fully-linked module — a signature graph with parents and children
// wired, field Types, and function/predicate parameter and return Types.
// Expression bodies are left untyped; their elaboration is Pass 2's job
// (internal/core/elaborate).
//
// The two-step shape (register everything by name first, then resolve
// textual references) and the per-declaration error recovery mirror the
// teacher's compiler: internal/core/compile/compile.go registers package
// scope before resolving identifiers, and continues past a bad
// declaration rather than aborting the whole file.
package compile

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"alloylang.org/alloy/ast"
	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/internal/core/types"
)

// Param is a resolved function/predicate parameter: a name bound to a
// Type within the body's scope.
type Param struct {
	Name string
	Type types.Type
}

// Function is a resolved function declaration. Per S4 in spec.md §8,
// functions are kept in overload sets keyed by name; disambiguation among
// same-named overloads is the Elaborator's job, not the Resolver's.
type Function struct {
	Name   string
	Params []Param
	Return types.Type // types.Empty if undeclared: unconstrained
	Body   ast.Expr
}

// Predicate is a resolved predicate declaration. Its Type is always
// FORMULA (spec.md §4.F); the zero value is never stored per-parameter.
type Predicate struct {
	Name   string
	Params []Param
	Body   ast.Expr
}

// Fact is a resolved, possibly anonymous fact.
type Fact struct {
	Name string
	Body ast.Expr
}

// Assert is a resolved named assertion.
type Assert struct {
	Name string
	Body ast.Expr
}

// Module is the output of Pass 1: a frozen signature graph plus resolved
// declaration tables, ready for Pass 2 to elaborate expression bodies.
type Module struct {
	Sigs     *types.Graph
	Funcs    map[string][]*Function
	Preds    map[string][]*Predicate
	Facts    []*Fact
	Asserts  []*Assert
	Commands []*ast.CommandDecl
}

// scope is a chain of name -> Type bindings, used while resolving type
// expressions that mention an enclosing function or predicate's own
// parameters (e.g. a later parameter's type referring to an earlier one).
type scope struct {
	parent *scope
	names  map[string]types.Type
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: map[string]types.Type{}}
}

func (s *scope) bind(name string, t types.Type) {
	s.names[norm.NFC.String(name)] = t
}

func (s *scope) lookup(name string) (types.Type, bool) {
	name = norm.NFC.String(name)
	for p := s; p != nil; p = p.parent {
		if t, ok := p.names[name]; ok {
			return t, true
		}
	}
	return types.Empty, false
}

// resolver carries the mutable state of a single Pass-1 run, the same
// shape as the teacher's own per-run compiler struct: one value, created
// fresh per call to Compile, never reused across runs.
type resolver struct {
	ctx   context.Context
	graph *types.Graph
	errs  *errors.List
}

// Compile runs Pass 1 over a parsed file: it registers every sig, field,
// function, predicate, fact, assert, and command, resolving textual
// references into real sig links and Types. It does not elaborate
// expression bodies beyond what is needed to compute a declared Type
// (field types, parameter types, return types); a bare Call in a type
// position is rejected, since call resolution belongs to the Elaborator.
func Compile(ctx context.Context, file *ast.File) (*Module, *errors.List) {
	r := &resolver{
		ctx:   ctx,
		graph: types.NewGraph(),
		errs:  &errors.List{},
	}

	var sigDecls []*ast.SigDecl
	for _, d := range file.Decls {
		if sd, ok := d.(*ast.SigDecl); ok {
			sigDecls = append(sigDecls, sd)
		}
	}
	r.registerSigs(sigDecls)

	hierErrs := r.graph.ResolveHierarchy()
	for _, e := range hierErrs.Errs() {
		r.errs.Add(e)
	}
	for _, w := range hierErrs.Warnings() {
		r.errs.Add(w)
	}
	if hierErrs.Err() != nil {
		return nil, r.errs
	}

	mod := &Module{
		Sigs:  r.graph,
		Funcs: map[string][]*Function{},
		Preds: map[string][]*Predicate{},
	}

	r.resolveFields(sigDecls)

	for _, d := range file.Decls {
		switch x := d.(type) {
		case *ast.SigDecl:
			// handled above

		case *ast.FunDecl:
			if fn := r.resolveFunDecl(x); fn != nil {
				mod.Funcs[fn.Name] = append(mod.Funcs[fn.Name], fn)
			}

		case *ast.PredDecl:
			if p := r.resolvePredDecl(x); p != nil {
				mod.Preds[p.Name] = append(mod.Preds[p.Name], p)
			}

		case *ast.FactDecl:
			mod.Facts = append(mod.Facts, &Fact{Name: x.Name, Body: x.Body})

		case *ast.AssertDecl:
			mod.Asserts = append(mod.Asserts, &Assert{Name: x.Name, Body: x.Body})

		case *ast.CommandDecl:
			mod.Commands = append(mod.Commands, x)
		}
	}

	return mod, r.errs
}

// registerSigs performs the "register all sigs (names only)" half of the
// spec's Pass-1 algorithm step 1, deferring extends/in resolution to
// Graph.ResolveHierarchy.
func (r *resolver) registerSigs(decls []*ast.SigDecl) {
	for _, d := range decls {
		name := norm.NFC.String(d.Name)
		if d.IsSubset() {
			parents := make([]string, len(d.InParents))
			for i, p := range d.InParents {
				parents[i] = norm.NFC.String(p)
			}
			if _, err := r.graph.AddSubsetSig(name, parents, d.Position); err != nil {
				r.errs.Add(err)
			}
			continue
		}
		if _, err := r.graph.AddPrimSig(name, norm.NFC.String(d.Extends), d.IsAbstract, d.Position); err != nil {
			r.errs.Add(err)
		}
	}
}

// resolveFields computes each declared field's Type: product(Type.make(
// owner), fieldType), per spec.md §4.F step 3. The owner restriction
// falls out of product automatically here since the owner's Type is a
// singleton arity-1 entry naming exactly that sig.
func (r *resolver) resolveFields(decls []*ast.SigDecl) {
	for _, d := range decls {
		if d.IsSubset() {
			continue
		}
		sig, ok := r.graph.Lookup(norm.NFC.String(d.Name))
		if !ok {
			continue // AddPrimSig already reported the clash/failure
		}
		prim, ok := sig.(*types.PrimSig)
		if !ok {
			continue
		}
		for _, f := range d.Fields {
			ft, err := r.resolveTypeExpr(f.Type, nil)
			if err != nil {
				r.errs.Add(err)
				continue
			}
			joined, err := types.Product(f.Position, types.Make(prim), ft)
			if err != nil {
				r.errs.Add(err)
				continue
			}
			prim.Fields = append(prim.Fields, &types.Field{
				Owner: prim,
				Name:  norm.NFC.String(f.Name),
				Type:  joined,
				Mult:  convertMult(f.Mult),
				Pos:   f.Position,
			})
		}
	}
}

func convertMult(m ast.Mult) types.Multiplicity {
	switch m {
	case ast.MultOne:
		return types.MultOne
	case ast.MultLone:
		return types.MultLone
	case ast.MultSome:
		return types.MultSome
	case ast.MultSet:
		return types.MultSet
	default:
		return types.MultNone
	}
}

// resolveFunDecl resolves a function's parameter and return Types
// (spec.md §4.F step 4); the body is left untyped for Pass 2. Returns nil
// if any parameter or the return type failed to resolve, so the caller
// drops the declaration rather than register a half-typed function.
func (r *resolver) resolveFunDecl(d *ast.FunDecl) *Function {
	fn := &Function{Name: norm.NFC.String(d.Name), Body: d.Body}
	sc := newScope(nil)
	ok := true
	for _, p := range d.Params {
		pt, err := r.resolveTypeExpr(p.Type, sc)
		if err != nil {
			r.errs.Add(err)
			ok = false
			continue
		}
		fn.Params = append(fn.Params, Param{Name: norm.NFC.String(p.Name), Type: pt})
		sc.bind(p.Name, pt)
	}
	if d.Return != nil {
		rt, err := r.resolveTypeExpr(d.Return, sc)
		if err != nil {
			r.errs.Add(err)
			ok = false
		} else {
			fn.Return = rt
		}
	}
	if !ok {
		return nil
	}
	return fn
}

// resolvePredDecl resolves a predicate's parameter Types.
func (r *resolver) resolvePredDecl(d *ast.PredDecl) *Predicate {
	p := &Predicate{Name: norm.NFC.String(d.Name), Body: d.Body}
	ok := true
	sc := newScope(nil)
	for _, par := range d.Params {
		pt, err := r.resolveTypeExpr(par.Type, sc)
		if err != nil {
			r.errs.Add(err)
			ok = false
			continue
		}
		p.Params = append(p.Params, Param{Name: norm.NFC.String(par.Name), Type: pt})
		sc.bind(par.Name, pt)
	}
	if !ok {
		return nil
	}
	return p
}

// resolveTypeExpr evaluates an expression appearing in a type position (a
// field, parameter, or return type) directly to a Type, without going
// through the Elaborator's choice-set machinery. Type positions in Alloy
// are algebraic combinations of sig references, not overloaded
// expressions, so direct recursive evaluation is sufficient; a bare Call
// is rejected here, since call resolution belongs to the Elaborator and
// has no business appearing in a type annotation.
func (r *resolver) resolveTypeExpr(e ast.Expr, sc *scope) (types.Type, errors.Error) {
	switch x := e.(type) {
	case nil:
		return types.Empty, nil

	case *ast.Ident:
		name := norm.NFC.String(x.Name)
		if sc != nil {
			if t, ok := sc.lookup(name); ok {
				return t, nil
			}
		}
		sig, ok := r.graph.Lookup(name)
		if !ok {
			return types.Empty, errors.Newf(errors.Syntax, x.Position, "unknown sig %q", x.Name)
		}
		switch s := sig.(type) {
		case *types.PrimSig:
			if s == r.graph.SigInt() {
				return types.Int(), nil
			}
			return types.Make(s), nil
		case *types.SubsetSig:
			return s.Type(), nil
		}
		return types.Empty, errors.Newf(errors.Fatal, x.Position, "sig %q has unknown kind", x.Name)

	case *ast.IntLit:
		return types.Int(), nil

	case *ast.Unary:
		xt, err := r.resolveTypeExpr(x.X, sc)
		if err != nil {
			return types.Empty, err
		}
		switch x.Op {
		case ast.UnaryTranspose:
			return types.Transpose(xt), nil
		case ast.UnaryClosure:
			return types.Closure(r.ctx, x.Position, xt)
		case ast.UnaryReflexiveClosure:
			return types.Closure(r.ctx, x.Position, xt)
		case ast.UnaryNot:
			return types.Formula(), nil
		}
		return types.Empty, errors.Newf(errors.Fatal, x.Position, "unsupported unary type operator")

	case *ast.Binary:
		lt, err := r.resolveTypeExpr(x.X, sc)
		if err != nil {
			return types.Empty, err
		}
		rt, err := r.resolveTypeExpr(x.Y, sc)
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

	case *ast.Dot:
		lt, err := r.resolveTypeExpr(x.L, sc)
		if err != nil {
			return types.Empty, err
		}
		rt, err := r.resolveTypeExpr(x.R, sc)
		if err != nil {
			return types.Empty, err
		}
		return types.Join(x.Position, lt, rt)

	case *ast.Call:
		return types.Empty, errors.Newf(errors.Syntax, x.Position,
			"call expression not allowed in a type position")

	default:
		return types.Empty, errors.Newf(errors.Fatal, e.Pos(), "unsupported type expression %T", e)
	}
}

// Package alloy ties the two analysis passes together: Compile parses a
// file's declarations through internal/core/compile (sig hierarchy, field
// and parameter Types) and internal/core/elaborate (typed, disambiguated
// expression bodies), producing one frozen Module per run.
package alloy

import (
	"context"

	"github.com/google/uuid"

	"alloylang.org/alloy/ast"
	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/internal/core/compile"
	"alloylang.org/alloy/internal/core/elaborate"
	"alloylang.org/alloy/internal/core/types"
)

// Module is the complete output of one analysis run: a frozen signature
// graph and every function, predicate, fact, and assertion with its body
// fully elaborated. ID mirrors the owning types.Graph's ModuleID. Mixing
// values from two different Modules is also caught at the point of use:
// every PrimSig/Type operation that combines two operands calls
// types.Graph.Check (directly, or via Type.checkOwner), which panics with
// a Fatal diagnostic on a ModuleID mismatch (spec.md §5) rather than
// relying on a caller to compare IDs itself.
type Module struct {
	ID      uuid.UUID
	Sigs    *types.Graph
	Funcs   map[string][]*elaborate.ElaboratedFunc
	Preds   map[string][]*elaborate.ElaboratedPred
	Facts   []*elaborate.ElaboratedFact
	Asserts []*elaborate.ElaboratedAssert

	Commands []*ast.CommandDecl
}

// Compile runs both passes over a parsed file and returns the resulting
// Module. Per spec.md §7, diagnostics from both passes accumulate in one
// list rather than stopping at the first pass that reports anything;
// Pass 2 only runs if Pass 1 produced a usable Module (a hierarchy error
// leaves no frozen Graph to elaborate against). ctx is threaded down to
// every types.Closure call (the ^ and * operators); a cancelled or
// timed-out ctx abandons the in-progress closure with a Cancelled
// diagnostic rather than letting it run to completion (spec.md §5).
func Compile(ctx context.Context, file *ast.File) (*Module, *errors.List) {
	mod, errs := compile.Compile(ctx, file)
	if mod == nil {
		return nil, errs
	}

	prog, elabErrs := elaborate.Elaborate(ctx, mod)
	for _, e := range elabErrs.Errs() {
		errs.Add(e)
	}
	for _, w := range elabErrs.Warnings() {
		errs.Add(w)
	}

	return &Module{
		ID:       mod.Sigs.ModuleID(),
		Sigs:     prog.Sigs,
		Funcs:    prog.Funcs,
		Preds:    prog.Preds,
		Facts:    prog.Facts,
		Asserts:  prog.Asserts,
		Commands: mod.Commands,
	}, errs
}

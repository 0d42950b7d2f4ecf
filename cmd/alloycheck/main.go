// Command alloycheck loads a structured model document, runs it through
// both analysis passes, and reports the resulting diagnostics. It stands
// in for a concrete-syntax front end (ast's doc comment calls that an
// "external collaborator"): --model points at a JSON or YAML document in
// the shape internal/docloader understands, rather than at alloy source.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"alloylang.org/alloy"
	"alloylang.org/alloy/errors"
	"alloylang.org/alloy/internal/alloydebug"
	"alloylang.org/alloy/internal/docloader"
)

func main() {
	if err := alloydebug.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var modelPath string
	var cwd string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "alloycheck",
		Short: "Elaborate an Alloy-style model and report diagnostics",

		// We print diagnostics ourselves, in the corpus's format.
		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				return fmt.Errorf("--model is required")
			}
			return runCheck(cmd, modelPath, cwd, timeout)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to a JSON or YAML model document")
	cmd.Flags().StringVar(&cwd, "cwd", "", "print diagnostic positions relative to this directory")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abandon elaboration (with a Cancelled diagnostic) after this long; 0 means no timeout")

	return cmd
}

func runCheck(cmd *cobra.Command, modelPath, cwd string, timeout time.Duration) error {
	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", modelPath, err)
	}

	format, err := formatFromExt(modelPath)
	if err != nil {
		return err
	}

	file, err := docloader.Load(data, format)
	if err != nil {
		return fmt.Errorf("loading %s: %w", modelPath, err)
	}

	mod, errs := alloy.Compile(ctx, file)

	cfg := &errors.Config{Cwd: cwd}
	errs.Sort()
	if len(errs.Warnings()) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "warnings:")
		for _, w := range errs.Warnings() {
			errors.PrintOne(cmd.OutOrStdout(), w, cfg)
		}
	}

	if err := errs.Err(); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), errors.Details(errs, cfg))
		return fmt.Errorf("%s: elaboration failed", modelPath)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok — %d sig(s), %d func overload group(s), %d pred overload group(s), %d fact(s), %d assert(s)\n",
		modelPath, len(mod.Sigs.Prims()), len(mod.Funcs), len(mod.Preds), len(mod.Facts), len(mod.Asserts))
	for _, prim := range mod.Sigs.Prims() {
		for _, f := range prim.FieldsForDisplay() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s.%s: %s\n", prim.SigName(), f.Name, f.Type)
		}
	}
	for _, sub := range mod.Sigs.Subsets() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", sub.SigName(), sub.Type())
	}
	return nil
}

func formatFromExt(path string) (string, error) {
	switch filepath.Ext(path) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%s: unrecognized model extension (want .json, .yaml, or .yml)", path)
	}
}

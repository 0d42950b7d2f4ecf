// Package alloydebug holds the process-wide ALLOY_DEBUG flags, parsed once
// on first use the same way CUE parses CUE_DEBUG (internal/cuedebug).
package alloydebug

import (
	"sync"

	"alloylang.org/alloy/internal/envflag"
)

// Flags holds the current set of ALLOY_DEBUG flags. Init must be called
// before relying on non-default values; reading Flags before Init sees the
// zero Config plus any `envflag:"default:..."` defaults only after Init
// runs.
var Flags Config

// Config holds the known ALLOY_DEBUG flags.
type Config struct {
	// LogElab traces each bottom-up/top-down elaboration decision to
	// stderr.
	LogElab bool

	// Strict turns elaboration Warning diagnostics (e.g. the S2
	// always-false-equality warning) into hard Type errors. Intended for
	// CI use.
	Strict bool

	// DisableFold turns off the cosmetic fold pass in Type.String,
	// printing every canonical entry instead of folding subsig families
	// into their parent.
	DisableFold bool

	// SortFields forces deterministic alphabetic ordering of sig field
	// lists in cmd/alloycheck's success summary (PrimSig.FieldsForDisplay),
	// overriding declaration order. Useful for
	// diffing test output across runs with reordered input.
	SortFields bool
}

// Init parses ALLOY_DEBUG into Flags. Safe to call more than once; only the
// first call has effect.
func Init() error {
	return initOnce()
}

var initOnce = sync.OnceValue(func() error {
	return envflag.Init(&Flags, "ALLOY_DEBUG")
})

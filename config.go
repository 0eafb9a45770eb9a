// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import "github.com/spf13/pflag"

// Config carries the process-wide policy knobs spec.md leaves implicit: how
// strictly RESOLVE_VIA_HOST/RESOLVE_VIA_ATTACHED failures are enforced, the
// largest weight a path is created with, and a PIC-edge fan-out size.
// PermissiveResolveVia changes recursive-adj-update's outcome and
// MaxMultipathWeight changes Create's weight; PICEdgeFanout is not read by
// Pool.
type Config struct {
	// PermissiveResolveVia, when true, logs a warning instead of
	// substituting the drop DPO when a RESOLVE_VIA_HOST/ATTACHED predicate
	// fails. Intended for test/lab builds only; production always drops.
	PermissiveResolveVia bool

	// MaxMultipathWeight caps the weight Create assigns a path (clampWeight,
	// applied after normalizeWeight's zero→one coercion), so a misconfigured
	// route-path descriptor cannot dominate a hash table with one enormous
	// bucket count. Zero disables the cap.
	MaxMultipathWeight uint32

	// PICEdgeFanout is bound to the --pic-edge-fanout flag. Pool does not
	// read it and passes no limit to NotifyPICEdge.
	PICEdgeFanout int
}

// DefaultConfig returns the configuration cmd/fibctl starts from before
// flags are parsed.
func DefaultConfig() Config {
	return Config{
		PermissiveResolveVia: false,
		MaxMultipathWeight:   256,
		PICEdgeFanout:        64,
	}
}

// BindFlags registers cfg's fields on fs, in the teacher pack's
// cobra+pflag convention of binding straight into a config struct's fields
// rather than parsing into intermediate variables.
func (cfg *Config) BindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&cfg.PermissiveResolveVia, "permissive-resolve-via", cfg.PermissiveResolveVia,
		"log instead of dropping when RESOLVE_VIA_HOST/ATTACHED fails (lab builds only)")
	fs.Uint32Var(&cfg.MaxMultipathWeight, "max-multipath-weight", cfg.MaxMultipathWeight,
		"largest weight a single path may contribute to a multipath hash key")
	fs.IntVar(&cfg.PICEdgeFanout, "pic-edge-fanout", cfg.PICEdgeFanout,
		"max paths touched synchronously per PIC-edge notification")
}

// clampWeight applies cfg's ceiling on top of normalizeWeight's zero→one
// coercion.
func (cfg Config) clampWeight(w Weight) Weight {
	w = normalizeWeight(w)
	if cfg.MaxMultipathWeight > 0 && uint32(w) > cfg.MaxMultipathWeight {
		return Weight(cfg.MaxMultipathWeight)
	}
	return w
}

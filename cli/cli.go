// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package cli provides the operator-facing `show fib paths` command:
// read-only introspection over a pool's paths, matching spec.md §6's
// "Operator CLI" requirement. It is grounded on gaissmai-bart's
// dumper.go writer pattern — a plain func(w io.Writer, ...) dumper usable
// both from a cobra command and directly from tests — and wired to cobra
// the way cue-lang-cue/cmd/cue/cmd builds its root command.
package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gaissmai/fibpath"
	"github.com/gaissmai/fibpath/internal/graph"
)

// DumpPaths writes a one-line summary for each of indices (or every live
// path in pool, if indices is empty), sorted by index for stable output.
func DumpPaths(w io.Writer, pool *fibpath.Pool, indices ...fibpath.Index) {
	if len(indices) == 0 {
		pool.All(func(idx fibpath.Index, _ *fibpath.Path) bool {
			indices = append(indices, idx)
			return true
		})
	}

	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		p, ok := pool.Get(idx)
		if !ok {
			fmt.Fprintf(w, "path %d: not found\n", idx)
			continue
		}
		fmt.Fprintln(w, p)
	}
}

// MemoryShow writes the registered-node-type memory summary spec.md §6
// calls for alongside the node registration requirement.
func MemoryShow(w io.Writer) {
	graph.MemoryShowAll(w)
}

// NewShowFibPathsCommand builds the `show fib paths [<index>]` cobra
// command against pool.
func NewShowFibPathsCommand(pool *fibpath.Pool) *cobra.Command {
	return &cobra.Command{
		Use:   "show fib paths [index...]",
		Short: "dump FIB paths and their resolution state",
		RunE: func(cmd *cobra.Command, args []string) error {
			indices := make([]fibpath.Index, 0, len(args))
			for _, a := range args {
				var n uint32
				if _, err := fmt.Sscanf(a, "%d", &n); err != nil {
					return errors.Wrapf(err, "show fib paths: invalid path index %q", a)
				}
				indices = append(indices, fibpath.Index(n))
			}
			DumpPaths(cmd.OutOrStdout(), pool, indices...)
			return nil
		},
	}
}

// NewShowFibMemoryCommand builds the `show fib memory` cobra command.
func NewShowFibMemoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show fib memory",
		Short: "dump per-node-type memory usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			MemoryShow(cmd.OutOrStdout())
			return nil
		},
	}
}

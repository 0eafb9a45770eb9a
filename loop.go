// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"github.com/sirupsen/logrus"

	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/fib"
	"github.com/gaissmai/fibpath/internal/pathlog"
)

// RecursiveLoopDetect implements fib.PathNode, letting a FIB entry's
// loop-detect descend through whichever path currently resolves it.
func (p *Path) RecursiveLoopDetect(entries *fib.EntrySet) bool {
	return p.pool.recursiveLoopDetect(p, entries)
}

// recursiveLoopDetect is spec.md §4.3's recursive-loop-detect: non-RECURSIVE
// kinds are graph leaves and simply report their current loop state.
// RECURSIVE paths check whether their via-FIB entry is already on the
// forward walk; if so the loop is installed (drop substituted, dependencies
// kept) rather than rejected. Otherwise the walk descends into the
// via-entry.
func (pl *Pool) recursiveLoopDetect(p *Path, entries *fib.EntrySet) bool {
	if p.kind != Recursive {
		return p.IsLooped()
	}

	if entries.Contains(p.viaFib) {
		p.operFlags |= OperRecursiveLoop
		p.currentDPO = dpo.Drop(p.proto)
		pathlog.With(logrus.Fields{"path": p.index, "kind": p.kind}).
			Warn("recursive loop detected, installing drop")
		return true
	}

	entries.Add(p.viaFib)
	looped := false
	if p.viaEntry != nil {
		looped = p.viaEntry.RecursiveLoopDetect(entries)
	}
	if looped {
		p.operFlags |= OperRecursiveLoop
	} else {
		p.operFlags &^= OperRecursiveLoop
	}
	return looped
}

// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaissmai/fibpath"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/fib"
	"github.com/gaissmai/fibpath/iface"
)

// Scenario 5: A resolves via an entry whose best path is B, and B resolves
// via an entry whose best path is A. The forward walk started from either
// path must detect the cycle, install a drop DPO at the path that closes
// it, and mark RECURSIVE_LOOP rather than rejecting the install outright.
func TestRecursiveLoopDetectInstallsDrop(t *testing.T) {
	t.Parallel()
	e := newEnv()

	table := fib.NewTable(0, dpo.IP4)
	e.pool.RegisterTable(table)

	// Both via-prefixes carry forwarding, so each path resolves before the
	// cycle is closed.
	for _, addr := range []string{"1.1.1.1", "2.2.2.2"} {
		table.AddSource(fib.HostPrefix(addr, 32), fib.SourceRR, true).SetForwarding(dpo.Drop(dpo.IP4))
	}

	a := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{
		IfIndex: iface.Sentinel, Addr: "1.1.1.1", TableIDValid: true, TableID: 0,
	})
	b := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{
		IfIndex: iface.Sentinel, Addr: "2.2.2.2", TableIDValid: true, TableID: 0,
	})
	require.True(t, e.pool.Resolve(a))
	require.True(t, e.pool.Resolve(b))

	pA, _ := e.pool.Get(a)
	pB, _ := e.pool.Get(b)

	entryA, ok := table.Lookup(fib.HostPrefix("1.1.1.1", 32))
	require.True(t, ok)
	entryB, ok := table.Lookup(fib.HostPrefix("2.2.2.2", 32))
	require.True(t, ok)

	// Close the cycle: A's via-entry now resolves through B, and B's
	// via-entry resolves back through A.
	entryA.SetViaPath(pB)
	entryB.SetViaPath(pA)

	looped := pA.RecursiveLoopDetect(fib.NewEntrySet())
	assert.True(t, looped)
	assert.True(t, pA.IsLooped())
	assert.True(t, pB.IsLooped())
	assert.Equal(t, dpo.KindDrop, pA.DPO().Kind)
}

// A non-looping recursive path in the same table is unaffected by a
// sibling's loop.
func TestRecursiveLoopDetectDoesNotAffectUnrelatedPath(t *testing.T) {
	t.Parallel()
	e := newEnv()

	table := fib.NewTable(0, dpo.IP4)
	e.pool.RegisterTable(table)
	entry := table.AddSource(fib.HostPrefix("9.9.9.9", 32), fib.SourceBGP, true)
	entry.SetForwarding(dpo.Drop(dpo.IP4))

	idx := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{
		Addr: "9.9.9.9", TableIDValid: true, TableID: 0,
	})
	require.True(t, e.pool.Resolve(idx))
	p, _ := e.pool.Get(idx)

	assert.False(t, p.RecursiveLoopDetect(fib.NewEntrySet()))
	assert.False(t, p.IsLooped())
}

// A leaf kind (ATTACHED_NEXT_HOP) simply reports its current loop state,
// which is always false, since loops are a RECURSIVE-only concept.
func TestRecursiveLoopDetectLeafKindIsNeverLooped(t *testing.T) {
	t.Parallel()
	e := newEnv()
	e.upIface(3, false)

	idx := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})
	require.True(t, e.pool.Resolve(idx))
	p, _ := e.pool.Get(idx)

	assert.False(t, p.RecursiveLoopDetect(fib.NewEntrySet()))
}

// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaissmai/fibpath"
	"github.com/gaissmai/fibpath/adj"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/iface"
	"github.com/gaissmai/fibpath/internal/graph"
)

// env bundles the collaborators every test needs, grounded the same way
// bart's own table tests build a fresh *Table per test rather than sharing
// package-level fixtures.
type env struct {
	ifaces *iface.Manager
	adjs   *adj.Manager
	pool   *fibpath.Pool
}

func newEnv() *env {
	ifaces := iface.NewManager()
	adjs := adj.NewManager()
	pool := fibpath.NewPool(ifaces, adjs, dpo.NopLoadBalanceMap{})
	return &env{ifaces: ifaces, adjs: adjs, pool: pool}
}

func (e *env) upIface(idx iface.Index, p2p bool) {
	e.ifaces.Add(idx, p2p)
	e.ifaces.SetAdminUp(idx, true)
	e.ifaces.SetLinkUp(idx, true)
}

// Scenario 1: attached next-hop, interface up, non-p2p.
func TestAttachedNextHopNonP2P(t *testing.T) {
	t.Parallel()
	e := newEnv()
	e.upIface(3, false)

	idx := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{
		IfIndex: 3,
		Addr:    "10.0.0.2",
	})
	p, ok := e.pool.Get(idx)
	require.True(t, ok)
	require.Equal(t, fibpath.AttachedNextHop, p.Kind())

	require.True(t, e.pool.Resolve(idx))
	require.Equal(t, dpo.KindAdjacency, p.DPO().Kind)

	e.ifaces.SetAdminUp(3, false)
	e.pool.BackWalk(idx, graph.InterfaceDown)
	assert.False(t, p.IsResolved())

	e.ifaces.SetAdminUp(3, true)
	e.pool.BackWalk(idx, graph.InterfaceUp)
	assert.True(t, p.IsResolved())
}

// Scenario 2: attached next-hop on a p2p interface locks the zero-address
// adjacency regardless of the configured neighbor.
func TestAttachedNextHopP2P(t *testing.T) {
	t.Parallel()
	e := newEnv()
	e.upIface(7, true)

	idx := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{
		IfIndex: 7,
		Addr:    "192.0.2.9",
	})
	require.True(t, e.pool.Resolve(idx))

	p, _ := e.pool.Get(idx)
	want := e.adjs.LockNeighbor(dpo.LinkIP4, adj.ZeroAddress, 7)
	defer e.adjs.Unlock(want)
	assert.Equal(t, want.Key(), p.DPO().Adj.Key())
}

// Scenario 3: attached, glean.
func TestAttachedGlean(t *testing.T) {
	t.Parallel()
	e := newEnv()
	e.upIface(4, false)

	idx := e.pool.Create(1, dpo.IP6, 0, fibpath.RoutePathDescriptor{
		IfIndex:    4,
		AddrIsZero: true,
	})
	p, ok := e.pool.Get(idx)
	require.True(t, ok)
	require.Equal(t, fibpath.Attached, p.Kind())

	require.True(t, e.pool.Resolve(idx))
	require.Equal(t, dpo.KindAdjacency, p.DPO().Kind)
}

// Scenario 6: INTERFACE_DELETE on ATTACHED_NEXT_HOP is a terminal
// permanent drop.
func TestInterfaceDeletePermanentDrop(t *testing.T) {
	t.Parallel()
	e := newEnv()
	e.upIface(3, false)

	idx := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{
		IfIndex: 3,
		Addr:    "10.0.0.2",
	})
	require.True(t, e.pool.Resolve(idx))

	e.pool.BackWalk(idx, graph.InterfaceDelete)
	p, _ := e.pool.Get(idx)
	assert.False(t, p.IsResolved())
	assert.True(t, p.OperFlags().Has(fibpath.OperDrop))

	// subsequent back-walks do not re-resolve
	e.ifaces.Add(3, false)
	e.ifaces.SetAdminUp(3, true)
	e.pool.BackWalk(idx, graph.InterfaceUp)
	assert.False(t, p.IsResolved())
}

func TestCreateDerivesReceiveKind(t *testing.T) {
	t.Parallel()
	e := newEnv()
	idx := e.pool.Create(1, dpo.IP4, fibpath.CfgLocal, fibpath.RoutePathDescriptor{
		IfIndex: 9,
		Addr:    "10.0.0.1",
	})
	p, _ := e.pool.Get(idx)
	assert.Equal(t, fibpath.Receive, p.Kind())
}

func TestCreateSpecialVariants(t *testing.T) {
	t.Parallel()
	e := newEnv()

	drop := e.pool.CreateSpecial(1, dpo.IP4, fibpath.CfgDrop, fibpath.SpecialOptions{})
	p, _ := e.pool.Get(drop)
	assert.Equal(t, fibpath.Special, p.Kind())

	recv := e.pool.CreateSpecial(1, dpo.IP4, fibpath.CfgLocal, fibpath.SpecialOptions{IfIndex: 1, LocalAddr: "10.0.0.1"})
	p, _ = e.pool.Get(recv)
	assert.Equal(t, fibpath.Receive, p.Kind())

	excl := e.pool.CreateSpecial(1, dpo.IP4, 0, fibpath.SpecialOptions{DPO: dpo.Drop(dpo.IP4)})
	p, _ = e.pool.Get(excl)
	assert.Equal(t, fibpath.Exclusive, p.Kind())
}

// Invariant: copy produces an unresolved path equal to its source, with a
// zero DPO.
func TestCopyInvariant(t *testing.T) {
	t.Parallel()
	e := newEnv()
	e.upIface(3, false)

	src := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})
	require.True(t, e.pool.Resolve(src))

	dst := e.pool.Copy(src, 2)
	srcP, _ := e.pool.Get(src)
	dstP, _ := e.pool.Get(dst)

	assert.True(t, fibpath.Equal(srcP, dstP))
	assert.False(t, dstP.IsResolved())
	assert.False(t, dstP.DPO().Valid())
}

// Invariant: a cfg-DROP path never holds upstream locks — it is never
// registered as a child.
func TestCfgDropNeverLocksUpstream(t *testing.T) {
	t.Parallel()
	e := newEnv()
	e.upIface(3, false)

	idx := e.pool.CreateSpecial(1, dpo.IP4, fibpath.CfgDrop, fibpath.SpecialOptions{})
	require.False(t, e.pool.Resolve(idx))
	p, _ := e.pool.Get(idx)
	assert.Equal(t, dpo.KindDrop, p.DPO().Kind)
}

// Round-trip: encode(create(rpath)) matches rpath up to weight.
func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()
	e := newEnv()

	rpath := fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2", Weight: 5}
	idx := e.pool.Create(1, dpo.IP4, 0, rpath)
	encoded := e.pool.Encode(idx)

	p, _ := e.pool.Get(idx)
	assert.Zero(t, fibpath.CompareWithRoutePath(p, encoded))
	assert.Equal(t, rpath.Addr, encoded.Addr)
	assert.Equal(t, rpath.IfIndex, encoded.IfIndex)
}

func TestEncodeExclusiveOnlyPopulatesDPO(t *testing.T) {
	t.Parallel()
	e := newEnv()

	idx := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})
	encoded := e.pool.Encode(idx)
	assert.False(t, encoded.DPO.Valid())

	excl := e.pool.CreateSpecial(1, dpo.IP4, 0, fibpath.SpecialOptions{DPO: dpo.Drop(dpo.IP4)})
	encoded = e.pool.Encode(excl)
	assert.True(t, encoded.DPO.Valid())
}

func TestDestroyReleasesUpstream(t *testing.T) {
	t.Parallel()
	e := newEnv()
	e.upIface(3, false)

	idx := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})
	require.True(t, e.pool.Resolve(idx))

	assert.NotPanics(t, func() { e.pool.Destroy(idx) })
	_, ok := e.pool.Get(idx)
	assert.False(t, ok)
}

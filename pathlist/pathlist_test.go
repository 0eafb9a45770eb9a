// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package pathlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaissmai/fibpath"
	"github.com/gaissmai/fibpath/adj"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/iface"
	"github.com/gaissmai/fibpath/internal/graph"
	"github.com/gaissmai/fibpath/pathlist"
)

func newRegistry() (*pathlist.Registry, *fibpath.Pool, *iface.Manager) {
	ifaces := iface.NewManager()
	adjs := adj.NewManager()
	pool := fibpath.NewPool(ifaces, adjs, dpo.NopLoadBalanceMap{})
	return pathlist.NewRegistry(pool), pool, ifaces
}

func upIface(ifaces *iface.Manager, idx iface.Index, p2p bool) {
	ifaces.Add(idx, p2p)
	ifaces.SetAdminUp(idx, true)
	ifaces.SetLinkUp(idx, true)
}

func TestListCreateAppendsAndDestroyRemoves(t *testing.T) {
	t.Parallel()
	registry, _, ifaces := newRegistry()
	upIface(ifaces, 3, false)

	list := registry.New()
	idx := list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})

	assert.Equal(t, []fibpath.Index{idx}, list.Paths())

	list.Destroy(idx)
	assert.Empty(t, list.Paths())
}

func TestListResolveAllCountsResolvedVisible(t *testing.T) {
	t.Parallel()
	registry, _, ifaces := newRegistry()
	upIface(ifaces, 3, false)
	upIface(ifaces, 4, false)

	list := registry.New()
	list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})
	list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 4, Addr: "10.0.0.3"})
	list.CreateSpecial(dpo.IP4, fibpath.CfgDrop, fibpath.SpecialOptions{})

	n := list.ResolveAll()
	assert.Equal(t, 2, n, "the two attached-next-hops resolve visible; the drop special is a permanent drop")
}

// A back-walk reaching the registry for a known path-list continues the
// walk.
func TestRegistryBackWalkKnownListContinues(t *testing.T) {
	t.Parallel()
	registry, pool, ifaces := newRegistry()
	upIface(ifaces, 3, false)

	list := registry.New()
	idx := list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})
	require.True(t, pool.Resolve(idx))

	result := registry.BackWalk(uint32(list.Index()), idx, graph.InterfaceDown)
	assert.Equal(t, graph.Continue, result)
}

// A back-walk for an unknown path-list index stops immediately rather than
// panicking.
func TestRegistryBackWalkUnknownListStops(t *testing.T) {
	t.Parallel()
	registry, _, _ := newRegistry()
	result := registry.BackWalk(999, 0, graph.Evaluate)
	assert.Equal(t, graph.Stop, result)
}

func TestListContributeForwardingAggregatesResolvedMembers(t *testing.T) {
	t.Parallel()
	registry, _, ifaces := newRegistry()
	upIface(ifaces, 3, false)
	upIface(ifaces, 4, false)

	list := registry.New()
	a := list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2", Weight: 1})
	b := list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 4, Addr: "10.0.0.3", Weight: 1})
	list.ResolveAll()

	key := list.ContributeForwarding(dpo.ChainIP4)
	require.Len(t, key.Tuples, 2)

	indices := map[uint32]bool{uint32(a): true, uint32(b): true}
	for _, tup := range key.Tuples {
		assert.True(t, indices[tup.PathIndex])
		assert.Equal(t, dpo.KindAdjacency, tup.DPO.Kind)
	}
}

func TestListContributeForwardingSkipsUnresolved(t *testing.T) {
	t.Parallel()
	registry, _, ifaces := newRegistry()
	// interface 5 is never brought up, so the path never resolves.
	ifaces.Add(5, false)

	list := registry.New()
	list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 5, Addr: "10.0.0.9"})
	list.ResolveAll()

	key := list.ContributeForwarding(dpo.ChainIP4)
	assert.Empty(t, key.Tuples)
}

func TestListContributeURPFDedupsSharedInterface(t *testing.T) {
	t.Parallel()
	registry, _, ifaces := newRegistry()
	upIface(ifaces, 3, false)

	list := registry.New()
	// Two distinct next-hops reachable over the same outgoing interface.
	list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})
	list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.3"})
	list.ResolveAll()

	urpf := list.ContributeURPF()
	assert.Equal(t, 1, urpf.Len())
	assert.Equal(t, []uint32{3}, urpf.Interfaces())
}

// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gaissmai/fibpath"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/iface"
)

func TestCmpReflexiveAndWeightIndependent(t *testing.T) {
	t.Parallel()
	e := newEnv()

	a := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2", Weight: 1})
	b := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2", Weight: 9})
	pA, _ := e.pool.Get(a)
	pB, _ := e.pool.Get(b)

	assert.Zero(t, fibpath.Cmp(pA, pA))
	assert.True(t, fibpath.Equal(pA, pB), "weight must not participate in configured-state equality")
}

func TestCmpDistinguishesKindsAndPayloads(t *testing.T) {
	t.Parallel()
	e := newEnv()

	nh := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2"})
	nh2 := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.3"})
	att := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, AddrIsZero: true})

	pNH, _ := e.pool.Get(nh)
	pNH2, _ := e.pool.Get(nh2)
	pAtt, _ := e.pool.Get(att)

	assert.False(t, fibpath.Equal(pNH, pNH2), "different neighbor addresses must compare unequal")
	assert.NotZero(t, fibpath.Cmp(pNH, pAtt), "different kinds must never compare equal")
}

func TestHashAgreesWithEqual(t *testing.T) {
	t.Parallel()
	e := newEnv()

	a := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2", Weight: 1})
	b := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2", Weight: 9})
	c := e.pool.Create(1, dpo.IP4, 0, fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.3", Weight: 1})

	pA, _ := e.pool.Get(a)
	pB, _ := e.pool.Get(b)
	pC, _ := e.pool.Get(c)

	require := assert.New(t)
	require.True(fibpath.Equal(pA, pB))
	require.Equal(fibpath.Hash(pA), fibpath.Hash(pB))
	require.NotEqual(fibpath.Hash(pA), fibpath.Hash(pC))
}

func TestCompareWithRoutePathRoundTripsAcrossKinds(t *testing.T) {
	t.Parallel()
	e := newEnv()

	cases := []fibpath.RoutePathDescriptor{
		{IfIndex: 3, Addr: "10.0.0.2", Weight: 4},
		{IfIndex: 4, AddrIsZero: true},
		{IfIndex: iface.Sentinel, Addr: "1.1.1.1", TableIDValid: true, TableID: 0},
		{IfIndex: iface.Sentinel, AddrIsZero: true, TableIDValid: true, TableID: 7},
	}
	for _, rpath := range cases {
		idx := e.pool.Create(1, dpo.IP4, 0, rpath)
		p, _ := e.pool.Get(idx)
		assert.True(t, fibpath.EqualToRoutePath(p, rpath), "rpath=%+v", rpath)
	}
}

func TestCompareWithRoutePathDetectsWeightMismatch(t *testing.T) {
	t.Parallel()
	e := newEnv()
	rpath := fibpath.RoutePathDescriptor{IfIndex: 3, Addr: "10.0.0.2", Weight: 4}
	idx := e.pool.Create(1, dpo.IP4, 0, rpath)
	p, _ := e.pool.Get(idx)

	other := rpath
	other.Weight = 9
	assert.False(t, fibpath.EqualToRoutePath(p, other))
}

func TestCompareWithRoutePathRecursiveKeyedOnProto(t *testing.T) {
	t.Parallel()
	e := newEnv()

	idx := e.pool.Create(1, dpo.MPLS, 0, fibpath.RoutePathDescriptor{
		IfIndex: iface.Sentinel, Label: 42, TableIDValid: true, TableID: 0,
	})
	p, _ := e.pool.Get(idx)
	assert.Equal(t, fibpath.Recursive, p.Kind())
	assert.True(t, fibpath.EqualToRoutePath(p, fibpath.RoutePathDescriptor{
		Label: 42, TableIDValid: true, TableID: 0,
	}))
}

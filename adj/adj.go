// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package adj is the adjacency manager: the external collaborator that
// produces neighbor and glean adjacencies and notifies their children when
// a rewrite completes or an adjacency goes down. It is a minimal in-memory
// reference implementation — enough for the path resolver and back-walk
// handler to be exercised end to end — not a production ARP/ND engine.
package adj

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/iface"
	"github.com/gaissmai/fibpath/internal/assert"
	"github.com/gaissmai/fibpath/internal/graph"
)

// Adjacency flag bits, held in a small bitset the way bart packs per-node
// markers into a bitset rather than a handful of bool fields.
const (
	flagGlean uint = iota
	flagComplete
	flagProbeNeeded
)

// ZeroAddress is the key used for the per-link auto-adjacency: point-to-
// point interfaces resolve their neighbor adjacency on this key regardless
// of the configured neighbor address (spec.md §4.2, scenario 2).
const ZeroAddress = ""

// Key identifies an adjacency: link type, neighbor (empty for the
// zero-address auto-adj or for a glean), and outgoing interface.
type Key struct {
	LinkType dpo.LinkType
	Neighbor string
	IfIndex  iface.Index
}

func (k Key) String() string {
	if k.Neighbor == ZeroAddress {
		return fmt.Sprintf("%s via if%d (glean/auto)", k.LinkType, k.IfIndex)
	}
	return fmt.Sprintf("%s nbr=%s via if%d", k.LinkType, k.Neighbor, k.IfIndex)
}

// BackWalkTarget is implemented by anything that can be a child of an
// adjacency — in practice, a path.
type BackWalkTarget interface {
	BackWalk(reason graph.BackWalkReason) graph.BackWalkResult
}

// Adjacency is a resolved (or resolving) neighbor binding. It satisfies
// dpo.Adjacency so it can be embedded directly in a DPO.
type Adjacency struct {
	mu       sync.Mutex
	key      Key
	refs     int
	flags    *bitset.BitSet
	children graph.ChildList[BackWalkTarget]
}

func newAdjacency(key Key, glean bool) *Adjacency {
	flags := bitset.New(3)
	if glean {
		flags.Set(flagGlean)
		flags.Set(flagProbeNeeded)
	} else {
		flags.Set(flagComplete)
	}
	return &Adjacency{key: key, flags: flags}
}

// OutgoingInterface implements dpo.Adjacency.
func (a *Adjacency) OutgoingInterface() uint32 { return uint32(a.key.IfIndex) }

// LinkType implements dpo.Adjacency.
func (a *Adjacency) LinkType() dpo.LinkType { return a.key.LinkType }

// Key implements dpo.Adjacency.
func (a *Adjacency) Key() string { return a.key.String() }

// IsGlean reports whether this is a placeholder glean adjacency awaiting
// first-use neighbor resolution.
func (a *Adjacency) IsGlean() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flags.Test(flagGlean)
}

// ChildAdd registers target as a dependent of this adjacency, returning the
// sibling handle the path must surrender on Unresolve.
func (a *Adjacency) ChildAdd(target BackWalkTarget) graph.ChildHandle {
	return a.children.Add(target)
}

// ChildRemove surrenders a previously returned handle.
func (a *Adjacency) ChildRemove(h graph.ChildHandle) {
	a.children.Remove(h)
}

// backWalkChildren propagates reason to every registered child. It never
// stops early on an individual Stop — each child decides independently
// whether to keep propagating further up its own graph.
func (a *Adjacency) backWalkChildren(reason graph.BackWalkReason) {
	for _, child := range a.children.All() {
		child.BackWalk(reason)
	}
}

// SimulateRewriteUpdate fires ADJ_UPDATE to every child, as if the
// adjacency's rewrite header just completed or changed.
func (a *Adjacency) SimulateRewriteUpdate() {
	a.mu.Lock()
	a.flags.Clear(flagGlean)
	a.flags.Set(flagComplete)
	a.mu.Unlock()
	a.backWalkChildren(graph.AdjUpdate)
}

// SimulateDown fires ADJ_DOWN to every child, as if the adjacency's
// neighbor became unreachable.
func (a *Adjacency) SimulateDown() {
	a.mu.Lock()
	a.flags.Clear(flagComplete)
	a.mu.Unlock()
	a.backWalkChildren(graph.AdjDown)
}

// Manager is the adjacency table: one entry per (link type, neighbor,
// interface) tuple, reference counted.
type Manager struct {
	mu  sync.Mutex
	tbl map[Key]*Adjacency
}

// NewManager returns an empty adjacency manager.
func NewManager() *Manager {
	return &Manager{tbl: make(map[Key]*Adjacency)}
}

// LockNeighbor locks (creating if necessary) the neighbor adjacency for
// key, incrementing its reference count.
func (m *Manager) LockNeighbor(linkType dpo.LinkType, neighbor string, ifIndex iface.Index) *Adjacency {
	return m.lock(Key{LinkType: linkType, Neighbor: neighbor, IfIndex: ifIndex}, false)
}

// LockGlean locks (creating if necessary) the glean placeholder adjacency
// for ifIndex.
func (m *Manager) LockGlean(linkType dpo.LinkType, ifIndex iface.Index) *Adjacency {
	return m.lock(Key{LinkType: linkType, Neighbor: ZeroAddress, IfIndex: ifIndex}, true)
}

func (m *Manager) lock(key Key, glean bool) *Adjacency {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.tbl[key]
	if !ok {
		a = newAdjacency(key, glean)
		m.tbl[key] = a
	}
	a.mu.Lock()
	a.refs++
	a.mu.Unlock()
	return a
}

// Unlock releases one reference to a. Once the reference count reaches
// zero the adjacency is removed from the table; last-lock-gone on an
// adjacency with live children is a programmer error — paths must
// unresolve (surrendering their child handle) before the final unlock.
func (m *Manager) Unlock(a *Adjacency) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.mu.Lock()
	a.refs--
	refs := a.refs
	children := a.children.Len()
	a.mu.Unlock()

	assert.Invariant(refs >= 0, "adjacency %s unlocked more times than locked", a.key)
	if refs == 0 {
		assert.Invariant(children == 0, "adjacency %s last-lock-gone with %d live children", a.key, children)
		delete(m.tbl, a.key)
	}
}

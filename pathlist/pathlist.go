// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package pathlist is the minimal path-list aggregator named out of scope by
// spec.md §1: it owns a set of path handles, calls into the path pool to
// create/resolve/destroy them, and is the propagation target every path
// back-walk eventually reaches (spec.md §4.4's "propagate the walk to the
// owning path-list"). It does not implement route-selection policy — which
// paths end up in a list is entirely the caller's choice — only the
// lifecycle and aggregation spec.md explicitly leaves to this collaborator.
package pathlist

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gaissmai/fibpath"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/internal/graph"
	"github.com/gaissmai/fibpath/internal/pathlog"
)

// Index identifies a path-list within a Registry.
type Index uint32

// List is a single path-list: an ordered set of path indices sharing one
// owner index, modeled on transitorykris-kbgp's speaker holding []Peer —
// one flat slice, append/remove by value, no secondary indexing.
type List struct {
	mu      sync.Mutex
	index   Index
	pool    *fibpath.Pool
	paths   []fibpath.Index
	lastWon []fibpath.Index // cached best-path snapshot, cleared by back-walks
}

// Registry owns every List and is the PathListBackWalker the pool dispatches
// back-walks to.
type Registry struct {
	mu    sync.Mutex
	pool  *fibpath.Pool
	lists map[Index]*List
	next  Index
}

// NewRegistry returns an empty registry bound to pool. It registers nothing
// with the pool itself; New registers each List's index with the pool as
// the back-walk propagation target, since a path only knows its owning
// path-list's numeric index, not this registry.
func NewRegistry(pool *fibpath.Pool) *Registry {
	return &Registry{pool: pool, lists: make(map[Index]*List)}
}

// New allocates a fresh, empty path-list and registers it with the pool so
// back-walks on any path it later owns reach this registry.
func (r *Registry) New() *List {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.next
	r.next++
	l := &List{index: idx, pool: r.pool}
	r.lists[idx] = l
	r.pool.RegisterPathList(uint32(idx), r)
	return l
}

// Get returns the list at idx, if any.
func (r *Registry) Get(idx Index) (*List, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[idx]
	return l, ok
}

// BackWalk implements fibpath.PathListBackWalker: the walk has already been
// fully handled by the path itself; this is the aggregation point spec.md
// §9 calls "the path-list is the aggregation point for batched updates" —
// here, just a log line and a dirty-list invalidation, since route
// reselection policy is out of scope.
func (r *Registry) BackWalk(pathListIndex uint32, pathIndex fibpath.Index, reason graph.BackWalkReason) graph.BackWalkResult {
	r.mu.Lock()
	l, ok := r.lists[Index(pathListIndex)]
	r.mu.Unlock()
	if !ok {
		return graph.Stop
	}

	pathlog.With(logrus.Fields{
		"pathlist": pathListIndex,
		"path":     pathIndex,
		"reason":   reason,
	}).Debug("back-walk reached path-list")

	l.mu.Lock()
	l.lastWon = nil // invalidate any cached best-path snapshot
	l.mu.Unlock()

	return graph.Continue
}

// Index returns the list's own index.
func (l *List) Index() Index { return l.index }

// Create allocates a new path owned by this list and appends it.
func (l *List) Create(proto dpo.Proto, cfg fibpath.CfgFlags, rpath fibpath.RoutePathDescriptor) fibpath.Index {
	idx := l.pool.Create(uint32(l.index), proto, cfg, rpath)
	l.append(idx)
	return idx
}

// CreateSpecial allocates a SPECIAL/RECEIVE/EXCLUSIVE path owned by this
// list and appends it.
func (l *List) CreateSpecial(proto dpo.Proto, cfg fibpath.CfgFlags, opts fibpath.SpecialOptions) fibpath.Index {
	idx := l.pool.CreateSpecial(uint32(l.index), proto, cfg, opts)
	l.append(idx)
	return idx
}

func (l *List) append(idx fibpath.Index) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, idx)
}

// Destroy removes idx from the list (if present) and destroys it in the
// pool.
func (l *List) Destroy(idx fibpath.Index) {
	l.mu.Lock()
	for i, p := range l.paths {
		if p == idx {
			l.paths = append(l.paths[:i], l.paths[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
	l.pool.Destroy(idx)
}

// Paths returns the list's current member indices, in insertion order.
func (l *List) Paths() []fibpath.Index {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]fibpath.Index, len(l.paths))
	copy(out, l.paths)
	return out
}

// ResolveAll calls Resolve on every member path, returning how many ended
// up resolved-visible.
func (l *List) ResolveAll() int {
	n := 0
	for _, idx := range l.Paths() {
		if l.pool.Resolve(idx) {
			n++
		}
	}
	return n
}

// ContributeForwarding builds a multipath hash key across every
// resolved-visible member, in list order — the consumer-facing operation
// spec.md names as "contribute-forwarding" called against a whole list
// rather than a single path.
func (l *List) ContributeForwarding(chain dpo.ChainType) *dpo.MultipathHashKey {
	key := &dpo.MultipathHashKey{}
	for _, idx := range l.Paths() {
		key = l.pool.AppendNHForMultipathHash(idx, chain, key)
	}
	return key
}

// ContributeURPF aggregates the uRPF interface list across every member.
func (l *List) ContributeURPF() *dpo.URPFList {
	list := &dpo.URPFList{}
	for _, idx := range l.Paths() {
		l.pool.ContributeURPF(idx, list)
	}
	return list
}

// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"fmt"
	"io"
	"sync"

	"github.com/gaissmai/fibpath/adj"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/fib"
	"github.com/gaissmai/fibpath/iface"
	"github.com/gaissmai/fibpath/internal/assert"
	"github.com/gaissmai/fibpath/internal/graph"
)

const nodeTypeName = "fib-path"

// PathListBackWalker is the seam back to the owning path-list: the
// external collaborator every back-walk is, in the end, propagated to
// (spec.md §4.4's "propagate the walk to the owning path-list"). The
// pathlist package implements this.
type PathListBackWalker interface {
	BackWalk(pathListIndex uint32, pathIndex Index, reason graph.BackWalkReason) graph.BackWalkResult
}

// Pool is the stable-index arena of path records plus the environment a
// path resolves against: the interface manager, the adjacency manager, the
// FIB tables it may recurse through, and the registered path-lists its
// back-walks propagate to. It is the "Path pool" component of spec.md §2.
//
// The zero value is not ready to use; construct with NewPool.
type Pool struct {
	mu      sync.Mutex
	storage graph.ChildList[*Path]

	ifaces *iface.Manager
	adjs   *adj.Manager
	lbMap  dpo.LoadBalanceMap

	tables    map[uint32]*fib.Table // keyed by FIB table id, one per family in practice
	pathLists map[uint32]PathListBackWalker

	cfg Config
}

// NewPool constructs a pool bound to the given interface and adjacency
// managers, with DefaultConfig(). lbMap may be dpo.NopLoadBalanceMap{} if
// PIC-edge notifications are not being observed.
func NewPool(ifaces *iface.Manager, adjs *adj.Manager, lbMap dpo.LoadBalanceMap) *Pool {
	return NewPoolWithConfig(ifaces, adjs, lbMap, DefaultConfig())
}

// NewPoolWithConfig is NewPool with an explicit Config, for cmd/fibctl and
// tests that exercise non-default policy knobs.
func NewPoolWithConfig(ifaces *iface.Manager, adjs *adj.Manager, lbMap dpo.LoadBalanceMap, cfg Config) *Pool {
	pl := &Pool{
		ifaces:    ifaces,
		adjs:      adjs,
		lbMap:     lbMap,
		tables:    make(map[uint32]*fib.Table),
		pathLists: make(map[uint32]PathListBackWalker),
		cfg:       cfg,
	}
	pl.registerNodeType()
	return pl
}

// registerNodeType registers this pool's graph-node type descriptor on
// construction — spec.md §6's "on module init, register a graph-node type
// descriptor exposing {get, last-lock-gone (assert), back-walk,
// memory-show}". It is tied to pool construction rather than package
// init() because, unlike a global singleton FIB, a pool is an explicit
// piece of state a test or a process may construct more than once.
func (pl *Pool) registerNodeType() {
	graph.RegisterType(graph.NodeType{
		Name: nodeTypeName,
		Get: func(index uint32) (string, bool) {
			p, ok := pl.storage.Get(graph.ChildHandle(index))
			if !ok {
				return "", false
			}
			return p.String(), true
		},
		LastLockGone: func(index uint32) {
			assert.Invariant(false, "last-lock-gone on path %d: paths are never locked directly", index)
		},
		BackWalk: func(index uint32, reason graph.BackWalkReason) graph.BackWalkResult {
			return pl.BackWalk(Index(index), reason)
		},
		MemoryShow: func(w io.Writer) {
			pl.mu.Lock()
			n := pl.storage.Len()
			pl.mu.Unlock()
			fmt.Fprintf(w, "  %d paths in use\n", n)
		},
	})
}

// RegisterTable makes t resolvable by RECURSIVE paths that name table id t.ID.
func (pl *Pool) RegisterTable(t *fib.Table) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.tables[t.ID] = t
}

func (pl *Pool) table(id uint32) *fib.Table {
	pl.mu.Lock()
	t, ok := pl.tables[id]
	pl.mu.Unlock()
	assert.Invariant(ok, "recursive path names unregistered table %d", id)
	return t
}

// RegisterPathList makes w reachable as the back-walk propagation target
// for paths created with pathListIndex == index.
func (pl *Pool) RegisterPathList(index uint32, w PathListBackWalker) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.pathLists[index] = w
}

func (pl *Pool) pathListFor(index uint32) (PathListBackWalker, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	w, ok := pl.pathLists[index]
	return w, ok
}

func (pl *Pool) get(index Index) *Path {
	p, ok := pl.storage.Get(graph.ChildHandle(index))
	assert.Invariant(ok, "path-list index %d points to a freed or unknown slot", index)
	return p
}

// Get returns the path at index, and whether it exists. Unlike get, it
// never panics — it is the public, defensive accessor for introspection
// (e.g. the CLI) where an unknown index is operator error, not a
// programmer error.
func (pl *Pool) Get(index Index) (*Path, bool) {
	return pl.storage.Get(graph.ChildHandle(index))
}

// Len returns the number of live paths in the pool.
func (pl *Pool) Len() int {
	return pl.storage.Len()
}

// All iterates every live path in the pool, in index order.
func (pl *Pool) All(yield func(Index, *Path) bool) {
	for h, p := range pl.storage.All() {
		if !yield(Index(h), p) {
			return
		}
	}
}

func (pl *Pool) alloc(p *Path) Index {
	h := pl.storage.Add(p)
	idx := Index(h)
	p.index = idx
	p.pool = pl
	return idx
}

func (pl *Pool) free(index Index) {
	pl.storage.Remove(graph.ChildHandle(index))
}

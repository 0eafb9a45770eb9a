// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package graph is the generic child/parent bookkeeping shared by every
// upstream object a path can depend on: an adjacency, a FIB entry, or (one
// level up) the path-list itself. It is deliberately small — it owns no
// forwarding semantics, only the sibling-indexed child registry and the
// back-walk reason/result vocabulary that back-walks are expressed in.
package graph

import (
	"fmt"
	"io"
	"iter"
	"sort"
	"sync"

	"github.com/gaissmai/fibpath/internal/assert"
)

// ChildHandle is the sibling index a ChildList hands back on Add and expects
// on Remove. A path stores the ChildHandle it receives from whichever
// upstream it registers with, and surrenders it in Unresolve.
type ChildHandle int

type slot[T any] struct {
	val   T
	inUse bool
}

// ChildList is a stable, reusable registry of dependents. It is the common
// base every upstream graph node (adjacency, FIB entry) embeds instead of
// re-implementing sibling bookkeeping.
type ChildList[T any] struct {
	mu       sync.Mutex
	children []slot[T]
	free     []ChildHandle
}

// Add registers val as a new child and returns the stable handle it was
// assigned. The handle is reused only after a matching Remove.
func (c *ChildList[T]) Add(val T) ChildHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.free); n > 0 {
		h := c.free[n-1]
		c.free = c.free[:n-1]
		c.children[h] = slot[T]{val: val, inUse: true}
		return h
	}
	c.children = append(c.children, slot[T]{val: val, inUse: true})
	return ChildHandle(len(c.children) - 1)
}

// Get returns the value registered at h, if any.
func (c *ChildList[T]) Get(h ChildHandle) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if int(h) < 0 || int(h) >= len(c.children) || !c.children[h].inUse {
		var zero T
		return zero, false
	}
	return c.children[h].val, true
}

// Remove releases the child registered at h. Removing an unknown or already
// free handle is a programmer error: it means a path surrendered a sibling
// index it never legitimately held.
func (c *ChildList[T]) Remove(h ChildHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	assert.Invariant(int(h) >= 0 && int(h) < len(c.children) && c.children[h].inUse,
		"child-remove of unknown sibling %d", h)
	var zero T
	c.children[h] = slot[T]{val: zero, inUse: false}
	c.free = append(c.free, h)
}

// Len returns the number of children currently registered.
func (c *ChildList[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, s := range c.children {
		if s.inUse {
			n++
		}
	}
	return n
}

// All iterates the registered children in handle order. Safe for use while
// the list is not being concurrently mutated by another control-plane
// callback — the FIB runs on a single executor, so that invariant always
// holds outside of tests that deliberately violate it.
func (c *ChildList[T]) All() iter.Seq2[ChildHandle, T] {
	return func(yield func(ChildHandle, T) bool) {
		c.mu.Lock()
		snapshot := make([]slot[T], len(c.children))
		copy(snapshot, c.children)
		c.mu.Unlock()

		for i, s := range snapshot {
			if !s.inUse {
				continue
			}
			if !yield(ChildHandle(i), s.val) {
				return
			}
		}
	}
}

// BackWalkReason is the set of reasons a back-walk may be carrying,
// evaluated in a defined order: Evaluate before Adj* before Interface*.
type BackWalkReason uint16

const (
	Evaluate BackWalkReason = 1 << iota
	AdjUpdate
	AdjDown
	InterfaceUp
	InterfaceDown
	InterfaceDelete
)

var reasonNames = []struct {
	bit  BackWalkReason
	name string
}{
	{Evaluate, "EVALUATE"},
	{AdjUpdate, "ADJ_UPDATE"},
	{AdjDown, "ADJ_DOWN"},
	{InterfaceUp, "INTERFACE_UP"},
	{InterfaceDown, "INTERFACE_DOWN"},
	{InterfaceDelete, "INTERFACE_DELETE"},
}

// Has reports whether r carries the bit for reason.
func (r BackWalkReason) Has(reason BackWalkReason) bool { return r&reason != 0 }

func (r BackWalkReason) String() string {
	if r == 0 {
		return "NONE"
	}
	out := ""
	for _, rn := range reasonNames {
		if r.Has(rn.bit) {
			if out != "" {
				out += "|"
			}
			out += rn.name
		}
	}
	return out
}

// BackWalkResult is the contract every back-walk handler returns: whether
// the walk should keep propagating to the node's own dependents, or stop
// here because nothing changed that the rest of the graph cares about.
type BackWalkResult int

const (
	Continue BackWalkResult = iota
	Stop
)

// NodeType is the descriptor a graph-node implementation registers on
// package init, exposing the four hooks generic graph code needs: a
// debug-name getter, the (asserting) last-lock-gone hook, the back-walk
// entry point, and a memory/usage dump for `show ... memory`.
type NodeType struct {
	Name         string
	Get          func(index uint32) (description string, ok bool)
	LastLockGone func(index uint32)
	BackWalk     func(index uint32, reason BackWalkReason) BackWalkResult
	MemoryShow   func(w io.Writer)
}

var (
	registryMu sync.Mutex
	registry   = map[string]NodeType{}
)

// RegisterType registers nt under nt.Name. Re-registering the same name
// replaces the previous descriptor, matching how a package's init() running
// twice (e.g. under test) is expected to behave.
func RegisterType(nt NodeType) {
	assert.Invariant(nt.Name != "", "node type registered with empty name")
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[nt.Name] = nt
}

// MemoryShowAll writes a memory/usage summary for every registered node
// type, in a stable name-sorted order, to w.
func MemoryShowAll(w io.Writer) {
	registryMu.Lock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	types := make([]NodeType, 0, len(names))
	for _, name := range names {
		types = append(types, registry[name])
	}
	registryMu.Unlock()

	for _, nt := range types {
		fmt.Fprintf(w, "%s:\n", nt.Name)
		if nt.MemoryShow != nil {
			nt.MemoryShow(w)
		}
	}
}

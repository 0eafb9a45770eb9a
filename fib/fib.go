// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package fib is the FIB entry & table: the external collaborator a
// RECURSIVE path resolves through. It is a minimal reference
// implementation of "add a reverse-resolution source entry at a prefix and
// get back its entry handle", entry-level loop-detect descent, and the
// source-rank predicates RESOLVE_VIA_HOST/RESOLVE_VIA_ATTACHED check —
// not a full route-selection engine. The real FIB table and FIB entry are
// named out of scope by spec.md §1.
package fib

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/internal/assert"
	"github.com/gaissmai/fibpath/internal/graph"
)

// Index identifies a FIB entry within a Table.
type Index uint32

const InvalidIndex Index = ^Index(0)

// Prefix is the (next-hop, table) key a RECURSIVE path resolves via:
// constructed from the configured next-hop IP (host prefix) or MPLS label
// (label prefix), per spec.md §4.2.
type Prefix struct {
	Key string // canonical string form: "ip:<addr>" or "mpls:<label>"
	Len int
}

func HostPrefix(addr string, hostBits int) Prefix {
	return Prefix{Key: "ip:" + addr, Len: hostBits}
}

func LabelPrefix(label uint32) Prefix {
	return Prefix{Key: fmt.Sprintf("mpls:%d", label), Len: 21}
}

// Source ranks the contributors to an entry's best path, lowest numeric
// value wins (highest priority). SourceRR — the reverse-resolution source
// automatically installed when a RECURSIVE path resolves a via-prefix that
// nothing else covers — is always the lowest-priority, last-resort source.
type Source uint8

const (
	SourceStatic Source = iota
	SourceIGP
	SourceBGP
	SourceRR // reverse-resolution source: lowest priority
)

func (s Source) String() string {
	switch s {
	case SourceStatic:
		return "static"
	case SourceIGP:
		return "igp"
	case SourceBGP:
		return "bgp"
	case SourceRR:
		return "rr"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// betterThan reports whether s outranks other (lower numeric value wins).
func (s Source) betterThan(other Source) bool { return s < other }

// EntryFlag is a bit in Entry's flags, the predicate RESOLVE_VIA_ATTACHED
// checks against.
type EntryFlag uint8

const (
	FlagAttached EntryFlag = 1 << iota
)

// PathNode is the minimal view of a path needed to descend into nested
// recursion during loop-detect. fib cannot import the path package (the
// path package imports fib for its via-FIB dependency), so this interface
// is the seam: a path satisfies it and an Entry optionally holds one as
// its resolving path.
type PathNode interface {
	RecursiveLoopDetect(entries *EntrySet) bool
}

// EntrySet is the ordered, de-duplicating set of FIB-entry handles
// collected during a forward walk from the root entry being installed
// (spec.md §4.3).
type EntrySet struct {
	order []Index
	seen  map[Index]bool
}

func NewEntrySet() *EntrySet {
	return &EntrySet{seen: make(map[Index]bool)}
}

// Contains reports whether idx was already visited on this walk.
func (s *EntrySet) Contains(idx Index) bool { return s.seen[idx] }

// Add records idx as visited.
func (s *EntrySet) Add(idx Index) {
	if s.seen[idx] {
		return
	}
	s.seen[idx] = true
	s.order = append(s.order, idx)
}

// Entry is one FIB table entry: a prefix, its best-source rank, and
// whatever path currently resolves it (for recursion descent).
type Entry struct {
	mu sync.Mutex

	index   Index
	prefix  Prefix
	proto   dpo.Proto
	source  Source
	isHost  bool
	flags   EntryFlag
	viaPath PathNode // non-nil if this entry's best path is itself recursive

	forwarding dpo.DPO
	children   graph.ChildList[BackWalkTarget]
}

// BackWalkTarget is implemented by anything that can be a child of a FIB
// entry — in practice, a recursive path.
type BackWalkTarget interface {
	BackWalk(reason graph.BackWalkReason) graph.BackWalkResult
}

// Index returns the entry's stable handle.
func (e *Entry) Index() Index { return e.index }

// BestSourceOutranksRR reports whether the entry's best source is strictly
// higher priority than the reverse-resolution source — the
// RESOLVE_VIA_HOST predicate's first half (spec.md §4.2 step 4).
func (e *Entry) BestSourceOutranksRR() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source.betterThan(SourceRR)
}

// IsHost reports whether the entry's prefix is a host (or label) route —
// the RESOLVE_VIA_HOST predicate's second half.
func (e *Entry) IsHost() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isHost
}

// HasFlag reports whether flag is set on the entry — used for the
// RESOLVE_VIA_ATTACHED predicate.
func (e *Entry) HasFlag(flag EntryFlag) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flags&flag != 0
}

// SetFlag sets or clears flag, for test setup and for the reference
// collaborators that attach ATTACHED-derived entries.
func (e *Entry) SetFlag(flag EntryFlag, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on {
		e.flags |= flag
	} else {
		e.flags &^= flag
	}
}

// SetSource sets the entry's best-source rank and whether it is a host
// route, as test setup for the §4.2 step 4/5 predicates would otherwise
// require a full route-selection engine to produce.
func (e *Entry) SetSource(source Source, isHost bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = source
	e.isHost = isHost
}

// SetViaPath records the path currently resolving this entry, for loop
// detection to descend into.
func (e *Entry) SetViaPath(p PathNode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viaPath = p
}

// SetForwarding sets the DPO ContributeForwarding returns for any chain
// type, a simplification appropriate for a reference FIB entry.
func (e *Entry) SetForwarding(d dpo.DPO) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.forwarding = d
}

// ContributeForwarding returns the entry's current forwarding DPO for the
// requested chain — step 1 of recursive-adj-update (spec.md §4.2).
func (e *Entry) ContributeForwarding(dpo.ChainType) dpo.DPO {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.forwarding
}

// ChildAdd registers target (a recursive path) as a dependent of this
// entry.
func (e *Entry) ChildAdd(target BackWalkTarget) graph.ChildHandle {
	return e.children.Add(target)
}

// ChildRemove surrenders a previously returned handle.
func (e *Entry) ChildRemove(h graph.ChildHandle) {
	e.children.Remove(h)
}

// BackWalkChildren propagates reason to every path resolving through this
// entry — used by tests simulating an entry-level change (e.g. the entry's
// best path flipping) without a full route-selection engine.
func (e *Entry) BackWalkChildren(reason graph.BackWalkReason) {
	for _, child := range e.children.All() {
		child.BackWalk(reason)
	}
}

// RecursiveLoopDetect descends into the entry's own resolving path, if any,
// continuing the forward walk started by the path that depends on this
// entry. An entry with no resolving path (a leaf: static/IGP/BGP direct
// source) is never part of a cycle.
func (e *Entry) RecursiveLoopDetect(entries *EntrySet) bool {
	e.mu.Lock()
	via := e.viaPath
	e.mu.Unlock()

	if via == nil {
		return false
	}
	return via.RecursiveLoopDetect(entries)
}

// Table is a FIB table: a set of entries keyed by prefix, within one
// table id and address family.
type Table struct {
	mu      sync.Mutex
	ID      uint32
	Proto   dpo.Proto
	entries map[Prefix]*Entry
	byIndex map[Index]*Entry
	next    Index
	cache   *lru.Cache[Prefix, Index]
}

// NewTable returns an empty table for (id, proto). Lookup resolves prefix
// to index through cache first; entries is the authoritative prefix map a
// cache miss falls back to, repopulating the cache as it goes. AddSource
// consults entries directly and adds each new entry to the cache.
func NewTable(id uint32, proto dpo.Proto) *Table {
	cache, err := lru.New[Prefix, Index](4096)
	if err != nil {
		panic(err)
	}
	return &Table{
		ID:      id,
		Proto:   proto,
		entries: make(map[Prefix]*Entry),
		byIndex: make(map[Index]*Entry),
		cache:   cache,
	}
}

// AddSource adds (or returns the existing) entry at prefix with source,
// matching spec.md §4.2's "add a reverse-resolution source entry at that
// prefix in the indicated table and obtain its entry handle". isHost
// records whether prefix is a host/label route for the RESOLVE_VIA_HOST
// predicate.
func (t *Table) AddSource(prefix Prefix, source Source, isHost bool) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[prefix]; ok {
		e.mu.Lock()
		if source.betterThan(e.source) {
			e.source = source
		}
		e.mu.Unlock()
		return e
	}

	idx := t.next
	t.next++
	e := &Entry{index: idx, prefix: prefix, proto: t.Proto, source: source, isHost: isHost}
	t.entries[prefix] = e
	t.byIndex[idx] = e
	t.cache.Add(prefix, idx)
	return e
}

// Lookup returns the entry at prefix, if any. The prefix-to-index
// resolution goes through cache first; a miss falls back to entries and
// repopulates the cache.
func (t *Table) Lookup(prefix Prefix) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx, ok := t.cache.Get(prefix); ok {
		if e, ok := t.byIndex[idx]; ok {
			return e, true
		}
	}

	e, ok := t.entries[prefix]
	if ok {
		t.cache.Add(prefix, e.index)
	}
	return e, ok
}

// RemoveSource removes the entry at prefix. Removing an entry that still
// has resolving children is a programmer error: the owning paths must
// unresolve first.
func (t *Table) RemoveSource(prefix Prefix) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[prefix]
	if !ok {
		return
	}
	assert.Invariant(e.children.Len() == 0, "fib entry %s removed with %d live children", prefix.Key, e.children.Len())
	delete(t.entries, prefix)
	delete(t.byIndex, e.index)
	t.cache.Remove(prefix)
}

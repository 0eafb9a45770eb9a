// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"fmt"

	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/fib"
	"github.com/gaissmai/fibpath/iface"
	"github.com/gaissmai/fibpath/internal/assert"
)

// Index is a path's stable, 32-bit handle into its owning Pool. It is the
// identity every peer (the path-list, the adjacency manager, the FIB
// table) uses to refer to a path.
type Index uint32

// InvalidIndex is the sentinel "no path" value.
const InvalidIndex Index = ^Index(0)

// Kind is the tag selecting which of the seven variants a path is.
type Kind uint8

const (
	AttachedNextHop Kind = iota
	Attached
	Recursive
	Special
	Exclusive
	Deag
	Receive
)

func (k Kind) String() string {
	switch k {
	case AttachedNextHop:
		return "attached-nexthop"
	case Attached:
		return "attached"
	case Recursive:
		return "recursive"
	case Special:
		return "special"
	case Exclusive:
		return "exclusive"
	case Deag:
		return "deag"
	case Receive:
		return "receive"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// isLeaf reports whether a path of this kind never registers as a child of
// any upstream — DEAG, SPECIAL, RECEIVE, and EXCLUSIVE are graph leaves
// (spec.md §4.3, §4.4).
func (k Kind) isLeaf() bool {
	switch k {
	case Deag, Special, Receive, Exclusive:
		return true
	default:
		return false
	}
}

// CfgFlags are the configured (hashed, cloned) policy bits of a path.
type CfgFlags uint8

const (
	CfgDrop CfgFlags = 1 << iota
	CfgLocal
	CfgResolveViaHost
	CfgResolveViaAttached
)

func (f CfgFlags) Has(bit CfgFlags) bool { return f&bit != 0 }

func (f CfgFlags) String() string {
	names := []struct {
		bit  CfgFlags
		name string
	}{
		{CfgDrop, "DROP"},
		{CfgLocal, "LOCAL"},
		{CfgResolveViaHost, "RESOLVE_VIA_HOST"},
		{CfgResolveViaAttached, "RESOLVE_VIA_ATTACHED"},
	}
	out := ""
	for _, n := range names {
		if f.Has(n.bit) {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "NONE"
	}
	return out
}

// OperFlags are the derived (unhashed, not cloned) runtime state bits of a
// path.
type OperFlags uint8

const (
	OperResolved OperFlags = 1 << iota
	OperRecursiveLoop
	OperDrop
)

func (f OperFlags) Has(bit OperFlags) bool { return f&bit != 0 }

func (f OperFlags) String() string {
	names := []struct {
		bit  OperFlags
		name string
	}{
		{OperResolved, "RESOLVED"},
		{OperRecursiveLoop, "RECURSIVE_LOOP"},
		{OperDrop, "DROP"},
	}
	out := ""
	for _, n := range names {
		if f.Has(n.bit) {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "NONE"
	}
	return out
}

// Weight is a path's multipath contribution weight, in [1, 2^32-1]. A
// supplied 0 is coerced to 1 at construction time.
type Weight uint32

func normalizeWeight(w Weight) Weight {
	if w == 0 {
		return 1
	}
	return w
}

// attachedNextHopPayload is ATTACHED_NEXT_HOP's kind-specific payload.
type attachedNextHopPayload struct {
	Neighbor string
	IfIndex  iface.Index
}

// attachedPayload is ATTACHED's kind-specific payload.
type attachedPayload struct {
	IfIndex iface.Index
}

// recursivePayload is RECURSIVE's kind-specific payload: either an IP
// next-hop or an MPLS label, never both, plus the table to resolve in.
type recursivePayload struct {
	NextHopAddr string
	Label       uint32
	UseLabel    bool
	TableID     uint32
}

// deagPayload is DEAG's kind-specific payload.
type deagPayload struct {
	TableID uint32
}

// specialPayload is SPECIAL's (empty) kind-specific payload.
type specialPayload struct{}

// exclusivePayload is EXCLUSIVE's kind-specific payload.
type exclusivePayload struct {
	DPO dpo.DPO
}

// receivePayload is RECEIVE's kind-specific payload.
type receivePayload struct {
	IfIndex   iface.Index
	LocalAddr string
}

// Path is a single way a route may forward a packet. See spec.md §3 for
// the full data model this type implements: identity, configured state
// (hashable, copied on Clone), and derived state (neither hashed nor
// copied).
type Path struct {
	// --- identity ---
	index    Index
	pathList uint32

	// --- configured state ---
	kind     Kind
	proto    dpo.Proto
	weight   Weight
	cfgFlags CfgFlags
	payload  any // exactly one of the *Payload types above, selected by kind

	// --- derived state ---
	operFlags  OperFlags
	viaFib     fib.Index
	viaEntry   *fib.Entry
	currentDPO dpo.DPO

	// releaseUpstream tears down whichever single upstream lock/child
	// registration resolve most recently set up (an adjacency or a via-FIB
	// entry — a path has at most one at a time, per its kind). unresolve
	// calls and clears it.
	releaseUpstream func()

	pool *Pool
}

// Index returns the path's stable pool handle.
func (p *Path) Index() Index { return p.index }

// PathList returns the index of the path-list that owns this path.
func (p *Path) PathList() uint32 { return p.pathList }

// Kind returns the path's variant tag.
func (p *Path) Kind() Kind { return p.kind }

// Proto returns the path's next-hop protocol.
func (p *Path) Proto() dpo.Proto { return p.proto }

// Weight returns the path's multipath weight.
func (p *Path) Weight() Weight { return p.weight }

// CfgFlags returns the path's configured flags.
func (p *Path) CfgFlags() CfgFlags { return p.cfgFlags }

// OperFlags returns the path's current derived flags.
func (p *Path) OperFlags() OperFlags { return p.operFlags }

// IsResolved reports whether OperResolved is currently set. This is not
// the same as IsResolvedVisible: a looped or permanently-dropped path can
// still have OperResolved set transiently depending on call order, but in
// practice the resolver/back-walk handler keep the two in lock-step except
// for the exact predicate in IsResolvedVisible.
func (p *Path) IsResolved() bool { return p.operFlags.Has(OperResolved) }

// IsRecursive reports whether the path is of kind RECURSIVE.
func (p *Path) IsRecursive() bool { return p.kind == Recursive }

// IsExclusive reports whether the path is of kind EXCLUSIVE.
func (p *Path) IsExclusive() bool { return p.kind == Exclusive }

// IsDeag reports whether the path is of kind DEAG.
func (p *Path) IsDeag() bool { return p.kind == Deag }

// IsLooped reports whether OperRecursiveLoop is currently set.
func (p *Path) IsLooped() bool { return p.operFlags.Has(OperRecursiveLoop) }

// isPermanentDrop reports cfg DROP ∨ oper DROP, per spec.md §3's
// permanent-drop definition.
func (p *Path) isPermanentDrop() bool {
	return p.cfgFlags.Has(CfgDrop) || p.operFlags.Has(OperDrop)
}

// IsResolvedVisible reports whether the path is resolved-visible: DPO
// valid ∧ RESOLVED ∧ ¬LOOPED ∧ ¬permanent-drop (spec.md §3).
func (p *Path) IsResolvedVisible() bool {
	return p.currentDPO.Valid() &&
		p.operFlags.Has(OperResolved) &&
		!p.operFlags.Has(OperRecursiveLoop) &&
		!p.isPermanentDrop()
}

// DPO returns the path's currently stored forwarding object.
func (p *Path) DPO() dpo.DPO { return p.currentDPO }

// GetResolvingInterface returns the interface the path currently resolves
// through, if any. Valid for ATTACHED, ATTACHED_NEXT_HOP, and RECEIVE.
func (p *Path) GetResolvingInterface() (iface.Index, bool) {
	switch pl := p.payload.(type) {
	case attachedNextHopPayload:
		return pl.IfIndex, true
	case attachedPayload:
		return pl.IfIndex, true
	case receivePayload:
		return pl.IfIndex, true
	default:
		return iface.Sentinel, false
	}
}

// GetAdj returns the adjacency currently backing the path's DPO. It is a
// programmer error to call this when the DPO is not adjacency-backed.
func (p *Path) GetAdj() dpo.Adjacency {
	assert.Invariant(p.currentDPO.Kind == dpo.KindAdjacency,
		"GetAdj called on path %d whose DPO is %s, not an adjacency", p.index, p.currentDPO.Kind)
	return p.currentDPO.Adj
}

// attachedNextHop returns the ATTACHED_NEXT_HOP payload. Reading any
// variant accessor against the wrong Kind is a programmer error — no other
// variant's fields are defined (spec.md §3 invariants).
func (p *Path) attachedNextHop() attachedNextHopPayload {
	assert.Invariant(p.kind == AttachedNextHop, "variant read: path %d is %s, not attached-nexthop", p.index, p.kind)
	return p.payload.(attachedNextHopPayload)
}

func (p *Path) attached() attachedPayload {
	assert.Invariant(p.kind == Attached, "variant read: path %d is %s, not attached", p.index, p.kind)
	return p.payload.(attachedPayload)
}

func (p *Path) recursive() recursivePayload {
	assert.Invariant(p.kind == Recursive, "variant read: path %d is %s, not recursive", p.index, p.kind)
	return p.payload.(recursivePayload)
}

func (p *Path) deag() deagPayload {
	assert.Invariant(p.kind == Deag, "variant read: path %d is %s, not deag", p.index, p.kind)
	return p.payload.(deagPayload)
}

func (p *Path) exclusive() exclusivePayload {
	assert.Invariant(p.kind == Exclusive, "variant read: path %d is %s, not exclusive", p.index, p.kind)
	return p.payload.(exclusivePayload)
}

func (p *Path) receive() receivePayload {
	assert.Invariant(p.kind == Receive, "variant read: path %d is %s, not receive", p.index, p.kind)
	return p.payload.(receivePayload)
}

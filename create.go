// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/fib"
	"github.com/gaissmai/fibpath/iface"
	"github.com/gaissmai/fibpath/internal/assert"
)

// RoutePathFlags are the route-path descriptor's own flags, translated
// into the matching cfg flags at Create time (spec.md §4.1).
type RoutePathFlags uint8

const (
	RPResolveViaHost RoutePathFlags = 1 << iota
	RPResolveViaAttached
)

// RoutePathDescriptor is the input Create derives a path's Kind and
// kind-specific payload from, and the shape Encode produces on the way
// back out.
type RoutePathDescriptor struct {
	// IfIndex is the outgoing interface, or iface.Sentinel if unset.
	IfIndex iface.Index

	// Addr is the neighbor or next-hop IP address in its canonical string
	// form. AddrIsZero distinguishes a genuine "zero address" (the
	// wildcard/default next-hop) from "no address configured" — both
	// render as an empty Addr, so callers building a descriptor by hand
	// must set AddrIsZero explicitly when Addr == "".
	Addr       string
	AddrIsZero bool

	// TableID is the recursive/deag target table. TableIDValid is false
	// for the sentinel "no table" value.
	TableID      uint32
	TableIDValid bool

	// Label is the MPLS next-hop label for a RECURSIVE path over MPLS.
	Label    uint32
	HasLabel bool

	Weight Weight
	Flags  RoutePathFlags

	// DPO carries the exclusive object on the way out of Encode for an
	// EXCLUSIVE path; it is ignored on the way in to Create (use
	// CreateSpecial for EXCLUSIVE).
	DPO dpo.DPO
}

func translateRoutePathFlags(f RoutePathFlags) CfgFlags {
	var cfg CfgFlags
	if f&RPResolveViaHost != 0 {
		cfg |= CfgResolveViaHost
	}
	if f&RPResolveViaAttached != 0 {
		cfg |= CfgResolveViaAttached
	}
	return cfg
}

// deriveKind applies spec.md §4.1's derivation table, top-to-bottom,
// first-match-wins.
func deriveKind(rpath RoutePathDescriptor, cfg CfgFlags) Kind {
	ifSet := rpath.IfIndex != iface.Sentinel
	local := cfg.Has(CfgLocal)

	switch {
	case ifSet && local:
		return Receive
	case ifSet && rpath.AddrIsZero && !local:
		return Attached
	case ifSet && !rpath.AddrIsZero && !local:
		return AttachedNextHop
	case !ifSet && rpath.AddrIsZero && !rpath.TableIDValid:
		return Special
	case !ifSet && rpath.AddrIsZero && rpath.TableIDValid:
		return Deag
	case !ifSet && !rpath.AddrIsZero:
		return Recursive
	default:
		assert.Unreachable("route-path descriptor %+v matches no derivation row", rpath)
		panic("unreachable")
	}
}

func buildPayload(kind Kind, proto dpo.Proto, rpath RoutePathDescriptor) any {
	switch kind {
	case AttachedNextHop:
		return attachedNextHopPayload{Neighbor: rpath.Addr, IfIndex: rpath.IfIndex}
	case Attached:
		return attachedPayload{IfIndex: rpath.IfIndex}
	case Recursive:
		pl := recursivePayload{TableID: rpath.TableID}
		if proto == dpo.MPLS {
			pl.UseLabel = true
			pl.Label = rpath.Label
		} else {
			pl.NextHopAddr = rpath.Addr
		}
		return pl
	case Deag:
		return deagPayload{TableID: rpath.TableID}
	case Special:
		return specialPayload{}
	case Receive:
		return receivePayload{IfIndex: rpath.IfIndex, LocalAddr: rpath.Addr}
	default:
		assert.Unreachable("buildPayload: unexpected kind %s", kind)
		panic("unreachable")
	}
}

// Create allocates a path from the pool, deriving its kind from rpath per
// spec.md §4.1. The path starts unresolved.
func (pl *Pool) Create(pathListIndex uint32, proto dpo.Proto, cfg CfgFlags, rpath RoutePathDescriptor) Index {
	cfg |= translateRoutePathFlags(rpath.Flags)
	kind := deriveKind(rpath, cfg)

	p := &Path{
		pathList: pathListIndex,
		kind:     kind,
		proto:    proto,
		weight:   pl.cfg.clampWeight(rpath.Weight),
		cfgFlags: cfg,
		payload:  buildPayload(kind, proto, rpath),
		viaFib:   fib.InvalidIndex,
	}
	return pl.alloc(p)
}

// SpecialOptions parameterizes CreateSpecial: which of DPO (for EXCLUSIVE)
// or IfIndex/LocalAddr (for RECEIVE) apply depends on which kind cfg
// selects.
type SpecialOptions struct {
	DPO       dpo.DPO
	IfIndex   iface.Index
	LocalAddr string
}

// CreateSpecial allocates a SPECIAL path (if cfg DROP is set), a RECEIVE
// path (if cfg LOCAL is set), or an EXCLUSIVE path wrapping opts.DPO
// otherwise — spec.md §4.1's create-special entry point.
func (pl *Pool) CreateSpecial(pathListIndex uint32, proto dpo.Proto, cfg CfgFlags, opts SpecialOptions) Index {
	var kind Kind
	var payload any

	switch {
	case cfg.Has(CfgDrop):
		kind = Special
		payload = specialPayload{}
	case cfg.Has(CfgLocal):
		kind = Receive
		payload = receivePayload{IfIndex: opts.IfIndex, LocalAddr: opts.LocalAddr}
	default:
		kind = Exclusive
		payload = exclusivePayload{DPO: opts.DPO}
	}

	p := &Path{
		pathList: pathListIndex,
		kind:     kind,
		proto:    proto,
		weight:   1,
		cfgFlags: cfg,
		payload:  payload,
		viaFib:   fib.InvalidIndex,
	}
	return pl.alloc(p)
}

// Copy duplicates the configured state of src into a new path owned by
// newPathList. Derived state is zeroed and the DPO reset, per spec.md §3's
// Clone lifecycle operation.
func (pl *Pool) Copy(src Index, newPathList uint32) Index {
	s := pl.get(src)
	q := &Path{
		pathList: newPathList,
		kind:     s.kind,
		proto:    s.proto,
		weight:   s.weight,
		cfgFlags: s.cfgFlags,
		payload:  s.payload, // payload structs are value types, safe to share
		viaFib:   fib.InvalidIndex,
	}
	return pl.alloc(q)
}

// Destroy unresolves and frees index, returning its slot to the pool. A
// path must only be destroyed by its owning path-list.
func (pl *Pool) Destroy(index Index) {
	p := pl.get(index)
	pl.unresolve(p)
	pl.free(index)
}

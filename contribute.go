// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/internal/assert"
)

// ContributeForwarding returns the DPO path index contributes for chain,
// per spec.md §4.5. Chains matching the path's native protocol chain are a
// straight copy of the stored DPO; everything else is constructed (or
// rejected) by kind.
func (pl *Pool) ContributeForwarding(index Index, chain dpo.ChainType) dpo.DPO {
	p := pl.get(index)

	if chain == p.proto.NativeChain() {
		return p.currentDPO
	}

	switch p.kind {
	case AttachedNextHop:
		pay := p.attachedNextHop()
		linkType := dpo.LinkTypeForChain(chain)
		a := pl.adjs.LockNeighbor(linkType, pay.Neighbor, pay.IfIndex)
		defer pl.adjs.Unlock(a)
		return dpo.AdjacencyDPO(chainProto(chain), a)

	case Recursive:
		return pl.recursiveAdjUpdate(p, p.viaEntry, chain)

	case Deag:
		pay := p.deag()
		if chain == dpo.ChainMPLSNonEOS {
			return dpo.Lookup(dpo.MPLS, pay.TableID)
		}
		if chain == dpo.ChainIP4 || chain == dpo.ChainIP6 || chain == dpo.ChainMPLSEOS {
			return p.currentDPO
		}
		assert.Invariant(false, "contribute-forwarding: deag path %d has no %s chain", p.index, chain)

	case Exclusive:
		return p.exclusive().DPO

	default:
		assert.Invariant(false, "contribute-forwarding: path %d (kind %s) has no %s chain", p.index, p.kind, chain)
	}

	panic("unreachable")
}

func chainProto(c dpo.ChainType) dpo.Proto {
	switch c {
	case dpo.ChainIP4:
		return dpo.IP4
	case dpo.ChainIP6:
		return dpo.IP6
	default:
		return dpo.MPLS
	}
}

// AppendNHForMultipathHash appends {weight, index, DPO-for-chain} to key if
// index is currently resolved-visible, per spec.md §4.5.
func (pl *Pool) AppendNHForMultipathHash(index Index, chain dpo.ChainType, key *dpo.MultipathHashKey) *dpo.MultipathHashKey {
	p := pl.get(index)
	if !p.IsResolvedVisible() {
		return key
	}
	return key.Append(dpo.HashTuple{
		Weight:    uint32(p.weight),
		PathIndex: uint32(p.index),
		DPO:       pl.ContributeForwarding(index, chain),
	})
}

// ContributeURPF appends index's reverse-path-forwarding interface(s) to
// list if resolved-visible, per spec.md §4.5.
func (pl *Pool) ContributeURPF(index Index, list *dpo.URPFList) {
	p := pl.get(index)
	if !p.IsResolvedVisible() {
		return
	}

	switch p.kind {
	case Attached, AttachedNextHop:
		if ifIndex, ok := p.GetResolvingInterface(); ok {
			list.Append(uint32(ifIndex))
		}
	case Recursive:
		if p.viaEntry != nil {
			// The via-entry's own uRPF contribution is whatever interface its
			// winning adjacency forwards through, exposed via its forwarding
			// DPO rather than a dedicated uRPF call — the reference fib.Entry
			// does not model a source-validation list of its own.
			if d := p.viaEntry.ContributeForwarding(p.proto.NativeChain()); d.Kind == dpo.KindAdjacency && d.Adj != nil {
				list.Append(d.Adj.OutgoingInterface())
			}
		}
	case Exclusive, Special:
		if p.currentDPO.Kind == dpo.KindAdjacency && p.currentDPO.Adj != nil {
			list.Append(p.currentDPO.Adj.OutgoingInterface())
		}
	}
}

// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"github.com/sirupsen/logrus"

	"github.com/gaissmai/fibpath/adj"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/fib"
	"github.com/gaissmai/fibpath/internal/assert"
	"github.com/gaissmai/fibpath/internal/pathlog"
)

// Resolve binds index to its current downstream object and reports whether
// it ended up resolved-visible, per spec.md §4.2.
func (pl *Pool) Resolve(index Index) bool {
	p := pl.get(index)
	return pl.resolve(p)
}

func (pl *Pool) resolve(p *Path) bool {
	switch {
	case p.isPermanentDrop():
		p.currentDPO = dpo.Drop(p.proto)
		p.operFlags &^= OperResolved
	case p.kind == AttachedNextHop:
		pl.resolveAttachedNextHop(p)
	case p.kind == Attached:
		pl.resolveAttached(p)
	case p.kind == Recursive:
		pl.resolveRecursive(p)
	case p.kind == Special:
		p.currentDPO = dpo.Drop(p.proto)
		p.operFlags |= OperResolved
	case p.kind == Deag:
		pl.resolveDeag(p)
	case p.kind == Receive:
		pl.resolveReceive(p)
	case p.kind == Exclusive:
		pl.resolveExclusive(p)
	default:
		assert.Unreachable("resolve: path %d has unknown kind %s", p.index, p.kind)
	}
	return p.IsResolvedVisible()
}

// setAdjUpstream registers p as a child of a and releases whatever upstream
// it previously held, so the path always has at most one live upstream
// registration.
func (pl *Pool) setAdjUpstream(p *Path, a *adj.Adjacency) {
	pl.releaseUpstream(p)
	h := a.ChildAdd(p)
	p.releaseUpstream = func() {
		a.ChildRemove(h)
		pl.adjs.Unlock(a)
	}
}

func (pl *Pool) setFibUpstream(p *Path, e *fib.Entry) {
	pl.releaseUpstream(p)
	h := e.ChildAdd(p)
	p.viaEntry = e
	p.releaseUpstream = func() {
		e.ChildRemove(h)
		p.viaEntry = nil
	}
}

func (pl *Pool) releaseUpstream(p *Path) {
	if p.releaseUpstream != nil {
		p.releaseUpstream()
		p.releaseUpstream = nil
	}
}

func (pl *Pool) resolveAttachedNextHop(p *Path) {
	pay := p.attachedNextHop()
	if !pl.ifaces.IsAdminUp(pay.IfIndex) {
		p.operFlags &^= OperResolved
		return
	}

	neighbor := pay.Neighbor
	if pl.ifaces.IsP2P(pay.IfIndex) {
		neighbor = adj.ZeroAddress
	}
	linkType := dpo.LinkTypeForChain(p.proto.NativeChain())
	a := pl.adjs.LockNeighbor(linkType, neighbor, pay.IfIndex)
	pl.setAdjUpstream(p, a)
	p.currentDPO = dpo.AdjacencyDPO(p.proto, a)
	p.operFlags |= OperResolved
}

func (pl *Pool) resolveAttached(p *Path) {
	pay := p.attached()
	if !pl.ifaces.IsAdminUp(pay.IfIndex) {
		p.operFlags &^= OperResolved
		return
	}

	linkType := dpo.LinkTypeForChain(p.proto.NativeChain())
	var a *adj.Adjacency
	if pl.ifaces.IsP2P(pay.IfIndex) {
		a = pl.adjs.LockNeighbor(linkType, adj.ZeroAddress, pay.IfIndex)
	} else {
		a = pl.adjs.LockGlean(linkType, pay.IfIndex)
	}
	pl.setAdjUpstream(p, a)
	p.currentDPO = dpo.AdjacencyDPO(p.proto, a)
	p.operFlags |= OperResolved
}

func (pl *Pool) recursivePrefix(pay recursivePayload) fib.Prefix {
	if pay.UseLabel {
		return fib.LabelPrefix(pay.Label)
	}
	hostBits := 32
	if pay.NextHopAddr != "" && !p4Family(pay.NextHopAddr) {
		hostBits = 128
	}
	return fib.HostPrefix(pay.NextHopAddr, hostBits)
}

// p4Family is a crude IPv4-vs-IPv6 sniff good enough to size a host prefix;
// the reference FIB table only keys on the string itself.
func p4Family(addr string) bool {
	for i := 0; i < len(addr); i++ {
		if addr[i] == ':' {
			return false
		}
	}
	return true
}

func (pl *Pool) resolveRecursive(p *Path) {
	pay := p.recursive()
	t := pl.table(pay.TableID)
	prefix := pl.recursivePrefix(pay)
	// recursivePrefix always builds a host (or label) prefix, regardless of
	// which next-hop form the payload carries.
	entry := t.AddSource(prefix, fib.SourceRR, true)
	entry.SetViaPath(p)
	p.viaFib = entry.Index()
	pl.setFibUpstream(p, entry)

	d := pl.recursiveAdjUpdate(p, entry, p.proto.NativeChain())
	p.currentDPO = d
}

// recursiveAdjUpdate implements spec.md §4.2's recursive-adj-update: ask the
// via-entry to contribute forwarding, optimistically mark resolved, then
// override with drop (and clear resolved) if the loop flag is set or if a
// RESOLVE_VIA_* policy predicate fails — notifying the load-balance map in
// the policy-failure case.
func (pl *Pool) recursiveAdjUpdate(p *Path, entry *fib.Entry, chain dpo.ChainType) dpo.DPO {
	d := entry.ContributeForwarding(chain)
	p.operFlags |= OperResolved

	viaHostFails := p.cfgFlags.Has(CfgResolveViaHost) && !(entry.BestSourceOutranksRR() && entry.IsHost())
	viaAttachedFails := p.cfgFlags.Has(CfgResolveViaAttached) && !entry.HasFlag(fib.FlagAttached)

	switch {
	case p.operFlags.Has(OperRecursiveLoop):
		d = dpo.Drop(p.proto)
		p.operFlags &^= OperResolved
	case viaHostFails, viaAttachedFails:
		pl.lbMap.NotifyPICEdge(uint32(p.index))
		if pl.cfg.PermissiveResolveVia {
			pathlog.With(logrus.Fields{"path": p.index}).
				Warn("resolve-via predicate failed, permissive mode: not dropping")
			break
		}
		d = dpo.Drop(p.proto)
		p.operFlags &^= OperResolved
	}

	pathlog.With(logrus.Fields{"path": p.index, "dpo": d}).Debug("recursive-adj-update")
	return d
}

func (pl *Pool) resolveDeag(p *Path) {
	pay := p.deag()
	p.currentDPO = dpo.Lookup(p.proto, pay.TableID)
	p.operFlags |= OperResolved
}

func (pl *Pool) resolveReceive(p *Path) {
	pay := p.receive()
	p.currentDPO = dpo.Receive(p.proto, uint32(pay.IfIndex), pay.LocalAddr)
	p.operFlags |= OperResolved
}

func (pl *Pool) resolveExclusive(p *Path) {
	pay := p.exclusive()
	p.currentDPO = pay.DPO
	p.operFlags |= OperResolved
}

// unresolve releases all upstream references and clears the DPO; oper flags
// are preserved except RESOLVED is cleared (spec.md §3's Unresolve
// lifecycle operation).
func (pl *Pool) unresolve(p *Path) {
	pl.releaseUpstream(p)
	p.viaFib = fib.InvalidIndex
	p.currentDPO = dpo.DPO{}
	p.operFlags &^= OperResolved
}

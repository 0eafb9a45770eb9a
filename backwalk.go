// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"github.com/sirupsen/logrus"

	"github.com/gaissmai/fibpath/adj"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/internal/assert"
	"github.com/gaissmai/fibpath/internal/graph"
	"github.com/gaissmai/fibpath/internal/pathlog"
)

// BackWalk implements adj.BackWalkTarget and fib.BackWalkTarget, the entry
// point an adjacency or a via-FIB entry invokes when its own state changes.
func (p *Path) BackWalk(reason graph.BackWalkReason) graph.BackWalkResult {
	return p.pool.BackWalk(p.index, reason)
}

// BackWalk is Pool's half of spec.md §4.4: react to reason by kind, then
// propagate to the owning path-list unless the per-kind handler decided
// there was nothing worth forwarding.
func (pl *Pool) BackWalk(index Index, reason graph.BackWalkReason) graph.BackWalkResult {
	p := pl.get(index)

	pathlog.With(logrus.Fields{"path": p.index, "kind": p.kind, "reason": reason}).
		Debug("back-walk dispatch")

	var propagate bool
	switch p.kind {
	case Recursive:
		propagate = pl.backWalkRecursive(p, reason)
	case AttachedNextHop:
		propagate = pl.backWalkAttachedNextHop(p, reason)
	case Attached:
		propagate = pl.backWalkAttached(p, reason)
	default:
		assert.Invariant(false, "back-walk into leaf path %d (kind %s)", p.index, p.kind)
	}

	if !propagate {
		return graph.Stop
	}

	if w, ok := pl.pathListFor(p.pathList); ok {
		w.BackWalk(p.pathList, p.index, reason)
	}
	return graph.Continue
}

// backWalkRecursive restacks the DPO from fresh via-entry forwarding on
// EVALUATE; ADJ_UPDATE/ADJ_DOWN alone are left for the load-balance layer to
// restack adjacency sub-types and do not propagate further.
func (pl *Pool) backWalkRecursive(p *Path, reason graph.BackWalkReason) bool {
	if !reason.Has(graph.Evaluate) {
		return false
	}
	p.currentDPO = pl.recursiveAdjUpdate(p, p.viaEntry, p.proto.NativeChain())
	return true
}

func (pl *Pool) backWalkAttachedNextHop(p *Path, reason graph.BackWalkReason) bool {
	if p.isPermanentDrop() {
		return false
	}
	pay := p.attachedNextHop()

	switch {
	case reason.Has(graph.AdjUpdate):
		up := pl.ifaces.IsAdminUp(pay.IfIndex)
		if up {
			p.operFlags |= OperResolved
		} else {
			p.operFlags &^= OperResolved
		}

		neighbor := pay.Neighbor
		if pl.ifaces.IsP2P(pay.IfIndex) {
			neighbor = adj.ZeroAddress
		}
		linkType := dpo.LinkTypeForChain(p.proto.NativeChain())
		a := pl.adjs.LockNeighbor(linkType, neighbor, pay.IfIndex)
		pl.setAdjUpstream(p, a)
		p.currentDPO = dpo.AdjacencyDPO(p.proto, a)

		return up

	case reason.Has(graph.AdjDown):
		if !p.IsResolved() {
			return false
		}
		p.operFlags &^= OperResolved
		return true

	case reason.Has(graph.InterfaceUp):
		if p.IsResolved() {
			return false
		}
		p.operFlags |= OperResolved
		return true

	case reason.Has(graph.InterfaceDown):
		if !p.IsResolved() {
			return false
		}
		p.operFlags &^= OperResolved
		return true

	case reason.Has(graph.InterfaceDelete):
		pl.unresolve(p)
		p.operFlags |= OperDrop
		return true

	default:
		return true
	}
}

func (pl *Pool) backWalkAttached(p *Path, reason graph.BackWalkReason) bool {
	if p.isPermanentDrop() {
		return false
	}
	switch {
	case reason.Has(graph.InterfaceUp):
		if p.IsResolved() {
			return false
		}
		p.operFlags |= OperResolved
		return true

	case reason.Has(graph.InterfaceDown):
		if !p.IsResolved() {
			return false
		}
		p.operFlags &^= OperResolved
		return true

	case reason.Has(graph.InterfaceDelete):
		pl.unresolve(p)
		p.operFlags |= OperDrop
		return true

	default:
		return true
	}
}

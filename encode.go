// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"fmt"

	"github.com/gaissmai/fibpath/iface"
	"github.com/gaissmai/fibpath/internal/assert"
)

// Encode returns a route-path descriptor equivalent to p's configured
// state, per spec.md §6's encode operation. Unlike the layout this was
// distilled from — which unconditionally copied the exclusive-variant DPO
// field into the descriptor regardless of kind, relying on the two fields
// being aliased in memory — this only populates Descriptor.DPO when kind is
// EXCLUSIVE (spec.md §9's open question, resolved).
func (pl *Pool) Encode(index Index) RoutePathDescriptor {
	p := pl.get(index)

	d := RoutePathDescriptor{
		IfIndex: iface.Sentinel,
		Weight:  p.weight,
	}
	if p.cfgFlags.Has(CfgResolveViaHost) {
		d.Flags |= RPResolveViaHost
	}
	if p.cfgFlags.Has(CfgResolveViaAttached) {
		d.Flags |= RPResolveViaAttached
	}

	switch p.kind {
	case AttachedNextHop:
		pay := p.attachedNextHop()
		d.IfIndex = pay.IfIndex
		d.Addr = pay.Neighbor
	case Attached:
		pay := p.attached()
		d.IfIndex = pay.IfIndex
		d.AddrIsZero = true
	case Recursive:
		pay := p.recursive()
		d.TableID = pay.TableID
		d.TableIDValid = true
		if pay.UseLabel {
			d.Label = pay.Label
			d.HasLabel = true
		} else {
			d.Addr = pay.NextHopAddr
		}
	case Deag:
		d.TableID = p.deag().TableID
		d.TableIDValid = true
		d.AddrIsZero = true
	case Special:
		d.AddrIsZero = true
	case Receive:
		pay := p.receive()
		d.IfIndex = pay.IfIndex
		d.Addr = pay.LocalAddr
	case Exclusive:
		d.DPO = p.exclusive().DPO
	default:
		assert.Unreachable("encode: unknown kind %s", p.kind)
	}

	return d
}

// String renders p in the compact textual form the CLI dumper uses.
func (p *Path) String() string {
	base := fmt.Sprintf("[@%d] pl=%d %s %s w=%d cfg=%s oper=%s",
		p.index, p.pathList, p.kind, p.proto, p.weight, p.cfgFlags, p.operFlags)

	var detail string
	switch p.kind {
	case AttachedNextHop:
		pay := p.attachedNextHop()
		detail = fmt.Sprintf("nh=%s if=%d", pay.Neighbor, pay.IfIndex)
	case Attached:
		detail = fmt.Sprintf("if=%d", p.attached().IfIndex)
	case Recursive:
		pay := p.recursive()
		if pay.UseLabel {
			detail = fmt.Sprintf("label=%d table=%d", pay.Label, pay.TableID)
		} else {
			detail = fmt.Sprintf("nh=%s table=%d", pay.NextHopAddr, pay.TableID)
		}
	case Deag:
		detail = fmt.Sprintf("table=%d", p.deag().TableID)
	case Receive:
		pay := p.receive()
		detail = fmt.Sprintf("if=%d addr=%s", pay.IfIndex, pay.LocalAddr)
	case Exclusive:
		detail = fmt.Sprintf("dpo=%s", p.exclusive().DPO)
	}

	if detail == "" {
		return fmt.Sprintf("%s dpo=%s", base, p.currentDPO)
	}
	return fmt.Sprintf("%s %s dpo=%s", base, detail, p.currentDPO)
}

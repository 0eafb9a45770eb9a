// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package dpo models the data-plane object layer: the opaque forwarding
// references a path contributes. Real DPOs (adjacency rewrite headers,
// lookup tables, receive handlers) live in the data plane; this package
// only carries the control-plane-visible handle to them, the way spec.md
// describes the DPO layer as an external collaborator.
package dpo

import "fmt"

// Proto is a path's next-hop protocol.
type Proto uint8

const (
	IP4 Proto = iota
	IP6
	MPLS
)

func (p Proto) String() string {
	switch p {
	case IP4:
		return "ip4"
	case IP6:
		return "ip6"
	case MPLS:
		return "mpls"
	default:
		return fmt.Sprintf("proto(%d)", uint8(p))
	}
}

// ChainType is the forwarding context a consumer requests from Contribute.
type ChainType uint8

const (
	ChainIP4 ChainType = iota
	ChainIP6
	ChainMPLSEOS
	ChainMPLSNonEOS
	ChainEthernet
)

func (c ChainType) String() string {
	switch c {
	case ChainIP4:
		return "ip4"
	case ChainIP6:
		return "ip6"
	case ChainMPLSEOS:
		return "mpls-eos"
	case ChainMPLSNonEOS:
		return "mpls-non-eos"
	case ChainEthernet:
		return "ethernet"
	default:
		return fmt.Sprintf("chain(%d)", uint8(c))
	}
}

// NativeChain returns the default forwarding chain for protocol p — the
// chain type whose DPO is a straight copy of the path's stored DPO rather
// than something the contributor must construct on demand.
func (p Proto) NativeChain() ChainType {
	switch p {
	case IP4:
		return ChainIP4
	case IP6:
		return ChainIP6
	case MPLS:
		return ChainMPLSEOS
	default:
		panic(fmt.Sprintf("dpo: unknown protocol %d", p))
	}
}

// LinkType identifies the adjacency sub-type a neighbor adjacency is keyed
// on when a contributor constructs one on demand for a non-native chain.
type LinkType uint8

const (
	LinkIP4 LinkType = iota
	LinkIP6
	LinkMPLSEOS
	LinkMPLSNonEOS
	LinkEthernet
)

func (l LinkType) String() string {
	switch l {
	case LinkIP4:
		return "ip4"
	case LinkIP6:
		return "ip6"
	case LinkMPLSEOS:
		return "mpls-eos"
	case LinkMPLSNonEOS:
		return "mpls-non-eos"
	case LinkEthernet:
		return "ethernet"
	default:
		return fmt.Sprintf("link(%d)", uint8(l))
	}
}

// LinkTypeForChain derives the link type a neighbor adjacency must be keyed
// on to serve chain c. Ethernet and MPLS chains share the adjacency family
// the spec calls for in §4.5's ATTACHED_NEXT_HOP row.
func LinkTypeForChain(c ChainType) LinkType {
	switch c {
	case ChainIP4:
		return LinkIP4
	case ChainIP6:
		return LinkIP6
	case ChainMPLSEOS:
		return LinkMPLSEOS
	case ChainMPLSNonEOS:
		return LinkMPLSNonEOS
	case ChainEthernet:
		return LinkEthernet
	default:
		panic(fmt.Sprintf("dpo: unknown chain type %d", c))
	}
}

// Kind is the DPO's own variant tag: which of DPO's fields are valid.
type Kind uint8

const (
	Invalid Kind = iota
	KindDrop
	KindAdjacency
	KindLookup
	KindReceive
	KindExclusive
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case KindDrop:
		return "drop"
	case KindAdjacency:
		return "adjacency"
	case KindLookup:
		return "lookup"
	case KindReceive:
		return "receive"
	case KindExclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Adjacency is the minimal view of a resolved neighbor binding a DPO needs.
// It is declared here, not in package adj, so that dpo has no dependency on
// any concrete adjacency manager: adj.Adjacency (and any test double)
// implements it to be embeddable in a DPO.
type Adjacency interface {
	OutgoingInterface() uint32
	LinkType() LinkType
	Key() string
}

// DPO is the opaque forwarding handle a path stores and contributes. Only
// the fields matching Kind are meaningful, mirroring the path's own
// kind-tagged payload.
type DPO struct {
	Kind  Kind
	Proto Proto

	Adj Adjacency // valid iff Kind == KindAdjacency

	TableID uint32 // valid iff Kind == KindLookup

	IfIndex   uint32 // valid iff Kind == KindReceive
	LocalAddr string // valid iff Kind == KindReceive

	Exclusive any // valid iff Kind == KindExclusive
}

// Valid reports whether d refers to something a packet can actually be
// forwarded through; the zero DPO is never valid.
func (d DPO) Valid() bool { return d.Kind != Invalid }

// Drop builds the native-protocol drop DPO.
func Drop(proto Proto) DPO {
	return DPO{Kind: KindDrop, Proto: proto}
}

// AdjacencyDPO builds an adjacency-backed DPO.
func AdjacencyDPO(proto Proto, a Adjacency) DPO {
	return DPO{Kind: KindAdjacency, Proto: proto, Adj: a}
}

// Lookup builds a lookup DPO bound to a table.
func Lookup(proto Proto, tableID uint32) DPO {
	return DPO{Kind: KindLookup, Proto: proto, TableID: tableID}
}

// Receive builds a receive DPO for a local address on an interface.
func Receive(proto Proto, ifIndex uint32, localAddr string) DPO {
	return DPO{Kind: KindReceive, Proto: proto, IfIndex: ifIndex, LocalAddr: localAddr}
}

// ExclusiveDPO wraps a caller-supplied opaque forwarding object.
func ExclusiveDPO(proto Proto, obj any) DPO {
	return DPO{Kind: KindExclusive, Proto: proto, Exclusive: obj}
}

func (d DPO) String() string {
	switch d.Kind {
	case Invalid:
		return "dpo:invalid"
	case KindDrop:
		return fmt.Sprintf("dpo:drop(%s)", d.Proto)
	case KindAdjacency:
		if d.Adj != nil {
			return fmt.Sprintf("dpo:adj(%s,%s)", d.Proto, d.Adj.Key())
		}
		return fmt.Sprintf("dpo:adj(%s,<nil>)", d.Proto)
	case KindLookup:
		return fmt.Sprintf("dpo:lookup(%s,table=%d)", d.Proto, d.TableID)
	case KindReceive:
		return fmt.Sprintf("dpo:receive(%s,if=%d,addr=%s)", d.Proto, d.IfIndex, d.LocalAddr)
	case KindExclusive:
		return fmt.Sprintf("dpo:exclusive(%s,%v)", d.Proto, d.Exclusive)
	default:
		return fmt.Sprintf("dpo:kind(%d)", d.Kind)
	}
}

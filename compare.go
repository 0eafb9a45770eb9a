// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package fibpath

import (
	"bytes"
	"cmp"
	"encoding/binary"

	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/internal/assert"
)

// Equal reports whether a and b have identical configured state — spec.md
// §4.6's path/path equality. Weight and derived state never participate.
func Equal(a, b *Path) bool { return Cmp(a, b) == 0 }

// Cmp orders two paths by configured state only: kind, then native
// protocol, then kind-specific payload.
func Cmp(a, b *Path) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.proto, b.proto); c != 0 {
		return c
	}

	switch a.kind {
	case AttachedNextHop:
		ap, bp := a.attachedNextHop(), b.attachedNextHop()
		if c := cmp.Compare(ap.Neighbor, bp.Neighbor); c != 0 {
			return c
		}
		return cmp.Compare(ap.IfIndex, bp.IfIndex)
	case Attached:
		return cmp.Compare(a.attached().IfIndex, b.attached().IfIndex)
	case Recursive:
		ap, bp := a.recursive(), b.recursive()
		if ap.UseLabel != bp.UseLabel {
			return cmp.Compare(boolToInt(ap.UseLabel), boolToInt(bp.UseLabel))
		}
		if ap.UseLabel {
			if c := cmp.Compare(ap.Label, bp.Label); c != 0 {
				return c
			}
		} else if c := cmp.Compare(ap.NextHopAddr, bp.NextHopAddr); c != 0 {
			return c
		}
		return cmp.Compare(ap.TableID, bp.TableID)
	case Deag:
		return cmp.Compare(a.deag().TableID, b.deag().TableID)
	case Special, Receive, Exclusive:
		return 0
	default:
		assert.Unreachable("cmp: unknown kind %s", a.kind)
		return 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CompareWithRoutePath compares p against a route-path descriptor: weight
// first, then the same per-kind dispatch as Cmp, with RECURSIVE keyed on
// protocol (MPLS → label, else address) rather than on which field the
// descriptor happened to set.
func CompareWithRoutePath(p *Path, rpath RoutePathDescriptor) int {
	if c := cmp.Compare(p.weight, normalizeWeight(rpath.Weight)); c != 0 {
		return c
	}

	switch p.kind {
	case AttachedNextHop:
		pay := p.attachedNextHop()
		if c := cmp.Compare(pay.Neighbor, rpath.Addr); c != 0 {
			return c
		}
		return cmp.Compare(pay.IfIndex, rpath.IfIndex)
	case Attached:
		return cmp.Compare(p.attached().IfIndex, rpath.IfIndex)
	case Recursive:
		pay := p.recursive()
		if p.proto == dpo.MPLS {
			if c := cmp.Compare(pay.Label, rpath.Label); c != 0 {
				return c
			}
		} else if c := cmp.Compare(pay.NextHopAddr, rpath.Addr); c != 0 {
			return c
		}
		return cmp.Compare(pay.TableID, rpath.TableID)
	case Deag:
		return cmp.Compare(p.deag().TableID, rpath.TableID)
	case Special, Receive, Exclusive:
		return 0
	default:
		assert.Unreachable("cmp-with-rpath: unknown kind %s", p.kind)
		return 0
	}
}

// EqualToRoutePath reports whether p matches rpath under
// CompareWithRoutePath.
func EqualToRoutePath(p *Path, rpath RoutePathDescriptor) bool {
	return CompareWithRoutePath(p, rpath) == 0
}

// Hash returns a stable hash over p's configured state. Equal paths
// (weight excluded) always hash identically, matching spec.md §4.6's
// "contiguous configured bytes between two marked offsets" — here, every
// field Cmp itself dispatches on, serialized to a canonical little-endian
// buffer so layout never leaks into the hash.
func Hash(p *Path) uint64 {
	var buf bytes.Buffer
	buf.WriteByte(byte(p.kind))
	buf.WriteByte(byte(p.proto))

	switch p.kind {
	case AttachedNextHop:
		pay := p.attachedNextHop()
		buf.WriteString(pay.Neighbor)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(pay.IfIndex))
	case Attached:
		_ = binary.Write(&buf, binary.LittleEndian, uint32(p.attached().IfIndex))
	case Recursive:
		pay := p.recursive()
		if pay.UseLabel {
			buf.WriteByte(1)
			_ = binary.Write(&buf, binary.LittleEndian, pay.Label)
		} else {
			buf.WriteByte(0)
			buf.WriteString(pay.NextHopAddr)
		}
		_ = binary.Write(&buf, binary.LittleEndian, pay.TableID)
	case Deag:
		_ = binary.Write(&buf, binary.LittleEndian, p.deag().TableID)
	case Special, Receive, Exclusive:
		// no configured payload bytes beyond kind/proto
	}

	return fnv1a(buf.Bytes())
}

func fnv1a(b []byte) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for _, c := range b {
		h ^= uint64(c)
		h *= prime
	}
	return h
}

// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

package dpo

import "github.com/bits-and-blooms/bitset"

// URPFList is the ordered, de-duplicating set of interfaces a source may
// legitimately arrive on. Paths append to it during contribute-urpf; the
// dedup set is a bitset keyed on interface index, the same way adj.Adjacency
// packs its flag bits, rather than a map — interface indices are dense small
// integers, exactly the shape bitset is for.
type URPFList struct {
	ifaces []uint32
	seen   *bitset.BitSet
}

// Append adds ifIndex to the list if it is not already present.
func (u *URPFList) Append(ifIndex uint32) {
	if u.seen == nil {
		u.seen = bitset.New(64)
	}
	if u.seen.Test(uint(ifIndex)) {
		return
	}
	u.seen.Set(uint(ifIndex))
	u.ifaces = append(u.ifaces, ifIndex)
}

// Interfaces returns the interfaces appended so far, in append order.
func (u *URPFList) Interfaces() []uint32 {
	return u.ifaces
}

// Len reports how many distinct interfaces have been appended.
func (u *URPFList) Len() int {
	return len(u.ifaces)
}

// HashTuple is one path's contribution to a multipath hash key:
// {weight, path-index, DPO-for-chain} per spec.md §4.5.
type HashTuple struct {
	Weight    uint32
	PathIndex uint32
	DPO       DPO
}

// MultipathHashKey accumulates per-path tuples for a load-balance hash.
type MultipathHashKey struct {
	Tuples []HashTuple
}

// Append adds t and returns the same key, so callers can chain the way
// append-nh-for-multipath-hash is specified to return its key.
func (k *MultipathHashKey) Append(t HashTuple) *MultipathHashKey {
	k.Tuples = append(k.Tuples, t)
	return k
}

// LoadBalanceMap is the PIC-edge notification target: when a recursive
// path's resolved/unresolved transition is caused by a RESOLVE_VIA_* policy
// predicate failing (not by the via-entry itself going away), the resolver
// signals here so pre-computed alternate buckets can be rebuilt before the
// back-walk finishes rippling. See spec.md §4.2 step 4/5 and §9.
type LoadBalanceMap interface {
	NotifyPICEdge(pathIndex uint32)
}

// NopLoadBalanceMap discards PIC-edge notifications; useful where a caller
// has no load-balance map wired up (e.g. most unit tests).
type NopLoadBalanceMap struct{}

func (NopLoadBalanceMap) NotifyPICEdge(uint32) {}

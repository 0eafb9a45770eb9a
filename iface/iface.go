// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package iface is the interface manager: the external collaborator that
// tracks admin/link state and point-to-point classification for every
// interface a path might attach to. A path never owns interface state, it
// only asks this manager questions and reacts to the INTERFACE_* back-walk
// events the manager (conceptually) fires.
package iface

import (
	"sync"

	"github.com/gaissmai/fibpath/internal/assert"
)

// Index identifies an interface. Sentinel is the "no interface" value used
// in route-path descriptors (spec.md §4.1's "interface-id (or sentinel ~0)").
type Index uint32

const Sentinel Index = ^Index(0)

type state struct {
	adminUp bool
	linkUp  bool
	p2p     bool
}

// Manager is a minimal, in-memory interface table. It exists so the path
// resolver and back-walk handler are independently testable; a production
// build would back this with the kernel/driver interface table instead.
type Manager struct {
	mu  sync.RWMutex
	ifs map[Index]*state
}

// NewManager returns an empty interface manager.
func NewManager() *Manager {
	return &Manager{ifs: make(map[Index]*state)}
}

// Add registers idx as a known interface, initially admin-down.
func (m *Manager) Add(idx Index, p2p bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ifs[idx] = &state{p2p: p2p}
}

func (m *Manager) get(idx Index) *state {
	s, ok := m.ifs[idx]
	assert.Invariant(ok, "iface: unknown interface %d", idx)
	return s
}

// SetAdminUp sets the administrative state of idx.
func (m *Manager) SetAdminUp(idx Index, up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(idx).adminUp = up
	if !up {
		m.get(idx).linkUp = false
	}
}

// SetLinkUp sets the link (carrier) state of idx.
func (m *Manager) SetLinkUp(idx Index, up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(idx).linkUp = up
}

// Delete removes idx from the manager entirely, modeling interface
// deletion.
func (m *Manager) Delete(idx Index) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ifs, idx)
}

// IsAdminUp reports whether idx is administratively up. An interface that
// was deleted is never up.
func (m *Manager) IsAdminUp(idx Index) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.ifs[idx]
	return ok && s.adminUp
}

// IsP2P reports whether idx is a point-to-point interface, the case where
// ATTACHED/ATTACHED_NEXT_HOP resolution keys its adjacency on the zero
// address regardless of the configured neighbor (spec.md §4.2, scenario 2).
func (m *Manager) IsP2P(idx Index) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.ifs[idx]
	return ok && s.p2p
}

// Exists reports whether idx is currently known to the manager.
func (m *Manager) Exists(idx Index) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ifs[idx]
	return ok
}

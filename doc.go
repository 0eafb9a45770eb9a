// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Package fibpath implements a FIB path: the atomic building block of a
// routing Forwarding Information Base. A path names one way a route may
// forward a packet — through a directly attached neighbor, across an
// interface, recursively via another FIB entry, to a local receive
// handler, to a deaggregation lookup, or as a drop.
//
// A path is a node in a dependency graph whose forwarding output must stay
// live under asynchronous events: interface up/down/delete, adjacency
// rewrite completion, changes to a recursively resolved FIB entry, and
// topology changes that induce recursion cycles. Paths detect loops
// without refusing to install them, compute a current data-plane object
// consistent with policy, and propagate change notifications upward via
// back-walks while remaining a child of whichever upstream object they
// depend on.
//
// Paths are aggregated into path-lists (package pathlist), which are in
// turn referenced by FIB entries (package fib). The adjacency manager
// (package adj), interface manager (package iface), and data-plane object
// layer (package dpo) are the path's other upstream and downstream
// collaborators.
package fibpath

// Copyright (c) 2025 The fibpath Authors
// SPDX-License-Identifier: MIT

// Command fibctl is a small demonstration harness wiring the path pool, its
// reference collaborators, and the show-fib-paths CLI together — grounded
// on transitorykris-kbgp/cmd/main.go's shape of constructing the speaker's
// dependencies and handing them to a cobra root command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaissmai/fibpath"
	"github.com/gaissmai/fibpath/adj"
	"github.com/gaissmai/fibpath/cli"
	"github.com/gaissmai/fibpath/dpo"
	"github.com/gaissmai/fibpath/iface"
	"github.com/gaissmai/fibpath/internal/pathlog"
	"github.com/gaissmai/fibpath/pathlist"
)

func main() {
	if err := run(); err != nil {
		pathlog.Log.WithError(err).Error("fibctl failed")
		os.Exit(1)
	}
}

func run() error {
	cfg := fibpath.DefaultConfig()

	ifaces := iface.NewManager()
	adjs := adj.NewManager()
	pool := fibpath.NewPoolWithConfig(ifaces, adjs, dpo.NopLoadBalanceMap{}, cfg)
	registry := pathlist.NewRegistry(pool)

	root := &cobra.Command{
		Use:   "fibctl",
		Short: "inspect an in-memory FIB path pool",
	}
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(cli.NewShowFibPathsCommand(pool))
	root.AddCommand(cli.NewShowFibMemoryCommand())
	root.AddCommand(demoCommand(pool, registry, ifaces))

	return root.Execute()
}

// demoCommand installs one attached-next-hop path (10.0.0.2 on interface 3)
// into a fresh path-list, resolves it, and prints its index. The pool lives
// only in this process, so the path is not visible to a later fibctl
// invocation.
func demoCommand(pool *fibpath.Pool, registry *pathlist.Registry, ifaces *iface.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "install a few demonstration paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ifaces.Add(3, false)
			ifaces.SetAdminUp(3, true)
			ifaces.SetLinkUp(3, true)

			list := registry.New()
			idx := list.Create(dpo.IP4, 0, fibpath.RoutePathDescriptor{
				IfIndex: 3,
				Addr:    "10.0.0.2",
			})
			pool.Resolve(idx)

			fmt.Fprintf(cmd.OutOrStdout(), "installed path %d in list %d\n", idx, list.Index())
			return nil
		},
	}
}

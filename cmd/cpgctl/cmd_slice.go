// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianCPG/services/cpg/graph"
)

var (
	sliceDirection string
	sliceDepth     int
	sliceKinds     []string
	sliceLimit     int
)

var sliceCmd = &cobra.Command{
	Use:   "slice SEED",
	Short: "Compute a bounded slice from a seed node",
	Long: `Compute a bounded, edge-kind-filtered slice from the seed node ID.

The default kind set is {REACHING_DEF, CDG, REF}; pass --kinds to
override. Depth bounds expansion, not inclusion: nodes discovered at the
depth limit are part of the slice.

Examples:
  cpgctl --cpg cpg.json slice 1000101
  cpgctl --cpg cpg.json slice 1000101 --direction forward --depth 3
  cpgctl --cpg cpg.json slice 1000101 --kinds REACHING_DEF --kinds CDG --json`,
	Args: cobra.ExactArgs(1),
	Run:  runSlice,
}

func init() {
	sliceCmd.Flags().StringVar(&sliceDirection, "direction", "backward",
		"Traversal direction: backward or forward")
	sliceCmd.Flags().IntVar(&sliceDepth, "depth", graph.DefaultSliceDepth,
		"Maximum traversal depth")
	sliceCmd.Flags().StringArrayVar(&sliceKinds, "kinds", nil,
		"Edge kinds to traverse (repeatable; default REACHING_DEF, CDG, REF)")
	sliceCmd.Flags().IntVar(&sliceLimit, "limit", 0,
		"Maximum result nodes (0 = default 10000)")
}

func runSlice(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	g, err := loadGraph(ctx)
	if err != nil {
		fail("Failed to load graph", err)
	}

	dir, err := graph.ParseDirection(sliceDirection)
	if err != nil {
		fail("Invalid direction", err)
	}

	opts := []graph.SliceOption{graph.WithMaxDepth(sliceDepth)}
	if len(sliceKinds) > 0 {
		kinds := make([]graph.EdgeKind, 0, len(sliceKinds))
		for _, k := range sliceKinds {
			kinds = append(kinds, graph.EdgeKind(k))
		}
		opts = append(opts, graph.WithEdgeKinds(kinds...))
	}
	if sliceLimit > 0 {
		opts = append(opts, graph.WithLimit(sliceLimit))
	}

	result, err := g.Slice(ctx, graph.NodeID(args[0]), dir, opts...)
	if err != nil {
		fail("Slice failed", err)
	}

	if jsonOutput {
		outputJSON(result)
		os.Exit(exitSuccess)
	}

	fmt.Printf("Slice from %s (%s, %s): %d nodes\n",
		result.Seed, result.SeedLabel, result.Direction, result.Size())
	if result.Truncated {
		fmt.Println("(truncated)")
	}

	ids := make([]string, 0, len(result.Nodes))
	for id := range result.Nodes {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Println(" ", id)
	}

	if len(result.Hops) > 0 {
		fmt.Println("\nHops:")
		for _, hop := range result.Hops {
			fmt.Printf("  %s -[%s]-> %s (%s)\n", hop.FromLabel, hop.Kind, hop.ToLabel, hop.To)
		}
	}
	os.Exit(exitSuccess)
}

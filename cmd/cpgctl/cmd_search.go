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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianCPG/services/cpg/graph"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search nodes by name or code",
	Long: `Case-insensitive substring search over node NAME and CODE
properties. Use the resulting IDs as slice seeds.

Examples:
  cpgctl --cpg cpg.json search png_read
  cpgctl --cpg cpg.json search "row_buf" --limit 5 --json`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

var skeletonCmd = &cobra.Command{
	Use:   "skeleton PATTERN",
	Short: "Print a virtual header for matching files",
	Long: `Print one line per method signature and type declaration in files
whose name contains PATTERN.

Examples:
  cpgctl --cpg cpg.json skeleton pngread.c
  cpgctl --cpg cpg.json skeleton png`,
	Args: cobra.ExactArgs(1),
	Run:  runSkeleton,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", graph.DefaultSearchLimit,
		"Maximum results")
}

func runSearch(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	g, err := loadGraph(ctx)
	if err != nil {
		fail("Failed to load graph", err)
	}

	results := g.Search(ctx, args[0], searchLimit)

	if jsonOutput {
		outputJSON(results)
		os.Exit(exitSuccess)
	}

	if len(results) == 0 {
		fmt.Println("No matches.")
		os.Exit(exitSuccess)
	}
	for _, r := range results {
		fmt.Printf("%s  %-20s %-24s %s\n", r.ID, r.Kind, r.Name, r.Code)
	}
	os.Exit(exitSuccess)
}

func runSkeleton(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	g, err := loadGraph(ctx)
	if err != nil {
		fail("Failed to load graph", err)
	}

	skeleton, err := g.FileSkeleton(args[0])
	if err != nil {
		fail("Skeleton failed", err)
	}

	if jsonOutput {
		outputJSON(map[string]string{"pattern": args[0], "skeleton": skeleton})
	} else {
		fmt.Println(skeleton)
	}
	os.Exit(exitSuccess)
}

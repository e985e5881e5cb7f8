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
	"github.com/AleutianAI/AleutianCPG/services/cpg/render"
)

var (
	contextVariable   string
	contextFile       string
	contextDepth      int
	contextSourceRoot string
	contextNoAliases  bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Render annotated source context for a variable",
	Long: `Select the best seed for a variable, slice backward from it, flag
possible aliases, and render the result as an annotated source listing.

Seed selection picks the use of the variable with the most reaching
definitions; --file narrows candidates to methods in matching files.

Examples:
  cpgctl --cpg cpg.json context --variable row_pointers
  cpgctl --cpg cpg.json context --variable row_pointers --file pngread
  cpgctl --cpg cpg.json context --variable info_ptr --depth 8 --source-root /src/libpng
  cpgctl --cpg cpg.json context --variable buf --json`,
	Run: runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextVariable, "variable", "",
		"Target variable name (required)")
	contextCmd.Flags().StringVar(&contextFile, "file", "",
		"Filename filter for seed candidates")
	contextCmd.Flags().IntVar(&contextDepth, "depth", graph.DefaultSliceDepth,
		"Slicing depth")
	contextCmd.Flags().StringVar(&contextSourceRoot, "source-root", "",
		"Directory source filenames resolve against")
	contextCmd.Flags().BoolVar(&contextNoAliases, "no-aliases", false,
		"Skip alias flagging")
	_ = contextCmd.MarkFlagRequired("variable")
}

func runContext(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	g, err := loadGraph(ctx)
	if err != nil {
		fail("Failed to load graph", err)
	}
	resolver := graph.NewMethodResolver(g)

	best, candidates, err := g.SelectSeed(resolver, contextVariable, contextFile)
	if err != nil {
		fail("Seed selection failed", err)
	}
	fmt.Fprintf(os.Stderr, "Slicing from seed %s (%s, score %d, %d candidates)\n",
		best.ID, contextVariable, best.Score, len(candidates))

	result, err := g.Slice(ctx, best.ID, graph.Backward,
		graph.WithMaxDepth(contextDepth))
	if err != nil {
		fail("Slice failed", err)
	}

	if !contextNoAliases {
		if n := g.MarkAliases(result); n > 0 {
			fmt.Fprintf(os.Stderr, "Flagged %d possible aliases\n", n)
		}
	}

	var renderOpts []render.Option
	if contextSourceRoot != "" {
		renderOpts = append(renderOpts, render.WithSourceRoot(contextSourceRoot))
	}
	renderer, err := render.New(g, resolver, renderOpts...)
	if err != nil {
		fail("Renderer setup failed", err)
	}
	listing, err := renderer.Render(ctx, result, contextVariable)
	if err != nil {
		fail("Render failed", err)
	}

	if jsonOutput {
		outputJSON(listing)
	} else {
		fmt.Println(listing.Text())
	}
	os.Exit(exitSuccess)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command cpgctl queries a CPG JSON record from the command line, without
// running the API server.
//
// Usage:
//
//	cpgctl --cpg libpng_cpg.json context --variable row_pointers
//	cpgctl --cpg libpng_cpg.json slice 1000101 --depth 3 --json
//	cpgctl --cpg libpng_cpg.json search png_read
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianCPG/pkg/logging"
	"github.com/AleutianAI/AleutianCPG/services/cpg/graph"
)

// Exit codes.
const (
	exitSuccess = 0
	exitError   = 1
)

// queryTimeout bounds every CLI query.
const queryTimeout = 60 * time.Second

var (
	cpgPath    string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "cpgctl",
	Short: "Query Code Property Graphs from the command line",
	Long: `cpgctl loads a CPG JSON record and runs slicing queries against it.

Every invocation loads the record fresh; for repeated queries against a
large graph, run the cpg server and keep the graph resident instead.

Examples:
  cpgctl --cpg libpng_cpg.json context --variable row_pointers --file pngread
  cpgctl --cpg libpng_cpg.json slice 1000101 --depth 3 --kinds REACHING_DEF
  cpgctl --cpg libpng_cpg.json search png_read --limit 10
  cpgctl --cpg libpng_cpg.json skeleton pngread.c`,
}

func main() {
	logger := logging.New(logging.Config{Level: "warn", Service: "cpgctl"})
	defer logger.Close()
	logger.SetDefault()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cpgPath, "cpg", "",
		"Path to the CPG JSON record (required)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output as JSON for scripting")
	_ = rootCmd.MarkPersistentFlagRequired("cpg")

	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(skeletonCmd)
}

// loadGraph reads the record named by --cpg.
func loadGraph(ctx context.Context) (*graph.Graph, error) {
	start := time.Now()
	g, err := graph.LoadFile(ctx, cpgPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cpgPath, err)
	}
	slog.Info("graph loaded",
		"path", cpgPath,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"elapsed", time.Since(start))
	return g, nil
}

// outputJSON prints v as indented JSON on stdout.
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "Error encoding output:", err)
		os.Exit(exitError)
	}
}

// fail prints an error and exits.
func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(exitError)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Search configuration limits.
const (
	// DefaultSearchLimit is the default maximum number of search results.
	DefaultSearchLimit = 20

	// searchSnippetLen is the CODE snippet length in search results.
	searchSnippetLen = 50
)

// Search returns nodes whose NAME or CODE contains the query,
// case-insensitively.
//
// Description:
//
//	Linear scan over the node arena, stopping at limit matches. This is
//	the seed-finding entry point for UI and agent layers: find a node,
//	then slice from it. A zero-match outcome returns an empty slice, which
//	callers treat as NotFound at their boundary — it is a normal outcome
//	here, not an error.
//
// Inputs:
//
//	ctx   - Context for cancellation, checked periodically.
//	query - Substring to match. Empty matches nothing.
//	limit - Maximum results; <= 0 uses the default (20).
func (g *Graph) Search(ctx context.Context, query string, limit int) []NodeSummary {
	if query == "" {
		return []NodeSummary{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	query = strings.ToLower(query)

	results := make([]NodeSummary, 0, limit)
	scanned := 0
	g.ForEachNode(func(n *Node) bool {
		scanned++
		if scanned%contextCheckInterval == 0 && ctx.Err() != nil {
			return false
		}
		if !strings.Contains(strings.ToLower(n.Name()), query) &&
			!strings.Contains(strings.ToLower(n.Code()), query) {
			return true
		}
		results = append(results, NodeSummary{
			ID:   n.ID,
			Kind: n.Kind,
			Name: n.Name(),
			Code: n.Snippet(searchSnippetLen),
		})
		return len(results) < limit
	})
	return results
}

// MethodSource is a method's identity plus its full code body.
type MethodSource struct {
	// ID is the METHOD node's identifier.
	ID NodeID `json:"id"`

	// Name is the method name.
	Name string `json:"name"`

	// Filename is the defining file, possibly empty.
	Filename string `json:"filename"`

	// Code is the full CODE property of the METHOD node.
	Code string `json:"code"`
}

// MethodByName returns the first METHOD node whose NAME equals name.
//
// Outputs:
//
//	*MethodSource - The method's identity and code.
//	error         - ErrNodeNotFound when no METHOD carries the name; a
//	                normal, non-exceptional outcome.
func (g *Graph) MethodByName(name string) (*MethodSource, error) {
	for _, n := range g.NodesOfKind(KindMethod) {
		if n.Name() != name {
			continue
		}
		return &MethodSource{
			ID:       n.ID,
			Name:     name,
			Filename: n.Filename(),
			Code:     n.Code(),
		}, nil
	}
	return nil, fmt.Errorf("%w: method %q", ErrNodeNotFound, name)
}

// StructureEntry is one declaration in a file's structure listing.
type StructureEntry struct {
	// ID is the declaring node's identifier.
	ID NodeID `json:"id"`

	// Kind is METHOD or TYPE_DECL.
	Kind NodeKind `json:"kind"`

	// Name is the declaration's name.
	Name string `json:"name"`
}

// FileStructure returns the methods and type declarations in files whose
// FILENAME contains pattern. No traversal — a filtered scan of the
// by-file node index.
func (g *Graph) FileStructure(pattern string) []StructureEntry {
	results := make([]StructureEntry, 0)
	for _, h := range g.fileHandles(pattern) {
		n := g.nodeAt(h)
		if n.Kind != KindMethod && n.Kind != KindTypeDecl {
			continue
		}
		results = append(results, StructureEntry{ID: n.ID, Kind: n.Kind, Name: n.Name()})
	}
	return results
}

// FileSkeleton renders a "virtual header" for files matching pattern:
// one line per method signature and type declaration.
//
// Outputs:
//
//	string - The skeleton text, one declaration per line.
//	error  - ErrNodeNotFound when no file matches or no declarations exist.
func (g *Graph) FileSkeleton(pattern string) (string, error) {
	var lines []string
	for _, h := range g.fileHandles(pattern) {
		n := g.nodeAt(h)
		switch n.Kind {
		case KindMethod:
			lines = append(lines, fmt.Sprintf("Function: %s%s", n.Name(), n.Signature()))
		case KindTypeDecl:
			lines = append(lines, fmt.Sprintf("Type: %s", n.Name()))
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: no structure for file matching %q", ErrNodeNotFound, pattern)
	}
	return strings.Join(lines, "\n"), nil
}

// fileHandles returns the handles of all nodes whose FILENAME contains
// pattern, in a deterministic order.
func (g *Graph) fileHandles(pattern string) []int32 {
	if pattern == "" {
		return nil
	}

	files := make([]string, 0)
	for file := range g.byFile {
		if strings.Contains(file, pattern) {
			files = append(files, file)
		}
	}
	sort.Strings(files)

	var handles []int32
	for _, file := range files {
		handles = append(handles, g.byFile[file]...)
	}
	return handles
}

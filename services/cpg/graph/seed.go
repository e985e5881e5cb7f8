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
	"fmt"
	"strings"
)

// SeedCandidate is one IDENTIFIER node considered as a slice seed.
type SeedCandidate struct {
	// ID is the candidate node's identifier.
	ID NodeID `json:"id"`

	// Score is the number of incoming REACHING_DEF edges. More reaching
	// definitions means the identifier sits at a richer data-flow
	// confluence, which makes it the more informative backward seed.
	Score int `json:"score"`

	// Filename is the owning method's file, possibly empty.
	Filename string `json:"filename,omitempty"`

	// Line is the candidate's line number, zero when absent.
	Line int `json:"line,omitempty"`
}

// SelectSeed finds the best slice seed for a named variable.
//
// Description:
//
//	Candidates are IDENTIFIER nodes whose NAME equals variable, optionally
//	restricted to those whose owning method's FILENAME contains fileFilter.
//	The best candidate maximizes incoming REACHING_DEF edge count; ties
//	keep the earliest candidate in load order, which makes selection
//	deterministic for a fixed graph.
//
// Inputs:
//
//	resolver   - Ownership resolver for the file filter. Required only
//	             when fileFilter is non-empty.
//	variable   - Variable name to seed from.
//	fileFilter - Substring of the owning method's filename; "" disables.
//
// Outputs:
//
//	*SeedCandidate   - The chosen seed.
//	[]SeedCandidate  - All candidates considered, best first not guaranteed.
//	error            - ErrNodeNotFound when no candidate matches.
func (g *Graph) SelectSeed(resolver *MethodResolver, variable, fileFilter string) (*SeedCandidate, []SeedCandidate, error) {
	var candidates []SeedCandidate

	for _, n := range g.NodesOfKind(KindIdentifier) {
		if n.Name() != variable {
			continue
		}

		filename := ""
		if owner, ok := g.ownerNode(resolver, n.ID); ok {
			filename = owner.Filename()
		}
		if fileFilter != "" && !strings.Contains(filename, fileFilter) {
			continue
		}

		cand := SeedCandidate{ID: n.ID, Filename: filename}
		if line, ok := n.LineNumber(); ok {
			cand.Line = line
		}
		for _, adj := range g.mustPredecessors(n.ID) {
			if adj.Kind == EdgeReachingDef {
				cand.Score++
			}
		}
		candidates = append(candidates, cand)
	}

	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("%w: variable %q", ErrNodeNotFound, variable)
	}

	best := 0
	for i, c := range candidates {
		if c.Score > candidates[best].Score {
			best = i
		}
	}
	return &candidates[best], candidates, nil
}

// ownerNode resolves the owning method node for an ID, if any.
func (g *Graph) ownerNode(resolver *MethodResolver, id NodeID) (*Node, bool) {
	if resolver == nil {
		return nil, false
	}
	ownerID, ok := resolver.OwnerOf(id)
	if !ok {
		return nil, false
	}
	return g.Node(ownerID)
}

// mustPredecessors returns all incoming adjacency for a known-present ID.
func (g *Graph) mustPredecessors(id NodeID) []Adjacent {
	adj, _ := g.Predecessors(id)
	return adj
}

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
	"time"
)

// DataFlowKinds is the edge-kind preset for data-flow traces: definitions
// reaching uses, argument and parameter linkage, reference resolution, and
// may-alias information.
var DataFlowKinds = []EdgeKind{
	EdgeReachingDef,
	EdgeParameterLink,
	EdgeArgument,
	EdgeRef,
	EdgeAliasOf,
}

// ControlFlowKinds is the edge-kind preset for control-flow traces: call
// structure, execution order, dominance, and control dependence.
var ControlFlowKinds = []EdgeKind{
	EdgeCall,
	EdgeCFG,
	EdgeDominate,
	EdgeCDG,
}

// TraceDataFlow slices from seed over the data-flow edge preset.
//
// Description:
//
//	Thin preset over Slice. The returned result's Hops field carries the
//	ordered hop-by-hop discovery path, which is the point of a trace: a
//	causal chain rather than an unordered set.
//
// Inputs:
//
//	ctx  - Context for cancellation.
//	seed - Starting node.
//	dir  - Backward for "where did this value come from", Forward for
//	       "where does this value go".
//	opts - WithMaxDepth, WithLimit. WithEdgeKinds is overridden by the preset.
func (g *Graph) TraceDataFlow(ctx context.Context, seed NodeID, dir Direction, opts ...SliceOption) (*SliceResult, error) {
	options := applySliceOptions(opts)
	options.EdgeKinds = DataFlowKinds
	return g.traverse(ctx, "TraceDataFlow", seed, dir, options)
}

// TraceControlFlow slices from seed over the control-flow edge preset.
// See TraceDataFlow for the shared contract.
func (g *Graph) TraceControlFlow(ctx context.Context, seed NodeID, dir Direction, opts ...SliceOption) (*SliceResult, error) {
	options := applySliceOptions(opts)
	options.EdgeKinds = ControlFlowKinds
	return g.traverse(ctx, "TraceControlFlow", seed, dir, options)
}

// NodeSummary is the compact description of a node used in neighborhood
// summaries and search results.
type NodeSummary struct {
	// ID is the node's external identifier.
	ID NodeID `json:"id"`

	// Kind is the node label.
	Kind NodeKind `json:"kind"`

	// Name is the NAME property, possibly empty.
	Name string `json:"name"`

	// Code is a CODE snippet, possibly truncated.
	Code string `json:"code,omitempty"`
}

// NeighborhoodResult is the outcome of a kind-agnostic local inspection.
type NeighborhoodResult struct {
	// Center describes the seed node. Its Code is NOT truncated.
	Center NodeSummary `json:"center"`

	// Neighbors describes every node within the radius, center excluded.
	Neighbors []NodeSummary `json:"neighbors"`

	// Duration is the traversal wall time.
	Duration time.Duration `json:"duration"`
}

// Neighborhood returns all nodes within radius hops of seed, in either
// direction, ignoring edge kinds entirely.
//
// This is quick local inspection, not slicing: it has no direction and no
// kind filter, and must not be confused with the directional, kind-filtered
// primitive behind Slice and the traces.
//
// Outputs:
//
//	*NeighborhoodResult - Center plus neighbor summaries.
//	error               - ErrNodeNotFound if seed is absent.
func (g *Graph) Neighborhood(ctx context.Context, seed NodeID, radius int) (*NeighborhoodResult, error) {
	start := time.Now()
	ctx, span := startSliceSpan(ctx, "Neighborhood", seed)
	defer span.End()

	seedHandle, ok := g.handle(seed)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, seed)
	}
	if radius < 0 {
		radius = 1
	}

	type frame struct {
		h     int32
		depth int
	}

	visited := make([]bool, len(g.nodes))
	visited[seedHandle] = true
	queue := []frame{{h: seedHandle, depth: 0}}

	center := g.nodeAt(seedHandle)
	result := &NeighborhoodResult{
		Center: NodeSummary{
			ID:   center.ID,
			Kind: center.Kind,
			Name: center.Name(),
			Code: center.Code(),
		},
	}

	dequeued := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		dequeued++
		if dequeued%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				break
			}
		}

		if cur.depth >= radius {
			continue
		}

		for _, adj := range [2][]halfEdge{g.out[cur.h], g.in[cur.h]} {
			for _, e := range adj {
				if visited[e.nbr] {
					continue
				}
				visited[e.nbr] = true
				n := g.nodeAt(e.nbr)
				result.Neighbors = append(result.Neighbors, NodeSummary{
					ID:   n.ID,
					Kind: n.Kind,
					Name: n.Name(),
					Code: n.Snippet(hopSnippetLen),
				})
				queue = append(queue, frame{h: e.nbr, depth: cur.depth + 1})
			}
		}
	}

	result.Duration = time.Since(start)
	recordSliceMetrics(ctx, "Neighborhood", result.Duration, len(result.Neighbors)+1)
	return result, nil
}

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

// Slice configuration limits.
const (
	// DefaultSliceDepth is the default maximum traversal depth.
	DefaultSliceDepth = 5

	// MaxSliceDepth is the maximum allowed traversal depth.
	MaxSliceDepth = 100

	// DefaultSliceLimit is the default maximum number of result nodes.
	DefaultSliceLimit = 10_000

	// hopSnippetLen is the CODE snippet length carried on each hop.
	hopSnippetLen = 30

	// contextCheckInterval is how often to check context during traversal,
	// in dequeued nodes. The per-node dequeue loop is the only natural
	// suspension point inside the walk.
	contextCheckInterval = 100

	// unboundedDepth disables the depth cutoff. Internal; reachable only
	// through Closure.
	unboundedDepth = -1
)

// DefaultSliceKinds is the edge-kind set used when a caller supplies none.
// Matches the historical default of the context engine: data dependence,
// control dependence, and reference resolution.
var DefaultSliceKinds = []EdgeKind{EdgeReachingDef, EdgeCDG, EdgeRef}

// Direction selects which way a slice walks the graph.
//
// Backward answers "what could have produced this node's current state or
// control" (causal history, debugging). Forward answers "what does this node
// affect". A single traversal never mixes the two; a caller wanting both
// issues two slices and combines the results.
type Direction int

const (
	// Backward follows incoming edges (dependency sources).
	Backward Direction = iota

	// Forward follows outgoing edges (dependency sinks).
	Forward
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	switch d {
	case Backward:
		return "backward"
	case Forward:
		return "forward"
	default:
		return "unknown"
	}
}

// ParseDirection converts a wire string ("backward"/"forward", or the
// legacy "IN"/"OUT") to a Direction. The empty string means backward, the
// usual slicing direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "backward", "IN", "in", "":
		return Backward, nil
	case "forward", "OUT", "out":
		return Forward, nil
	default:
		return Backward, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// SliceOptions configures slice behavior.
type SliceOptions struct {
	// MaxDepth is the expansion cutoff. Nodes discovered at MaxDepth are
	// included but not expanded. Default: 5.
	MaxDepth int

	// EdgeKinds is the kind filter. A neighbor is admitted when ANY
	// parallel edge between the pair (in the requested orientation) has a
	// kind in this set. A non-nil empty set yields the trivial one-node
	// slice. Nil means DefaultSliceKinds.
	EdgeKinds []EdgeKind

	// Limit is the maximum number of result nodes. Default: 10000.
	Limit int
}

// SliceOption is a functional option for configuring slices.
type SliceOption func(*SliceOptions)

// WithMaxDepth sets the expansion cutoff.
//
// If d < 0, uses default (5). If d > 100, clamps to 100. Zero is valid
// and yields the seed-only slice.
func WithMaxDepth(d int) SliceOption {
	return func(o *SliceOptions) {
		if d < 0 {
			o.MaxDepth = DefaultSliceDepth
		} else if d > MaxSliceDepth {
			o.MaxDepth = MaxSliceDepth
		} else {
			o.MaxDepth = d
		}
	}
}

// WithEdgeKinds sets the edge-kind filter. Calling it with no arguments
// selects the empty set (trivial one-node slice), which is a valid input,
// not an error.
func WithEdgeKinds(kinds ...EdgeKind) SliceOption {
	return func(o *SliceOptions) {
		o.EdgeKinds = append([]EdgeKind{}, kinds...)
	}
}

// WithLimit sets the maximum number of result nodes.
func WithLimit(n int) SliceOption {
	return func(o *SliceOptions) {
		if n > 0 {
			o.Limit = n
		}
	}
}

// applySliceOptions applies functional options over defaults.
func applySliceOptions(opts []SliceOption) SliceOptions {
	options := SliceOptions{
		MaxDepth: DefaultSliceDepth,
		Limit:    DefaultSliceLimit,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Hop is one discovered edge in BFS-discovery order.
type Hop struct {
	// From is the node the traversal expanded.
	From NodeID `json:"from"`

	// To is the newly discovered node.
	To NodeID `json:"to"`

	// Kind is the kind of the edge that admitted the discovery. When
	// parallel edges match the filter, the first in load order is recorded.
	Kind EdgeKind `json:"kind"`

	// FromLabel is the source's NAME property, or its node kind when the
	// name is absent.
	FromLabel string `json:"from_label"`

	// ToLabel is the target's NAME property, or its node kind.
	ToLabel string `json:"to_label"`

	// ToCode is a short CODE snippet of the target.
	ToCode string `json:"to_code,omitempty"`
}

// SliceResult is the outcome of one slice or trace invocation.
//
// Nodes maps every member of the slice to an auxiliary interest flag. The
// engine always leaves the flag false; marking is caller policy (see
// MarkAliases). The result set is a set — a node appears at most once even
// though the underlying graph is a multigraph.
type SliceResult struct {
	// Seed is the node the traversal started from, always a member at depth 0.
	Seed NodeID `json:"seed"`

	// SeedLabel is the seed's NAME property, or its node kind.
	SeedLabel string `json:"seed_label"`

	// Direction is the traversal direction.
	Direction Direction `json:"direction"`

	// Nodes maps member IDs to their interest flag.
	Nodes map[NodeID]bool `json:"nodes"`

	// Hops is the ordered discovery sequence. Deterministic for a fixed
	// graph: adjacency is walked in load order.
	Hops []Hop `json:"hops"`

	// Truncated is true when the node limit was reached or the context
	// was cancelled before the frontier was exhausted.
	Truncated bool `json:"truncated"`

	// Duration is the traversal wall time.
	Duration time.Duration `json:"duration"`
}

// Size returns the number of nodes in the slice.
func (r *SliceResult) Size() int {
	return len(r.Nodes)
}

// Slice computes the bounded, edge-kind-filtered subgraph reachable from seed.
//
// Description:
//
//	Standard breadth-first traversal. The seed enters the result at depth 0
//	with flag false. A dequeued node at depth >= MaxDepth is not expanded
//	further but remains in the result — the cutoff is on expansion, not
//	inclusion. A neighbor is admitted when any parallel edge between the
//	pair in the requested orientation has a kind in the filter set; admitted
//	nodes are visited at most once, which guarantees termination on cyclic
//	graphs and a worst-case cost of O(V+E).
//
// Inputs:
//
//	ctx  - Context for cancellation, checked every 100 dequeues.
//	seed - Starting node. Must exist in the graph.
//	dir  - Backward (predecessors) or Forward (successors).
//	opts - WithMaxDepth, WithEdgeKinds, WithLimit.
//
// Outputs:
//
//	*SliceResult - Membership map, ordered hops, truncation flag.
//	error        - ErrNodeNotFound if seed is absent. An empty traversal
//	               result is NOT an error; the two outcomes are distinct.
//
// Example:
//
//	res, err := g.Slice(ctx, seed, graph.Backward,
//	    graph.WithMaxDepth(5),
//	    graph.WithEdgeKinds(graph.EdgeReachingDef))
func (g *Graph) Slice(ctx context.Context, seed NodeID, dir Direction, opts ...SliceOption) (*SliceResult, error) {
	options := applySliceOptions(opts)
	return g.traverse(ctx, "Slice", seed, dir, options)
}

// Closure computes the unbounded slice: the full transitive closure from
// seed over the given kinds. Used by validation tooling to measure the
// recall of depth-bounded slices.
func (g *Graph) Closure(ctx context.Context, seed NodeID, dir Direction, kinds ...EdgeKind) (*SliceResult, error) {
	options := SliceOptions{
		MaxDepth:  unboundedDepth,
		EdgeKinds: append([]EdgeKind{}, kinds...),
		Limit:     g.NodeCount() + 1,
	}
	return g.traverse(ctx, "Closure", seed, dir, options)
}

// traverse is the single BFS primitive behind Slice, Closure, and the
// trace adapters.
func (g *Graph) traverse(ctx context.Context, op string, seed NodeID, dir Direction, options SliceOptions) (*SliceResult, error) {
	start := time.Now()
	ctx, span := startSliceSpan(ctx, op, seed)
	defer span.End()

	if dir != Backward && dir != Forward {
		return nil, ErrInvalidDirection
	}

	seedHandle, ok := g.handle(seed)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, seed)
	}

	kinds := options.EdgeKinds
	if kinds == nil {
		kinds = DefaultSliceKinds
	}

	seedNode := g.nodeAt(seedHandle)
	result := &SliceResult{
		Seed:      seed,
		SeedLabel: nodeLabel(seedNode),
		Direction: dir,
		Nodes:     map[NodeID]bool{seed: false},
	}

	type frame struct {
		h     int32
		depth int
	}

	visited := make([]bool, len(g.nodes))
	visited[seedHandle] = true

	queue := []frame{{h: seedHandle, depth: 0}}
	dequeued := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		dequeued++
		if dequeued%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				result.Truncated = true
				break
			}
		}

		if options.MaxDepth != unboundedDepth && cur.depth >= options.MaxDepth {
			continue
		}

		var edges []halfEdge
		if dir == Backward {
			edges = g.in[cur.h]
		} else {
			edges = g.out[cur.h]
		}

		from := g.nodeAt(cur.h)
		for _, e := range edges {
			if !containsKind(kinds, e.kind) {
				continue
			}
			if visited[e.nbr] {
				continue
			}
			if len(result.Nodes) >= options.Limit {
				result.Truncated = true
				break
			}

			visited[e.nbr] = true
			to := g.nodeAt(e.nbr)
			result.Nodes[to.ID] = false
			result.Hops = append(result.Hops, Hop{
				From:      from.ID,
				To:        to.ID,
				Kind:      e.kind,
				FromLabel: nodeLabel(from),
				ToLabel:   nodeLabel(to),
				ToCode:    to.Snippet(hopSnippetLen),
			})
			queue = append(queue, frame{h: e.nbr, depth: cur.depth + 1})
		}

		if result.Truncated {
			break
		}
	}

	result.Duration = time.Since(start)
	recordSliceMetrics(ctx, op, result.Duration, len(result.Nodes))
	return result, nil
}

// MarkAliases flags every slice member whose ALIAS_CLASS matches the
// seed's, excluding the seed itself.
//
// The slice engine never sets the interest flag; this is the caller-side
// policy layered on top of it, feeding the renderer's "may alias" line
// annotation. Returns the number of nodes flagged. A seed without an
// ALIAS_CLASS flags nothing.
func (g *Graph) MarkAliases(result *SliceResult) int {
	seedNode, ok := g.Node(result.Seed)
	if !ok {
		return 0
	}
	class := seedNode.AliasClass()
	if class == "" {
		return 0
	}

	marked := 0
	for _, member := range g.AliasClassMembers(class) {
		if member.ID == result.Seed {
			continue
		}
		if _, in := result.Nodes[member.ID]; in {
			result.Nodes[member.ID] = true
			marked++
		}
	}
	return marked
}

// nodeLabel returns the node's NAME, falling back to its kind.
func nodeLabel(n *Node) string {
	if name := n.Name(); name != "" {
		return name
	}
	return string(n.Kind)
}

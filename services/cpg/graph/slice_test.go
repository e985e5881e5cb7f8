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
	"errors"
	"reflect"
	"sort"
	"testing"
)

// sliceIDs returns the sorted member IDs of a slice result.
func sliceIDs(r *SliceResult) []string {
	ids := make([]string, 0, len(r.Nodes))
	for id := range r.Nodes {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return ids
}

func TestSlice_ConcreteScenario(t *testing.T) {
	g := mustLoad(t, fixtureRecord)
	ctx := context.Background()

	t.Run("backward over REACHING_DEF reaches the definition", func(t *testing.T) {
		res, err := g.Slice(ctx, "D", Backward,
			WithMaxDepth(5), WithEdgeKinds(EdgeReachingDef))
		if err != nil {
			t.Fatalf("Slice failed: %v", err)
		}
		if got := sliceIDs(res); !reflect.DeepEqual(got, []string{"C", "D"}) {
			t.Errorf("expected {C, D}, got %v", got)
		}
	})

	t.Run("depth zero includes only the seed", func(t *testing.T) {
		res, err := g.Slice(ctx, "D", Backward,
			WithMaxDepth(0), WithEdgeKinds(EdgeReachingDef))
		if err != nil {
			t.Fatalf("Slice failed: %v", err)
		}
		if got := sliceIDs(res); !reflect.DeepEqual(got, []string{"D"}) {
			t.Errorf("expected {D}, got %v", got)
		}
	})

	t.Run("flags start false", func(t *testing.T) {
		res, _ := g.Slice(ctx, "D", Backward, WithEdgeKinds(EdgeReachingDef))
		for id, flagged := range res.Nodes {
			if flagged {
				t.Errorf("node %s flagged by the engine; flags are caller policy", id)
			}
		}
	})
}

func TestSlice_SeedNotFound(t *testing.T) {
	g := mustLoad(t, fixtureRecord)

	_, err := g.Slice(context.Background(), "nope", Backward)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestSlice_EmptyKindSet(t *testing.T) {
	g := mustLoad(t, fixtureRecord)

	// An empty kind set is a valid input yielding the trivial one-node
	// slice, not an error.
	res, err := g.Slice(context.Background(), "D", Backward, WithEdgeKinds())
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if got := sliceIDs(res); !reflect.DeepEqual(got, []string{"D"}) {
		t.Errorf("expected {D}, got %v", got)
	}
	if len(res.Hops) != 0 {
		t.Errorf("expected no hops, got %d", len(res.Hops))
	}
}

// cyclicRecord is a REACHING_DEF cycle a -> b -> c -> a with a tail d -> a.
const cyclicRecord = `{
	"nodes": [
		{"id": "a", "label": "IDENTIFIER", "properties": {"NAME": "a"}},
		{"id": "b", "label": "IDENTIFIER", "properties": {"NAME": "b"}},
		{"id": "c", "label": "IDENTIFIER", "properties": {"NAME": "c"}},
		{"id": "d", "label": "IDENTIFIER", "properties": {"NAME": "d"}}
	],
	"edges": [
		{"src": "a", "dst": "b", "label": "REACHING_DEF"},
		{"src": "b", "dst": "c", "label": "REACHING_DEF"},
		{"src": "c", "dst": "a", "label": "REACHING_DEF"},
		{"src": "d", "dst": "a", "label": "REACHING_DEF"}
	]
}`

func TestSlice_TerminatesOnCycles(t *testing.T) {
	g := mustLoad(t, cyclicRecord)

	res, err := g.Slice(context.Background(), "a", Forward,
		WithMaxDepth(50), WithEdgeKinds(EdgeReachingDef))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	if got := sliceIDs(res); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected {a, b, c}, got %v", got)
	}

	// No self-revisit: result size never exceeds node count, and no node
	// appears twice in the hop list.
	if res.Size() > g.NodeCount() {
		t.Errorf("slice size %d exceeds node count %d", res.Size(), g.NodeCount())
	}
	seen := map[NodeID]bool{}
	for _, hop := range res.Hops {
		if seen[hop.To] {
			t.Errorf("node %s discovered twice", hop.To)
		}
		seen[hop.To] = true
	}
}

func TestSlice_Determinism(t *testing.T) {
	g := mustLoad(t, cyclicRecord)
	ctx := context.Background()

	first, err := g.Slice(ctx, "a", Backward, WithMaxDepth(10), WithEdgeKinds(EdgeReachingDef))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	second, err := g.Slice(ctx, "a", Backward, WithMaxDepth(10), WithEdgeKinds(EdgeReachingDef))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	if !reflect.DeepEqual(first.Nodes, second.Nodes) {
		t.Error("node sets differ across identical invocations")
	}
	if !reflect.DeepEqual(first.Hops, second.Hops) {
		t.Error("hop order differs across identical invocations")
	}
}

// chainRecord is a linear REACHING_DEF chain n0 <- n1 <- n2 <- n3 <- n4
// with a parallel CDG edge n1 <- n2.
const chainRecord = `{
	"nodes": [
		{"id": "n0", "label": "IDENTIFIER"},
		{"id": "n1", "label": "IDENTIFIER"},
		{"id": "n2", "label": "IDENTIFIER"},
		{"id": "n3", "label": "IDENTIFIER"},
		{"id": "n4", "label": "IDENTIFIER"}
	],
	"edges": [
		{"src": "n1", "dst": "n0", "label": "REACHING_DEF"},
		{"src": "n2", "dst": "n1", "label": "REACHING_DEF"},
		{"src": "n2", "dst": "n1", "label": "CDG"},
		{"src": "n3", "dst": "n2", "label": "REACHING_DEF"},
		{"src": "n4", "dst": "n3", "label": "CDG"}
	]
}`

func TestSlice_DepthMonotonicity(t *testing.T) {
	g := mustLoad(t, chainRecord)
	ctx := context.Background()

	var prev *SliceResult
	for depth := 0; depth <= 5; depth++ {
		res, err := g.Slice(ctx, "n0", Backward,
			WithMaxDepth(depth), WithEdgeKinds(EdgeReachingDef, EdgeCDG))
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if prev != nil {
			for id := range prev.Nodes {
				if _, ok := res.Nodes[id]; !ok {
					t.Errorf("depth %d lost node %s present at depth %d", depth, id, depth-1)
				}
			}
		}
		prev = res
	}

	if prev.Size() != 5 {
		t.Errorf("expected full chain of 5 at depth 5, got %d", prev.Size())
	}
}

func TestSlice_KindMonotonicity(t *testing.T) {
	g := mustLoad(t, chainRecord)
	ctx := context.Background()

	narrow, err := g.Slice(ctx, "n0", Backward,
		WithMaxDepth(10), WithEdgeKinds(EdgeReachingDef))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	wide, err := g.Slice(ctx, "n0", Backward,
		WithMaxDepth(10), WithEdgeKinds(EdgeReachingDef, EdgeCDG))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	for id := range narrow.Nodes {
		if _, ok := wide.Nodes[id]; !ok {
			t.Errorf("widening the kind set lost node %s", id)
		}
	}
	// The CDG-only hop n3 <- n4 is reachable only with the wider set.
	if _, ok := wide.Nodes["n4"]; !ok {
		t.Error("expected n4 via CDG in the wider slice")
	}
	if _, ok := narrow.Nodes["n4"]; ok {
		t.Error("n4 must not be reachable over REACHING_DEF alone")
	}
}

func TestSlice_CutoffIsOnExpansionNotInclusion(t *testing.T) {
	g := mustLoad(t, chainRecord)

	res, err := g.Slice(context.Background(), "n0", Backward,
		WithMaxDepth(2), WithEdgeKinds(EdgeReachingDef))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	// n2 is discovered at depth 2 and must be included even though it is
	// never expanded; n3 (depth 3) must not appear.
	if _, ok := res.Nodes["n2"]; !ok {
		t.Error("node at the cutoff depth must be included")
	}
	if _, ok := res.Nodes["n3"]; ok {
		t.Error("node beyond the cutoff depth must not be included")
	}
}

func TestSlice_ForwardAndBackwardDiffer(t *testing.T) {
	g := mustLoad(t, chainRecord)
	ctx := context.Background()

	back, _ := g.Slice(ctx, "n2", Backward, WithMaxDepth(10), WithEdgeKinds(EdgeReachingDef))
	fwd, _ := g.Slice(ctx, "n2", Forward, WithMaxDepth(10), WithEdgeKinds(EdgeReachingDef))

	if reflect.DeepEqual(back.Nodes, fwd.Nodes) {
		t.Error("forward and backward slices from mid-chain must not be identical")
	}
	if _, ok := back.Nodes["n3"]; !ok {
		t.Error("backward slice should reach the upstream definition n3")
	}
	if _, ok := fwd.Nodes["n1"]; !ok {
		t.Error("forward slice should reach the downstream use n1")
	}
}

func TestSlice_Limit(t *testing.T) {
	g := mustLoad(t, chainRecord)

	res, err := g.Slice(context.Background(), "n0", Backward,
		WithMaxDepth(10), WithEdgeKinds(EdgeReachingDef, EdgeCDG), WithLimit(2))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if res.Size() > 2 {
		t.Errorf("expected at most 2 nodes, got %d", res.Size())
	}
	if !res.Truncated {
		t.Error("expected truncation flag when limit reached")
	}
}

func TestSlice_Cancellation(t *testing.T) {
	g := mustLoad(t, chainRecord)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context is only observed at the periodic check point,
	// so small graphs still complete; the call must not error either way.
	res, err := g.Slice(ctx, "n0", Backward, WithEdgeKinds(EdgeReachingDef))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if _, ok := res.Nodes["n0"]; !ok {
		t.Error("seed must be present even under cancellation")
	}
}

func TestMarkAliases(t *testing.T) {
	record := `{
		"nodes": [
			{"id": "p", "label": "IDENTIFIER", "properties": {"NAME": "p", "ALIAS_CLASS": "h7"}},
			{"id": "q", "label": "IDENTIFIER", "properties": {"NAME": "q", "ALIAS_CLASS": "h7"}},
			{"id": "r", "label": "IDENTIFIER", "properties": {"NAME": "r", "ALIAS_CLASS": "h9"}},
			{"id": "s", "label": "IDENTIFIER", "properties": {"NAME": "s"}}
		],
		"edges": [
			{"src": "q", "dst": "p", "label": "REACHING_DEF"},
			{"src": "r", "dst": "q", "label": "REACHING_DEF"},
			{"src": "s", "dst": "r", "label": "REACHING_DEF"}
		]
	}`
	g := mustLoad(t, record)

	res, err := g.Slice(context.Background(), "p", Backward,
		WithMaxDepth(10), WithEdgeKinds(EdgeReachingDef))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	marked := g.MarkAliases(res)
	if marked != 1 {
		t.Fatalf("expected 1 node marked, got %d", marked)
	}
	if !res.Nodes["q"] {
		t.Error("q shares the seed's alias class and must be flagged")
	}
	if res.Nodes["p"] {
		t.Error("the seed itself must not be flagged")
	}
	if res.Nodes["r"] || res.Nodes["s"] {
		t.Error("nodes outside the seed's alias class must not be flagged")
	}
}

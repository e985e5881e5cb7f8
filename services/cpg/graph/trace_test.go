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
	"testing"
)

// mixedRecord exercises both trace presets from the CALL node "c":
// data flow runs over ARGUMENT/REACHING_DEF, control flow over CALL/CFG.
const mixedRecord = `{
	"nodes": [
		{"id": "m", "label": "METHOD", "properties": {"NAME": "png_read_row"}},
		{"id": "c", "label": "CALL", "properties": {"NAME": "memcpy", "CODE": "memcpy(dst, src, n)"}},
		{"id": "arg", "label": "IDENTIFIER", "properties": {"NAME": "src"}},
		{"id": "def", "label": "IDENTIFIER", "properties": {"NAME": "src"}},
		{"id": "next", "label": "CALL", "properties": {"NAME": "png_write_row"}}
	],
	"edges": [
		{"src": "m", "dst": "c", "label": "CONTAINS"},
		{"src": "c", "dst": "arg", "label": "ARGUMENT"},
		{"src": "def", "dst": "arg", "label": "REACHING_DEF"},
		{"src": "m", "dst": "c", "label": "CALL"},
		{"src": "c", "dst": "next", "label": "CFG"}
	]
}`

func TestTraceDataFlow(t *testing.T) {
	g := mustLoad(t, mixedRecord)

	res, err := g.TraceDataFlow(context.Background(), "c", Forward, WithMaxDepth(5))
	if err != nil {
		t.Fatalf("TraceDataFlow failed: %v", err)
	}

	if _, ok := res.Nodes["arg"]; !ok {
		t.Error("expected the ARGUMENT target in the data-flow trace")
	}
	if _, ok := res.Nodes["next"]; ok {
		t.Error("CFG successor must not appear in a data-flow trace")
	}

	if len(res.Hops) != 1 {
		t.Fatalf("expected 1 hop, got %d", len(res.Hops))
	}
	hop := res.Hops[0]
	if hop.From != "c" || hop.To != "arg" || hop.Kind != EdgeArgument {
		t.Errorf("unexpected hop %+v", hop)
	}
	if hop.FromLabel != "memcpy" || hop.ToLabel != "src" {
		t.Errorf("expected labels (memcpy, src), got (%s, %s)", hop.FromLabel, hop.ToLabel)
	}
}

func TestTraceDataFlow_BackwardReachesDefinition(t *testing.T) {
	g := mustLoad(t, mixedRecord)

	res, err := g.TraceDataFlow(context.Background(), "arg", Backward, WithMaxDepth(5))
	if err != nil {
		t.Fatalf("TraceDataFlow failed: %v", err)
	}

	// Backward from the use: both the reaching definition and the call
	// that passes the argument are causal history.
	for _, want := range []NodeID{"arg", "def", "c"} {
		if _, ok := res.Nodes[want]; !ok {
			t.Errorf("expected %s in backward data-flow trace", want)
		}
	}
}

func TestTraceControlFlow(t *testing.T) {
	g := mustLoad(t, mixedRecord)

	res, err := g.TraceControlFlow(context.Background(), "m", Forward, WithMaxDepth(5))
	if err != nil {
		t.Fatalf("TraceControlFlow failed: %v", err)
	}

	for _, want := range []NodeID{"m", "c", "next"} {
		if _, ok := res.Nodes[want]; !ok {
			t.Errorf("expected %s in control-flow trace", want)
		}
	}
	if _, ok := res.Nodes["arg"]; ok {
		t.Error("ARGUMENT target must not appear in a control-flow trace")
	}

	// Hops arrive in BFS-discovery order: m->c before c->next.
	if len(res.Hops) != 2 {
		t.Fatalf("expected 2 hops, got %d", len(res.Hops))
	}
	if res.Hops[0].To != "c" || res.Hops[1].To != "next" {
		t.Errorf("unexpected hop order: %+v", res.Hops)
	}
}

func TestTraceControlFlow_ParallelStructuralEdgeIgnored(t *testing.T) {
	g := mustLoad(t, mixedRecord)

	// m->c carries both CONTAINS and CALL. The preset admits the pair via
	// CALL; the hop must record the admitting kind, not the structural one.
	res, err := g.TraceControlFlow(context.Background(), "m", Forward, WithMaxDepth(1))
	if err != nil {
		t.Fatalf("TraceControlFlow failed: %v", err)
	}
	if len(res.Hops) != 1 {
		t.Fatalf("expected 1 hop, got %d", len(res.Hops))
	}
	if res.Hops[0].Kind != EdgeCall {
		t.Errorf("expected admitting kind CALL, got %s", res.Hops[0].Kind)
	}
}

func TestNeighborhood(t *testing.T) {
	g := mustLoad(t, mixedRecord)
	ctx := context.Background()

	t.Run("radius one, both directions, kind-agnostic", func(t *testing.T) {
		res, err := g.Neighborhood(ctx, "c", 1)
		if err != nil {
			t.Fatalf("Neighborhood failed: %v", err)
		}

		if res.Center.ID != "c" || res.Center.Name != "memcpy" {
			t.Errorf("unexpected center %+v", res.Center)
		}

		got := map[NodeID]bool{}
		for _, n := range res.Neighbors {
			got[n.ID] = true
		}
		// m (incoming CONTAINS/CALL), arg (outgoing ARGUMENT), next
		// (outgoing CFG) — every direction and kind counts.
		for _, want := range []NodeID{"m", "arg", "next"} {
			if !got[want] {
				t.Errorf("expected neighbor %s, got %v", want, got)
			}
		}
		if got["def"] {
			t.Error("def is two hops away and must not appear at radius 1")
		}
	})

	t.Run("radius two reaches the definition", func(t *testing.T) {
		res, err := g.Neighborhood(ctx, "c", 2)
		if err != nil {
			t.Fatalf("Neighborhood failed: %v", err)
		}
		found := false
		for _, n := range res.Neighbors {
			if n.ID == "def" {
				found = true
			}
		}
		if !found {
			t.Error("expected def at radius 2")
		}
	})

	t.Run("unknown seed", func(t *testing.T) {
		_, err := g.Neighborhood(ctx, "nope", 1)
		if !errors.Is(err, ErrNodeNotFound) {
			t.Errorf("expected ErrNodeNotFound, got %v", err)
		}
	})
}

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
	"sync"
	"testing"
)

func TestMethodResolver_OwnerOf(t *testing.T) {
	g := mustLoad(t, fixtureRecord)
	r := NewMethodResolver(g)

	t.Run("nested node resolves to the enclosing method", func(t *testing.T) {
		owner, ok := r.OwnerOf("C")
		if !ok || owner != "A" {
			t.Errorf("expected (A, true), got (%s, %v)", owner, ok)
		}
	})

	t.Run("a method owns itself", func(t *testing.T) {
		owner, ok := r.OwnerOf("A")
		if !ok || owner != "A" {
			t.Errorf("expected (A, true), got (%s, %v)", owner, ok)
		}
	})

	t.Run("stable across repeated calls", func(t *testing.T) {
		first, _ := r.OwnerOf("D")
		for i := 0; i < 10; i++ {
			if again, _ := r.OwnerOf("D"); again != first {
				t.Fatalf("answer changed on call %d: %s != %s", i, again, first)
			}
		}
	})

	t.Run("unknown id has no owner", func(t *testing.T) {
		if _, ok := r.OwnerOf("missing"); ok {
			t.Error("expected no owner for unknown id")
		}
	})
}

func TestMethodResolver_NoOwner(t *testing.T) {
	// A FILE node with no structural path to any METHOD. "No owner" is a
	// normal answer, not an error, and the negative result is cached too.
	record := `{
		"nodes": [
			{"id": "F", "label": "FILE", "properties": {"NAME": "pngread.c"}},
			{"id": "G", "label": "IDENTIFIER", "properties": {"NAME": "global"}}
		],
		"edges": [
			{"src": "F", "dst": "G", "label": "AST"}
		]
	}`
	g := mustLoad(t, record)
	r := NewMethodResolver(g)

	for i := 0; i < 3; i++ {
		if owner, ok := r.OwnerOf("G"); ok {
			t.Fatalf("expected no owner, got %s", owner)
		}
	}
}

func TestMethodResolver_StructuralEdgesOnly(t *testing.T) {
	// M2 reaches C only via a REACHING_DEF edge; ownership must ascend
	// AST/CONTAINS exclusively, so C belongs to M1.
	record := `{
		"nodes": [
			{"id": "M1", "label": "METHOD", "properties": {"NAME": "writer"}},
			{"id": "M2", "label": "METHOD", "properties": {"NAME": "reader"}},
			{"id": "C", "label": "IDENTIFIER", "properties": {"NAME": "buf"}}
		],
		"edges": [
			{"src": "M1", "dst": "C", "label": "CONTAINS"},
			{"src": "M2", "dst": "C", "label": "REACHING_DEF"}
		]
	}`
	g := mustLoad(t, record)
	r := NewMethodResolver(g)

	owner, ok := r.OwnerOf("C")
	if !ok || owner != "M1" {
		t.Errorf("expected (M1, true), got (%s, %v)", owner, ok)
	}
}

func TestMethodResolver_DeepAscent(t *testing.T) {
	record := `{
		"nodes": [
			{"id": "M", "label": "METHOD", "properties": {"NAME": "deep"}},
			{"id": "B1", "label": "BLOCK"},
			{"id": "B2", "label": "BLOCK"},
			{"id": "B3", "label": "CONTROL_STRUCTURE"},
			{"id": "L", "label": "LITERAL", "properties": {"CODE": "42"}}
		],
		"edges": [
			{"src": "M", "dst": "B1", "label": "AST"},
			{"src": "B1", "dst": "B2", "label": "AST"},
			{"src": "B2", "dst": "B3", "label": "AST"},
			{"src": "B3", "dst": "L", "label": "AST"}
		]
	}`
	g := mustLoad(t, record)
	r := NewMethodResolver(g)

	owner, ok := r.OwnerOf("L")
	if !ok || owner != "M" {
		t.Errorf("expected (M, true), got (%s, %v)", owner, ok)
	}
}

func TestMethodResolver_ConcurrentAccess(t *testing.T) {
	g := mustLoad(t, fixtureRecord)
	r := NewMethodResolver(g)

	ids := []NodeID{"A", "B", "C", "D"}
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := ids[i%len(ids)]
				if owner, ok := r.OwnerOf(id); !ok || owner != "A" {
					t.Errorf("%s: expected (A, true), got (%s, %v)", id, owner, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestMethodResolver_Precompute(t *testing.T) {
	g := mustLoad(t, fixtureRecord)
	r := NewMethodResolver(g)

	if err := r.Precompute(context.Background()); err != nil {
		t.Fatalf("Precompute failed: %v", err)
	}

	for _, id := range []NodeID{"A", "B", "C", "D"} {
		if owner, ok := r.OwnerOf(id); !ok || owner != "A" {
			t.Errorf("%s: expected (A, true) after precompute, got (%s, %v)", id, owner, ok)
		}
	}
}

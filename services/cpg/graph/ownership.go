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
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// noOwner marks a slot resolved to "no enclosing method".
const noOwner int32 = -1

// ownerSlot is one memoization slot, addressed by arena handle.
type ownerSlot struct {
	resolved bool
	owner    int32
}

// MethodResolver answers "which method encloses this node" via structural
// ascent, memoized per node for the lifetime of the Graph.
//
// Structural ownership is a function, not a relation: each node has at most
// one enclosing method, found by ascending incoming AST/CONTAINS edges only.
// Nodes that never reach a METHOD via that ascent (file-level and global
// nodes) have no owner, and the negative answer is cached too.
//
// Thread Safety:
//
//	Safe for concurrent use. Lazy population is a compute-once pattern:
//	slots are guarded by an RWMutex and concurrent misses on the same node
//	collapse into one computation via singleflight. Alternatively call
//	Precompute once before serving to make every later lookup a pure read.
//
// Lifecycle:
//
//	Valid for exactly one Graph instance. A reloaded graph needs a new
//	resolver; there is no invalidation API.
type MethodResolver struct {
	g     *Graph
	mu    sync.RWMutex
	slots []ownerSlot
	group singleflight.Group
}

// NewMethodResolver creates a resolver for the given graph.
func NewMethodResolver(g *Graph) *MethodResolver {
	return &MethodResolver{
		g:     g,
		slots: make([]ownerSlot, g.NodeCount()),
	}
}

// OwnerOf returns the ID of the method enclosing the given node.
//
// Description:
//
//	A METHOD node owns itself. Any other node is resolved by breadth-first
//	ascent along incoming AST/CONTAINS edges until a METHOD is reached or
//	the ascent is exhausted. The result — including "no owner" — is
//	memoized, so repeated queries are O(1) amortized.
//
// Outputs:
//
//	NodeID - The enclosing method's ID. Empty when ok is false.
//	bool   - False when the node has no enclosing method, or the ID is
//	         not in the graph. Not an error either way.
func (r *MethodResolver) OwnerOf(id NodeID) (NodeID, bool) {
	h, ok := r.g.handle(id)
	if !ok {
		return "", false
	}

	r.mu.RLock()
	slot := r.slots[h]
	r.mu.RUnlock()

	if slot.resolved {
		return r.ownerID(slot.owner)
	}

	// Collapse concurrent misses on the same handle into one ascent.
	v, _, _ := r.group.Do(strconv.Itoa(int(h)), func() (any, error) {
		r.mu.RLock()
		cached := r.slots[h]
		r.mu.RUnlock()
		if cached.resolved {
			return cached.owner, nil
		}

		owner := r.ascend(h)

		r.mu.Lock()
		r.slots[h] = ownerSlot{resolved: true, owner: owner}
		r.mu.Unlock()
		return owner, nil
	})

	return r.ownerID(v.(int32))
}

// Precompute eagerly resolves ownership for every node in the graph.
//
// Description:
//
//	Walks all nodes with one worker per CPU. After Precompute returns,
//	every OwnerOf call is a read-only cache hit, which removes the lazy
//	population path entirely for concurrent serving.
//
// Outputs:
//
//	error - The context's error if cancelled mid-walk; nil otherwise.
func (r *MethodResolver) Precompute(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	workers := runtime.NumCPU()
	eg.SetLimit(workers)

	n := r.g.NodeCount()
	chunk := (n + workers - 1) / workers
	if chunk == 0 {
		chunk = 1
	}

	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		eg.Go(func() error {
			for h := lo; h < hi; h++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r.OwnerOf(r.g.nodeAt(int32(h)).ID)
			}
			return nil
		})
	}

	return eg.Wait()
}

// ascend performs the structural BFS ascent from a handle.
//
// The visited set guards against malformed records with cyclic structural
// edges; a well-formed AST ascent terminates without it.
func (r *MethodResolver) ascend(start int32) int32 {
	if r.g.nodeAt(start).Kind == KindMethod {
		return start
	}

	visited := map[int32]bool{start: true}
	queue := []int32{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if r.g.nodeAt(cur).Kind == KindMethod {
			return cur
		}

		for _, e := range r.g.in[cur] {
			if e.kind != EdgeAST && e.kind != EdgeContains {
				continue
			}
			if visited[e.nbr] {
				continue
			}
			visited[e.nbr] = true
			queue = append(queue, e.nbr)
		}
	}

	return noOwner
}

// ownerID converts a resolved slot value to the public form.
func (r *MethodResolver) ownerID(owner int32) (NodeID, bool) {
	if owner == noOwner {
		return "", false
	}
	return r.g.nodeAt(owner).ID, true
}

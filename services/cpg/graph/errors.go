// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the in-memory Code Property Graph (CPG) store and
// the slicing primitives built on it.
//
// A CPG is a typed directed multigraph: nodes are program elements (methods,
// calls, identifiers, literals, control structures) and edges carry exactly
// one kind tag (AST, CFG, CDG, REACHING_DEF, REF, ...). Multiple edges may
// connect the same ordered node pair, with different or even identical kinds.
//
// # Ownership Model
//
// The graph owns its nodes. Nodes live in a dense arena indexed by integer
// handle, with a side table from external node ID to handle. Callers receive
// pointers into the arena and MUST NOT mutate them.
//
// # Thread Safety
//
// A Graph is immutable after LoadRecord returns and is safe for concurrent
// readers with no locking. The MethodResolver's memoization cache uses
// compute-once synchronization and is likewise safe for concurrent use.
//
// # Lifecycle
//
//  1. Load with LoadRecord() from a front-end-produced JSON record
//  2. Query with Node(), Successors(), Predecessors(), Slice(), traces
//  3. Discard; graphs are never rebuilt in place
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrMalformedRecord is returned when the input record is missing the
	// required nodes or edges arrays, or is not valid JSON. Load aborts;
	// there is no partial graph.
	ErrMalformedRecord = errors.New("malformed CPG record")

	// ErrNodeNotFound is returned when a query names a node ID that is not
	// present in the graph. Distinct from an empty traversal result: callers
	// can tell "nothing reachable" apart from "no such node".
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidDirection is returned when a traversal direction is neither
	// Backward nor Forward.
	ErrInvalidDirection = errors.New("invalid traversal direction")

	// ErrLoadCancelled is returned when a load operation is cancelled via context.
	ErrLoadCancelled = errors.New("load cancelled")
)

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

// Recall measures how much of the full transitive closure a bounded slice
// recovered: |bounded ∩ closure| / |closure|.
//
// Completeness against a known closure is a first-class correctness metric
// for the slicer, not a nice-to-have: validation tooling computes the
// closure with Closure() and compares depth-bounded slices against it.
// Both results must come from the same seed, direction, and kind set for
// the ratio to mean anything; this function does not verify that.
//
// The closure always contains at least the seed, so the ratio is defined
// whenever closure is non-nil. A bounded slice is a subset of its closure
// by construction, so the result is in [0, 1].
func Recall(bounded, closure *SliceResult) float64 {
	if bounded == nil || closure == nil || len(closure.Nodes) == 0 {
		return 0
	}

	hit := 0
	for id := range closure.Nodes {
		if _, ok := bounded.Nodes[id]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(closure.Nodes))
}

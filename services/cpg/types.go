// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cpg

import (
	"github.com/AleutianAI/AleutianCPG/services/cpg/graph"
	"github.com/AleutianAI/AleutianCPG/services/cpg/render"
)

// LoadRequest is the request body for POST /v1/cpg/load.
type LoadRequest struct {
	// Path is the CPG JSON record file to load.
	Path string `json:"path" binding:"required"`

	// SourceRoot optionally overrides the directory source filenames
	// resolve against when rendering context for this graph.
	SourceRoot string `json:"source_root,omitempty"`

	// Precompute eagerly resolves method ownership for all nodes.
	Precompute bool `json:"precompute,omitempty"`
}

// LoadResponse is the response for POST /v1/cpg/load.
type LoadResponse struct {
	// GraphID identifies the loaded graph in subsequent requests.
	GraphID string `json:"graph_id"`

	// Nodes is the number of nodes loaded.
	Nodes int `json:"nodes"`

	// Edges is the number of edges kept.
	Edges int `json:"edges"`

	// DroppedEdges is the number of edges discarded for unknown endpoints.
	DroppedEdges int `json:"dropped_edges"`

	// LoadTimeMs is the wall time of the load.
	LoadTimeMs int64 `json:"load_time_ms"`
}

// SliceRequest is the request body for POST /v1/cpg/slice.
type SliceRequest struct {
	GraphID string `json:"graph_id" binding:"required"`

	// Seed is the node to slice from.
	Seed string `json:"seed" binding:"required"`

	// Direction is "backward" (default) or "forward".
	Direction string `json:"direction,omitempty"`

	// MaxDepth bounds the traversal; nil uses the default depth and an
	// explicit 0 yields the seed-only slice.
	MaxDepth *int `json:"max_depth,omitempty"`

	// EdgeKinds filters traversed edges. Absent uses the default kind
	// set; an explicit empty list yields the trivial seed-only slice.
	EdgeKinds []string `json:"edge_kinds,omitempty"`

	// Limit caps the result node count.
	Limit int `json:"limit,omitempty"`
}

// SliceNode is one slice member with its interest flag.
type SliceNode struct {
	ID      graph.NodeID `json:"id"`
	Flagged bool         `json:"flagged,omitempty"`
}

// SliceResponse is the response for slice and trace endpoints.
type SliceResponse struct {
	Seed      graph.NodeID `json:"seed"`
	SeedLabel string       `json:"seed_label"`
	Direction string       `json:"direction"`
	NodeCount int          `json:"node_count"`
	Nodes     []SliceNode  `json:"nodes"`
	Hops      []graph.Hop  `json:"hops"`
	Truncated bool         `json:"truncated"`

	DurationMs int64 `json:"duration_ms"`
}

// TraceRequest is the request body for the trace endpoints. It is a
// SliceRequest without a kind filter; the preset supplies the kinds.
type TraceRequest struct {
	GraphID   string `json:"graph_id" binding:"required"`
	Seed      string `json:"seed" binding:"required"`
	Direction string `json:"direction,omitempty"`
	MaxDepth  *int   `json:"max_depth,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// NeighborhoodRequest is the request body for POST /v1/cpg/neighborhood.
type NeighborhoodRequest struct {
	GraphID string `json:"graph_id" binding:"required"`
	Seed    string `json:"seed" binding:"required"`

	// Radius is the hop bound; <= 0 means 1.
	Radius int `json:"radius,omitempty"`
}

// ContextRequest is the request body for POST /v1/cpg/context: slice,
// flag aliases, and render in one round trip.
type ContextRequest struct {
	GraphID   string   `json:"graph_id" binding:"required"`
	Seed      string   `json:"seed" binding:"required"`
	Direction string   `json:"direction,omitempty"`
	MaxDepth  *int     `json:"max_depth,omitempty"`
	EdgeKinds []string `json:"edge_kinds,omitempty"`

	// MarkAliases flags slice members sharing the seed's alias class.
	MarkAliases bool `json:"mark_aliases,omitempty"`
}

// ContextResponse is the response for POST /v1/cpg/context.
type ContextResponse struct {
	// Listing is the grouped per-file listing.
	Listing *render.Listing `json:"listing"`

	// Text is the listing in report form.
	Text string `json:"text"`

	// NodeCount is the size of the underlying slice.
	NodeCount int `json:"node_count"`

	// AliasCount is the number of nodes flagged as possible aliases.
	AliasCount int `json:"alias_count"`

	Truncated bool `json:"truncated,omitempty"`
}

// SeedRequest is the request body for POST /v1/cpg/seed.
type SeedRequest struct {
	GraphID string `json:"graph_id" binding:"required"`

	// Variable is the identifier name to seed from.
	Variable string `json:"variable" binding:"required"`

	// FileFilter restricts candidates to owning methods whose filename
	// contains this substring.
	FileFilter string `json:"file_filter,omitempty"`
}

// SeedResponse is the response for POST /v1/cpg/seed.
type SeedResponse struct {
	Best       *graph.SeedCandidate  `json:"best"`
	Candidates []graph.SeedCandidate `json:"candidates"`
}

// SearchResponse is the response for GET /v1/cpg/search.
type SearchResponse struct {
	Query   string              `json:"query"`
	Results []graph.NodeSummary `json:"results"`
}

// StructureResponse is the response for GET /v1/cpg/structure.
type StructureResponse struct {
	Pattern string                 `json:"pattern"`
	Entries []graph.StructureEntry `json:"entries"`
}

// SkeletonResponse is the response for GET /v1/cpg/skeleton.
type SkeletonResponse struct {
	Pattern  string `json:"pattern"`
	Skeleton string `json:"skeleton"`
}

// StatsResponse is the response for GET /v1/cpg/stats.
type StatsResponse struct {
	GraphID      string `json:"graph_id"`
	Path         string `json:"path"`
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	DroppedEdges int    `json:"dropped_edges"`
	BuiltAtMilli int64  `json:"built_at_ms"`
}

// HealthResponse is the response for GET /v1/cpg/health.
type HealthResponse struct {
	// Status is "healthy".
	Status string `json:"status"`

	// Version is the service version.
	Version string `json:"version"`
}

// ReadyResponse is the response for GET /v1/cpg/ready.
type ReadyResponse struct {
	// Ready is true once the service accepts requests.
	Ready bool `json:"ready"`

	// GraphCount is the number of cached graphs.
	GraphCount int `json:"graph_count"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}

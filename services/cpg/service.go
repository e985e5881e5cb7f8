// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cpg provides the CPG slicing HTTP service.
//
// The service exposes endpoints for:
//   - Loading CPG JSON records into in-memory graphs
//   - Bounded, edge-kind-filtered program slicing
//   - Data-flow and control-flow tracing
//   - Rendering slices as annotated source listings
package cpg

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianCPG/services/cpg/graph"
	"github.com/AleutianAI/AleutianCPG/services/cpg/render"
)

// ServiceConfig configures the CPG service.
type ServiceConfig struct {
	// MaxCachedGraphs is the maximum number of graphs to keep in memory.
	// Default: 4
	MaxCachedGraphs int

	// GraphTTL is how long graphs are cached before expiry.
	// Default: 0 (no expiry)
	GraphTTL time.Duration

	// SourceRoot is the default directory source filenames resolve
	// against when rendering. A per-load override takes precedence.
	SourceRoot string

	// PrecomputeOwnership eagerly resolves method ownership for every
	// node at load time instead of lazily on first query.
	PrecomputeOwnership bool
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxCachedGraphs: 4,
		GraphTTL:        0,
	}
}

// CachedGraph holds a loaded graph and its query companions.
type CachedGraph struct {
	// Graph is the loaded CPG.
	Graph *graph.Graph

	// Resolver is the graph's method-ownership resolver.
	Resolver *graph.MethodResolver

	// Renderer renders slices of this graph.
	Renderer *render.Renderer

	// Path is the record file the graph was loaded from.
	Path string

	// BuiltAtMilli is when the graph was loaded.
	BuiltAtMilli int64

	// ExpiresAtMilli is when the graph expires (0 = never).
	ExpiresAtMilli int64
}

// Service is the CPG slicing service.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Graphs are read-only after load
//	and ownership resolution memoizes through a compute-once cache, so
//	any number of queries may run against the same graph concurrently.
type Service struct {
	config ServiceConfig
	graphs map[string]*CachedGraph
	mu     sync.RWMutex
}

// NewService creates a new CPG service with no loaded graphs.
func NewService(config ServiceConfig) *Service {
	if config.MaxCachedGraphs <= 0 {
		config.MaxCachedGraphs = DefaultServiceConfig().MaxCachedGraphs
	}
	return &Service{
		config: config,
		graphs: make(map[string]*CachedGraph),
	}
}

// Load reads a CPG JSON record from disk and caches the built graph.
//
// Description:
//
//	Each load produces a fresh graph under a new ID; loading the same
//	file twice yields two independent graphs. When the cache is over
//	capacity the oldest graph is evicted.
//
// Inputs:
//
//	ctx        - Context for cancellation during the load.
//	path       - Record file path.
//	sourceRoot - Render-time source directory; "" uses the service default.
//	precompute - Eagerly resolve ownership for all nodes.
//
// Outputs:
//
//	*LoadResponse - Graph ID and load statistics.
//	error         - graph.ErrMalformedRecord on bad input, or I/O errors.
func (s *Service) Load(ctx context.Context, path, sourceRoot string, precompute bool) (*LoadResponse, error) {
	start := time.Now()

	g, err := graph.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	resolver := graph.NewMethodResolver(g)
	if precompute || s.config.PrecomputeOwnership {
		if err := resolver.Precompute(ctx); err != nil {
			return nil, err
		}
	}

	if sourceRoot == "" {
		sourceRoot = s.config.SourceRoot
	}
	var renderOpts []render.Option
	if sourceRoot != "" {
		renderOpts = append(renderOpts, render.WithSourceRoot(sourceRoot))
	}
	renderer, err := render.New(g, resolver, renderOpts...)
	if err != nil {
		return nil, err
	}

	graphID := uuid.NewString()
	cached := &CachedGraph{
		Graph:        g,
		Resolver:     resolver,
		Renderer:     renderer,
		Path:         path,
		BuiltAtMilli: time.Now().UnixMilli(),
	}
	if s.config.GraphTTL > 0 {
		cached.ExpiresAtMilli = time.Now().Add(s.config.GraphTTL).UnixMilli()
	}

	s.mu.Lock()
	s.graphs[graphID] = cached
	s.evictIfNeeded()
	s.mu.Unlock()

	slog.Info("graph loaded",
		"graph_id", graphID,
		"path", path,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"dropped_edges", g.DroppedEdgeCount(),
		"load_time_ms", time.Since(start).Milliseconds())

	return &LoadResponse{
		GraphID:      graphID,
		Nodes:        g.NodeCount(),
		Edges:        g.EdgeCount(),
		DroppedEdges: g.DroppedEdgeCount(),
		LoadTimeMs:   time.Since(start).Milliseconds(),
	}, nil
}

// GetGraph retrieves a cached graph by ID.
//
// Outputs:
//
//	*CachedGraph - The cached graph.
//	error        - ErrGraphNotFound if absent, ErrGraphExpired if past TTL.
func (s *Service) GetGraph(graphID string) (*CachedGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cached, ok := s.graphs[graphID]
	if !ok {
		return nil, ErrGraphNotFound
	}
	if cached.ExpiresAtMilli > 0 && time.Now().UnixMilli() > cached.ExpiresAtMilli {
		return nil, ErrGraphExpired
	}
	return cached, nil
}

// Unload drops a cached graph. Unloading an unknown ID is a no-op.
func (s *Service) Unload(graphID string) {
	s.mu.Lock()
	delete(s.graphs, graphID)
	s.mu.Unlock()
}

// GraphCount returns the number of cached graphs.
func (s *Service) GraphCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.graphs)
}

// Stats returns load statistics for a cached graph.
func (s *Service) Stats(graphID string) (*StatsResponse, error) {
	cached, err := s.GetGraph(graphID)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{
		GraphID:      graphID,
		Path:         cached.Path,
		Nodes:        cached.Graph.NodeCount(),
		Edges:        cached.Graph.EdgeCount(),
		DroppedEdges: cached.Graph.DroppedEdgeCount(),
		BuiltAtMilli: cached.BuiltAtMilli,
	}, nil
}

// evictIfNeeded removes graphs if over capacity. Caller must hold write lock.
func (s *Service) evictIfNeeded() {
	for len(s.graphs) > s.config.MaxCachedGraphs {
		var oldestID string
		oldestTime := time.Now().UnixMilli() + 1
		for id, cached := range s.graphs {
			if cached.BuiltAtMilli < oldestTime {
				oldestTime = cached.BuiltAtMilli
				oldestID = id
			}
		}
		if oldestID == "" {
			return
		}
		slog.Info("evicting oldest graph", "graph_id", oldestID)
		delete(s.graphs, oldestID)
	}
}

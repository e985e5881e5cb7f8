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
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianCPG/services/cpg/graph"
)

// ServiceVersion is the CPG service version.
const ServiceVersion = "0.1.0"

// Handlers contains the HTTP handlers for the CPG service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleLoad handles POST /v1/cpg/load.
//
// Description:
//
//	Loads a CPG JSON record from disk, builds the in-memory graph, and
//	returns its graph ID for subsequent queries.
//
// Request Body:
//
//	LoadRequest
//
// Response:
//
//	200 OK: LoadResponse
//	400 Bad Request: Malformed record or validation error
//	500 Internal Server Error: I/O failure
func (h *Handlers) HandleLoad(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleLoad")

	var req LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	logger.Info("Loading graph", "path", req.Path)

	resp, err := h.svc.Load(c.Request.Context(), req.Path, req.SourceRoot, req.Precompute)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "LOAD_FAILED"

		if errors.Is(err, graph.ErrMalformedRecord) {
			statusCode = http.StatusBadRequest
			errCode = "MALFORMED_RECORD"
		}

		logger.Error("Load failed", "error", err)
		c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
		return
	}

	logger.Info("Graph loaded",
		"graph_id", resp.GraphID,
		"nodes", resp.Nodes,
		"edges", resp.Edges)

	c.JSON(http.StatusOK, resp)
}

// HandleSlice handles POST /v1/cpg/slice.
//
// Description:
//
//	Computes a bounded, edge-kind-filtered slice from a seed node.
//
// Request Body:
//
//	SliceRequest
//
// Response:
//
//	200 OK: SliceResponse
//	400 Bad Request: Validation error
//	404 Not Found: Unknown graph or seed
func (h *Handlers) HandleSlice(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSlice")

	var req SliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	cached, ok := h.graphOrAbort(c, logger, req.GraphID)
	if !ok {
		return
	}

	dir, err := graph.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_DIRECTION",
		})
		return
	}

	opts := sliceOptions(req.MaxDepth, req.EdgeKinds, req.Limit)
	result, err := cached.Graph.Slice(c.Request.Context(), graph.NodeID(req.Seed), dir, opts...)
	if err != nil {
		h.abortTraversalError(c, logger, err)
		return
	}

	logger.Info("Slice computed",
		"seed", req.Seed,
		"direction", dir.String(),
		"nodes", result.Size(),
		"truncated", result.Truncated)

	c.JSON(http.StatusOK, sliceResponse(result))
}

// HandleTraceDataFlow handles POST /v1/cpg/trace/data-flow.
//
// The edge kinds are fixed to the data-flow preset; the request cannot
// override them.
func (h *Handlers) HandleTraceDataFlow(c *gin.Context) {
	h.handleTrace(c, "HandleTraceDataFlow", func(cached *CachedGraph, req *TraceRequest, dir graph.Direction, opts []graph.SliceOption) (*graph.SliceResult, error) {
		return cached.Graph.TraceDataFlow(c.Request.Context(), graph.NodeID(req.Seed), dir, opts...)
	})
}

// HandleTraceControlFlow handles POST /v1/cpg/trace/control-flow.
func (h *Handlers) HandleTraceControlFlow(c *gin.Context) {
	h.handleTrace(c, "HandleTraceControlFlow", func(cached *CachedGraph, req *TraceRequest, dir graph.Direction, opts []graph.SliceOption) (*graph.SliceResult, error) {
		return cached.Graph.TraceControlFlow(c.Request.Context(), graph.NodeID(req.Seed), dir, opts...)
	})
}

// handleTrace is the shared body of the two trace endpoints.
func (h *Handlers) handleTrace(c *gin.Context, name string, run func(*CachedGraph, *TraceRequest, graph.Direction, []graph.SliceOption) (*graph.SliceResult, error)) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", name)

	var req TraceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	cached, ok := h.graphOrAbort(c, logger, req.GraphID)
	if !ok {
		return
	}

	dir, err := graph.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_DIRECTION",
		})
		return
	}

	result, err := run(cached, &req, dir, sliceOptions(req.MaxDepth, nil, req.Limit))
	if err != nil {
		h.abortTraversalError(c, logger, err)
		return
	}

	logger.Info("Trace computed", "seed", req.Seed, "nodes", result.Size())
	c.JSON(http.StatusOK, sliceResponse(result))
}

// HandleNeighborhood handles POST /v1/cpg/neighborhood.
func (h *Handlers) HandleNeighborhood(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleNeighborhood")

	var req NeighborhoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	cached, ok := h.graphOrAbort(c, logger, req.GraphID)
	if !ok {
		return
	}

	radius := req.Radius
	if radius <= 0 {
		radius = 1
	}

	result, err := cached.Graph.Neighborhood(c.Request.Context(), graph.NodeID(req.Seed), radius)
	if err != nil {
		h.abortTraversalError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleContext handles POST /v1/cpg/context.
//
// Description:
//
//	The one-shot pipeline: slice from the seed, optionally flag alias
//	candidates, and render the result as a grouped source listing.
//
// Request Body:
//
//	ContextRequest
//
// Response:
//
//	200 OK: ContextResponse
//	400 Bad Request: Validation error
//	404 Not Found: Unknown graph or seed
func (h *Handlers) HandleContext(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleContext")

	var req ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	cached, ok := h.graphOrAbort(c, logger, req.GraphID)
	if !ok {
		return
	}

	dir, err := graph.ParseDirection(req.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_DIRECTION",
		})
		return
	}

	opts := sliceOptions(req.MaxDepth, req.EdgeKinds, 0)
	result, err := cached.Graph.Slice(c.Request.Context(), graph.NodeID(req.Seed), dir, opts...)
	if err != nil {
		h.abortTraversalError(c, logger, err)
		return
	}

	aliasCount := 0
	if req.MarkAliases {
		aliasCount = cached.Graph.MarkAliases(result)
	}

	listing, err := cached.Renderer.Render(c.Request.Context(), result, "")
	if err != nil {
		logger.Error("Render failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "RENDER_FAILED",
		})
		return
	}

	logger.Info("Context rendered",
		"seed", req.Seed,
		"nodes", result.Size(),
		"files", len(listing.Files),
		"aliases", aliasCount)

	c.JSON(http.StatusOK, ContextResponse{
		Listing:    listing,
		Text:       listing.Text(),
		NodeCount:  result.Size(),
		AliasCount: aliasCount,
		Truncated:  result.Truncated,
	})
}

// HandleSeed handles POST /v1/cpg/seed.
func (h *Handlers) HandleSeed(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSeed")

	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	cached, ok := h.graphOrAbort(c, logger, req.GraphID)
	if !ok {
		return
	}

	best, candidates, err := cached.Graph.SelectSeed(cached.Resolver, req.Variable, req.FileFilter)
	if err != nil {
		h.abortTraversalError(c, logger, err)
		return
	}

	logger.Info("Seed selected",
		"variable", req.Variable,
		"seed", best.ID,
		"score", best.Score,
		"candidates", len(candidates))

	c.JSON(http.StatusOK, SeedResponse{Best: best, Candidates: candidates})
}

// HandleSearch handles GET /v1/cpg/search.
//
// Query Parameters:
//
//	graph_id: ID of the graph to query (required)
//	q: Substring to match against NAME and CODE (required)
//	limit: Maximum results (optional)
func (h *Handlers) HandleSearch(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSearch")

	cached, ok := h.graphOrAbort(c, logger, c.Query("graph_id"))
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Missing query parameter: q",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	results := cached.Graph.Search(c.Request.Context(), query, limit)
	c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results})
}

// HandleStructure handles GET /v1/cpg/structure.
//
// Query Parameters:
//
//	graph_id: ID of the graph to query (required)
//	file: Filename substring (required)
func (h *Handlers) HandleStructure(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleStructure")

	cached, ok := h.graphOrAbort(c, logger, c.Query("graph_id"))
	if !ok {
		return
	}

	pattern := c.Query("file")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Missing query parameter: file",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	entries := cached.Graph.FileStructure(pattern)
	c.JSON(http.StatusOK, StructureResponse{Pattern: pattern, Entries: entries})
}

// HandleSkeleton handles GET /v1/cpg/skeleton.
func (h *Handlers) HandleSkeleton(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSkeleton")

	cached, ok := h.graphOrAbort(c, logger, c.Query("graph_id"))
	if !ok {
		return
	}

	pattern := c.Query("file")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Missing query parameter: file",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	skeleton, err := cached.Graph.FileSkeleton(pattern)
	if err != nil {
		h.abortTraversalError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, SkeletonResponse{Pattern: pattern, Skeleton: skeleton})
}

// HandleMethod handles GET /v1/cpg/method.
//
// Query Parameters:
//
//	graph_id: ID of the graph to query (required)
//	name: Method name (required)
func (h *Handlers) HandleMethod(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleMethod")

	cached, ok := h.graphOrAbort(c, logger, c.Query("graph_id"))
	if !ok {
		return
	}

	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Missing query parameter: name",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	src, err := cached.Graph.MethodByName(name)
	if err != nil {
		h.abortTraversalError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, src)
}

// HandleStats handles GET /v1/cpg/stats.
func (h *Handlers) HandleStats(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleStats")

	stats, err := h.svc.Stats(c.Query("graph_id"))
	if err != nil {
		h.abortGraphError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleUnload handles DELETE /v1/cpg/graph/:id.
func (h *Handlers) HandleUnload(c *gin.Context) {
	h.svc.Unload(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// HandleHealth handles GET /v1/cpg/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/cpg/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, ReadyResponse{
		Ready:      true,
		GraphCount: h.svc.GraphCount(),
	})
}

// graphOrAbort fetches the cached graph or writes the error response.
func (h *Handlers) graphOrAbort(c *gin.Context, logger *slog.Logger, graphID string) (*CachedGraph, bool) {
	if graphID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Missing graph_id",
			Code:  "INVALID_REQUEST",
		})
		return nil, false
	}
	cached, err := h.svc.GetGraph(graphID)
	if err != nil {
		h.abortGraphError(c, logger, err)
		return nil, false
	}
	return cached, true
}

// abortGraphError maps graph registry errors to HTTP responses.
func (h *Handlers) abortGraphError(c *gin.Context, logger *slog.Logger, err error) {
	statusCode := http.StatusInternalServerError
	errCode := "INTERNAL_ERROR"

	if errors.Is(err, ErrGraphNotFound) {
		statusCode = http.StatusNotFound
		errCode = "GRAPH_NOT_FOUND"
	} else if errors.Is(err, ErrGraphExpired) {
		statusCode = http.StatusBadRequest
		errCode = "GRAPH_EXPIRED"
	}

	logger.Warn("Graph lookup failed", "error", err)
	c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
}

// abortTraversalError maps query errors to HTTP responses. NotFound is a
// normal outcome at this boundary and maps to 404, not 500.
func (h *Handlers) abortTraversalError(c *gin.Context, logger *slog.Logger, err error) {
	statusCode := http.StatusInternalServerError
	errCode := "QUERY_FAILED"

	if errors.Is(err, graph.ErrNodeNotFound) {
		statusCode = http.StatusNotFound
		errCode = "NODE_NOT_FOUND"
	} else if errors.Is(err, graph.ErrInvalidDirection) {
		statusCode = http.StatusBadRequest
		errCode = "INVALID_DIRECTION"
	}

	logger.Warn("Query failed", "error", err)
	c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
}

// sliceOptions converts request fields to engine options.
func sliceOptions(maxDepth *int, kinds []string, limit int) []graph.SliceOption {
	var opts []graph.SliceOption
	if maxDepth != nil {
		opts = append(opts, graph.WithMaxDepth(*maxDepth))
	}
	// A nil slice means the field was absent (engine default kinds); an
	// explicit empty list selects the empty kind set, the trivial slice.
	if kinds != nil {
		edgeKinds := make([]graph.EdgeKind, 0, len(kinds))
		for _, k := range kinds {
			edgeKinds = append(edgeKinds, graph.EdgeKind(k))
		}
		opts = append(opts, graph.WithEdgeKinds(edgeKinds...))
	}
	if limit > 0 {
		opts = append(opts, graph.WithLimit(limit))
	}
	return opts
}

// sliceResponse converts an engine result to the wire form with nodes in
// a stable order.
func sliceResponse(result *graph.SliceResult) SliceResponse {
	nodes := make([]SliceNode, 0, len(result.Nodes))
	for id, flagged := range result.Nodes {
		nodes = append(nodes, SliceNode{ID: id, Flagged: flagged})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return SliceResponse{
		Seed:       result.Seed,
		SeedLabel:  result.SeedLabel,
		Direction:  result.Direction.String(),
		NodeCount:  len(nodes),
		Nodes:      nodes,
		Hops:       result.Hops,
		Truncated:  result.Truncated,
		DurationMs: result.Duration.Milliseconds(),
	}
}

// getOrCreateRequestID returns the X-Request-ID header, generating one
// when absent, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all CPG routes with the router.
//
// Description:
//
//	Registers all /v1/cpg/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Graph Lifecycle:
//
//	POST   /v1/cpg/load - Load a CPG JSON record
//	DELETE /v1/cpg/graph/:id - Unload a graph
//	GET    /v1/cpg/stats - Graph statistics
//
// Slicing:
//
//	POST /v1/cpg/slice - Bounded, kind-filtered slice
//	POST /v1/cpg/trace/data-flow - Data-flow trace
//	POST /v1/cpg/trace/control-flow - Control-flow trace
//	POST /v1/cpg/neighborhood - Kind-agnostic local neighborhood
//	POST /v1/cpg/context - Slice, flag aliases, and render
//	POST /v1/cpg/seed - Select the best seed for a variable
//
// Lookup:
//
//	GET /v1/cpg/search - Substring search over NAME/CODE
//	GET /v1/cpg/structure - File declaration inventory
//	GET /v1/cpg/skeleton - Virtual header for a file
//	GET /v1/cpg/method - Method source by name
//
// Health Endpoints:
//
//	GET /v1/cpg/health - Health check
//	GET /v1/cpg/ready - Readiness check
//
// Example:
//
//	service := cpg.NewService(cpg.DefaultServiceConfig())
//	handlers := cpg.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	cpg.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	group := rg.Group("/cpg")
	{
		// Graph lifecycle
		group.POST("/load", handlers.HandleLoad)
		group.DELETE("/graph/:id", handlers.HandleUnload)
		group.GET("/stats", handlers.HandleStats)

		// Slicing
		group.POST("/slice", handlers.HandleSlice)
		group.POST("/neighborhood", handlers.HandleNeighborhood)
		group.POST("/context", handlers.HandleContext)
		group.POST("/seed", handlers.HandleSeed)

		trace := group.Group("/trace")
		{
			trace.POST("/data-flow", handlers.HandleTraceDataFlow)
			trace.POST("/control-flow", handlers.HandleTraceControlFlow)
		}

		// Lookup
		group.GET("/search", handlers.HandleSearch)
		group.GET("/structure", handlers.HandleStructure)
		group.GET("/skeleton", handlers.HandleSkeleton)
		group.GET("/method", handlers.HandleMethod)

		// Health checks
		group.GET("/health", handlers.HandleHealth)
		group.GET("/ready", handlers.HandleReady)
	}
}

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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for CPG operations.
var (
	tracer = otel.Tracer("aleutian.cpg.graph")
	meter  = otel.Meter("aleutian.cpg.graph")
)

// Metrics for load and traversal operations.
var (
	loadLatency  metric.Float64Histogram
	loadTotal    metric.Int64Counter
	nodesLoaded  metric.Int64Histogram
	edgesLoaded  metric.Int64Histogram
	edgesDropped metric.Int64Counter
	sliceLatency metric.Float64Histogram
	sliceNodes   metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		loadLatency, err = meter.Float64Histogram(
			"cpg_load_duration_seconds",
			metric.WithDescription("Duration of CPG record load operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		loadTotal, err = meter.Int64Counter(
			"cpg_load_total",
			metric.WithDescription("Total number of CPG record load operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesLoaded, err = meter.Int64Histogram(
			"cpg_nodes_loaded",
			metric.WithDescription("Number of nodes per loaded CPG"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesLoaded, err = meter.Int64Histogram(
			"cpg_edges_loaded",
			metric.WithDescription("Number of edges kept per loaded CPG"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesDropped, err = meter.Int64Counter(
			"cpg_edges_dropped_total",
			metric.WithDescription("Edges discarded at load time due to unknown endpoints"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		sliceLatency, err = meter.Float64Histogram(
			"cpg_slice_duration_seconds",
			metric.WithDescription("Duration of slice and trace operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		sliceNodes, err = meter.Int64Histogram(
			"cpg_slice_nodes",
			metric.WithDescription("Number of nodes per slice result"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordLoadMetrics records metrics for a load operation.
func recordLoadMetrics(ctx context.Context, duration time.Duration, nodeCount, edgeCount, dropped int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	loadLatency.Record(ctx, duration.Seconds(), attrs)
	loadTotal.Add(ctx, 1, attrs)

	if success {
		nodesLoaded.Record(ctx, int64(nodeCount))
		edgesLoaded.Record(ctx, int64(edgeCount))
		edgesDropped.Add(ctx, int64(dropped))
	}
}

// recordSliceMetrics records metrics for a slice or trace operation.
func recordSliceMetrics(ctx context.Context, op string, duration time.Duration, resultCount int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("cpg.op", op))
	sliceLatency.Record(ctx, duration.Seconds(), attrs)
	sliceNodes.Record(ctx, int64(resultCount), attrs)
}

// startLoadSpan creates a span for a load operation.
func startLoadSpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Graph.LoadRecord")
}

// setLoadSpanResult sets the result attributes on a load span.
func setLoadSpanResult(span trace.Span, nodeCount, edgeCount, dropped int) {
	span.SetAttributes(
		attribute.Int("cpg.node_count", nodeCount),
		attribute.Int("cpg.edge_count", edgeCount),
		attribute.Int("cpg.dropped_edges", dropped),
	)
}

// startSliceSpan creates a span for a slice or trace operation.
func startSliceSpan(ctx context.Context, op string, seed NodeID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Graph."+op,
		trace.WithAttributes(
			attribute.String("cpg.op", op),
			attribute.String("cpg.seed", string(seed)),
		),
	)
}

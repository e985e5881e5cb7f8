// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package render

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("aleutian.cpg.render")
	meter  = otel.Meter("aleutian.cpg.render")
)

var (
	renderTotal metric.Int64Counter
	renderFiles metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		renderTotal, err = meter.Int64Counter(
			"cpg_render_total",
			metric.WithDescription("Total number of slice render operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		renderFiles, err = meter.Int64Histogram(
			"cpg_render_files",
			metric.WithDescription("Number of source files per rendered listing"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordRenderMetrics records metrics for a render operation.
func recordRenderMetrics(ctx context.Context, fileCount int) {
	if err := initMetrics(); err != nil {
		return
	}
	renderTotal.Add(ctx, 1)
	renderFiles.Record(ctx, int64(fileCount))
}

// startRenderSpan creates a span for a render operation.
func startRenderSpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Renderer.Render",
		trace.WithAttributes(attribute.String("cpg.op", "render")),
	)
}

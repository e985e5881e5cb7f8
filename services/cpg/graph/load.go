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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// recordID accepts the front end's node identifiers, which may be JSON
// numbers or strings, and normalizes both to the opaque NodeID form.
type recordID string

// UnmarshalJSON implements json.Unmarshaler.
func (r *recordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("empty node id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = recordID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*r = recordID(num.String())
	return nil
}

// recordNode is the wire form of one node in the input record.
type recordNode struct {
	ID         recordID       `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// recordEdge is the wire form of one edge in the input record.
type recordEdge struct {
	Src   recordID `json:"src"`
	Dst   recordID `json:"dst"`
	Label string   `json:"label"`
}

// record is the wire form of the whole CPG record. Nodes and Edges are
// pointers so a missing key is distinguishable from an empty array.
type record struct {
	Nodes *[]recordNode `json:"nodes"`
	Edges *[]recordEdge `json:"edges"`
}

// LoadRecord builds an immutable Graph from a CPG JSON record.
//
// Description:
//
//	Consumes a record of {nodes: [...], edges: [...]} produced by an
//	external code-analysis front end. Nodes are stored in a dense arena
//	with a side table from external ID to handle; edges are indexed by
//	source (outgoing) and destination (incoming) as kind-tagged adjacency
//	lists. Building is O(V+E).
//
//	Any edge whose src or dst is not a known node ID is discarded — not an
//	error. Real-world records routinely reference nodes outside the current
//	partial extraction. The dropped count is retained on the graph and
//	logged once at the end of the load.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked between decode and index phases.
//	r   - The JSON record stream.
//
// Outputs:
//
//	*Graph - The frozen graph. Safe for concurrent readers.
//	error  - ErrMalformedRecord if the record is not valid JSON or is
//	         missing the nodes/edges keys. There is no partial graph.
//
// Example:
//
//	f, err := os.Open("libpng_cpg.json")
//	if err != nil { ... }
//	defer f.Close()
//	g, err := graph.LoadRecord(ctx, f)
func LoadRecord(ctx context.Context, r io.Reader) (*Graph, error) {
	start := time.Now()
	ctx, span := startLoadSpan(ctx)
	defer span.End()

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rec record
	if err := dec.Decode(&rec); err != nil {
		recordLoadMetrics(ctx, time.Since(start), 0, 0, 0, false)
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if rec.Nodes == nil {
		recordLoadMetrics(ctx, time.Since(start), 0, 0, 0, false)
		return nil, fmt.Errorf("%w: missing nodes array", ErrMalformedRecord)
	}
	if rec.Edges == nil {
		recordLoadMetrics(ctx, time.Since(start), 0, 0, 0, false)
		return nil, fmt.Errorf("%w: missing edges array", ErrMalformedRecord)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCancelled, err)
	}

	g := build(*rec.Nodes, *rec.Edges)

	setLoadSpanResult(span, g.NodeCount(), g.EdgeCount(), g.DroppedEdgeCount())
	recordLoadMetrics(ctx, time.Since(start), g.NodeCount(), g.EdgeCount(), g.DroppedEdgeCount(), true)

	slog.Debug("CPG loaded",
		slog.Int("nodes", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("dropped_edges", g.DroppedEdgeCount()),
		slog.Duration("duration", time.Since(start)))

	return g, nil
}

// LoadFile builds a Graph from a CPG JSON record on disk.
func LoadFile(ctx context.Context, path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CPG record: %w", err)
	}
	defer f.Close()
	return LoadRecord(ctx, f)
}

// build assembles the arena and indexes from decoded wire records.
func build(nodes []recordNode, edges []recordEdge) *Graph {
	g := &Graph{
		nodes:        make([]Node, 0, len(nodes)),
		handles:      make(map[NodeID]int32, len(nodes)),
		byKind:       make(map[NodeKind][]int32),
		byFile:       make(map[string][]int32),
		byAliasClass: make(map[string][]int32),
	}

	for _, rn := range nodes {
		id := NodeID(rn.ID)
		if _, dup := g.handles[id]; dup {
			// Node IDs are unique within one record; keep the first.
			continue
		}
		h := int32(len(g.nodes))
		kind := NodeKind(rn.Label)
		if kind == "" {
			kind = "UNKNOWN"
		}
		g.nodes = append(g.nodes, Node{ID: id, Kind: kind, Properties: rn.Properties})
		g.handles[id] = h
		g.byKind[kind] = append(g.byKind[kind], h)

		n := &g.nodes[h]
		if file := n.Filename(); file != "" {
			g.byFile[file] = append(g.byFile[file], h)
		}
		if class := n.AliasClass(); class != "" {
			g.byAliasClass[class] = append(g.byAliasClass[class], h)
		}
	}

	g.out = make([][]halfEdge, len(g.nodes))
	g.in = make([][]halfEdge, len(g.nodes))

	for _, re := range edges {
		src, okSrc := g.handles[NodeID(re.Src)]
		dst, okDst := g.handles[NodeID(re.Dst)]
		if !okSrc || !okDst {
			g.droppedEdges++
			continue
		}
		kind := EdgeKind(re.Label)
		g.out[src] = append(g.out[src], halfEdge{nbr: dst, kind: kind})
		g.in[dst] = append(g.in[dst], halfEdge{nbr: src, kind: kind})
		g.edgeCount++
	}

	return g
}

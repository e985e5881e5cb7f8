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
	"encoding/json"
	"strconv"
	"strings"
)

// NodeID is the opaque external identifier of a node, unique within one
// loaded graph. The front end may emit numeric or string IDs; both are
// normalized to NodeID at load time.
type NodeID string

// NodeKind is the label of a node (METHOD, CALL, IDENTIFIER, ...).
//
// The set is closed-ish: the constants below cover the kinds the engine
// consumes directly, but unknown kinds pass through untouched.
type NodeKind string

// Node kinds consumed by the engine.
const (
	KindMethod           NodeKind = "METHOD"
	KindCall             NodeKind = "CALL"
	KindIdentifier       NodeKind = "IDENTIFIER"
	KindLiteral          NodeKind = "LITERAL"
	KindBlock            NodeKind = "BLOCK"
	KindControlStructure NodeKind = "CONTROL_STRUCTURE"
	KindTypeDecl         NodeKind = "TYPE_DECL"
	KindLocal            NodeKind = "LOCAL"
	KindMethodParamIn    NodeKind = "METHOD_PARAMETER_IN"
	KindFile             NodeKind = "FILE"
)

// EdgeKind is the label of an edge. Every edge carries exactly one kind.
type EdgeKind string

// Edge kinds consumed by the engine.
const (
	EdgeAST           EdgeKind = "AST"
	EdgeContains      EdgeKind = "CONTAINS"
	EdgeCFG           EdgeKind = "CFG"
	EdgeCDG           EdgeKind = "CDG"
	EdgeReachingDef   EdgeKind = "REACHING_DEF"
	EdgeRef           EdgeKind = "REF"
	EdgeCall          EdgeKind = "CALL"
	EdgeArgument      EdgeKind = "ARGUMENT"
	EdgeParameterLink EdgeKind = "PARAMETER_LINK"
	EdgeAliasOf       EdgeKind = "ALIAS_OF"
	EdgeDominate      EdgeKind = "DOMINATE"
	EdgePointsTo      EdgeKind = "POINTS_TO"
)

// StructuralKinds is the edge family used for method-ownership ascent.
// Ascending any other kind (CFG, REACHING_DEF, ...) would conflate data or
// control dependence with lexical containment and produce wrong owners.
var StructuralKinds = []EdgeKind{EdgeAST, EdgeContains}

// Recognized property keys. All other keys are opaque passthrough.
const (
	PropName         = "NAME"
	PropFullName     = "FULL_NAME"
	PropCode         = "CODE"
	PropFilename     = "FILENAME"
	PropLineNumber   = "LINE_NUMBER"
	PropSignature    = "SIGNATURE"
	PropTypeFullName = "TYPE_FULL_NAME"
	PropAliasClass   = "ALIAS_CLASS"
	PropPointsTo     = "POINTS_TO"
)

// Node is a single CPG node. Nodes live in the graph's arena; pointers
// returned by queries MUST NOT be mutated.
type Node struct {
	// ID is the opaque external identifier.
	ID NodeID `json:"id"`

	// Kind is the node label.
	Kind NodeKind `json:"label"`

	// Properties holds the node's named properties as decoded from JSON.
	// Values are strings or json.Number depending on the input. May be nil.
	Properties map[string]any `json:"properties,omitempty"`
}

// Name returns the NAME property, or "" if absent.
func (n *Node) Name() string {
	return n.stringProp(PropName)
}

// Code returns the CODE property, or "" if absent.
func (n *Node) Code() string {
	return n.stringProp(PropCode)
}

// Filename returns the FILENAME property, or "" if absent.
func (n *Node) Filename() string {
	return n.stringProp(PropFilename)
}

// AliasClass returns the ALIAS_CLASS property, or "" if absent.
func (n *Node) AliasClass() string {
	return n.stringProp(PropAliasClass)
}

// Signature returns the SIGNATURE property, or "()" if absent.
func (n *Node) Signature() string {
	if s := n.stringProp(PropSignature); s != "" {
		return s
	}
	return "()"
}

// LineNumber returns the LINE_NUMBER property as an int.
//
// The front end emits line numbers as JSON numbers or numeric strings;
// both are accepted. Returns (0, false) when the property is absent or
// not numeric.
func (n *Node) LineNumber() (int, bool) {
	v, ok := n.Properties[PropLineNumber]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		return int(t), true
	case int:
		return t, true
	default:
		return 0, false
	}
}

// stringProp returns the named property coerced to a string, or "".
func (n *Node) stringProp(key string) string {
	v, ok := n.Properties[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// Snippet returns the CODE property truncated to max runes, with an
// ellipsis when truncated.
func (n *Node) Snippet(max int) string {
	code := n.Code()
	if max <= 0 || len(code) <= max {
		return code
	}
	return code[:max] + "..."
}

// halfEdge is one directed adjacency entry: the neighbor's arena handle
// plus the kind of the connecting edge. Parallel edges produce parallel
// entries, preserving per-edge-kind information the slice filter depends on.
type halfEdge struct {
	nbr  int32
	kind EdgeKind
}

// Adjacent is one (node, edgeKind) pair returned by Successors and
// Predecessors. The same neighbor appears once per parallel edge.
type Adjacent struct {
	// Node is the neighboring node.
	Node *Node

	// Kind is the kind of the edge connecting to the neighbor.
	Kind EdgeKind
}

// Graph is an immutable, in-memory CPG.
//
// Thread Safety:
//
//	Immutable after LoadRecord returns. Safe for concurrent readers with
//	no locking. There is no mutation API; a changed input record means a
//	new Graph (and a new MethodResolver).
type Graph struct {
	// nodes is the arena. Handles are indexes into this slice.
	nodes []Node

	// handles maps external node ID to arena handle.
	handles map[NodeID]int32

	// out and in are kind-tagged adjacency lists per handle, in load order.
	out [][]halfEdge
	in  [][]halfEdge

	// byKind maps node kind to handles of that kind, in load order.
	byKind map[NodeKind][]int32

	// byFile maps FILENAME property to handles of nodes carrying it.
	byFile map[string][]int32

	// byAliasClass maps ALIAS_CLASS property to handles of nodes carrying it.
	byAliasClass map[string][]int32

	// edgeCount is the number of kept edges.
	edgeCount int

	// droppedEdges counts load-time edges discarded because an endpoint
	// was absent from the node set.
	droppedEdges int
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges kept at load time.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// DroppedEdgeCount returns the number of edges discarded at load time
// because their src or dst referenced an unknown node ID.
func (g *Graph) DroppedEdgeCount() int {
	return g.droppedEdges
}

// Node returns the node with the given ID.
//
// Outputs:
//
//	*Node - Pointer into the arena. MUST NOT be mutated.
//	bool  - False if the ID is not in the graph.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	h, ok := g.handles[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[h], true
}

// handle returns the arena handle for an external ID.
func (g *Graph) handle(id NodeID) (int32, bool) {
	h, ok := g.handles[id]
	return h, ok
}

// nodeAt returns the node at the given arena handle.
func (g *Graph) nodeAt(h int32) *Node {
	return &g.nodes[h]
}

// Successors returns the (node, edgeKind) pairs reachable from id along
// outgoing edges. When kinds are given, only edges of those kinds are
// returned; with no kinds, all outgoing edges are returned.
//
// Parallel edges yield one entry each, so the same neighbor may appear
// multiple times with different (or identical) kinds.
func (g *Graph) Successors(id NodeID, kinds ...EdgeKind) ([]Adjacent, bool) {
	h, ok := g.handles[id]
	if !ok {
		return nil, false
	}
	return g.adjacent(g.out[h], kinds), true
}

// Predecessors returns the (node, edgeKind) pairs reaching id along
// incoming edges, filtered by kinds as in Successors.
func (g *Graph) Predecessors(id NodeID, kinds ...EdgeKind) ([]Adjacent, bool) {
	h, ok := g.handles[id]
	if !ok {
		return nil, false
	}
	return g.adjacent(g.in[h], kinds), true
}

// adjacent materializes a filtered adjacency list.
func (g *Graph) adjacent(edges []halfEdge, kinds []EdgeKind) []Adjacent {
	result := make([]Adjacent, 0, len(edges))
	for _, e := range edges {
		if len(kinds) > 0 && !containsKind(kinds, e.kind) {
			continue
		}
		result = append(result, Adjacent{Node: &g.nodes[e.nbr], Kind: e.kind})
	}
	return result
}

// NodesOfKind returns all nodes with the given kind, in load order.
//
// The returned slice is freshly allocated; the pointed-to nodes are not.
func (g *Graph) NodesOfKind(kind NodeKind) []*Node {
	handles := g.byKind[kind]
	result := make([]*Node, 0, len(handles))
	for _, h := range handles {
		result = append(result, &g.nodes[h])
	}
	return result
}

// AliasClassMembers returns all nodes sharing the given ALIAS_CLASS value.
// Returns nil for an unknown class.
func (g *Graph) AliasClassMembers(class string) []*Node {
	if class == "" {
		return nil
	}
	handles := g.byAliasClass[class]
	result := make([]*Node, 0, len(handles))
	for _, h := range handles {
		result = append(result, &g.nodes[h])
	}
	return result
}

// ForEachNode calls fn for every node in arena order. fn returning false
// stops the iteration early.
func (g *Graph) ForEachNode(fn func(n *Node) bool) {
	for i := range g.nodes {
		if !fn(&g.nodes[i]) {
			return
		}
	}
}

// containsKind reports whether kinds contains k. Kind sets are small
// (the largest preset has five members), so a linear scan beats a map.
func containsKind(kinds []EdgeKind, k EdgeKind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}

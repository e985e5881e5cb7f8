// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package render turns slice results into grouped, line-annotated source
// listings.
//
// Nodes are grouped by (filename, line), where the filename comes from the
// node's owning method. Lines within a file render in ascending order with
// a single gap sentinel between non-adjacent lines. When the original
// source file is readable the literal source text is preferred; otherwise
// the longest CODE property among the nodes on that line stands in.
//
// Source acquisition is fail-soft: a missing or unreadable file is recorded
// as unavailable and rendering continues on graph-carried code. No render
// fails because source text could not be found.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AleutianAI/AleutianCPG/services/cpg/graph"
)

const (
	// DefaultCacheSize bounds the per-renderer source file cache.
	DefaultCacheSize = 256

	// unknownFile groups nodes whose owning method carries no filename.
	unknownFile = "unknown_file"

	// elisionMarker stands in for a run of omitted lines in text output.
	elisionMarker = "  ..."
)

// LineEntry is one rendered line, or a gap sentinel between non-adjacent
// lines when Gap is true (all other fields are zero on a gap entry).
type LineEntry struct {
	Line    int    `json:"line,omitempty"`
	Code    string `json:"code,omitempty"`
	Flagged bool   `json:"flagged,omitempty"`
	Gap     bool   `json:"gap,omitempty"`
}

// FileListing is the rendered lines of a single source file.
type FileListing struct {
	Filename string      `json:"filename"`
	Entries  []LineEntry `json:"entries"`
}

// Listing is a rendered slice: one FileListing per touched file, sorted by
// filename.
type Listing struct {
	SeedLabel string        `json:"seed_label"`
	Files     []FileListing `json:"files"`
}

// Renderer resolves slice nodes to annotated source lines.
//
// Thread Safety: safe for concurrent use. The source cache is a
// thread-safe LRU and the graph and resolver are read-only here.
type Renderer struct {
	g        *graph.Graph
	resolver *graph.MethodResolver
	root     string
	cache    *lru.Cache[string, []string]
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSourceRoot sets the directory source filenames resolve against.
// Filenames that do not exist under the root are tried verbatim.
func WithSourceRoot(root string) Option {
	return func(r *Renderer) { r.root = root }
}

// New creates a Renderer over a graph and its ownership resolver.
func New(g *graph.Graph, resolver *graph.MethodResolver, opts ...Option) (*Renderer, error) {
	if g == nil {
		return nil, fmt.Errorf("render: nil graph")
	}
	if resolver == nil {
		return nil, fmt.Errorf("render: nil resolver")
	}
	cache, err := lru.New[string, []string](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("render: source cache: %w", err)
	}
	r := &Renderer{g: g, resolver: resolver, cache: cache}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// lineGroup accumulates the nodes that landed on one (file, line) pair.
type lineGroup struct {
	bestCode string
	flagged  bool
}

// Render groups a slice result into a per-file listing.
//
// Description:
//
//	Every slice node with a line number contributes to the listing; nodes
//	without one are skipped. A line's flag is the OR of its nodes' flags,
//	so once any node on a line is flagged the line stays flagged. The
//	annotation names seedLabel; pass the slice's own SeedLabel for the
//	usual "may alias <seed>" reading.
//
// Inputs:
//
//	ctx       - Context, spanned for tracing.
//	res       - The slice to render. Must be non-nil.
//	seedLabel - Label for flag annotations; "" falls back to res.SeedLabel.
//
// Outputs:
//
//	*Listing - Grouped listing, files sorted by name. Never nil on success.
//	error    - Only for a nil slice result.
func (r *Renderer) Render(ctx context.Context, res *graph.SliceResult, seedLabel string) (*Listing, error) {
	ctx, span := startRenderSpan(ctx)
	defer span.End()

	if res == nil {
		return nil, fmt.Errorf("render: nil slice result")
	}
	if seedLabel == "" {
		seedLabel = res.SeedLabel
	}

	groups := make(map[string]map[int]*lineGroup)
	for id, flagged := range res.Nodes {
		n, ok := r.g.Node(id)
		if !ok {
			continue
		}
		line, ok := n.LineNumber()
		if !ok {
			continue
		}

		filename := r.ownerFilename(id)
		if filename == "" {
			filename = unknownFile
		}

		byLine, ok := groups[filename]
		if !ok {
			byLine = make(map[int]*lineGroup)
			groups[filename] = byLine
		}
		grp, ok := byLine[line]
		if !ok {
			grp = &lineGroup{}
			byLine[line] = grp
		}
		grp.flagged = grp.flagged || flagged
		if code := n.Code(); len(code) > len(grp.bestCode) {
			grp.bestCode = code
		}
	}

	listing := &Listing{SeedLabel: seedLabel, Files: make([]FileListing, 0, len(groups))}

	filenames := make([]string, 0, len(groups))
	for f := range groups {
		filenames = append(filenames, f)
	}
	sort.Strings(filenames)

	for _, filename := range filenames {
		byLine := groups[filename]
		lines := make([]int, 0, len(byLine))
		for line := range byLine {
			lines = append(lines, line)
		}
		sort.Ints(lines)

		fl := FileListing{Filename: filename, Entries: make([]LineEntry, 0, len(lines))}
		prev := lines[0]
		for _, line := range lines {
			if line > prev+1 {
				fl.Entries = append(fl.Entries, LineEntry{Gap: true})
			}
			grp := byLine[line]
			code, ok := r.sourceLine(filename, line)
			if !ok {
				code = grp.bestCode
			}
			fl.Entries = append(fl.Entries, LineEntry{Line: line, Code: code, Flagged: grp.flagged})
			prev = line
		}
		listing.Files = append(listing.Files, fl)
	}

	recordRenderMetrics(ctx, len(listing.Files))
	return listing, nil
}

// ownerFilename resolves a node's filename through its owning method,
// falling back to the node's own FILENAME property.
func (r *Renderer) ownerFilename(id graph.NodeID) string {
	if ownerID, ok := r.resolver.OwnerOf(id); ok {
		if owner, ok := r.g.Node(ownerID); ok {
			if f := owner.Filename(); f != "" {
				return f
			}
		}
	}
	if n, ok := r.g.Node(id); ok {
		return n.Filename()
	}
	return ""
}

// sourceLine returns the literal source text for a 1-based line, loading
// and caching the file's lines on first touch. A file that cannot be read
// caches as unavailable so it is stat'd only once.
func (r *Renderer) sourceLine(filename string, line int) (string, bool) {
	if filename == "" || filename == unknownFile {
		return "", false
	}

	lines, ok := r.cache.Get(filename)
	if !ok {
		lines = r.loadSource(filename)
		r.cache.Add(filename, lines)
	}
	if lines == nil || line < 1 || line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], " \t\r"), true
}

// loadSource reads a source file's lines, trying the configured root first
// and the filename verbatim second. Returns nil when unavailable.
func (r *Renderer) loadSource(filename string) []string {
	candidate := filename
	if r.root != "" {
		rooted := filepath.Join(r.root, filename)
		if _, err := os.Stat(rooted); err == nil {
			candidate = rooted
		}
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		slog.Debug("source unavailable, falling back to graph code",
			"file", filename, "error", err)
		return nil
	}
	return strings.Split(string(data), "\n")
}

// Text renders the listing in the classic report format: a header per
// file, then "%4d | code" lines with a "  ..." marker for elided runs and
// a "// may alias <seed>" annotation on flagged lines.
func (l *Listing) Text() string {
	var b strings.Builder
	for i, fl := range l.Files {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "File: `%s`\n", fl.Filename)
		b.WriteString("```c\n")
		for _, e := range fl.Entries {
			if e.Gap {
				b.WriteString(elisionMarker)
				b.WriteByte('\n')
				continue
			}
			fmt.Fprintf(&b, "%4d | %s", e.Line, e.Code)
			if e.Flagged {
				fmt.Fprintf(&b, " // may alias %s", l.SeedLabel)
			}
			b.WriteByte('\n')
		}
		b.WriteString("```")
	}
	return b.String()
}

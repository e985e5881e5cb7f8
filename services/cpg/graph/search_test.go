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
	"errors"
	"strings"
	"testing"
)

const libraryRecord = `{
	"nodes": [
		{"id": "m1", "label": "METHOD", "properties": {"NAME": "png_read_row", "FILENAME": "pngread.c", "SIGNATURE": "(png_structrp, png_bytep, png_bytep)", "CODE": "void png_read_row(...) { ... }"}},
		{"id": "m2", "label": "METHOD", "properties": {"NAME": "png_write_row", "FILENAME": "pngwrite.c", "SIGNATURE": "(png_structrp, png_const_bytep)", "CODE": "void png_write_row(...) { ... }"}},
		{"id": "t1", "label": "TYPE_DECL", "properties": {"NAME": "png_struct", "FILENAME": "pngread.c"}},
		{"id": "c1", "label": "CALL", "properties": {"NAME": "memcpy", "CODE": "memcpy(row, prev_row, rowbytes)", "FILENAME": "pngread.c"}},
		{"id": "i1", "label": "IDENTIFIER", "properties": {"NAME": "rowbytes", "FILENAME": "pngread.c"}}
	],
	"edges": []
}`

func TestSearch(t *testing.T) {
	g := mustLoad(t, libraryRecord)
	ctx := context.Background()

	t.Run("matches NAME case-insensitively", func(t *testing.T) {
		results := g.Search(ctx, "PNG_READ", 0)
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].ID != "m1" || results[0].Name != "png_read_row" {
			t.Errorf("unexpected result %+v", results[0])
		}
	})

	t.Run("matches CODE as well as NAME", func(t *testing.T) {
		results := g.Search(ctx, "prev_row", 0)
		if len(results) != 1 || results[0].ID != "c1" {
			t.Fatalf("expected the memcpy call, got %+v", results)
		}
	})

	t.Run("respects the limit", func(t *testing.T) {
		// "row" appears in four nodes' NAME or CODE.
		results := g.Search(ctx, "row", 2)
		if len(results) != 2 {
			t.Errorf("expected 2 results at limit 2, got %d", len(results))
		}
	})

	t.Run("empty query matches nothing", func(t *testing.T) {
		if results := g.Search(ctx, "", 0); len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	})

	t.Run("no match is an empty slice, not nil", func(t *testing.T) {
		results := g.Search(ctx, "zlib_inflate", 0)
		if results == nil || len(results) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", results)
		}
	})

	t.Run("snippets are truncated", func(t *testing.T) {
		long := strings.Repeat("x", 200)
		record := `{
			"nodes": [{"id": "n", "label": "CALL", "properties": {"NAME": "big", "CODE": "` + long + `"}}],
			"edges": []
		}`
		g := mustLoad(t, record)
		results := g.Search(ctx, "big", 0)
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if len(results[0].Code) > searchSnippetLen+3 {
			t.Errorf("snippet too long: %d chars", len(results[0].Code))
		}
	})
}

func TestMethodByName(t *testing.T) {
	g := mustLoad(t, libraryRecord)

	t.Run("found", func(t *testing.T) {
		src, err := g.MethodByName("png_write_row")
		if err != nil {
			t.Fatalf("MethodByName failed: %v", err)
		}
		if src.ID != "m2" || src.Filename != "pngwrite.c" {
			t.Errorf("unexpected source %+v", src)
		}
		if !strings.Contains(src.Code, "png_write_row") {
			t.Errorf("expected full code body, got %q", src.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := g.MethodByName("png_destroy")
		if !errors.Is(err, ErrNodeNotFound) {
			t.Errorf("expected ErrNodeNotFound, got %v", err)
		}
	})
}

func TestFileStructure(t *testing.T) {
	g := mustLoad(t, libraryRecord)

	entries := g.FileStructure("pngread")
	if len(entries) != 2 {
		t.Fatalf("expected 2 declarations in pngread.c, got %d", len(entries))
	}
	// Only METHOD and TYPE_DECL qualify; the CALL and IDENTIFIER in the
	// same file are excluded.
	kinds := map[NodeKind]bool{}
	for _, e := range entries {
		kinds[e.Kind] = true
	}
	if !kinds[KindMethod] || !kinds[KindTypeDecl] {
		t.Errorf("expected one METHOD and one TYPE_DECL, got %+v", entries)
	}

	if got := g.FileStructure("nosuchfile"); len(got) != 0 {
		t.Errorf("expected no entries for unmatched pattern, got %d", len(got))
	}
}

func TestFileSkeleton(t *testing.T) {
	g := mustLoad(t, libraryRecord)

	t.Run("renders functions and types", func(t *testing.T) {
		skel, err := g.FileSkeleton("pngread")
		if err != nil {
			t.Fatalf("FileSkeleton failed: %v", err)
		}
		if !strings.Contains(skel, "Function: png_read_row(png_structrp, png_bytep, png_bytep)") {
			t.Errorf("missing function line in:\n%s", skel)
		}
		if !strings.Contains(skel, "Type: png_struct") {
			t.Errorf("missing type line in:\n%s", skel)
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := g.FileSkeleton("zlib.c")
		if !errors.Is(err, ErrNodeNotFound) {
			t.Errorf("expected ErrNodeNotFound, got %v", err)
		}
	})

	t.Run("deterministic across files", func(t *testing.T) {
		first, err := g.FileSkeleton("png")
		if err != nil {
			t.Fatalf("FileSkeleton failed: %v", err)
		}
		for i := 0; i < 5; i++ {
			again, _ := g.FileSkeleton("png")
			if again != first {
				t.Fatalf("skeleton changed on run %d", i)
			}
		}
	})
}

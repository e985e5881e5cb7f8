// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8092 {
		t.Errorf("expected default port 8092, got %d", cfg.Server.Port)
	}
	if cfg.Graph.MaxCachedGraphs != 4 {
		t.Errorf("expected 4 cached graphs, got %d", cfg.Graph.MaxCachedGraphs)
	}
	if cfg.Addr() != "0.0.0.0:8092" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpg.yaml")
	doc := `
server:
  port: 9000
  read_timeout: 5s
graph:
  max_cached_graphs: 2
  source_root: /src/libpng
  precompute_ownership: true
telemetry:
  trace_exporter: none
  metric_exporter: none
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected 5s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	// Unset file fields keep their defaults.
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Graph.SourceRoot != "/src/libpng" || !cfg.Graph.PrecomputeOwnership {
		t.Errorf("unexpected graph config %+v", cfg.Graph)
	}
	if cfg.Telemetry.TraceExporter != "none" {
		t.Errorf("expected trace exporter none, got %q", cfg.Telemetry.TraceExporter)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CPG_PORT", "7777")
	t.Setenv("CPG_SOURCE_ROOT", "/tmp/src")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("expected env port 7777, got %d", cfg.Server.Port)
	}
	if cfg.Graph.SourceRoot != "/tmp/src" {
		t.Errorf("expected env source root, got %q", cfg.Graph.SourceRoot)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load("/nonexistent/cpg.yaml"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("server: ["), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "port.yaml")
		if err := os.WriteFile(path, []byte("server:\n  port: 99999\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got %v", err)
		}
	})
}

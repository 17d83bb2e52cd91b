package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/archframe/pkg/kernel/sdfx"
)

// newTestApp returns an App with a coarse mesher to keep tests fast.
func newTestApp() *App {
	return NewApp(sdfx.WithCells(80))
}

// evaluateFile runs the full pipeline on an example script and fails the
// test on errors.
func evaluateFile(t *testing.T, app *App, name string) EvalResult {
	t.Helper()
	source, err := os.ReadFile(filepath.Join("examples", name))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	return result
}

// TestE2EPortalExample exercises the full pipeline: script → engine →
// document → frames → meshes.
func TestE2EPortalExample(t *testing.T) {
	app := newTestApp()
	result := evaluateFile(t, app, "portal.frame")

	if len(result.Warnings) > 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	expectedParts := map[string]bool{
		"posts":      false,
		"lintel":     false,
		"posts-back": false,
	}
	if len(result.Meshes) != len(expectedParts) {
		t.Fatalf("expected %d meshes, got %d", len(expectedParts), len(result.Meshes))
	}

	for _, m := range result.Meshes {
		if _, ok := expectedParts[m.PartName]; !ok {
			t.Errorf("unexpected part name: %q", m.PartName)
			continue
		}
		expectedParts[m.PartName] = true

		// Each mesh must have non-empty geometry.
		if len(m.Vertices) == 0 {
			t.Errorf("part %q: no vertices", m.PartName)
		}
		if len(m.Normals) == 0 {
			t.Errorf("part %q: no normals", m.PartName)
		}
		if len(m.Indices) == 0 {
			t.Errorf("part %q: no indices", m.PartName)
		}

		// Must have a color assigned.
		if m.Color == "" {
			t.Errorf("part %q: no color assigned", m.PartName)
		}
	}

	for name, found := range expectedParts {
		if !found {
			t.Errorf("missing mesh for part %q", name)
		}
	}

	model := app.Model()
	if n := len(model.Frame("posts").Shape().Solids()); n != 2 {
		t.Errorf("posts: expected 2 solids, got %d", n)
	}
	if n := len(model.Frame("lintel").Shape().Solids()); n != 1 {
		t.Errorf("lintel: expected 1 solid, got %d", n)
	}
}

// TestE2ERailingExample checks the fused frames with a holed profile.
func TestE2ERailingExample(t *testing.T) {
	app := newTestApp()
	result := evaluateFile(t, app, "railing.frame")

	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
	for _, name := range []string{"handrail", "bottom-rail"} {
		shape := app.Model().Frame(name).Shape()
		if n := len(shape.Solids()); n != 1 {
			t.Errorf("%s: fused frame should be one solid, got %d", name, n)
		}
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate(`(frame "test"`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESolidPath ensures a frame whose path is a solid renders a copy of it.
func TestE2ESolidPath(t *testing.T) {
	app := newTestApp()
	source := `(frame "slab" :path (source "block" (box 600 300 18)))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Fatalf("eval errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartName != "slab" {
		t.Errorf("expected part name 'slab', got %q", result.Meshes[0].PartName)
	}
}

func TestExportSTLAndPreview(t *testing.T) {
	app := newTestApp()
	evaluateFile(t, app, "portal.frame")

	dir := t.TempDir()
	paths, err := app.ExportSTL(filepath.Join(dir, "stl"))
	if err != nil {
		t.Fatalf("ExportSTL failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 STL files, got %v", paths)
	}
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil || fi.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}
	if !strings.HasSuffix(paths[0], "posts.stl") {
		t.Errorf("first file = %s, want posts.stl", paths[0])
	}

	png := filepath.Join(dir, "portal.png")
	if err := app.Preview(png); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if _, err := os.Stat(png); err != nil {
		t.Errorf("preview not written: %v", err)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"posts":       "posts",
		"bottom-rail": "bottom-rail",
		"a/b c":       "a_b_c",
	}
	for in, want := range tests {
		if got := fileName(in); got != want {
			t.Errorf("fileName(%q) = %q, want %q", in, got, want)
		}
	}
}

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/archframe/pkg/engine"
	"github.com/chazu/archframe/pkg/frame"
	"github.com/chazu/archframe/pkg/kernel"
	"github.com/chazu/archframe/pkg/kernel/brep"
	"github.com/chazu/archframe/pkg/kernel/sdfx"
	"github.com/chazu/archframe/pkg/preview"
	"github.com/chazu/archframe/pkg/tessellate"
)

// App runs the pipeline from script source to meshes, STL files and
// previews. It keeps the model of the last successful evaluation.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	mesher *sdfx.Mesher
	model  *tessellate.Model
}

// MeshData is the JSON-serializable mesh format of one frame.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App with an engine, the brep kernel and the sdfx
// mesher configured by opts.
func NewApp(opts ...sdfx.Option) *App {
	k := brep.New()
	return &App{
		engine: engine.NewEngine(engine.WithKernel(k)),
		kernel: k,
		mesher: sdfx.New(opts...),
	}
}

// Evaluate takes script source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a validated document.
	res, err := a.engine.Run(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}

	// Step 2: Convert eval and validation errors.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Recompute the frames. Aborted frames are reported as warnings.
	warn := frame.WarnFunc(func(msg string) {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: msg})
	})
	model, err := tessellate.Recompute(res.Graph, a.kernel, warn)
	if err != nil {
		log.Printf("Recompute error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, f := range model.Failures {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: f.Error()})
	}

	// Step 4: Tessellate the committed frame shapes into triangle meshes.
	meshes, err := tessellate.Tessellate(model, a.mesher)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	a.model = model

	// Step 5: Convert kernel meshes to the MeshData format.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    preview.ColorFor(i),
		})
	}

	return result
}

// Model returns the model of the last successful evaluation, or nil.
func (a *App) Model() *tessellate.Model {
	return a.model
}

// solidFrames returns the frames of the last model with committed solids,
// in mesh order.
func (a *App) solidFrames() []*frame.Frame {
	if a.model == nil {
		return nil
	}
	var out []*frame.Frame
	for _, f := range a.model.Frames {
		if s := f.Shape(); s != nil && len(s.Solids()) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// fileName turns a frame name into a safe file name.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
}

// ExportSTL writes one STL file per frame of the last evaluation into dir
// and returns the written paths.
func (a *App) ExportSTL(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, f := range a.solidFrames() {
		path := filepath.Join(dir, fileName(f.Name)+".stl")
		if err := a.mesher.SaveSTL(path, f.Shape()); err != nil {
			return paths, fmt.Errorf("frame %q: %w", f.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Preview renders the frames of the last evaluation to a PNG file, using the
// same colors as the meshes.
func (a *App) Preview(path string, opts ...preview.Option) error {
	var parts []preview.Part
	for i, f := range a.solidFrames() {
		parts = append(parts, preview.Part{Name: f.Name, Shape: f.Shape(), Color: preview.ColorFor(i)})
	}
	return preview.SavePNG(path, parts, opts...)
}

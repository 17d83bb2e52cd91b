// Package preview renders orthographic line drawings of frame shapes to
// PNG images. Each part is drawn with its solid caps filled translucently
// and all edges stroked in the part color.
package preview

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strings"

	"github.com/chazu/archframe/pkg/kernel"
	"github.com/gogpu/gg"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'preview'
func tracer() tracing.Trace {
	return tracing.Select("preview")
}

// ErrNothingToDraw is returned when no part has any edges.
var ErrNothingToDraw = errors.New("preview: nothing to draw")

// Palette is the default palette used to assign distinct colors to parts.
var Palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// ColorFor returns the palette color of the i-th part.
func ColorFor(i int) string {
	return Palette[i%len(Palette)]
}

// arcStep bounds the angle between sample points on arcs.
const arcStep = math.Pi / 24

// View selects the projection plane.
type View int

const (
	Plan  View = iota // looking down -Z
	Front             // looking along +Y
	Side              // looking along -X
)

var viewNames = [...]string{"plan", "front", "side"}

func (v View) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return viewNames[v]
}

// ParseView converts a view name to a View.
func ParseView(s string) (View, error) {
	for i, name := range viewNames {
		if strings.EqualFold(s, name) {
			return View(i), nil
		}
	}
	return Plan, fmt.Errorf("preview: unknown view %q", s)
}

// project maps a world point to drawing coordinates, y up.
func (v View) project(p r3.Vec) (float64, float64) {
	switch v {
	case Front:
		return p.X, p.Z
	case Side:
		return p.Y, p.Z
	default:
		return p.X, p.Y
	}
}

// Part is a named shape to draw.
type Part struct {
	Name  string
	Shape kernel.Shape
	Color string // hex; empty picks from Palette
}

type options struct {
	width, height int
	margin        float64
	view          View
	lineWidth     float64
	background    gg.RGBA
}

// Option configures rendering.
type Option func(*options)

// WithSize sets the image size in pixels.
func WithSize(w, h int) Option {
	return func(o *options) {
		o.width, o.height = w, h
	}
}

// WithMargin sets the blank border in pixels.
func WithMargin(m float64) Option {
	return func(o *options) {
		o.margin = m
	}
}

// WithView sets the projection.
func WithView(v View) Option {
	return func(o *options) {
		o.view = v
	}
}

// WithLineWidth sets the edge stroke width in pixels.
func WithLineWidth(w float64) Option {
	return func(o *options) {
		o.lineWidth = w
	}
}

func newOptions(opts []Option) options {
	o := options{width: 800, height: 600, margin: 20, lineWidth: 1.5, background: gg.White}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// viewport maps drawing coordinates to pixels, keeping the aspect ratio and
// centering the drawing.
type viewport struct {
	scale      float64
	minX, minY float64
	offX, offY float64
	height     float64
}

func fit(min, max [2]float64, o options) viewport {
	dx, dy := max[0]-min[0], max[1]-min[1]
	availW := float64(o.width) - 2*o.margin
	availH := float64(o.height) - 2*o.margin
	scale := 1.0
	switch {
	case dx > 0 && dy > 0:
		scale = math.Min(availW/dx, availH/dy)
	case dx > 0:
		scale = availW / dx
	case dy > 0:
		scale = availH / dy
	}
	return viewport{
		scale:  scale,
		minX:   min[0],
		minY:   min[1],
		offX:   o.margin + (availW-dx*scale)/2,
		offY:   o.margin + (availH-dy*scale)/2,
		height: float64(o.height),
	}
}

func (vp viewport) pixel(x, y float64) (float64, float64) {
	return vp.offX + (x-vp.minX)*vp.scale, vp.height - (vp.offY + (y-vp.minY)*vp.scale)
}

// bounds returns the projected extent of all part edges.
func bounds(parts []Part, v View) (min, max [2]float64, ok bool) {
	min = [2]float64{math.Inf(1), math.Inf(1)}
	max = [2]float64{math.Inf(-1), math.Inf(-1)}
	for _, p := range parts {
		if kernel.IsEmpty(p.Shape) {
			continue
		}
		for _, e := range p.Shape.Edges() {
			for _, q := range e.Points(arcStep) {
				x, y := v.project(q)
				min[0], min[1] = math.Min(min[0], x), math.Min(min[1], y)
				max[0], max[1] = math.Max(max[0], x), math.Max(max[1], y)
				ok = true
			}
		}
	}
	return min, max, ok
}

// Render draws parts into a new image.
func Render(parts []Part, opts ...Option) (image.Image, error) {
	dc, err := draw(parts, newOptions(opts))
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// Encode renders parts and writes them to w as PNG.
func Encode(w io.Writer, parts []Part, opts ...Option) error {
	dc, err := draw(parts, newOptions(opts))
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

// SavePNG renders parts to a PNG file.
func SavePNG(path string, parts []Part, opts ...Option) error {
	dc, err := draw(parts, newOptions(opts))
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

func draw(parts []Part, o options) (*gg.Context, error) {
	min, max, ok := bounds(parts, o.view)
	if !ok {
		return nil, ErrNothingToDraw
	}
	vp := fit(min, max, o)
	tracer().Debugf("%s view of %d parts, scale %.3f px/unit", o.view, len(parts), vp.scale)

	dc := gg.NewContext(o.width, o.height)
	dc.ClearWithColor(o.background)
	dc.SetLineWidth(o.lineWidth)
	for i, p := range parts {
		if kernel.IsEmpty(p.Shape) {
			continue
		}
		col := p.Color
		if col == "" {
			col = ColorFor(i)
		}
		c := gg.Hex(col)
		dc.SetRGBA(c.R, c.G, c.B, 0.35)
		for _, f := range p.Shape.Faces() {
			tracePolygon(dc, vp, o.view, f.Outer().Points(arcStep))
			if err := dc.Fill(); err != nil {
				dc.Close()
				return nil, fmt.Errorf("preview: part %q: %w", p.Name, err)
			}
		}
		dc.SetRGBA(c.R, c.G, c.B, 1)
		for _, e := range p.Shape.Edges() {
			tracePolyline(dc, vp, o.view, e.Points(arcStep))
		}
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("preview: part %q: %w", p.Name, err)
		}
	}
	return dc, nil
}

func tracePolyline(dc *gg.Context, vp viewport, v View, pts []r3.Vec) {
	for i, q := range pts {
		x, y := vp.pixel(v.project(q))
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
}

func tracePolygon(dc *gg.Context, vp viewport, v View, pts []r3.Vec) {
	if len(pts) < 3 {
		return
	}
	tracePolyline(dc, vp, v, pts)
	dc.ClosePath()
}

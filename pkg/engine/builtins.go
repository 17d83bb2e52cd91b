package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/archframe/pkg/frame"
	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/graph"
	"github.com/chazu/archframe/pkg/kernel"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms frame script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: base-point -> base_point
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpShape wraps a kernel shape built by one of the geometry builtins.
type sexpShape struct {
	shape kernel.Shape
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %d edges)", s.shape.Type(), len(s.shape.Edges()))
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpPlacement wraps a geom.Placement.
type sexpPlacement struct {
	pl geom.Placement
}

func (p *sexpPlacement) SexpString(ps *zygo.PrintState) string {
	return "(placement " + p.pl.String() + ")"
}
func (p *sexpPlacement) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value, treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// unknownKeyword returns an error for the first keyword of pa not in allowed.
func (pa kwArgs) unknownKeyword(fn string, allowed ...string) error {
	keys := lo.Keys(pa.kw)
	bad := lo.Without(keys, allowed...)
	if len(bad) == 0 {
		return nil
	}
	return fmt.Errorf("%s: unknown keyword :%s", fn, lo.Min(bad))
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean. A bare trailing keyword counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_vertical) and plain strings
// ("vertical").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toEdgeFilter converts a keyword or label to a frame.EdgeFilter.
func toEdgeFilter(s zygo.Sexp) (frame.EdgeFilter, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return frame.AllEdges, fmt.Errorf("expected edge filter keyword: %w", err)
	}
	return frame.ParseEdgeFilter(name)
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return graph.NodeID{}, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toPlacement extracts a placement from a sexpPlacement. A plain vec3 is
// accepted as a pure translation.
func toPlacement(s zygo.Sexp) (geom.Placement, error) {
	switch v := s.(type) {
	case *sexpPlacement:
		return v.pl, nil
	case *sexpVec3:
		return geom.Translation(v.vec), nil
	}
	return geom.Identity(), fmt.Errorf("expected placement, got %T (%s)", s, s.SexpString(nil))
}

// toShape extracts a kernel shape from a sexpShape.
func toShape(s zygo.Sexp) (kernel.Shape, error) {
	if v, ok := s.(*sexpShape); ok {
		return v.shape, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// toWire extracts a wire from a sexpShape.
func toWire(s zygo.Sexp) (*kernel.Wire, error) {
	sh, err := toShape(s)
	if err != nil {
		return nil, err
	}
	w, ok := sh.(*kernel.Wire)
	if !ok {
		return nil, fmt.Errorf("expected wire, got %s", sh.Type())
	}
	return w, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toPoints reads vec3 arguments, expanding lists and arrays in place.
func toPoints(args []zygo.Sexp) ([]r3.Vec, error) {
	var pts []r3.Vec
	for i, a := range args {
		if items, err := sexpListToSlice(a); err == nil {
			sub, err := toPoints(items)
			if err != nil {
				return nil, err
			}
			pts = append(pts, sub...)
			continue
		}
		v, err := toVec3(a)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		pts = append(pts, v)
	}
	return pts, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builtin is the signature zygomys expects for Go functions.
type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all frame script builtins into a zygomys
// environment. Node builtins populate the provided Document during
// evaluation; geometry builtins return shape values. The kernel is used to
// build faces with holes.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.Document, k kernel.Kernel) {
	for name, fn := range map[string]builtin{
		"vec3":      vec3Builtin,
		"placement": placementBuiltin,
		"line":      lineBuiltin,
		"arc":       arcBuiltin,
		"wire":      wireBuiltin,
		"polyline":  polylineBuiltin,
		"rect":      rectBuiltin,
		"circle":    circleBuiltin,
		"box":       boxBuiltin,
		"compound":  compoundBuiltin,
		"face":      faceBuiltin(k),
		"source":    sourceBuiltin(g),
		"part":      partBuiltin(g),
		"frame":     frameBuiltin(g),
	} {
		env.AddFunction(name, fn)
	}
}

// ---------------------------------------------------------------------------
// (vec3 1 2 3)
// ---------------------------------------------------------------------------
func vec3Builtin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var c [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
		}
		c[i] = f
	}
	return &sexpVec3{vec: r3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// ---------------------------------------------------------------------------
// (placement :at (vec3 0 0 10) :axis (vec3 0 0 1) :angle 90)
// ---------------------------------------------------------------------------
func placementBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknownKeyword("placement", "at", "axis", "angle"); err != nil {
		return zygo.SexpNull, err
	}
	base, axis, angle := r3.Vec{}, r3.Vec{Z: 1}, 0.0
	if v, ok := pa.kw["at"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("placement: at: %w", err)
		}
		base = vec
	}
	if v, ok := pa.kw["axis"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("placement: axis: %w", err)
		}
		if geom.IsNull(vec) {
			return zygo.SexpNull, fmt.Errorf("placement: axis must not be null")
		}
		axis = vec
	}
	if v, ok := pa.kw["angle"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("placement: angle: %w", err)
		}
		angle = f
	}
	return &sexpPlacement{pl: geom.NewPlacement(base, axis, angle)}, nil
}

// ---------------------------------------------------------------------------
// (line (vec3 0 0 0) (vec3 100 0 0))
// ---------------------------------------------------------------------------
func lineBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("line requires 2 points, got %d", len(args))
	}
	pts, err := toPoints(args)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("line: %w", err)
	}
	if geom.Coincident(pts[0], pts[1]) {
		return zygo.SexpNull, fmt.Errorf("line: end points coincide")
	}
	w, err := kernel.NewWire(kernel.NewLine(pts[0], pts[1]))
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("line: %w", err)
	}
	return &sexpShape{shape: w}, nil
}

// ---------------------------------------------------------------------------
// (arc :center (vec3 0 0 0) :start (vec3 10 0 0) :angle 90 :axis (vec3 0 0 1))
// ---------------------------------------------------------------------------
func arcBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknownKeyword("arc", "center", "start", "angle", "axis"); err != nil {
		return zygo.SexpNull, err
	}
	center, axis := r3.Vec{}, r3.Vec{Z: 1}
	var start r3.Vec
	for kw, dst := range map[string]*r3.Vec{"center": &center, "axis": &axis, "start": &start} {
		if v, ok := pa.kw[kw]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("arc: %s: %w", kw, err)
			}
			*dst = vec
		}
	}
	v, ok := pa.kw["angle"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("arc requires :angle")
	}
	angle, err := toFloat64(v)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("arc: angle: %w", err)
	}
	if angle == 0 || geom.Coincident(center, start) || geom.IsNull(axis) {
		return zygo.SexpNull, fmt.Errorf("arc: degenerate arc")
	}
	w, err := kernel.NewWire(kernel.NewArc(center, axis, start, geom.Radians(angle)))
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("arc: %w", err)
	}
	return &sexpShape{shape: w}, nil
}

// ---------------------------------------------------------------------------
// (wire (line a b) (arc ...) ...)
// ---------------------------------------------------------------------------
func wireBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) == 0 {
		return zygo.SexpNull, fmt.Errorf("wire requires at least one segment")
	}
	var edges []*kernel.Edge
	for i, a := range args {
		sh, err := toShape(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wire: segment %d: %w", i, err)
		}
		edges = append(edges, sh.Edges()...)
	}
	w, err := kernel.NewWire(edges...)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("wire: %w", err)
	}
	return &sexpShape{shape: w}, nil
}

// ---------------------------------------------------------------------------
// (polyline (vec3 0 0 0) (vec3 10 0 0) (vec3 10 10 0) :closed true)
// ---------------------------------------------------------------------------
func polylineBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknownKeyword("polyline", "closed"); err != nil {
		return zygo.SexpNull, err
	}
	closed := false
	if v, ok := pa.kw["closed"]; ok {
		b, err := toBool(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polyline: closed: %w", err)
		}
		closed = b
	}
	pts, err := toPoints(pa.positional)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("polyline: %w", err)
	}
	w, err := kernel.NewPolyline(closed, pts...)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("polyline: %w", err)
	}
	return &sexpShape{shape: w}, nil
}

// ---------------------------------------------------------------------------
// (rect 100 50)
// ---------------------------------------------------------------------------
func rectBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("rect requires width and height, got %d arguments", len(args))
	}
	w, err := toFloat64(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rect: width: %w", err)
	}
	h, err := toFloat64(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rect: height: %w", err)
	}
	if w <= 0 || h <= 0 {
		return zygo.SexpNull, fmt.Errorf("rect: dimensions must be positive, got %gx%g", w, h)
	}
	return &sexpShape{shape: kernel.NewRectangle(w, h)}, nil
}

// ---------------------------------------------------------------------------
// (circle 10 :center (vec3 0 0 0) :normal (vec3 0 0 1))
// ---------------------------------------------------------------------------
func circleBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if err := pa.unknownKeyword("circle", "center", "normal"); err != nil {
		return zygo.SexpNull, err
	}
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("circle requires a radius")
	}
	r, err := toFloat64(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("circle: radius: %w", err)
	}
	if r <= 0 {
		return zygo.SexpNull, fmt.Errorf("circle: radius must be positive, got %g", r)
	}
	center, normal := r3.Vec{}, r3.Vec{Z: 1}
	if v, ok := pa.kw["center"]; ok {
		if center, err = toVec3(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: center: %w", err)
		}
	}
	if v, ok := pa.kw["normal"]; ok {
		if normal, err = toVec3(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: normal: %w", err)
		}
		if geom.IsNull(normal) {
			return zygo.SexpNull, fmt.Errorf("circle: normal must not be null")
		}
	}
	return &sexpShape{shape: kernel.NewCircle(center, normal, r)}, nil
}

// ---------------------------------------------------------------------------
// (box 100 50 20)
// ---------------------------------------------------------------------------
func boxBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("box requires 3 dimensions, got %d", len(args))
	}
	var d [3]float64
	for i := range d {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: dimension %d: %w", i, err)
		}
		if f <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: dimensions must be positive, got %g", f)
		}
		d[i] = f
	}
	return &sexpShape{shape: kernel.NewBox(d[0], d[1], d[2])}, nil
}

// ---------------------------------------------------------------------------
// (compound shape shape ...)
// ---------------------------------------------------------------------------
func compoundBuiltin(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	shapes := make([]kernel.Shape, 0, len(args))
	for i, a := range args {
		sh, err := toShape(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("compound: child %d: %w", i, err)
		}
		shapes = append(shapes, sh.Copy())
	}
	return &sexpShape{shape: kernel.NewCompound(shapes...)}, nil
}

// ---------------------------------------------------------------------------
// (face outer hole hole ...)
// ---------------------------------------------------------------------------
func faceBuiltin(k kernel.Kernel) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return zygo.SexpNull, fmt.Errorf("face requires an outer wire")
		}
		outer, err := toWire(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: outer: %w", err)
		}
		f, err := k.MakeFace(outer)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		if len(args) == 1 {
			return &sexpShape{shape: f}, nil
		}
		holes := make([]*kernel.Wire, 0, len(args)-1)
		for i, a := range args[1:] {
			h, err := toWire(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: hole %d: %w", i, err)
			}
			if !h.IsClosed() {
				return zygo.SexpNull, fmt.Errorf("face: hole %d: %w", i, kernel.ErrOpenWire)
			}
			holes = append(holes, h.Copy().(*kernel.Wire))
		}
		return &sexpShape{shape: kernel.NewFace(f.Outer(), f.Normal(), holes...)}, nil
	}
}

// ---------------------------------------------------------------------------
// (source "outline" (rect 400 300) :placement (placement :at (vec3 0 0 10)))
// ---------------------------------------------------------------------------
func sourceBuiltin(g *graph.Document) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKeyword("source", "placement"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("source requires a name and a shape expression")
		}
		srcName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("source: name: %w", err)
		}
		if g.Lookup(srcName) != nil {
			return zygo.SexpNull, fmt.Errorf("source: name %q already defined", srcName)
		}
		sh, err := toShape(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("source %q: %w", srcName, err)
		}
		pl := geom.Identity()
		if v, ok := pa.kw["placement"]; ok {
			if pl, err = toPlacement(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("source %q: placement: %w", srcName, err)
			}
		}
		shape := sh.Copy()
		if !pl.IsIdentity() {
			kernel.SetPlacement(shape, pl)
		}
		id := g.AddNode(&graph.Node{
			Kind: graph.NodeSource,
			Name: srcName,
			Data: graph.SourceData{Shape: shape, Placement: pl},
		})
		return &sexpNodeRef{id: id, name: srcName}, nil
	}
}

// ---------------------------------------------------------------------------
// (part "name")
// ---------------------------------------------------------------------------
func partBuiltin(g *graph.Document) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		n := g.Lookup(partName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}
		return &sexpNodeRef{id: n.ID, name: partName}, nil
	}
}

// frameKeywords lists the keywords the frame builtin accepts.
var frameKeywords = []string{
	"path", "profile", "clone-of", "placement",
	"align", "offset", "base-point", "profile-placement", "rotation", "edges", "fuse",
}

// ---------------------------------------------------------------------------
// (frame "portal" :path (part "outline") :profile (part "section")
//        :align true :offset (vec3 0 0 0) :base-point 0
//        :profile-placement (placement ...) :rotation 0
//        :edges :vertical :fuse false :placement (placement ...))
//
// (frame "copy" :clone-of (part "portal") :placement (placement ...))
// ---------------------------------------------------------------------------
func frameBuiltin(g *graph.Document) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKeyword("frame", frameKeywords...); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("frame requires exactly one name argument")
		}
		frameName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("frame: name: %w", err)
		}
		if g.Lookup(frameName) != nil {
			return zygo.SexpNull, fmt.Errorf("frame: name %q already defined", frameName)
		}
		fd := graph.FrameData{Params: frame.DefaultParameters(), Placement: geom.Identity()}
		if err := applyFrameArgs(&fd, pa.kw); err != nil {
			return zygo.SexpNull, fmt.Errorf("frame %q: %w", frameName, err)
		}
		id := g.AddNode(&graph.Node{Kind: graph.NodeFrame, Name: frameName, Data: fd})
		return &sexpNodeRef{id: id, name: frameName}, nil
	}
}

func applyFrameArgs(fd *graph.FrameData, kw map[string]zygo.Sexp) error {
	var err error
	for _, ref := range []struct {
		key string
		dst *graph.NodeID
	}{{"path", &fd.Path}, {"profile", &fd.Profile}, {"clone-of", &fd.CloneOf}} {
		if v, ok := kw[ref.key]; ok {
			if *ref.dst, err = toNodeRef(v); err != nil {
				return fmt.Errorf("%s: %w", ref.key, err)
			}
		}
	}
	p := &fd.Params
	if v, ok := kw["placement"]; ok {
		if fd.Placement, err = toPlacement(v); err != nil {
			return fmt.Errorf("placement: %w", err)
		}
	}
	if v, ok := kw["align"]; ok {
		if p.Align, err = toBool(v); err != nil {
			return fmt.Errorf("align: %w", err)
		}
	}
	if v, ok := kw["offset"]; ok {
		if p.Offset, err = toVec3(v); err != nil {
			return fmt.Errorf("offset: %w", err)
		}
	}
	if v, ok := kw["base-point"]; ok {
		if p.BasePoint, err = toInt(v); err != nil {
			return fmt.Errorf("base-point: %w", err)
		}
	}
	if v, ok := kw["profile-placement"]; ok {
		if p.ProfilePlacement, err = toPlacement(v); err != nil {
			return fmt.Errorf("profile-placement: %w", err)
		}
	}
	if v, ok := kw["rotation"]; ok {
		if p.Rotation, err = toFloat64(v); err != nil {
			return fmt.Errorf("rotation: %w", err)
		}
	}
	if v, ok := kw["edges"]; ok {
		if p.Edges, err = toEdgeFilter(v); err != nil {
			return fmt.Errorf("edges: %w", err)
		}
	}
	if v, ok := kw["fuse"]; ok {
		if p.Fuse, err = toBool(v); err != nil {
			return fmt.Errorf("fuse: %w", err)
		}
	}
	return nil
}

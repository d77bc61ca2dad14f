package geometry

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// Polygon holds four corners as x1, y1, x2, y2, x3, y3, x4, y4
type Polygon [8]float64

// Bounds returns the axis aligned rectangle enclosing the polygon
func (p Polygon) Bounds() Rect {
	r := Rect{X1: p[0], Y1: p[1], X2: p[0], Y2: p[1]}
	for i := 2; i < len(p); i += 2 {
		r.X1 = math.Min(r.X1, p[i])
		r.X2 = math.Max(r.X2, p[i])
		r.Y1 = math.Min(r.Y1, p[i+1])
		r.Y2 = math.Max(r.Y2, p[i+1])
	}
	return r
}

// Centroid returns the center of the enclosing rectangle
func (p Polygon) Centroid() (float64, float64) {
	return p.Bounds().Center()
}

// pairPattern matches one "[x, y]" coordinate pair inside a string box
var pairPattern = regexp.MustCompile(`\[\s*(-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)\s*,\s*(-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)\s*\]`)

// ParseBox converts a raw bounding box into a Polygon.
//
// Accepted encodings are numeric slices, []any decoded from JSON, vertex lists
// ([{x, y}, ...] or [[x, y], ...]), protobuf struct values and strings. Four values are read as
// x1, y1, x2, y2 and expanded to four corners; eight or more values use the
// first eight; four to seven values use the first four as a rectangle.
// Non finite values are dropped. Anything with fewer than four usable values
// returns false.
func ParseBox(v any) (Polygon, bool) {
	return fromValues(flatten(v))
}

func fromValues(vals []float64) (Polygon, bool) {
	var p Polygon
	switch {
	case len(vals) >= 8:
		copy(p[:], vals[:8])
		return p, true
	case len(vals) >= 4:
		return NewRect(vals[0], vals[1], vals[2], vals[3]).Polygon(), true
	default:
		return p, false
	}
}

// flatten walks any supported encoding and collects its finite numbers
func flatten(v any) []float64 {
	switch b := v.(type) {
	case nil:
		return nil
	case Polygon:
		return keepFinite(b[:])
	case Rect:
		p := b.Polygon()
		return keepFinite(p[:])
	case []float64:
		return keepFinite(b)
	case []float32:
		out := make([]float64, 0, len(b))
		for _, f := range b {
			out = append(out, float64(f))
		}
		return keepFinite(out)
	case []int:
		out := make([]float64, 0, len(b))
		for _, n := range b {
			out = append(out, float64(n))
		}
		return out
	case string:
		return parseBoxString(b)
	case *structpb.ListValue:
		return flatten(b.AsSlice())
	case *structpb.Struct:
		return flatten(b.AsMap())
	case *structpb.Value:
		return flatten(b.AsInterface())
	case []map[string]any:
		var out []float64
		for _, m := range b {
			out = append(out, vertex(m)...)
		}
		return out
	case map[string]any:
		// A single object may wrap the vertex list the way Document AI and
		// Azure do ("vertices", "normalizedVertices", "polygon").
		for _, key := range []string{"vertices", "polygon", "normalizedVertices", "normalized_vertices", "points"} {
			if inner, ok := b[key]; ok {
				return flatten(inner)
			}
		}
		return vertex(b)
	case []any:
		var out []float64
		for _, item := range b {
			switch it := item.(type) {
			case map[string]any:
				out = append(out, vertex(it)...)
			case []any:
				out = append(out, flatten(it)...)
			case nil:
				continue
			default:
				if f, ok := number(it); ok {
					out = append(out, f)
				}
			}
		}
		return out
	}
	return nil
}

// vertex reads an {x, y} object. Missing coordinates default to zero, which
// is how protobuf JSON omits zero valued fields.
func vertex(m map[string]any) []float64 {
	_, hasX := m["x"]
	_, hasY := m["y"]
	if !hasX && !hasY {
		return nil
	}
	x, okX := number(m["x"])
	y, okY := number(m["y"])
	if (hasX && !okX) || (hasY && !okY) {
		return nil
	}
	return []float64{x, y}
}

// number converts JSON decoded scalars to float64
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseBoxString first looks for "[x, y]" pairs and falls back to
// splitting a bracket stripped list on commas and whitespace.
func parseBoxString(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if pairs := pairPattern.FindAllStringSubmatch(s, -1); len(pairs) >= 2 {
		var out []float64
		for _, m := range pairs {
			x, errX := strconv.ParseFloat(m[1], 64)
			y, errY := strconv.ParseFloat(m[2], 64)
			if errX != nil || errY != nil {
				continue
			}
			out = append(out, x, y)
		}
		if vals := keepFinite(out); len(vals) >= 4 {
			return vals
		}
	}

	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '(', ')', '{', '}':
			return ' '
		}
		return r
	}, s)
	fields := strings.FieldsFunc(stripped, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})

	var out []float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return keepFinite(out)
}

func keepFinite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

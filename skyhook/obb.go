package skyhook

import (
	"math"

	gomapinfer "github.com/mitroadmaps/gomapinfer/common"
)

// Polygon over image pixel coordinates.
// Annotations use four corners but clipped polygons may have more.
type Polygon []gomapinfer.Point

// Converts a flattened [x0, y0, x1, y1, ...] list to a Polygon.
func PolygonFromFlat(flat []float64) Polygon {
	poly := make(Polygon, len(flat)/2)
	for i := range poly {
		poly[i] = gomapinfer.Point{flat[2*i], flat[2*i+1]}
	}
	return poly
}

func (poly Polygon) Flat() []float64 {
	flat := make([]float64, 0, 2*len(poly))
	for _, p := range poly {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// Shoelace sum over the vertices.
// Positive when the vertices go counter-clockwise with the y axis pointing up,
// which is clockwise on screen since image y points down.
func (poly Polygon) SignedArea() float64 {
	var sum float64
	for i := range poly {
		p := poly[i]
		q := poly[(i+1)%len(poly)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum/2
}

func (poly Polygon) Area() float64 {
	return math.Abs(poly.SignedArea())
}

func (poly Polygon) Bounds() gomapinfer.Rectangle {
	rect := gomapinfer.EmptyRectangle
	for _, p := range poly {
		rect = rect.Extend(p)
	}
	return rect
}

// Returns a copy with the vertex order reversed if needed so that SignedArea is positive.
func (poly Polygon) Orient() Polygon {
	out := make(Polygon, len(poly))
	copy(out, poly)
	if poly.SignedArea() >= 0 {
		return out
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Axis-aligned bounding box of a flattened 4-corner polygon as (xmin, ymin, width, height).
// x and y extremes are taken independently over even and odd indices.
func PolyBbox(poly [8]float64) [4]float64 {
	rect := PolygonFromFlat(poly[:]).Bounds()
	return [4]float64{rect.Min.X, rect.Min.Y, rect.Max.X-rect.Min.X, rect.Max.Y-rect.Min.Y}
}

func PolyArea(poly [8]float64) float64 {
	return PolygonFromFlat(poly[:]).Area()
}

// Truncates each coordinate toward zero.
func TruncatePoly(poly [8]float64) [8]float64 {
	var out [8]float64
	for i, x := range poly {
		out[i] = math.Trunc(x)
	}
	return out
}

func ScalePoly(poly [8]float64, factor float64) [8]float64 {
	var out [8]float64
	for i, x := range poly {
		out[i] = x*factor
	}
	return out
}

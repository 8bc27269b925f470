package skyhook

import (
	"math"

	gomapinfer "github.com/mitroadmaps/gomapinfer/common"
)

const clipEpsilon float64 = 1e-9

// Clips the polygon to the axis-aligned rectangle (Sutherland-Hodgman).
// Exact for convex polygons, which covers annotated quadrilaterals.
// Consecutive duplicate and collinear vertices are removed from the output.
// Returns nil if nothing remains.
func (poly Polygon) ClipToRect(rect gomapinfer.Rectangle) Polygon {
	type edge struct {
		inside func(p gomapinfer.Point) bool
		cross func(a, b gomapinfer.Point) gomapinfer.Point
	}
	atX := func(a, b gomapinfer.Point, x float64) gomapinfer.Point {
		t := (x-a.X)/(b.X-a.X)
		return gomapinfer.Point{x, a.Y+t*(b.Y-a.Y)}
	}
	atY := func(a, b gomapinfer.Point, y float64) gomapinfer.Point {
		t := (y-a.Y)/(b.Y-a.Y)
		return gomapinfer.Point{a.X+t*(b.X-a.X), y}
	}
	edges := []edge{
		{
			func(p gomapinfer.Point) bool { return p.X >= rect.Min.X },
			func(a, b gomapinfer.Point) gomapinfer.Point { return atX(a, b, rect.Min.X) },
		},
		{
			func(p gomapinfer.Point) bool { return p.X <= rect.Max.X },
			func(a, b gomapinfer.Point) gomapinfer.Point { return atX(a, b, rect.Max.X) },
		},
		{
			func(p gomapinfer.Point) bool { return p.Y >= rect.Min.Y },
			func(a, b gomapinfer.Point) gomapinfer.Point { return atY(a, b, rect.Min.Y) },
		},
		{
			func(p gomapinfer.Point) bool { return p.Y <= rect.Max.Y },
			func(a, b gomapinfer.Point) gomapinfer.Point { return atY(a, b, rect.Max.Y) },
		},
	}

	out := poly
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = nil
		prev := in[len(in)-1]
		for _, cur := range in {
			if e.inside(cur) {
				if !e.inside(prev) {
					out = append(out, e.cross(prev, cur))
				}
				out = append(out, cur)
			} else if e.inside(prev) {
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	out = out.simplify()
	if len(out) < 3 {
		return nil
	}
	return out
}

// Removes repeated vertices and vertices lying on the segment between their neighbors.
func (poly Polygon) simplify() Polygon {
	same := func(a, b gomapinfer.Point) bool {
		return math.Abs(a.X-b.X) < clipEpsilon && math.Abs(a.Y-b.Y) < clipEpsilon
	}
	var dedup Polygon
	for _, p := range poly {
		if len(dedup) > 0 && same(dedup[len(dedup)-1], p) {
			continue
		}
		dedup = append(dedup, p)
	}
	for len(dedup) > 1 && same(dedup[0], dedup[len(dedup)-1]) {
		dedup = dedup[0:len(dedup)-1]
	}

	// collinear removal needs to loop since removing one vertex can expose another
	for changed := true; changed && len(dedup) >= 3; {
		changed = false
		for i := range dedup {
			a := dedup[Mod(i-1, len(dedup))]
			b := dedup[i]
			c := dedup[(i+1)%len(dedup)]
			cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
			if math.Abs(cross) < clipEpsilon {
				dedup = append(dedup[0:i], dedup[i+1:]...)
				changed = true
				break
			}
		}
	}
	return dedup
}

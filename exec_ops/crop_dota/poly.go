package crop_dota

import (
	"math"
)

// Reduces a flattened 5-point polygon to 4 points by replacing the two
// endpoints of its shortest edge with their midpoint.
func GetPoly4FromPoly5(poly []float64) []float64 {
	dist := func(i, j int) float64 {
		return math.Hypot(poly[2*i]-poly[2*j], poly[2*i+1]-poly[2*j+1])
	}
	pos := 0
	best := math.Inf(1)
	for i := 0; i < 5; i++ {
		if d := dist(i, (i+1)%5); d < best {
			best = d
			pos = i
		}
	}
	var out []float64
	for i := 0; i < 5; i++ {
		if i == pos {
			next := (i+1)%5
			out = append(out, (poly[2*i]+poly[2*next])/2, (poly[2*i+1]+poly[2*next+1])/2)
		} else if i == (pos+1)%5 {
			continue
		} else {
			out = append(out, poly[2*i], poly[2*i+1])
		}
	}
	return out
}

// Rotates the start vertex of a 4-point polygon so that it lines up best
// (least squared distance) with the reference polygon.
func ChooseBestPointOrder(poly []float64, ref []float64) []float64 {
	var best []float64
	bestDist := math.Inf(1)
	for start := 0; start < 4; start++ {
		candidate := make([]float64, 8)
		for i := 0; i < 4; i++ {
			k := (start+i)%4
			candidate[2*i] = poly[2*k]
			candidate[2*i+1] = poly[2*k+1]
		}
		var d float64
		for i := range candidate {
			d += (candidate[i]-ref[i])*(candidate[i]-ref[i])
		}
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	return best
}

package crop_dota

import (
	"testing"
)

func equalFloats(a []float64, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGetPoly4FromPoly5(t *testing.T) {
	// shortest edge is between vertex 1 and 2
	poly := []float64{0, 0, 10, 0, 11, 1, 10, 10, 0, 10}
	expected := []float64{0, 0, 10.5, 0.5, 10, 10, 0, 10}
	if res := GetPoly4FromPoly5(poly); !equalFloats(res, expected) {
		t.Errorf("GetPoly4FromPoly5 = %v; want %v", res, expected)
	}

	// shortest edge wraps around from vertex 4 to 0
	poly = []float64{1, 0, 10, 0, 10, 10, 0, 10, 0, 1}
	expected = []float64{10, 0, 10, 10, 0, 10, 0.5, 0.5}
	if res := GetPoly4FromPoly5(poly); !equalFloats(res, expected) {
		t.Errorf("GetPoly4FromPoly5 = %v; want %v", res, expected)
	}
}

func TestChooseBestPointOrder(t *testing.T) {
	ref := []float64{0, 0, 10, 0, 10, 10, 0, 10}
	check := func(poly []float64, expected []float64) {
		if res := ChooseBestPointOrder(poly, ref); !equalFloats(res, expected) {
			t.Errorf("ChooseBestPointOrder(%v) = %v; want %v", poly, res, expected)
		}
	}
	check([]float64{10, 10, 0, 10, 0, 0, 10, 0}, ref)
	check([]float64{0, 10, 0, 0, 10, 0, 10, 10}, ref)
	check([]float64{1, 0, 10, 0, 10, 9, 1, 9}, []float64{1, 0, 10, 0, 10, 9, 1, 9})
}

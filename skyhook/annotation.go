package skyhook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// One annotated object instance read from a label file.
type AnnotationRecord struct {
	// Four corners, flattened as x0, y0, ..., x3, y3.
	Poly [8]float64
	Category string
	// DOTA difficulty flag as written in the file ("0", "1", or "2" for tiles).
	Difficult string

	// UCAS-AOD oriented box, carried through unchanged.
	Theta float64
	CenterX float64
	CenterY float64
	Width float64
	Height float64

	// Computed from Poly.
	Area float64
	Bbox [4]float64
}

func NewAnnotationRecord(poly [8]float64, category string, difficult string) AnnotationRecord {
	return AnnotationRecord{
		Poly: poly,
		Category: category,
		Difficult: difficult,
		Area: PolyArea(poly),
		Bbox: PolyBbox(poly),
	}
}

type DatasetKind string
const (
	UCASKind DatasetKind = "ucas-aod"
	DOTAKind DatasetKind = "dota"
)

// AnnotationFormat parses a single label line.
// ok=false means the line is skipped without error.
type AnnotationFormat interface {
	Kind() DatasetKind
	ParseLine(line string) (rec AnnotationRecord, ok bool, err error)
}

// Tab separated, 13 floats per line:
// x0 y0 x1 y1 x2 y2 x3 y3 theta cx cy w h.
// Every line must match, there is no skipping.
type UCASFormat struct {
	ClassName string
}

func (f UCASFormat) Kind() DatasetKind {
	return UCASKind
}

func (f UCASFormat) ParseLine(line string) (AnnotationRecord, bool, error) {
	parts := strings.Split(strings.TrimSpace(line), "\t")
	if len(parts) != 13 {
		return AnnotationRecord{}, false, fmt.Errorf("expected 13 tab-separated fields but got %d", len(parts))
	}
	var vals [13]float64
	for i, part := range parts {
		x, err := ParseFloat(part)
		if err != nil {
			return AnnotationRecord{}, false, fmt.Errorf("bad field %d: %v", i, err)
		}
		vals[i] = x
	}
	var poly [8]float64
	copy(poly[:], vals[0:8])
	rec := NewAnnotationRecord(poly, f.ClassName, "0")
	rec.Theta = vals[8]
	rec.CenterX = vals[9]
	rec.CenterY = vals[10]
	rec.Width = vals[11]
	rec.Height = vals[12]
	return rec, true, nil
}

// Space separated: x0 y0 ... x3 y3 class [difficult].
// Lines with fewer than 9 tokens (imagesource/gsd headers, blanks) are skipped.
// If Classes is set, objects of other classes are skipped too.
type DOTAFormat struct {
	Classes []string
}

func (f DOTAFormat) Kind() DatasetKind {
	return DOTAKind
}

func (f DOTAFormat) allowed(category string) bool {
	if len(f.Classes) == 0 {
		return true
	}
	for _, name := range f.Classes {
		if name == category {
			return true
		}
	}
	return false
}

func (f DOTAFormat) ParseLine(line string) (AnnotationRecord, bool, error) {
	parts := strings.Split(strings.TrimSpace(line), " ")
	if len(parts) < 9 {
		return AnnotationRecord{}, false, nil
	}
	category := parts[8]
	if !f.allowed(category) {
		return AnnotationRecord{}, false, nil
	}
	difficult := "0"
	if len(parts) >= 10 {
		difficult = parts[9]
	}
	var poly [8]float64
	for i := 0; i < 8; i++ {
		x, err := ParseFloat(parts[i])
		if err != nil {
			return AnnotationRecord{}, false, fmt.Errorf("bad coordinate %d: %v", i, err)
		}
		poly[i] = x
	}
	return NewAnnotationRecord(poly, category, difficult), true, nil
}

// Explicit dispatch from dataset kind to format.
// For UCASKind, classes must hold exactly the one class name assigned to every record.
func FormatFor(kind DatasetKind, classes []string) (AnnotationFormat, error) {
	switch kind {
	case UCASKind:
		if len(classes) != 1 {
			return nil, fmt.Errorf("UCAS-AOD conversion needs exactly one class name, got %d", len(classes))
		}
		return UCASFormat{ClassName: classes[0]}, nil
	case DOTAKind:
		return DOTAFormat{Classes: classes}, nil
	}
	return nil, fmt.Errorf("unknown dataset kind %s", kind)
}

func ParseAnnotations(r io.Reader, name string, format AnnotationFormat) ([]AnnotationRecord, error) {
	var records []AnnotationRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		rec, ok, err := format.ParseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("error parsing %s:%d: %v", name, lineno, err)
		}
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %v", name, err)
	}
	return records, nil
}

func ParseAnnotationFile(fname string, format AnnotationFormat) ([]AnnotationRecord, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseAnnotations(file, fname, format)
}

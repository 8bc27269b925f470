package skyhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, fname string, lines ...string) {
	t.Helper()
	if err := os.WriteFile(fname, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCocoAssemblerIDs(t *testing.T) {
	assembler := NewCocoAssembler([]string{"plane", "ship"})
	rec := NewAnnotationRecord([8]float64{0, 0, 10, 0, 10, 10, 0, 10}, "ship", "0")
	for i := 0; i < 3; i++ {
		imageID := assembler.AddImage("a.png", 10, 10)
		if imageID != i+1 {
			t.Errorf("image id = %d; want %d", imageID, i+1)
		}
		for j := 0; j < 2; j++ {
			if err := assembler.AddRecord(imageID, rec); err != nil {
				t.Fatal(err)
			}
		}
	}
	coco := assembler.Finish()
	imageIDs := make(map[int]bool)
	for _, image := range coco.Images {
		imageIDs[image.ID] = true
	}
	for i, annotation := range coco.Annotations {
		if annotation.ID != i+1 {
			t.Errorf("annotation %d has id %d", i, annotation.ID)
		}
		if !imageIDs[annotation.ImageID] {
			t.Errorf("annotation %d references missing image %d", annotation.ID, annotation.ImageID)
		}
		if annotation.CategoryID != 2 {
			t.Errorf("annotation %d has category %d; want 2", annotation.ID, annotation.CategoryID)
		}
	}
	if len(coco.Categories) != 2 || coco.Categories[0].Name != "plane" || coco.Categories[1].ID != 2 {
		t.Errorf("unexpected categories %+v", coco.Categories)
	}

	err := assembler.AddRecord(1, NewAnnotationRecord([8]float64{}, "car", "0"))
	if err == nil {
		t.Errorf("expected error for unknown category")
	}
}

func TestCocoAssemblerEmpty(t *testing.T) {
	coco := NewCocoAssembler([]string{"car"}).Finish()
	bytes := string(JsonMarshal(coco))
	if !strings.Contains(bytes, `"images":[]`) || !strings.Contains(bytes, `"annotations":[]`) {
		t.Errorf("expected empty arrays, got %s", bytes)
	}
	if len(coco.Categories) != 1 {
		t.Errorf("got %d categories; want 1", len(coco.Categories))
	}
}

func TestConvertFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "P0001.png"), 40, 30)
	writeTestPNG(t, filepath.Join(dir, "P0002.png"), 20, 25)
	writeTestFile(t, filepath.Join(dir, "P0001.txt"),
		"imagesource:GoogleEarth",
		"gsd:0.1",
		"10 10 20 10 20 20 10 20 plane 0",
	)
	writeTestFile(t, filepath.Join(dir, "P0002.txt"),
		"1.5 2.5 11.5 2.5 11.5 12.5 1.5 12.5 ship",
		"1 2 3 4 5",
	)
	files := []AnnotationFile{
		{filepath.Join(dir, "P0001.txt"), filepath.Join(dir, "P0001.png")},
		{filepath.Join(dir, "P0002.txt"), filepath.Join(dir, "P0002.png")},
	}

	assembler := NewCocoAssembler([]string{"plane", "ship"})
	if err := assembler.ConvertFiles(files, DOTAFormat{Classes: []string{"plane", "ship"}}); err != nil {
		t.Fatal(err)
	}
	coco := assembler.Finish()
	if len(coco.Images) != 2 || len(coco.Annotations) != 2 {
		t.Fatalf("got %d images and %d annotations; want 2 and 2", len(coco.Images), len(coco.Annotations))
	}
	if coco.Images[0].Filename != "P0001.png" || coco.Images[0].Width != 40 || coco.Images[0].Height != 30 {
		t.Errorf("unexpected image %+v", coco.Images[0])
	}
	if coco.Images[1].Width != 20 || coco.Images[1].Height != 25 {
		t.Errorf("unexpected image %+v", coco.Images[1])
	}

	ship := coco.Annotations[1]
	if ship.ImageID != 2 || ship.CategoryID != 2 {
		t.Errorf("ship annotation has image %d category %d", ship.ImageID, ship.CategoryID)
	}
	expected := []float64{1, 2, 11, 2, 11, 12, 1, 12}
	points := ship.Segmentation.Points
	if len(points) != 1 || len(points[0]) != 8 {
		t.Fatalf("unexpected segmentation %v", points)
	}
	for i := range expected {
		if points[0][i] != expected[i] {
			t.Errorf("segmentation = %v; want %v", points[0], expected)
			break
		}
	}
	if ship.Bbox != ([4]float64{1, 2, 10, 10}) {
		t.Errorf("bbox = %v; want [1 2 10 10]", ship.Bbox)
	}
	if ship.Area != 100 {
		t.Errorf("area = %v; want 100", ship.Area)
	}

	// written file decodes back to the same structure
	fname := filepath.Join(dir, "out.json")
	if err := WriteCocoJSON(fname, coco); err != nil {
		t.Fatal(err)
	}
	decoded, err := ReadCocoJSON(fname)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.Annotations) != 2 || decoded.Annotations[1].Segmentation.Points[0][2] != 11 {
		t.Errorf("unexpected decoded annotations %+v", decoded.Annotations)
	}
}

func TestConvertFilesMissingImage(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "P0001.txt"), "10 10 20 10 20 20 10 20 plane 0")
	files := []AnnotationFile{{filepath.Join(dir, "P0001.txt"), filepath.Join(dir, "P0001.png")}}
	err := NewCocoAssembler([]string{"plane"}).ConvertFiles(files, DOTAFormat{})
	if err == nil {
		t.Fatalf("expected error for missing image")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestCocoSegmentationRLE(t *testing.T) {
	var annotation CocoAnnotation
	err := json.Unmarshal([]byte(`{"id": 1, "segmentation": {"counts": [1, 2], "size": [3, 4]}, "iscrowd": 1}`), &annotation)
	if err != nil {
		t.Fatal(err)
	}
	if annotation.Segmentation.Points != nil || annotation.Segmentation.RLE.Size != ([2]int{3, 4}) {
		t.Errorf("unexpected segmentation %+v", annotation.Segmentation)
	}
}

func TestConvertFilesSkippedLinesKeepIDs(t *testing.T) {
	dir := t.TempDir()
	var files []AnnotationFile
	for i, lines := range [][]string{
		{
			"imagesource:GoogleEarth",
			"0 0 5 0 5 5 0 5 harbor 0",
			"10 10 20 10 20 20 10 20 plane 0",
			"1 2 3 4 5",
			"0 0 5 0 5 5 0 5 harbor 1",
			"30 30 40 30 40 40 30 40 ship 1",
		},
		{
			"0 0 5 0 5 5 0 5 bridge 0",
		},
		{
			"0 0 5 0 5 5 0 5 harbor 0",
			"1 1 4 1 4 4 1 4 ship 0",
		},
	} {
		stem := filepath.Join(dir, fmt.Sprintf("P%04d", i+1))
		writeTestPNG(t, stem+".png", 16, 16)
		writeTestFile(t, stem+".txt", lines...)
		files = append(files, AnnotationFile{stem+".txt", stem+".png"})
	}

	assembler := NewCocoAssembler([]string{"plane", "ship"})
	if err := assembler.ConvertFiles(files, DOTAFormat{Classes: []string{"plane", "ship"}}); err != nil {
		t.Fatal(err)
	}
	coco := assembler.Finish()
	if len(coco.Images) != 3 || len(coco.Annotations) != 3 {
		t.Fatalf("got %d images and %d annotations; want 3 and 3", len(coco.Images), len(coco.Annotations))
	}
	for i, image := range coco.Images {
		if image.ID != i+1 {
			t.Errorf("image %d has id %d; want %d", i, image.ID, i+1)
		}
	}
	expectedImages := []int{1, 1, 3}
	for i, annotation := range coco.Annotations {
		if annotation.ID != i+1 {
			t.Errorf("annotation %d has id %d; want %d", i, annotation.ID, i+1)
		}
		if annotation.ImageID != expectedImages[i] {
			t.Errorf("annotation %d has image %d; want %d", annotation.ID, annotation.ImageID, expectedImages[i])
		}
	}
}

func TestWriteCocoJSONError(t *testing.T) {
	coco := NewCocoAssembler([]string{"plane"}).Finish()
	coco.Images = append(coco.Images, CocoImage{ID: 1, Filename: "a.png", Width: 10, Height: 10})
	coco.Annotations = append(coco.Annotations, CocoAnnotation{ID: 1, ImageID: 1, CategoryID: 1, Area: math.NaN()})
	fname := filepath.Join(t.TempDir(), "out.json")
	if err := WriteCocoJSON(fname, coco); err == nil {
		t.Errorf("expected error encoding NaN area")
	}
}

func TestConvertFilesNonFinite(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "P0001.png"), 16, 16)
	writeTestFile(t, filepath.Join(dir, "P0001.txt"),
		"0 0 5 0 5 5 0 5 plane 0",
		"nan 10 20 10 20 20 10 20 plane 0",
	)
	files := []AnnotationFile{{filepath.Join(dir, "P0001.txt"), filepath.Join(dir, "P0001.png")}}
	err := NewCocoAssembler([]string{"plane"}).ConvertFiles(files, DOTAFormat{})
	if err == nil || !strings.Contains(err.Error(), "P0001.txt:2") {
		t.Errorf("expected parse error at P0001.txt:2, got %v", err)
	}
}

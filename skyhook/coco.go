package skyhook

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"path/filepath"
	"strings"
)

// COCO object detection format.
// We only produce polygon segmentations (one 4-corner polygon per instance),
// but RLE is accepted when decoding so that other COCO files can be read.

type CocoImage struct {
	ID int `json:"id"`
	Filename string `json:"file_name"`
	Width int `json:"width"`
	Height int `json:"height"`
}

// COCO uses different types for the same field depending on iscrowd.
type CocoRLE struct {
	Counts []int `json:"counts"`
	Size [2]int `json:"size"`
}
type CocoSegmentation struct {
	Points [][]float64
	RLE CocoRLE
}
func (s CocoSegmentation) MarshalJSON() ([]byte, error) {
	if s.Points != nil {
		return json.Marshal(s.Points)
	} else {
		return json.Marshal(s.RLE)
	}
}
func (s *CocoSegmentation) UnmarshalJSON(data []byte) error {
	if strings.Contains(string(data), "{") {
		return json.Unmarshal(data, &s.RLE)
	} else {
		return json.Unmarshal(data, &s.Points)
	}
}

type CocoAnnotation struct {
	ID int `json:"id"`
	ImageID int `json:"image_id"`
	CategoryID int `json:"category_id"`
	Area float64 `json:"area"`
	Segmentation CocoSegmentation `json:"segmentation"`
	Bbox [4]float64 `json:"bbox"`
	IsCrowd int `json:"iscrowd"`
}

type CocoCategory struct {
	ID int `json:"id"`
	Name string `json:"name"`
	SuperCategory string `json:"supercategory"`
}

type CocoJSON struct {
	Images []CocoImage `json:"images"`
	Categories []CocoCategory `json:"categories"`
	Annotations []CocoAnnotation `json:"annotations"`
}

// Label file paired with the image it annotates.
type AnnotationFile struct {
	LabelFname string
	ImageFname string
}

// Accumulates images and annotations of one conversion run.
// Image and instance ids are assigned sequentially starting at 1.
type CocoAssembler struct {
	Classes []string
	Images []CocoImage
	Annotations []CocoAnnotation

	categoryIDs map[string]int
	nextImageID int
	nextInstanceID int
}

func NewCocoAssembler(classes []string) *CocoAssembler {
	categoryIDs := make(map[string]int)
	for i, name := range classes {
		if _, ok := categoryIDs[name]; ok {
			continue
		}
		categoryIDs[name] = i+1
	}
	return &CocoAssembler{
		Classes: classes,
		categoryIDs: categoryIDs,
		nextImageID: 1,
		nextInstanceID: 1,
	}
}

func (a *CocoAssembler) AddImage(fname string, width int, height int) int {
	id := a.nextImageID
	a.Images = append(a.Images, CocoImage{
		ID: id,
		Filename: fname,
		Width: width,
		Height: height,
	})
	a.nextImageID++
	return id
}

// Adds one annotation for the record.
// The polygon is truncated to integers and the bbox is computed from the
// truncated polygon, while the area keeps the precision of the original.
func (a *CocoAssembler) AddRecord(imageID int, rec AnnotationRecord) error {
	categoryID, ok := a.categoryIDs[rec.Category]
	if !ok {
		return fmt.Errorf("category %q is not in the class list %v", rec.Category, a.Classes)
	}
	poly := TruncatePoly(rec.Poly)
	a.Annotations = append(a.Annotations, CocoAnnotation{
		ID: a.nextInstanceID,
		ImageID: imageID,
		CategoryID: categoryID,
		Area: rec.Area,
		Segmentation: CocoSegmentation{
			Points: [][]float64{poly[:]},
		},
		Bbox: PolyBbox(poly),
		IsCrowd: 0,
	})
	a.nextInstanceID++
	return nil
}

// Converts each label file in order: reads the paired image dimensions,
// adds the image and then one annotation per record that the format keeps.
func (a *CocoAssembler) ConvertFiles(files []AnnotationFile, format AnnotationFormat) error {
	for i, file := range files {
		dims, err := GetImageDimsFromFile(file.ImageFname)
		if err != nil {
			return fmt.Errorf("error reading image paired with %s: %w", file.LabelFname, err)
		}
		imageID := a.AddImage(filepath.Base(file.ImageFname), dims[0], dims[1])

		records, err := ParseAnnotationFile(file.LabelFname, format)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := a.AddRecord(imageID, rec); err != nil {
				return fmt.Errorf("error converting %s: %v", file.LabelFname, err)
			}
		}

		if (i+1) % 500 == 0 {
			log.Printf("[coco] converted %d/%d label files", i+1, len(files))
		}
	}
	return nil
}

// Returns the assembled dataset with one category per class name.
func (a *CocoAssembler) Finish() CocoJSON {
	coco := CocoJSON{
		Images: a.Images,
		Categories: []CocoCategory{},
		Annotations: a.Annotations,
	}
	if coco.Images == nil {
		coco.Images = []CocoImage{}
	}
	if coco.Annotations == nil {
		coco.Annotations = []CocoAnnotation{}
	}
	for i, name := range a.Classes {
		coco.Categories = append(coco.Categories, CocoCategory{
			ID: i+1,
			Name: name,
			SuperCategory: name,
		})
	}
	return coco
}

func WriteCocoJSON(fname string, coco CocoJSON) error {
	bytes, err := json.MarshalIndent(coco, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding %s: %v", fname, err)
	}
	return ioutil.WriteFile(fname, bytes, 0644)
}

func ReadCocoJSON(fname string) (CocoJSON, error) {
	var coco CocoJSON
	err := ReadJSONFile(fname, &coco)
	return coco, err
}

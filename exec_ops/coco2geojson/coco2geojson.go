package coco2geojson

import (
	"github.com/skyhookml/aerial2coco/exec_ops"
	"github.com/skyhookml/aerial2coco/skyhook"

	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"

	"github.com/paulmach/go.geojson"
)

// Export COCO polygons as a GeoJSON FeatureCollection for inspection in GIS tools.
// Coordinates stay in image pixel space (x right, y down), so this is only
// meaningful for one image at a time or as a per-image layer.

type Params struct {
	Input string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
	// If set, only annotations of the image with this file_name are exported.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

func ToFeatureCollection(coco skyhook.CocoJSON, imageFilter string) (*geojson.FeatureCollection, error) {
	images := make(map[int]skyhook.CocoImage)
	for _, image := range coco.Images {
		images[image.ID] = image
	}
	categories := make(map[int]string)
	for _, category := range coco.Categories {
		categories[category.ID] = category.Name
	}

	collection := geojson.NewFeatureCollection()
	for _, annotation := range coco.Annotations {
		image, ok := images[annotation.ImageID]
		if !ok {
			return nil, fmt.Errorf("annotation %d references missing image %d", annotation.ID, annotation.ImageID)
		}
		if imageFilter != "" && image.Filename != imageFilter {
			continue
		}
		category, ok := categories[annotation.CategoryID]
		if !ok {
			return nil, fmt.Errorf("annotation %d references missing category %d", annotation.ID, annotation.CategoryID)
		}
		for _, points := range annotation.Segmentation.Points {
			if len(points) < 6 {
				continue
			}
			var ring [][]float64
			for i := 0; i+1 < len(points); i += 2 {
				ring = append(ring, []float64{points[i], points[i+1]})
			}
			// GeoJSON rings are closed
			ring = append(ring, ring[0])
			feature := geojson.NewPolygonFeature([][][]float64{ring})
			feature.ID = annotation.ID
			feature.SetProperty("image", image.Filename)
			feature.SetProperty("image_id", annotation.ImageID)
			feature.SetProperty("category", category)
			feature.SetProperty("area", annotation.Area)
			feature.SetProperty("iscrowd", annotation.IsCrowd)
			collection.AddFeature(feature)
		}
	}
	return collection, nil
}

func init() {
	skyhook.AddExecOpImpl(skyhook.ExecOpImpl{
		Config: skyhook.ExecOpConfig{
			ID: "coco2geojson",
			Name: "COCO to GeoJSON",
			Description: "Export COCO annotation polygons as a GeoJSON FeatureCollection in pixel coordinates",
		},
		Flags: func(fs *flag.FlagSet) func(args []string) (interface{}, error) {
			image := fs.String("image", "", "only export annotations of this image file name")
			return func(args []string) (interface{}, error) {
				if len(args) != 2 {
					return nil, fmt.Errorf("expected positional arguments input and output")
				}
				return Params{
					Input: args[0],
					Output: args[1],
					Image: *image,
				}, nil
			}
		},
		Prepare: func(node skyhook.ExecNode) (skyhook.ExecOp, error) {
			var params Params
			if err := skyhook.DecodeParams(node, &params); err != nil {
				return nil, err
			}
			if params.Input == "" || params.Output == "" {
				return nil, fmt.Errorf("input and output are required")
			}
			applyFunc := func(ctx context.Context) error {
				coco, err := skyhook.ReadCocoJSON(params.Input)
				if err != nil {
					return err
				}
				collection, err := ToFeatureCollection(coco, params.Image)
				if err != nil {
					return err
				}
				bytes, err := collection.MarshalJSON()
				if err != nil {
					return err
				}
				if err := exec_ops.EnsureParentDir(params.Output); err != nil {
					return err
				}
				if err := ioutil.WriteFile(params.Output, bytes, 0644); err != nil {
					return err
				}
				log.Printf("[coco2geojson] wrote %d features to %s", len(collection.Features), params.Output)
				return nil
			}
			return skyhook.SimpleExecOp{ApplyFunc: applyFunc}, nil
		},
	})
}

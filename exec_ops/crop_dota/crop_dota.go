package crop_dota

import (
	"github.com/skyhookml/aerial2coco/skyhook"

	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
)

// Prepare DOTA for training by splitting train, val and test images into overlapping tiles.
// train --> train<subsize>, val --> val<subsize>, test/images --> test<subsize>/images (no labels).

type Params struct {
	SrcPath string `json:"srcpath" yaml:"srcpath"`
	DstPath string `json:"dstpath" yaml:"dstpath"`
	SubSize int `json:"subsize" yaml:"subsize"`
	Gap int `json:"gap" yaml:"gap"`
	Rate float64 `json:"rate" yaml:"rate"`
	Thresh float64 `json:"thresh" yaml:"thresh"`
	Ext string `json:"ext" yaml:"ext"`
	Padding bool `json:"padding" yaml:"padding"`
	ChooseBestPoint bool `json:"choose_best_point" yaml:"choose_best_point"`
	NumWorkers int `json:"workers" yaml:"workers"`
}

func DefaultParams() Params {
	opts := DefaultOptions()
	return Params{
		SubSize: opts.SubSize,
		Gap: opts.Gap,
		Rate: opts.Rate,
		Thresh: opts.Thresh,
		Ext: opts.Ext,
		Padding: opts.Padding,
		ChooseBestPoint: opts.ChooseBestPoint,
		NumWorkers: opts.NumWorkers,
	}
}

func (params Params) Options() Options {
	return Options{
		SubSize: params.SubSize,
		Gap: params.Gap,
		Rate: params.Rate,
		Thresh: params.Thresh,
		Ext: params.Ext,
		Padding: params.Padding,
		ChooseBestPoint: params.ChooseBestPoint,
		NumWorkers: params.NumWorkers,
	}
}

// Runs the three passes in order: train and val with labels, then test images only.
func Prepare(ctx context.Context, params Params) error {
	opts := params.Options()
	if err := opts.Validate(); err != nil {
		return err
	}
	suffix := strconv.Itoa(params.SubSize)
	splitters := []*Splitter{
		NewSplitter(filepath.Join(params.SrcPath, "train"), filepath.Join(params.DstPath, "train"+suffix), opts),
		NewSplitter(filepath.Join(params.SrcPath, "val"), filepath.Join(params.DstPath, "val"+suffix), opts),
		NewImageOnlySplitter(filepath.Join(params.SrcPath, "test", "images"), filepath.Join(params.DstPath, "test"+suffix, "images"), opts),
	}
	for _, splitter := range splitters {
		if err := splitter.SplitAll(ctx); err != nil {
			return fmt.Errorf("error splitting %s: %v", splitter.ImageDir, err)
		}
	}
	return nil
}

func init() {
	skyhook.AddExecOpImpl(skyhook.ExecOpImpl{
		Config: skyhook.ExecOpConfig{
			ID: "crop_dota",
			Name: "Crop DOTA",
			Description: "Split DOTA train/val/test images into overlapping fixed-size tiles",
		},
		Flags: func(fs *flag.FlagSet) func(args []string) (interface{}, error) {
			defaults := DefaultParams()
			srcPath := fs.String("srcpath", "", "DOTA root with train/, val/ and test/images/")
			dstPath := fs.String("dstpath", "", "output root for the tiles")
			subSize := fs.Int("subsize", defaults.SubSize, "patch size of sub-images")
			gap := fs.Int("gap", defaults.Gap, "overlap between two patches")
			rate := fs.Float64("rate", defaults.Rate, "scale images by this factor before splitting")
			thresh := fs.Float64("thresh", defaults.Thresh, "minimum fraction of a cut object inside a tile to keep its difficulty")
			ext := fs.String("ext", defaults.Ext, "output image extension (.png or .jpg)")
			padding := fs.Bool("padding", defaults.Padding, "pad border tiles to subsize")
			workers := fs.Int("workers", defaults.NumWorkers, "number of images split in parallel")
			return func(args []string) (interface{}, error) {
				if len(args) > 0 {
					return nil, fmt.Errorf("unexpected arguments %v", args)
				}
				params := defaults
				params.SrcPath = *srcPath
				params.DstPath = *dstPath
				params.SubSize = *subSize
				params.Gap = *gap
				params.Rate = *rate
				params.Thresh = *thresh
				params.Ext = *ext
				params.Padding = *padding
				params.NumWorkers = *workers
				return params, nil
			}
		},
		Prepare: func(node skyhook.ExecNode) (skyhook.ExecOp, error) {
			params := DefaultParams()
			if err := skyhook.DecodeParams(node, &params); err != nil {
				return nil, err
			}
			if params.SrcPath == "" || params.DstPath == "" {
				return nil, fmt.Errorf("srcpath and dstpath are required")
			}
			if err := params.Options().Validate(); err != nil {
				return nil, err
			}
			return skyhook.SimpleExecOp{ApplyFunc: func(ctx context.Context) error {
				return Prepare(ctx, params)
			}}, nil
		},
	})
}

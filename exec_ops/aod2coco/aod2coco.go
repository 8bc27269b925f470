package aod2coco

import (
	"github.com/skyhookml/aerial2coco/exec_ops"
	"github.com/skyhookml/aerial2coco/skyhook"

	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
)

// Convert UCAS-AOD to COCO JSON.
// Labels and images of one class live together in <root>/<CLASS>/, e.g. CAR/P0001.txt and CAR/P0001.png.
// The files are split randomly into a train and a validation JSON.

type Params struct {
	Root string `json:"root" yaml:"root"`
	// "car" or "plane", the directory name is the upper-cased class name.
	ClassName string `json:"class_name" yaml:"class_name"`
	ValRatio float64 `json:"val_ratio" yaml:"val_ratio"`
	Seed int64 `json:"seed" yaml:"seed"`
	TrainOutput string `json:"train_output_path" yaml:"train_output_path"`
	ValOutput string `json:"val_output_path" yaml:"val_output_path"`
	ImageExt string `json:"image_ext,omitempty" yaml:"image_ext,omitempty"`
}

func DefaultParams() Params {
	return Params{
		ClassName: "car",
		ValRatio: 0.2,
		Seed: 42,
		ImageExt: ".png",
	}
}

func (params Params) Validate() error {
	if params.Root == "" {
		return fmt.Errorf("root is required")
	}
	if params.TrainOutput == "" || params.ValOutput == "" {
		return fmt.Errorf("train_output_path and val_output_path are required")
	}
	if params.ClassName == "" {
		return fmt.Errorf("class_name must not be empty")
	}
	if params.ValRatio < 0 || params.ValRatio >= 1 {
		return fmt.Errorf("val_ratio must be in [0, 1), got %v", params.ValRatio)
	}
	return nil
}

// Converts the label files (paired with same-stem images) to COCO with a single category.
func Convert(labelFnames []string, className string, imageExt string) (skyhook.CocoJSON, error) {
	files := make([]skyhook.AnnotationFile, len(labelFnames))
	for i, fname := range labelFnames {
		files[i] = skyhook.AnnotationFile{
			LabelFname: fname,
			ImageFname: strings.TrimSuffix(fname, filepath.Ext(fname))+imageExt,
		}
	}
	classes := []string{className}
	format, err := skyhook.FormatFor(skyhook.UCASKind, classes)
	if err != nil {
		return skyhook.CocoJSON{}, err
	}
	assembler := skyhook.NewCocoAssembler(classes)
	if err := assembler.ConvertFiles(files, format); err != nil {
		return skyhook.CocoJSON{}, err
	}
	return assembler.Finish(), nil
}

func Run(params Params) error {
	dir := filepath.Join(params.Root, strings.ToUpper(params.ClassName))
	labelFnames, err := skyhook.ListFiles(dir, ".txt")
	if err != nil {
		return fmt.Errorf("error listing label files: %v", err)
	}
	train, val, err := SplitTrainVal(labelFnames, params.ValRatio, params.Seed)
	if err != nil {
		return err
	}
	log.Printf("[aod2coco] %s: %d label files, %d train and %d val", dir, len(labelFnames), len(train), len(val))

	splits := []struct {
		name string
		fnames []string
		out string
	}{
		{"train", train, params.TrainOutput},
		{"val", val, params.ValOutput},
	}
	for _, split := range splits {
		coco, err := Convert(split.fnames, params.ClassName, exec_ops.DotExt(params.ImageExt))
		if err != nil {
			return fmt.Errorf("error converting %s split: %v", split.name, err)
		}
		if err := exec_ops.EnsureParentDir(split.out); err != nil {
			return err
		}
		if err := skyhook.WriteCocoJSON(split.out, coco); err != nil {
			return err
		}
		log.Printf("[aod2coco] wrote %s split: %d images, %d annotations to %s", split.name, len(coco.Images), len(coco.Annotations), split.out)
	}
	return nil
}

func init() {
	skyhook.AddExecOpImpl(skyhook.ExecOpImpl{
		Config: skyhook.ExecOpConfig{
			ID: "aod2coco",
			Name: "UCAS-AOD to COCO",
			Description: "Convert one UCAS-AOD class directory to train/val COCO JSON",
		},
		Flags: func(fs *flag.FlagSet) func(args []string) (interface{}, error) {
			defaults := DefaultParams()
			root := fs.String("root", "", "root path of UCAS-AOD dataset")
			className := fs.String("class_name", defaults.ClassName, "class name (car or plane)")
			valRatio := fs.Float64("val_ratio", defaults.ValRatio, "validation set ratio")
			seed := fs.Int64("seed", defaults.Seed, "random seed for the train/val split")
			trainOut := fs.String("train-out", "", "output path of the train COCO JSON")
			valOut := fs.String("val-out", "", "output path of the val COCO JSON")
			imageExt := fs.String("ext", defaults.ImageExt, "image file extension")
			return func(args []string) (interface{}, error) {
				if len(args) > 0 {
					return nil, fmt.Errorf("unexpected arguments %v", args)
				}
				return Params{
					Root: *root,
					ClassName: *className,
					ValRatio: *valRatio,
					Seed: *seed,
					TrainOutput: *trainOut,
					ValOutput: *valOut,
					ImageExt: *imageExt,
				}, nil
			}
		},
		Prepare: func(node skyhook.ExecNode) (skyhook.ExecOp, error) {
			params := DefaultParams()
			if err := skyhook.DecodeParams(node, &params); err != nil {
				return nil, err
			}
			if err := params.Validate(); err != nil {
				return nil, err
			}
			return skyhook.SimpleExecOp{ApplyFunc: func(ctx context.Context) error {
				return Run(params)
			}}, nil
		},
	})
}

package dota2coco

import (
	"github.com/skyhookml/aerial2coco/exec_ops"
	"github.com/skyhookml/aerial2coco/skyhook"

	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
)

// Convert a cropped DOTA dataset (images/ and labelTxt/ under one root) to COCO JSON.

type Params struct {
	Root string `json:"root" yaml:"root"`
	OutJSON string `json:"out_json" yaml:"out_json"`
	// Classes to convert, objects of other classes are dropped.
	// Defaults to the full vocabulary of Version.
	ClassNames []string `json:"class_names,omitempty" yaml:"class_names,omitempty"`
	// DOTA vocabulary, "1.0" (15 classes) or "1.5" (16 classes).
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	ImageExt string `json:"image_ext,omitempty" yaml:"image_ext,omitempty"`
}

// Fills defaults and checks the class names against the vocabulary.
func (params *Params) Validate() error {
	if params.Root == "" || params.OutJSON == "" {
		return fmt.Errorf("root and out_json are required")
	}
	vocabulary, err := skyhook.DOTAVocabulary(params.Version)
	if err != nil {
		return err
	}
	if len(params.ClassNames) == 0 {
		params.ClassNames = vocabulary
	}
	if err := skyhook.CheckClasses(params.ClassNames, vocabulary); err != nil {
		return err
	}
	if params.ImageExt == "" {
		params.ImageExt = ".png"
	}
	params.ImageExt = exec_ops.DotExt(params.ImageExt)
	return nil
}

func Convert(params Params) (skyhook.CocoJSON, error) {
	files, err := exec_ops.PairLabelFiles(
		filepath.Join(params.Root, "labelTxt"),
		filepath.Join(params.Root, "images"),
		params.ImageExt,
	)
	if err != nil {
		return skyhook.CocoJSON{}, err
	}
	log.Printf("[dota2coco] converting %d label files under %s", len(files), params.Root)

	format, err := skyhook.FormatFor(skyhook.DOTAKind, params.ClassNames)
	if err != nil {
		return skyhook.CocoJSON{}, err
	}
	assembler := skyhook.NewCocoAssembler(params.ClassNames)
	if err := assembler.ConvertFiles(files, format); err != nil {
		return skyhook.CocoJSON{}, err
	}
	return assembler.Finish(), nil
}

func init() {
	skyhook.AddExecOpImpl(skyhook.ExecOpImpl{
		Config: skyhook.ExecOpConfig{
			ID: "dota2coco",
			Name: "DOTA to COCO",
			Description: "Convert a cropped DOTA dataset (images/, labelTxt/) to COCO JSON",
		},
		Flags: func(fs *flag.FlagSet) func(args []string) (interface{}, error) {
			var classNames exec_ops.StringsFlag
			fs.Var(&classNames, "c", "class name to convert (repeatable, default all DOTA classes)")
			fs.Var(&classNames, "class_names", "same as -c")
			version := fs.String("version", "1.0", "DOTA vocabulary version (1.0 or 1.5)")
			imageExt := fs.String("ext", ".png", "image file extension")
			fs.Usage = func() {
				fmt.Fprintf(fs.Output(), "usage: dota2coco [flags] root out_json\n")
				fs.PrintDefaults()
			}
			return func(args []string) (interface{}, error) {
				if len(args) != 2 {
					return nil, fmt.Errorf("expected positional arguments root and out_json")
				}
				return Params{
					Root: args[0],
					OutJSON: args[1],
					ClassNames: classNames,
					Version: *version,
					ImageExt: *imageExt,
				}, nil
			}
		},
		Prepare: func(node skyhook.ExecNode) (skyhook.ExecOp, error) {
			var params Params
			if err := skyhook.DecodeParams(node, &params); err != nil {
				return nil, err
			}
			// classes are checked before any file is read
			if err := params.Validate(); err != nil {
				return nil, err
			}
			applyFunc := func(ctx context.Context) error {
				coco, err := Convert(params)
				if err != nil {
					return err
				}
				if err := exec_ops.EnsureParentDir(params.OutJSON); err != nil {
					return err
				}
				if err := skyhook.WriteCocoJSON(params.OutJSON, coco); err != nil {
					return err
				}
				log.Printf("[dota2coco] wrote %d images, %d annotations, %d categories to %s", len(coco.Images), len(coco.Annotations), len(coco.Categories), params.OutJSON)
				return nil
			}
			return skyhook.SimpleExecOp{ApplyFunc: applyFunc}, nil
		},
	})
}

package exec_ops

import (
	"github.com/skyhookml/aerial2coco/skyhook"

	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Pairs every .txt label file in labelDir with the image of the same stem in imageDir.
// The image is not checked for existence here, conversion fails later if it is missing.
func PairLabelFiles(labelDir string, imageDir string, imageExt string) ([]skyhook.AnnotationFile, error) {
	labelFnames, err := skyhook.ListFiles(labelDir, ".txt")
	if err != nil {
		return nil, fmt.Errorf("error listing label files: %v", err)
	}
	files := make([]skyhook.AnnotationFile, len(labelFnames))
	for i, fname := range labelFnames {
		files[i] = skyhook.AnnotationFile{
			LabelFname: fname,
			ImageFname: filepath.Join(imageDir, skyhook.Stem(fname)+imageExt),
		}
	}
	return files, nil
}

// Creates the parent directory of fname if needed.
func EnsureParentDir(fname string) error {
	dir := filepath.Dir(fname)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// Normalizes an extension to start with ".".
func DotExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "."+ext
}

// flag.Value collecting repeated string flags.
type StringsFlag []string

func (f *StringsFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *StringsFlag) Set(s string) error {
	*f = append(*f, s)
	return nil
}

var _ flag.Value = &StringsFlag{}

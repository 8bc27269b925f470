package skyhook

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rubenfonseca/fastimage"
)

func ReadJSONFile(fname string, res interface{}) error {
	bytes, err := ioutil.ReadFile(fname)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bytes, res); err != nil {
		return fmt.Errorf("error decoding %s: %v", fname, err)
	}
	return nil
}

func JsonMarshal(x interface{}) []byte {
	bytes, err := json.Marshal(x)
	if err != nil {
		panic(err)
	}
	return bytes
}

// Parses a finite float. NaN and infinities are errors since they cannot be
// written to JSON.
func ParseFloat(str string) (float64, error) {
	x, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	} else if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("non-finite value %q", str)
	}
	return x, nil
}

// Shortest decimal representation, e.g. 1 instead of 1.000000.
func FormatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func Mod(a, b int) int {
	x := a%b
	if x < 0 {
		x = x+b
	}
	return x
}

func Clip(x, lo, hi int) int {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	} else {
		return x
	}
}

func ClipFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	} else {
		return x
	}
}

// Reads the image header to get the dimensions without decoding the pixels.
func GetImageDimsFromFile(fname string) ([2]int, error) {
	var dims [2]int
	file, err := os.Open(fname)
	if err != nil {
		return dims, err
	}
	defer file.Close()
	_, size, err := fastimage.DetectImageTypeFromReader(file)
	if err != nil {
		return dims, fmt.Errorf("error reading image header of %s: %v", fname, err)
	} else if size == nil {
		return dims, fmt.Errorf("unknown image format in %s", fname)
	}
	dims = [2]int{int(size.Width), int(size.Height)}
	return dims, nil
}

// Returns the filename without directory and extension.
func Stem(fname string) string {
	fname = filepath.Base(fname)
	return fname[0:len(fname)-len(filepath.Ext(fname))]
}

// Lists regular files in dir whose extension (with ".") is one of exts.
// If exts is empty, all regular files are returned.
// The result is sorted by filename.
func ListFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	extSet := make(map[string]bool)
	for _, ext := range exts {
		extSet[ext] = true
	}
	var fnames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(extSet) > 0 && !extSet[filepath.Ext(entry.Name())] {
			continue
		}
		fnames = append(fnames, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(fnames)
	return fnames, nil
}

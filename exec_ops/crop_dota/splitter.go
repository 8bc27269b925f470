package crop_dota

import (
	"github.com/skyhookml/aerial2coco/skyhook"

	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhconnelly/rtreego"
	gomapinfer "github.com/mitroadmaps/gomapinfer/common"
	sync "github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var ImageExts = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}

type Options struct {
	// Tile width and height.
	SubSize int
	// Overlap between adjacent tiles.
	Gap int
	// Images (and labels) are scaled by Rate before tiling.
	Rate float64
	// Partially covered objects keep their difficulty only if more than
	// Thresh of their area is inside the tile, otherwise difficulty is 2.
	Thresh float64
	// Output image extension.
	Ext string
	// Pad border tiles with black up to SubSize x SubSize.
	Padding bool
	// Rotate clipped polygons to line up with the original corner order.
	ChooseBestPoint bool
	NumWorkers int
}

func DefaultOptions() Options {
	return Options{
		SubSize: 1024,
		Gap: 512,
		Rate: 1,
		Thresh: 0.7,
		Ext: ".png",
		Padding: true,
		ChooseBestPoint: true,
		NumWorkers: 8,
	}
}

func (opts Options) Validate() error {
	if opts.SubSize <= 0 {
		return fmt.Errorf("subsize must be positive")
	}
	if opts.Gap < 0 || opts.Gap >= opts.SubSize {
		return fmt.Errorf("gap must be in [0, subsize), got %d", opts.Gap)
	}
	if opts.Rate <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	if opts.NumWorkers <= 0 {
		return fmt.Errorf("need at least one worker")
	}
	return nil
}

type Window struct {
	Left int
	Up int
	Right int
	Down int
}

// Tile windows covering a width x height image with stride subSize-gap.
// The last row and column are shifted back so that they end at the image border.
func Windows(width int, height int, subSize int, gap int) []Window {
	slide := subSize-gap
	var windows []Window
	left := 0
	for left < width {
		if left+subSize >= width {
			left = max(width-subSize, 0)
		}
		up := 0
		for up < height {
			if up+subSize >= height {
				up = max(height-subSize, 0)
			}
			windows = append(windows, Window{
				Left: left,
				Up: up,
				Right: min(left+subSize, width-1),
				Down: min(up+subSize, height-1),
			})
			if up+subSize >= height {
				break
			}
			up += slide
		}
		if left+subSize >= width {
			break
		}
		left += slide
	}
	return windows
}

func TileName(stem string, rate float64, left int, up int) string {
	return fmt.Sprintf("%s__%s__%d___%d", stem, skyhook.FormatFloat(rate), left, up)
}

type object struct {
	idx int
	rec skyhook.AnnotationRecord
	poly skyhook.Polygon
	area float64
	rect rtreego.Rect
}

func (o *object) Bounds() rtreego.Rect {
	return o.rect
}

// Splits the images in one directory into tiles.
// If LabelDir is set, DOTA labels are re-windowed into OutLabelDir as well.
type Splitter struct {
	Options Options
	ImageDir string
	LabelDir string
	OutImageDir string
	OutLabelDir string

	mu sync.Mutex
	numImages int
	numTiles int
}

// Labeled split: src/images + src/labelTxt -> dst/images + dst/labelTxt.
func NewSplitter(srcDir string, dstDir string, opts Options) *Splitter {
	return &Splitter{
		Options: opts,
		ImageDir: filepath.Join(srcDir, "images"),
		LabelDir: filepath.Join(srcDir, "labelTxt"),
		OutImageDir: filepath.Join(dstDir, "images"),
		OutLabelDir: filepath.Join(dstDir, "labelTxt"),
	}
}

// Images-only split, tiles are written directly into dstDir.
func NewImageOnlySplitter(srcDir string, dstDir string, opts Options) *Splitter {
	return &Splitter{
		Options: opts,
		ImageDir: srcDir,
		OutImageDir: dstDir,
	}
}

func (s *Splitter) Counts() (numImages int, numTiles int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numImages, s.numTiles
}

func (s *Splitter) SplitAll(ctx context.Context) error {
	if err := s.Options.Validate(); err != nil {
		return err
	}
	fnames, err := skyhook.ListFiles(s.ImageDir, ImageExts...)
	if err != nil {
		return fmt.Errorf("error listing images: %v", err)
	}
	for _, dir := range []string{s.OutImageDir, s.OutLabelDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	log.Printf("[crop_dota] splitting %d images from %s into %s", len(fnames), s.ImageDir, s.OutImageDir)

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(s.Options.NumWorkers))
	for _, fname := range fnames {
		if skyhook.Stem(fname) == "Thumbs" {
			continue
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		fname := fname
		g.Go(func() error {
			defer sem.Release(1)
			return s.SplitImage(gctx, fname)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	numImages, numTiles := s.Counts()
	log.Printf("[crop_dota] done with %s: %d images, %d tiles", s.ImageDir, numImages, numTiles)
	return nil
}

func (s *Splitter) loadObjects(stem string) ([]*object, error) {
	if s.LabelDir == "" {
		return nil, nil
	}
	records, err := skyhook.ParseAnnotationFile(filepath.Join(s.LabelDir, stem+".txt"), skyhook.DOTAFormat{})
	if err != nil {
		return nil, err
	}
	var objects []*object
	for i, rec := range records {
		if s.Options.Rate != 1 {
			rec = skyhook.NewAnnotationRecord(skyhook.ScalePoly(rec.Poly, s.Options.Rate), rec.Category, rec.Difficult)
		}
		poly := skyhook.PolygonFromFlat(rec.Poly[:])
		bounds := poly.Bounds()
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{bounds.Min.X, bounds.Min.Y},
			rtreego.Point{bounds.Max.X, bounds.Max.Y},
		)
		if err != nil {
			return nil, err
		}
		objects = append(objects, &object{
			idx: i,
			rec: rec,
			poly: poly,
			area: poly.Area(),
			rect: rect,
		})
	}
	return objects, nil
}

func (s *Splitter) SplitImage(ctx context.Context, fname string) error {
	stem := skyhook.Stem(fname)
	im, err := skyhook.ImageFromFile(fname)
	if err != nil {
		// unreadable images are skipped rather than failing the whole split
		log.Printf("[crop_dota] warning: skipping %s: %v", fname, err)
		return nil
	}
	objects, err := s.loadObjects(stem)
	if err != nil {
		return err
	}

	if s.Options.Rate != 1 {
		width := int(math.Round(float64(im.Width)*s.Options.Rate))
		height := int(math.Round(float64(im.Height)*s.Options.Rate))
		im = im.Resize(width, height)
	}

	var tree *rtreego.Rtree
	if len(objects) > 0 {
		spatials := make([]rtreego.Spatial, len(objects))
		for i, obj := range objects {
			spatials[i] = obj
		}
		tree = rtreego.NewTree(2, 25, 50, spatials...)
	}

	windows := Windows(im.Width, im.Height, s.Options.SubSize, s.Options.Gap)
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := TileName(stem, s.Options.Rate, w.Left, w.Up)
		if s.OutLabelDir != "" {
			var candidates []*object
			if tree != nil {
				query, err := rtreego.NewRectFromPoints(
					rtreego.Point{float64(w.Left), float64(w.Up)},
					rtreego.Point{float64(w.Right), float64(w.Down)},
				)
				if err != nil {
					return err
				}
				for _, spatial := range tree.SearchIntersect(query) {
					candidates = append(candidates, spatial.(*object))
				}
				sort.Slice(candidates, func(i, j int) bool {
					return candidates[i].idx < candidates[j].idx
				})
			}
			lines := s.tileLabels(w, candidates)
			bytes := []byte(strings.Join(lines, ""))
			if err := os.WriteFile(filepath.Join(s.OutLabelDir, name+".txt"), bytes, 0644); err != nil {
				return err
			}
		}

		var tile skyhook.Image
		if s.Options.Padding {
			tile = im.Crop(w.Left, w.Up, w.Left+s.Options.SubSize, w.Up+s.Options.SubSize)
		} else {
			tile = im.Crop(w.Left, w.Up, min(w.Left+s.Options.SubSize, im.Width), min(w.Up+s.Options.SubSize, im.Height))
		}
		if err := tile.WriteFile(filepath.Join(s.OutImageDir, name+s.Options.Ext)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.numImages++
	s.numTiles += len(windows)
	if s.numImages % 50 == 0 {
		log.Printf("[crop_dota] %s: split %d images so far", s.ImageDir, s.numImages)
	}
	s.mu.Unlock()
	return nil
}

// Label lines (with trailing newline) for objects intersecting the window, in tile coordinates.
func (s *Splitter) tileLabels(w Window, objects []*object) []string {
	rect := gomapinfer.Rectangle{
		Min: gomapinfer.Point{float64(w.Left), float64(w.Up)},
		Max: gomapinfer.Point{float64(w.Right), float64(w.Down)},
	}
	subSize := float64(s.Options.SubSize)
	translate := func(flat []float64) []float64 {
		out := make([]float64, len(flat))
		for i := range flat {
			if i%2 == 0 {
				out[i] = flat[i]-float64(w.Left)
			} else {
				out[i] = flat[i]-float64(w.Up)
			}
		}
		return out
	}
	format := func(flat []float64, category string, difficult string) string {
		parts := make([]string, 0, len(flat)+2)
		for _, x := range flat {
			parts = append(parts, skyhook.FormatFloat(x))
		}
		parts = append(parts, category, difficult)
		return strings.Join(parts, " ")+"\n"
	}

	var lines []string
	for _, obj := range objects {
		if obj.area <= 0 {
			continue
		}
		clipped := obj.poly.ClipToRect(rect)
		if clipped == nil {
			continue
		}
		ratio := clipped.Area()/obj.area
		if ratio >= 1 {
			lines = append(lines, format(translate(obj.rec.Poly[:]), obj.rec.Category, obj.rec.Difficult))
			continue
		} else if ratio <= 0 {
			continue
		}

		clipped = clipped.Orient()
		if len(clipped) < 4 || len(clipped) > 5 {
			continue
		}
		flat := clipped.Flat()
		if len(clipped) == 5 {
			flat = GetPoly4FromPoly5(flat)
		}
		if s.Options.ChooseBestPoint {
			flat = ChooseBestPointOrder(flat, obj.rec.Poly[:])
		}
		flat = translate(flat)
		for i := range flat {
			flat[i] = skyhook.ClipFloat(flat[i], 1, subSize)
		}
		difficult := obj.rec.Difficult
		if ratio <= s.Options.Thresh {
			difficult = "2"
		}
		lines = append(lines, format(flat, obj.rec.Category, difficult))
	}
	return lines
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

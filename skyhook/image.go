package skyhook

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// RGB image stored row-major, three bytes per pixel.
type Image struct {
	Width int
	Height int
	Bytes []byte
}

func NewImage(width int, height int) Image {
	return Image{
		Width: width,
		Height: height,
		Bytes: make([]byte, 3*width*height),
	}
}

// Decodes any registered format (png, jpeg, tiff, bmp).
func ImageFromReader(rd io.Reader) (Image, error) {
	im, _, err := image.Decode(rd)
	if err != nil {
		return Image{}, err
	}
	return ImageFromGoImage(im), nil
}

func ImageFromGoImage(im image.Image) Image {
	rect := im.Bounds()
	rgba, ok := im.(*image.RGBA)
	if !ok || rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(rgba, rgba.Bounds(), im, rect.Min, draw.Src)
	}
	width := rect.Dx()
	height := rect.Dy()
	bytes := make([]byte, width*height*3)
	for j := 0; j < height; j++ {
		row := rgba.Pix[j*rgba.Stride:]
		for i := 0; i < width; i++ {
			bytes[(j*width+i)*3+0] = row[i*4+0]
			bytes[(j*width+i)*3+1] = row[i*4+1]
			bytes[(j*width+i)*3+2] = row[i*4+2]
		}
	}
	return Image{
		Width: width,
		Height: height,
		Bytes: bytes,
	}
}

func ImageFromFile(fname string) (Image, error) {
	file, err := os.Open(fname)
	if err != nil {
		return Image{}, err
	}
	defer file.Close()
	im, err := ImageFromReader(file)
	if err != nil {
		return Image{}, fmt.Errorf("error decoding image %s: %v", fname, err)
	}
	return im, nil
}

func (im Image) AsImage() *image.RGBA {
	pixbuf := make([]byte, im.Width*im.Height*4)
	j := 0
	channels := 0
	for i := range im.Bytes {
		pixbuf[j] = im.Bytes[i]
		j++
		channels++
		if channels == 3 {
			pixbuf[j] = 255
			j++
			channels = 0
		}
	}
	img := &image.RGBA{
		Pix: pixbuf,
		Stride: im.Width*4,
		Rect: image.Rect(0, 0, im.Width, im.Height),
	}
	return img
}

func (im Image) AsJPG() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, im.AsImage(), &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (im Image) AsPNG() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, im.AsImage()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Writes the image in the format implied by the filename extension.
func (im Image) WriteFile(fname string) error {
	var bytes []byte
	var err error
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".png":
		bytes, err = im.AsPNG()
	case ".jpg", ".jpeg":
		bytes, err = im.AsJPG()
	default:
		return fmt.Errorf("unsupported output image extension in %s", fname)
	}
	if err != nil {
		return err
	}
	return ioutil.WriteFile(fname, bytes, 0644)
}

// Returns the (ex-sx)x(ey-sy) window starting at (sx, sy).
// Parts of the window outside the image are black.
func (im Image) Crop(sx, sy, ex, ey int) Image {
	out := NewImage(ex-sx, ey-sy)
	csx := Clip(sx, 0, im.Width)
	cex := Clip(ex, 0, im.Width)
	if csx >= cex {
		return out
	}
	for j := Clip(sy, 0, im.Height); j < Clip(ey, 0, im.Height); j++ {
		src := im.Bytes[(j*im.Width+csx)*3:(j*im.Width+cex)*3]
		copy(out.Bytes[((j-sy)*out.Width+(csx-sx))*3:], src)
	}
	return out
}

func (im Image) Resize(width, height int) Image {
	resized := resize.Resize(uint(width), uint(height), im.AsImage(), resize.Bicubic)
	return ImageFromGoImage(resized)
}

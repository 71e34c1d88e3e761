// Package render converts fields and worlds into images and PNG files.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/disintegration/gift"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionHeight = 18

// Gray maps a [0,1] field to an 8-bit grayscale image. Values outside the
// range are clamped.
func Gray(f *perlin.Field) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: toByte(f.At(x, y))})
		}
	}
	return img
}

// Contribution renders one octave contribution, stretched to its own value range.
func Contribution(f *perlin.Field) *image.Gray {
	lo, hi := f.MinMax()
	if hi == lo {
		return Gray(perlin.NewField(f.Width, f.Height))
	}
	stretched := perlin.NewField(f.Width, f.Height)
	for i, v := range f.Values {
		stretched.Values[i] = (v - lo) / (hi - lo)
	}
	return Gray(stretched)
}

// Scale enlarges img by an integer factor without smoothing, so every cell
// stays a solid block.
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	g := gift.New(gift.Resize(b.Dx()*factor, b.Dy()*factor, gift.NearestNeighborResampling))
	dst := image.NewRGBA(g.Bounds(b))
	g.Draw(dst, img)
	return dst
}

// Smooth applies a Gaussian blur. A non-positive sigma returns img unchanged.
func Smooth(img image.Image, sigma float32) image.Image {
	if sigma <= 0 {
		return img
	}
	g := gift.New(gift.GaussianBlur(sigma))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// Caption returns a copy of img with a white strip above it holding text.
func Caption(img image.Image, text string) image.Image {
	if text == "" {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+captionHeight))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, captionHeight, b.Dx(), b.Dy()+captionHeight), img, b.Min, draw.Src)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, captionHeight-5),
	}
	d.DrawString(text)
	return out
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WritePNG writes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// Options control post-processing of a rendered image.
type Options struct {
	Caption string
	Scale   int
	Smooth  float32
}

// Finish applies smoothing, scaling and the caption in that order.
func Finish(img image.Image, opts Options) image.Image {
	img = Smooth(img, opts.Smooth)
	img = Scale(img, opts.Scale)
	return Caption(img, opts.Caption)
}

func toByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

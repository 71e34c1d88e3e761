package world

import (
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/webworld/internal/perlin"
)

// WaterColors are the bands from the deepest water up to the water level.
var WaterColors = []color.RGBA{
	{R: 54, G: 110, B: 140, A: 255},
	{R: 66, G: 123, B: 148, A: 255},
	{R: 78, G: 135, B: 155, A: 255},
	{R: 106, G: 143, B: 161, A: 255},
	{R: 125, G: 147, B: 161, A: 255},
	{R: 155, G: 164, B: 169, A: 255},
}

// LandColors are the bands from the shore up to the highest peak.
var LandColors = []color.RGBA{
	{R: 121, G: 136, B: 90, A: 255},
	{R: 172, G: 161, B: 133, A: 255},
	{R: 174, G: 142, B: 82, A: 255},
	{R: 177, G: 129, B: 57, A: 255},
	{R: 174, G: 117, B: 36, A: 255},
	{R: 167, G: 98, B: 32, A: 255},
	{R: 165, G: 72, B: 19, A: 255},
	{R: 145, G: 48, B: 14, A: 255},
}

// ColorMap paints the height of every tile. Water bands split [min, water level]
// evenly and land bands split [water level, max]; a height on a band boundary
// takes the later band.
func (w *World) ColorMap() (*image.RGBA, error) {
	heights, err := w.Map(Height)
	if err != nil {
		return nil, err
	}
	lo, hi := heights.MinMax()
	if !(lo < w.WaterLevel && w.WaterLevel < hi) {
		return nil, fmt.Errorf("%w: level %g, heights [%g, %g]", ErrWaterLevel, w.WaterLevel, lo, hi)
	}

	img := image.NewRGBA(image.Rect(0, 0, heights.Width, heights.Height))
	paintBands(img, heights, WaterColors, perlin.Linspace(lo, w.WaterLevel, len(WaterColors)+1))
	paintBands(img, heights, LandColors, perlin.Linspace(w.WaterLevel, hi, len(LandColors)+1))
	return img, nil
}

func paintBands(img *image.RGBA, heights *perlin.Field, colors []color.RGBA, bounds []float64) {
	for i, c := range colors {
		start, end := bounds[i], bounds[i+1]
		for y := 0; y < heights.Height; y++ {
			for x := 0; x < heights.Width; x++ {
				h := heights.At(x, y)
				if start <= h && h <= end {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
}

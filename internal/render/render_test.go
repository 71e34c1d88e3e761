package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGray(t *testing.T) {
	f := &perlin.Field{Width: 3, Height: 1, Values: []float64{0, 0.5, 1.2}}
	img := Gray(f)
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(128), img.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(2, 0).Y)
}

func TestContributionStretches(t *testing.T) {
	f := &perlin.Field{Width: 2, Height: 1, Values: []float64{-0.2, 0.1}}
	img := Contribution(f)
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(1, 0).Y)

	flat := Contribution(&perlin.Field{Width: 2, Height: 1, Values: []float64{0.3, 0.3}})
	assert.Equal(t, uint8(0), flat.GrayAt(1, 0).Y)
}

func TestScale(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(1, 0, color.Gray{Y: 200})

	out := Scale(src, 3)
	require.Equal(t, 6, out.Bounds().Dx())
	require.Equal(t, 6, out.Bounds().Dy())

	r, _, _, _ := out.At(4, 1).RGBA()
	assert.InDelta(t, 200*0x101, float64(r), 0x200)
	r, _, _, _ = out.At(1, 1).RGBA()
	assert.Equal(t, uint32(0), r)

	assert.Same(t, src, Scale(src, 1).(*image.Gray))
}

func TestSmooth(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 9, 9))
	src.SetGray(4, 4, color.Gray{Y: 255})

	out := Smooth(src, 1.5)
	require.Equal(t, src.Bounds(), out.Bounds())
	r, _, _, _ := out.At(4, 4).RGBA()
	assert.Less(t, r, uint32(0xffff))
	r, _, _, _ = out.At(5, 4).RGBA()
	assert.Greater(t, r, uint32(0))
}

func TestCaption(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 120, 40))
	out := Caption(src, "Height map of the world")
	assert.Equal(t, 120, out.Bounds().Dx())
	assert.Equal(t, 40+captionHeight, out.Bounds().Dy())

	// Some caption pixels are dark.
	dark := 0
	for y := 0; y < captionHeight; y++ {
		for x := 0; x < 120; x++ {
			r, _, _, _ := out.At(x, y).RGBA()
			if r < 0x8000 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 0)

	assert.Equal(t, src.Bounds(), Caption(src, "").Bounds())
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "map.png")
	f := &perlin.Field{Width: 4, Height: 2, Values: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 1}}

	require.NoError(t, WritePNG(path, Finish(Gray(f), Options{Scale: 2})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, image.NewGray(image.Rect(0, 0, 3, 3))))
	_, err := png.Decode(&buf)
	require.NoError(t, err)
}

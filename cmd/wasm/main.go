//go:build js && wasm
// +build js,wasm

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/world"
)

// NoiseRequest is a map request from JS. Zero fields take the defaults.
type NoiseRequest struct {
	Height      int     `json:"height"`
	Width       int     `json:"width"`
	Octaves     int     `json:"octaves"`
	MinGridSize int     `json:"min_grid_size"`
	Seed        int64   `json:"seed"`
	WaterLevel  float64 `json:"water_level"`
}

func parseRequest(args []js.Value) (NoiseRequest, error) {
	if len(args) < 1 {
		return NoiseRequest{}, fmt.Errorf("missing arguments")
	}
	var req NoiseRequest
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return NoiseRequest{}, fmt.Errorf("failed to parse request: %v", err)
	}

	p := perlin.DefaultParams(req.Height, req.Width)
	if req.Octaves == 0 {
		req.Octaves = p.Octaves
	}
	if req.MinGridSize == 0 {
		req.MinGridSize = p.MinGridSize
	}
	if req.WaterLevel == 0 {
		req.WaterLevel = 0.5
	}
	return req, nil
}

func (r NoiseRequest) params() perlin.Params {
	return perlin.Params{Height: r.Height, Width: r.Width, Octaves: r.Octaves, MinGridSize: r.MinGridSize}
}

// generateNoise returns {width, height, values} with row-major values in [0, 1].
func generateNoise(this js.Value, args []js.Value) interface{} {
	req, err := parseRequest(args)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	field, err := perlin.NoiseMap(req.params(), perlin.Options{Seed: req.Seed})
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	values := make([]interface{}, len(field.Values))
	for i, v := range field.Values {
		values[i] = v
	}
	return map[string]interface{}{
		"width":  field.Width,
		"height": field.Height,
		"values": values,
	}
}

// generateWorld returns {width, height, rgba} where rgba holds the colour map bytes.
func generateWorld(this js.Value, args []js.Value) interface{} {
	req, err := parseRequest(args)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	field, err := perlin.NoiseMap(req.params(), perlin.Options{Seed: req.Seed})
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	w, err := world.FromHeightMap(field, req.WaterLevel)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	img, err := w.ColorMap()
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	rgba := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(rgba, img.Pix)
	return map[string]interface{}{
		"width":         w.Cols(),
		"height":        w.Rows(),
		"rgba":          rgba,
		"land_fraction": w.LandFraction(),
	}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("webworldNoise", js.FuncOf(generateNoise))
	js.Global().Set("webworldWorld", js.FuncOf(generateWorld))

	fmt.Println("Webworld WASM module loaded")
	<-c
}

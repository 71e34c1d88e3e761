package cmd

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/store"
)

// useTestConfig overrides every key the commands read with small test values.
func useTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	values := map[string]any{
		"noise.height":               12,
		"noise.width":                16,
		"noise.octaves":              3,
		"noise.min_grid_size":        3,
		"noise.seed":                 int64(0),
		"noise.workers":              2,
		"noise.backend":              "direct",
		"noise.external.octaves":     2,
		"noise.external.lacunarity":  0.15,
		"noise.external.persistence": 5.0,
		"noise.output":               filepath.Join(dir, "noise.png"),
		"world.water_level":          0.5,
		"world.png":                  filepath.Join(dir, "world.png"),
		"world.geojson":              filepath.Join(dir, "world.geojson"),
		"render.scale":               1,
		"render.smooth":              0.0,
		"render.caption":             "",
		"store.path":                 "",
		"octaves.out_dir":            filepath.Join(dir, "octaves"),
		"octaves.export_workers":     2,
		"octaves.progress":           false,
		"octaves.captions":           true,
	}
	for k, v := range values {
		viper.Set(k, v)
	}
	initLogging()
	return dir
}

func TestLoadNoiseConfig(t *testing.T) {
	useTestConfig(t)

	nc, err := loadNoiseConfig()
	require.NoError(t, err)
	assert.Equal(t, perlin.BackendDirect, nc.Backend)
	assert.Equal(t, perlin.Params{Height: 12, Width: 16, Octaves: 3, MinGridSize: 3}, nc.Params)
	assert.Equal(t, perlin.ExternalParams{Octaves: 2, Lacunarity: 0.15, Persistence: 5}, nc.External)
	assert.Equal(t, 2, nc.Workers)
	assert.Equal(t, store.Key{Backend: "direct", Height: 12, Width: 16, Octaves: 3, MinGridSize: 3}, nc.storeKey())

	viper.Set("noise.backend", "fractal")
	_, err = loadNoiseConfig()
	require.ErrorIs(t, err, perlin.ErrInvalidParameter)
}

func TestRunNoise(t *testing.T) {
	dir := useTestConfig(t)

	require.NoError(t, runNoise(noiseCmd, nil))

	f, err := os.Open(filepath.Join(dir, "noise.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())
}

func TestRunNoiseInvalidParams(t *testing.T) {
	useTestConfig(t)
	viper.Set("noise.octaves", 0)

	err := runNoise(noiseCmd, nil)
	require.ErrorIs(t, err, perlin.ErrInvalidParameter)
}

func TestHeightMapReadsThroughStore(t *testing.T) {
	dir := useTestConfig(t)
	viper.Set("store.path", filepath.Join(dir, "maps.db"))

	st, err := openStore()
	require.NoError(t, err)
	defer st.Close()

	nc, err := loadNoiseConfig()
	require.NoError(t, err)

	first, cached, err := heightMap(nc, st)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := heightMap(nc, st)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.Values, second.Values)

	meta, err := st.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "webworld", meta["generator"])
}

func TestRunOctaves(t *testing.T) {
	dir := useTestConfig(t)

	require.NoError(t, runOctaves(octavesCmd, nil))

	entries, err := os.ReadDir(filepath.Join(dir, "octaves"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"combined.png",
		"octave_00_grid_3.png",
		"octave_01_grid_6.png",
		"octave_02_grid_16.png",
	}, names)
}

func TestRunOctavesRejectsExternalBackend(t *testing.T) {
	useTestConfig(t)
	viper.Set("noise.backend", "external")

	require.Error(t, runOctaves(octavesCmd, nil))
}

func TestRunWorld(t *testing.T) {
	dir := useTestConfig(t)

	require.NoError(t, runWorld(worldCmd, nil))

	_, err := os.Stat(filepath.Join(dir, "world.png"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "world.geojson"))
	require.NoError(t, err)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 12*16)
}

func TestRunWorldNothingToWrite(t *testing.T) {
	useTestConfig(t)
	viper.Set("world.png", "")
	viper.Set("world.geojson", "")

	require.Error(t, runWorld(worldCmd, nil))
}

func TestRunStoreList(t *testing.T) {
	dir := useTestConfig(t)
	viper.Set("store.path", filepath.Join(dir, "maps.db"))

	require.NoError(t, runNoise(noiseCmd, nil))

	var out bytes.Buffer
	storeListCmd.SetOut(&out)
	t.Cleanup(func() { storeListCmd.SetOut(nil) })

	require.NoError(t, runStoreList(storeListCmd, nil))
	text := out.String()
	assert.Contains(t, text, "# generator: webworld")
	assert.Contains(t, text, "BACKEND")

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"direct", "12", "16", "3", "3", "0"}, strings.Fields(lines[2]))
}

func TestRunStoreListWithoutStore(t *testing.T) {
	useTestConfig(t)
	require.Error(t, runStoreList(storeListCmd, nil))
}

package perlin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalNoise(t *testing.T) {
	m, err := ExternalNoise(20, 30, DefaultExternalParams(), Options{Seed: 1})
	require.NoError(t, err)
	require.Equal(t, 30, m.Width)
	require.Equal(t, 20, m.Height)

	lo, hi := m.MinMax()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	again, err := ExternalNoise(20, 30, DefaultExternalParams(), Options{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, m.Values, again.Values)
}

func TestExternalNoiseInvalid(t *testing.T) {
	_, err := ExternalNoise(0, 10, DefaultExternalParams(), Options{})
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ExternalNoise(10, 10, ExternalParams{Octaves: 2, Lacunarity: 2, Persistence: 0}, Options{})
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ExternalNoise(10, 10, ExternalParams{Octaves: 0, Lacunarity: 2, Persistence: 0.5}, Options{})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendDirect, b)

	b, err = ParseBackend("external")
	require.NoError(t, err)
	assert.Equal(t, BackendExternal, b)

	_, err = ParseBackend("simplex")
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestBuild(t *testing.T) {
	p := Params{Height: 10, Width: 12, Octaves: 3, MinGridSize: 3}

	direct, err := Build(BackendDirect, p, DefaultExternalParams(), Options{})
	require.NoError(t, err)
	want, err := NoiseMap(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, want.Values, direct.Values)

	ext, err := Build(BackendExternal, p, DefaultExternalParams(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 12, ext.Width)
	assert.Equal(t, 10, ext.Height)
}

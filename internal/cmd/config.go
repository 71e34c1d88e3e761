package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/render"
	"github.com/MeKo-Tech/webworld/internal/store"
)

// noiseConfig is the noise section of the configuration.
type noiseConfig struct {
	Backend  perlin.Backend
	Params   perlin.Params
	External perlin.ExternalParams
	Seed     int64
	Workers  int
}

func loadNoiseConfig() (noiseConfig, error) {
	backend, err := perlin.ParseBackend(viper.GetString("noise.backend"))
	if err != nil {
		return noiseConfig{}, err
	}

	return noiseConfig{
		Backend: backend,
		Params: perlin.Params{
			Height:      viper.GetInt("noise.height"),
			Width:       viper.GetInt("noise.width"),
			Octaves:     viper.GetInt("noise.octaves"),
			MinGridSize: viper.GetInt("noise.min_grid_size"),
		},
		External: perlin.ExternalParams{
			Octaves:     viper.GetInt("noise.external.octaves"),
			Lacunarity:  viper.GetFloat64("noise.external.lacunarity"),
			Persistence: viper.GetFloat64("noise.external.persistence"),
		},
		Seed:    viper.GetInt64("noise.seed"),
		Workers: viper.GetInt("noise.workers"),
	}, nil
}

func (c noiseConfig) options() perlin.Options {
	return perlin.Options{Logger: logger, Seed: c.Seed, Workers: c.Workers}
}

func (c noiseConfig) storeKey() store.Key {
	return store.Key{
		Backend:     string(c.Backend),
		Height:      c.Params.Height,
		Width:       c.Params.Width,
		Octaves:     c.Params.Octaves,
		MinGridSize: c.Params.MinGridSize,
		Seed:        c.Seed,
	}
}

func loadRenderOptions() render.Options {
	return render.Options{
		Scale:   viper.GetInt("render.scale"),
		Smooth:  float32(viper.GetFloat64("render.smooth")),
		Caption: viper.GetString("render.caption"),
	}
}

// openStore opens the configured store, or returns nil when none is configured.
func openStore() (*store.Store, error) {
	path := viper.GetString("store.path")
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.SetMetadata("generator", "webworld"); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			if logger != nil {
				logger.Info("Received interrupt signal, cancelling...")
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

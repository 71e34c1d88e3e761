package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/render"
	"github.com/MeKo-Tech/webworld/internal/store"
)

var noiseCmd = &cobra.Command{
	Use:   "noise",
	Short: "Generate a height map and write it as a grayscale PNG",
	RunE:  runNoise,
}

func init() {
	rootCmd.AddCommand(noiseCmd)

	noiseCmd.Flags().StringP("output", "o", "noise.png", "Output PNG path")

	if err := viper.BindPFlag("noise.output", noiseCmd.Flags().Lookup("output")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runNoise(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	nc, err := loadNoiseConfig()
	if err != nil {
		return err
	}
	output := viper.GetString("noise.output")

	st, err := openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	field, cached, err := heightMap(nc, st)
	if err != nil {
		return err
	}

	if err := render.WritePNG(output, render.Finish(render.Gray(field), loadRenderOptions())); err != nil {
		return err
	}

	logger.Info("Wrote noise map",
		"path", output,
		"height", nc.Params.Height,
		"width", nc.Params.Width,
		"backend", nc.Backend,
		"cached", cached,
	)
	return nil
}

// heightMap returns the configured map, reading through st for the direct
// backend. The bool reports a store hit.
func heightMap(nc noiseConfig, st *store.Store) (*perlin.Field, bool, error) {
	cacheable := st != nil && nc.Backend == perlin.BackendDirect
	key := nc.storeKey()

	if cacheable {
		entry, err := st.Get(key)
		if err == nil {
			logger.Debug("Loaded map from store", "key", key.String())
			return entry.Field, true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, err
		}
	}

	field, err := perlin.Build(nc.Backend, nc.Params, nc.External, nc.options())
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		var buf bytes.Buffer
		if err := render.EncodePNG(&buf, render.Gray(field)); err != nil {
			return nil, false, err
		}
		if err := st.Put(store.Entry{Key: key, Field: field, PNG: buf.Bytes()}); err != nil {
			return nil, false, err
		}
		logger.Debug("Stored map", "key", key.String())
	}

	return field, false, nil
}

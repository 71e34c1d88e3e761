package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/webworld/internal/render"
	"github.com/MeKo-Tech/webworld/internal/world"
)

var worldCmd = &cobra.Command{
	Use:   "world",
	Short: "Build a tile world and write its colour map and GeoJSON",
	RunE:  runWorld,
}

func init() {
	rootCmd.AddCommand(worldCmd)

	worldCmd.Flags().String("png", "world.png", "Colour map output path (empty to skip)")
	worldCmd.Flags().String("geojson", "", "GeoJSON output path (empty to skip)")

	if err := viper.BindPFlag("world.png", worldCmd.Flags().Lookup("png")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
	if err := viper.BindPFlag("world.geojson", worldCmd.Flags().Lookup("geojson")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runWorld(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	pngPath := viper.GetString("world.png")
	geojsonPath := viper.GetString("world.geojson")
	if pngPath == "" && geojsonPath == "" {
		return fmt.Errorf("nothing to write: set --png and/or --geojson")
	}

	w, err := buildWorld()
	if err != nil {
		return err
	}

	if pngPath != "" {
		img, err := w.ColorMap()
		if err != nil {
			return err
		}
		if err := render.WritePNG(pngPath, render.Finish(img, loadRenderOptions())); err != nil {
			return err
		}
		logger.Info("Wrote world colour map", "path", pngPath)
	}

	if geojsonPath != "" {
		data, err := w.GeoJSON().MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode geojson: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(geojsonPath), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(geojsonPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write geojson: %w", err)
		}
		logger.Info("Wrote world geojson", "path", geojsonPath, "tiles", w.Rows()*w.Cols())
	}

	logger.Info("World built",
		"rows", w.Rows(),
		"cols", w.Cols(),
		"water_level", w.WaterLevel,
		"land_fraction", w.LandFraction(),
	)
	return nil
}

// buildWorld generates the configured height map and wraps it in a world.
func buildWorld() (*world.World, error) {
	nc, err := loadNoiseConfig()
	if err != nil {
		return nil, err
	}

	st, err := openStore()
	if err != nil {
		return nil, err
	}
	if st != nil {
		defer st.Close()
	}

	heights, _, err := heightMap(nc, st)
	if err != nil {
		return nil, err
	}
	return world.FromHeightMap(heights, viper.GetFloat64("world.water_level"))
}

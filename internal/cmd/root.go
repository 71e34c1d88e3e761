package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/server"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "webworld",
	Short: "A procedural world generator built on multi-octave gradient noise",
	Long: `Webworld generates height maps from multi-octave lattice gradient noise and
turns them into tile worlds.

Maps can be written as PNG or GeoJSON, explored interactively over HTTP,
cached in a SQLite store and published to a MediaWiki.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	pf.Bool("verbose", false, "Enable verbose logging")

	// Noise parameters
	pf.Int("height", server.DefaultSize, "Map height in cells")
	pf.Int("width", server.DefaultSize, "Map width in cells")
	pf.Int("octaves", perlin.DefaultOctaves, "Number of octaves")
	pf.Int("min-grid-size", perlin.DefaultMinGridSize, "Lattice size of the coarsest octave")
	pf.Int64("seed", perlin.DefaultSeed, "Seed of the random gradient stream")
	pf.Int("workers", 1, "Parallel octave sampling goroutines (output does not depend on it)")
	pf.String("backend", string(perlin.BackendDirect), "Noise backend: direct or external")
	pf.Int("external-octaves", perlin.DefaultExternalParams().Octaves, "Octaves of the external backend")
	pf.Float64("lacunarity", perlin.DefaultExternalParams().Lacunarity, "Frequency factor of the external backend")
	pf.Float64("persistence", perlin.DefaultExternalParams().Persistence, "Amplitude factor of the external backend")

	// World and render settings
	pf.Float64("water-level", server.DefaultWaterLevel, "Height below which tiles are water")
	pf.Int("scale", 1, "Integer upscale factor of written images")
	pf.Float32("smooth", 0, "Gaussian blur sigma applied before scaling (0 disables)")
	pf.String("caption", "", "Caption drawn above written images")

	pf.String("store", "", "SQLite map store path (empty disables caching)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"verbose", "verbose"},
		{"noise.height", "height"},
		{"noise.width", "width"},
		{"noise.octaves", "octaves"},
		{"noise.min_grid_size", "min-grid-size"},
		{"noise.seed", "seed"},
		{"noise.workers", "workers"},
		{"noise.backend", "backend"},
		{"noise.external.octaves", "external-octaves"},
		{"noise.external.lacunarity", "lacunarity"},
		{"noise.external.persistence", "persistence"},
		{"world.water_level", "water-level"},
		{"render.scale", "scale"},
		{"render.smooth", "smooth"},
		{"render.caption", "caption"},
		{"store.path", "store"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, pf.Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("WEBWORLD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

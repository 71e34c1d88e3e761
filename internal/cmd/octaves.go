package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/worker"
)

var octavesCmd = &cobra.Command{
	Use:   "octaves",
	Short: "Write every octave contribution and the combined map as PNGs",
	Long: `Generate a height map with the direct backend and write one image per
octave contribution plus the normalized combined map into a directory.`,
	RunE: runOctaves,
}

func init() {
	rootCmd.AddCommand(octavesCmd)

	octavesCmd.Flags().String("out-dir", "octaves", "Output directory")
	octavesCmd.Flags().Int("export-workers", 0, "Number of parallel image writers (default: number of CPUs)")
	octavesCmd.Flags().Bool("progress", true, "Show progress bar")
	octavesCmd.Flags().Bool("captions", true, "Draw the grid size above every image")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"octaves.out_dir", "out-dir"},
		{"octaves.export_workers", "export-workers"},
		{"octaves.progress", "progress"},
		{"octaves.captions", "captions"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, octavesCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runOctaves(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	nc, err := loadNoiseConfig()
	if err != nil {
		return err
	}
	if nc.Backend != perlin.BackendDirect {
		return fmt.Errorf("octaves requires the %s backend, got %s", perlin.BackendDirect, nc.Backend)
	}

	outDir := viper.GetString("octaves.out_dir")
	workers := viper.GetInt("octaves.export_workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	res, err := perlin.Generate(nc.Params, nc.options())
	if err != nil {
		return err
	}

	exporter := &worker.OctaveExporter{
		Result:   res,
		Dir:      outDir,
		Render:   loadRenderOptions(),
		Captions: viper.GetBool("octaves.captions"),
	}
	tasks := exporter.Tasks()

	ctx, cancel := signalContext()
	defer cancel()

	progress := worker.NewProgress("images", len(tasks), viper.GetBool("octaves.progress"))
	pool := worker.New(worker.Config{
		Workers:    workers,
		Exporter:   exporter,
		OnProgress: progress.Callback(),
	})

	logger.Info("Exporting octaves", "count", len(res.Octaves), "grid_sizes", nc.Params.GridSizes(), "dir", outDir)
	results := pool.Run(ctx, tasks)
	progress.Done()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("Export failed", "image", r.Task.Name, "error", r.Err)
		}
	}
	logger.Info(progress.Summary())

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed to export", failed, len(tasks))
	}
	return nil
}

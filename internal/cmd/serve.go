package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/webworld/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve noise maps and world colour maps for interactive exploration",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("max-pixels", server.DefaultMaxPixels, "Largest map (height*width) a request may ask for")
	serveCmd.Flags().Int("max-concurrent", runtime.NumCPU(), "Max concurrent map generations (default: number of CPUs)")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served images")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.max_pixels", "max-pixels")
	mustBind("serve.max_concurrent", "max-concurrent")
	mustBind("serve.cache_control", "cache-control")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	nc, err := loadNoiseConfig()
	if err != nil {
		return err
	}
	addr := viper.GetString("serve.addr")

	st, err := openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	explorer, err := server.NewExplorer(server.ExplorerConfig{
		Store:         st,
		CacheControl:  viper.GetString("serve.cache_control"),
		Render:        loadRenderOptions(),
		External:      nc.External,
		MaxPixels:     viper.GetInt("serve.max_pixels"),
		MaxConcurrent: viper.GetInt("serve.max_concurrent"),
		Workers:       nc.Workers,
	}, reg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: explorer.Handler(), ReadHeaderTimeout: 5 * time.Second}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Exploration server listening",
		"addr", addr,
		"store", viper.GetString("store.path"),
		"max_pixels", viper.GetInt("serve.max_pixels"),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package server serves noise maps and world colour maps over HTTP for
// interactive parameter exploration.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/render"
	"github.com/MeKo-Tech/webworld/internal/store"
	"github.com/MeKo-Tech/webworld/internal/world"
)

// Defaults applied to query parameters that are not given.
const (
	DefaultSize       = 80
	DefaultWaterLevel = 0.5
	DefaultMaxPixels  = 1 << 20
)

// ExplorerConfig configures an Explorer.
type ExplorerConfig struct {
	// Store, when set, is consulted before generating direct-backend maps
	// and receives every map generated on a miss.
	Store        *store.Store
	CacheControl string
	Render       render.Options
	External     perlin.ExternalParams
	// MaxPixels rejects requests whose height*width exceeds it (default: 1<<20)
	MaxPixels int
	// MaxConcurrent bounds concurrent map generations (default: 4)
	MaxConcurrent int
	Workers       int
}

// Explorer serves generated maps over HTTP.
type Explorer struct {
	logger   *slog.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer
	sem      chan struct{}
	cfg      ExplorerConfig

	totalGenerated atomic.Int64
	totalCached    atomic.Int64
	totalFailed    atomic.Int64
}

// Status is the JSON body of the status endpoint.
type Status struct {
	Generated int64 `json:"generated"`
	Cached    int64 `json:"cached"`
	Failed    int64 `json:"failed"`
	MaxPixels int   `json:"max_pixels"`
}

// mapRequest is a parsed and validated map query.
type mapRequest struct {
	backend    perlin.Backend
	params     perlin.Params
	seed       int64
	waterLevel float64
}

// NewExplorer registers the server metrics with reg. A nil reg uses a fresh registry.
func NewExplorer(cfg ExplorerConfig, reg *prometheus.Registry, logger *slog.Logger) (*Explorer, error) {
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if cfg.Render.Scale <= 0 {
		cfg.Render.Scale = 1
	}
	if cfg.External == (perlin.ExternalParams{}) {
		cfg.External = perlin.DefaultExternalParams()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &Explorer{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		gatherer: reg,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Handler returns the routed, instrumented HTTP handler.
func (e *Explorer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/noise.png", e.metrics.Instrument("/noise.png", http.HandlerFunc(e.serveNoise)))
	mux.Handle("/world.png", e.metrics.Instrument("/world.png", http.HandlerFunc(e.serveWorld)))
	mux.Handle("/status", e.StatusHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Status returns a snapshot of the generation counters.
func (e *Explorer) Status() Status {
	return Status{
		Generated: e.totalGenerated.Load(),
		Cached:    e.totalCached.Load(),
		Failed:    e.totalFailed.Load(),
		MaxPixels: e.cfg.MaxPixels,
	}
}

// StatusHandler serves Status as JSON.
func (e *Explorer) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(e.Status()); err != nil {
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	})
}

func (e *Explorer) serveNoise(w http.ResponseWriter, r *http.Request) {
	req, ok := e.parseRequest(w, r)
	if !ok {
		return
	}

	field, ok := e.heightMap(w, r, req)
	if !ok {
		return
	}

	e.writePNG(w, render.Finish(render.Gray(field), e.cfg.Render))
}

func (e *Explorer) serveWorld(w http.ResponseWriter, r *http.Request) {
	req, ok := e.parseRequest(w, r)
	if !ok {
		return
	}

	field, ok := e.heightMap(w, r, req)
	if !ok {
		return
	}

	wld, err := world.FromHeightMap(field, req.waterLevel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	img, err := wld.ColorMap()
	if errors.Is(err, world.ErrWaterLevel) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	e.writePNG(w, render.Finish(img, e.cfg.Render))
}

func (e *Explorer) parseRequest(w http.ResponseWriter, r *http.Request) (mapRequest, bool) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return mapRequest{}, false
	}

	req, err := parseMapQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return mapRequest{}, false
	}

	// Height and width are positive here; the division form cannot overflow.
	if req.params.Height > e.cfg.MaxPixels/req.params.Width {
		http.Error(w, fmt.Sprintf("map of %dx%d exceeds limit of %d pixels",
			req.params.Width, req.params.Height, e.cfg.MaxPixels), http.StatusBadRequest)
		return mapRequest{}, false
	}

	if req.backend == perlin.BackendDirect {
		if err := req.params.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return mapRequest{}, false
		}
	}

	return req, true
}

// heightMap returns the normalized map for req, from the store when possible.
func (e *Explorer) heightMap(w http.ResponseWriter, r *http.Request, req mapRequest) (*perlin.Field, bool) {
	key := store.Key{
		Backend:     string(req.backend),
		Height:      req.params.Height,
		Width:       req.params.Width,
		Octaves:     req.params.Octaves,
		MinGridSize: req.params.MinGridSize,
		Seed:        req.seed,
	}
	cacheable := e.cfg.Store != nil && req.backend == perlin.BackendDirect

	if cacheable {
		entry, err := e.cfg.Store.Get(key)
		switch {
		case err == nil:
			e.totalCached.Add(1)
			return entry.Field, true
		case !errors.Is(err, store.ErrNotFound):
			e.log().Warn("Store lookup failed", "key", key.String(), "error", err)
		}
	}

	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-r.Context().Done():
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return nil, false
	}

	field, err := perlin.Build(req.backend, req.params, e.cfg.External, perlin.Options{
		Logger:  e.logger,
		Seed:    req.seed,
		Workers: e.cfg.Workers,
	})
	if err != nil {
		e.totalFailed.Add(1)
		status := http.StatusInternalServerError
		if errors.Is(err, perlin.ErrInvalidParameter) || errors.Is(err, perlin.ErrDegenerateField) {
			status = http.StatusBadRequest
		}
		e.log().Warn("Map generation failed", "key", key.String(), "error", err)
		http.Error(w, err.Error(), status)
		return nil, false
	}

	e.totalGenerated.Add(1)
	e.metrics.mapsGenerated.WithLabelValues(string(req.backend)).Inc()

	if cacheable {
		var buf bytes.Buffer
		if err := render.EncodePNG(&buf, render.Gray(field)); err == nil {
			err = e.cfg.Store.Put(store.Entry{Key: key, Field: field, PNG: buf.Bytes()})
		}
		if err != nil {
			e.log().Warn("Failed to cache map", "key", key.String(), "error", err)
		}
	}

	return field, true
}

func (e *Explorer) writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		http.Error(w, "failed to encode png", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", e.cfg.CacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (e *Explorer) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

func parseMapQuery(q url.Values) (mapRequest, error) {
	req := mapRequest{
		params:     perlin.DefaultParams(DefaultSize, DefaultSize),
		seed:       perlin.DefaultSeed,
		waterLevel: DefaultWaterLevel,
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"height", &req.params.Height},
		{"width", &req.params.Width},
		{"octaves", &req.params.Octaves},
		{"min_grid_size", &req.params.MinGridSize},
	}
	for _, p := range ints {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return req, fmt.Errorf("invalid %s %q", p.name, s)
		}
		*p.dst = v
	}

	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid seed %q", s)
		}
		req.seed = v
	}

	if s := q.Get("water_level"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return req, fmt.Errorf("invalid water_level %q", s)
		}
		req.waterLevel = v
	}

	backend, err := perlin.ParseBackend(q.Get("backend"))
	if err != nil {
		return req, err
	}
	req.backend = backend

	if req.params.Height <= 0 || req.params.Width <= 0 {
		return req, fmt.Errorf("height and width must be positive")
	}

	return req, nil
}

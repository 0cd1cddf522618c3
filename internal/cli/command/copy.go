package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/meshcache"
	"github.com/hupe1980/meshcache/archive"
	"github.com/hupe1980/meshcache/codec"
	"github.com/hupe1980/meshcache/internal/config"
	"github.com/hupe1980/meshcache/internal/location"
	promcollector "github.com/hupe1980/meshcache/metrics/prometheus"
)

// CopyCommand returns the copy command.
func CopyCommand() *cli.Command {
	return &cli.Command{
		Name:  "copy",
		Usage: "Copy one mesh object into a new archive",
		Description: `Reads every sample of the mesh below --xform and writes it with the
declared attributes to --out. Locations may be local directories,
s3://bucket/prefix or minio://host/bucket/prefix.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML job file",
			},
			&cli.StringFlag{
				Name:    "in",
				Aliases: []string{"i"},
				Usage:   "Input archive location",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output archive location",
			},
			&cli.StringFlag{
				Name:  "xform",
				Usage: "Transform object path, e.g. /shot/grid",
			},
			&cli.StringFlag{
				Name:  "mesh",
				Usage: "Mesh object name below the transform",
			},
			&cli.StringSliceFlag{
				Name:    "attr",
				Aliases: []string{"a"},
				Usage:   "Attribute declaration name:type:scope (repeatable)",
			},
			&cli.StringFlag{
				Name:  "compression",
				Usage: "Output compression: none, lz4, zstd",
			},
			&cli.StringFlag{
				Name:  "codec",
				Usage: "Output manifest codec: " + fmt.Sprint(codec.Names()),
			},
			&cli.Float64Flag{
				Name:  "fps",
				Usage: "Output samples per second (default: keep input)",
			},
			&cli.Int64Flag{
				Name:  "io-limit",
				Usage: "Output write limit in bytes per second (0 = unlimited)",
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "Check every sample before writing",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address while copying",
			},
		},
		Action: runCopy,
	}
}

// copyOverrides maps set flags to config keys.
func copyOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"in":           "in",
		"out":          "out",
		"xform":        "transform",
		"mesh":         "mesh",
		"validate":     "validate",
		"compression":  "archive.compression",
		"codec":        "archive.codec",
		"fps":          "archive.fps",
		"io-limit":     "archive.iolimit",
		"metrics-addr": "metrics.addr",
		"log-level":    "log.level",
		"log-format":   "log.format",
	}
	out := make(map[string]any)
	for flag, key := range keys {
		if !c.IsSet(flag) {
			continue
		}
		switch flag {
		case "validate":
			out[key] = c.Bool(flag)
		case "fps":
			out[key] = c.Float64(flag)
		case "io-limit":
			out[key] = c.Int64(flag)
		default:
			out[key] = c.String(flag)
		}
	}
	return out
}

func runCopy(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.NewLoader(config.WithConfigFile(c.String("config"))).Load(copyOverrides(c))
	if err != nil {
		return usageError(err)
	}
	if err := cfg.Check(); err != nil {
		return usageError(err)
	}

	logger, err := newLogger(c.App.ErrWriter, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	decls, diags := cfg.Descriptors()
	if attrs := c.StringSlice("attr"); len(attrs) > 0 {
		decls, diags = decls[:0], nil
		for _, a := range attrs {
			d, err := meshcache.ParseAttributeDescriptor(a)
			if err != nil {
				diags = append(diags, err)
				continue
			}
			decls = append(decls, d)
		}
	}
	for _, d := range diags {
		logger.LogSchemaDiagnostic(ctx, d)
	}

	compression, err := archive.ParseCompression(cfg.Archive.Compression)
	if err != nil {
		return usageError(err)
	}
	cdc, err := codec.Resolve(cfg.Archive.Codec)
	if err != nil {
		return usageError(err)
	}

	var mc meshcache.MetricsCollector = meshcache.NoopMetricsCollector{}
	if cfg.Metrics.Addr != "" {
		stop, pc, err := serveMetrics(cfg.Metrics.Addr, logger)
		if err != nil {
			return err
		}
		defer stop()
		mc = pc
	}

	inStore, inLoc, err := location.Open(ctx, cfg.In)
	if err != nil {
		return fmt.Errorf("open input %s: %w", cfg.In, err)
	}
	outStore, outLoc, err := location.Open(ctx, cfg.Out)
	if err != nil {
		return fmt.Errorf("open output %s: %w", cfg.Out, err)
	}

	inOpts := []meshcache.Option{
		meshcache.WithBlobStore(inStore),
		meshcache.WithLogger(logger),
		meshcache.WithMetricsCollector(mc),
	}
	if cfg.Archive.CacheBytes > 0 {
		inOpts = append(inOpts, meshcache.WithCacheBytes(cfg.Archive.CacheBytes))
	}
	outOpts := []meshcache.Option{
		meshcache.WithBlobStore(outStore),
		meshcache.WithLogger(logger),
		meshcache.WithMetricsCollector(mc),
		meshcache.WithCompression(compression),
		meshcache.WithCodec(cdc),
	}
	if ts, ok := cfg.TimeSampling(); ok {
		outOpts = append(outOpts, meshcache.WithTimeSampling(ts))
	}
	if cfg.Archive.IOLimit > 0 {
		outOpts = append(outOpts, meshcache.WithIOLimit(cfg.Archive.IOLimit))
	}

	start := time.Now()
	n, err := meshcache.Transcode(ctx, meshcache.TranscodeSpec{
		InPath:        inLoc.String(),
		OutPath:       outLoc.String(),
		TransformPath: cfg.Transform,
		MeshPath:      cfg.Mesh,
		Attributes:    decls,
		InOptions:     inOpts,
		OutOptions:    outOpts,
		Validate:      cfg.Validate,
	})
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", inLoc, outLoc, err)
	}

	fmt.Fprintf(c.App.Writer, "copied %d samples from %s to %s in %s\n", n, inLoc, outLoc, time.Since(start).Round(time.Millisecond))
	return nil
}

// serveMetrics exposes a fresh registry on addr until stop is called.
func serveMetrics(addr string, logger *meshcache.Logger) (stop func(), _ *promcollector.Collector, _ error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	reg := prometheus.NewRegistry()
	pc := promcollector.NewCollector(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, pc, nil
}

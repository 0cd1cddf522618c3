package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/meshcache"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// ErrUsage marks errors caused by missing or malformed arguments.
var ErrUsage = errors.New("usage")

func usageError(err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "meshcache",
		Usage:   "Inspect and transcode time-sampled mesh archives",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			CopyCommand(),
			InfoCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"MESHCACHE_LOG_LEVEL"},
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format: text, json",
			EnvVars: []string{"MESHCACHE_LOG_FORMAT"},
			Value:   "text",
		},
	}
}

// newLogger builds a logger writing to w.
func newLogger(w io.Writer, level, format string) (*meshcache.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, usageError(fmt.Errorf("log level %q", level))
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return meshcache.NewLogger(slog.NewTextHandler(w, opts)), nil
	case "json":
		return meshcache.NewLogger(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, usageError(fmt.Errorf("log format %q", format))
	}
}

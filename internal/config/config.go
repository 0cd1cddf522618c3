package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/meshcache"
	"github.com/hupe1980/meshcache/archive"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the environment variable prefix.
const DefaultEnvPrefix = "MESHCACHE_"

// Attribute is a declared attribute as written in a config file.
type Attribute struct {
	Name  string `koanf:"name"`
	Type  string `koanf:"type"`
	Scope string `koanf:"scope"`
}

// Archive holds storage settings.
type Archive struct {
	Compression string  `koanf:"compression"`
	Codec       string  `koanf:"codec"`
	FPS         float64 `koanf:"fps"`
	CacheBytes  int64   `koanf:"cachebytes"`
	IOLimit     int64   `koanf:"iolimit"`
}

// Log holds logging settings.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Metrics holds metrics settings.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Config is a copy job.
type Config struct {
	In         string      `koanf:"in"`
	Out        string      `koanf:"out"`
	Transform  string      `koanf:"transform"`
	Mesh       string      `koanf:"mesh"`
	Validate   bool        `koanf:"validate"`
	Attributes []Attribute `koanf:"attributes"`
	Archive    Archive     `koanf:"archive"`
	Log        Log         `koanf:"log"`
	Metrics    Metrics     `koanf:"metrics"`
}

// Defaults returns the default configuration as koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"archive.compression": archive.CompressionLZ4.String(),
		"archive.codec":       "go-json",
		"archive.cachebytes":  int64(archive.DefaultCacheBytes),
		"log.level":           "info",
		"log.format":          "text",
	}
}

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load layers defaults, the config file, the environment and overrides,
// then unmarshals the result. overrides holds flag values keyed like the
// config file, e.g. "archive.compression".
func (l *Loader) Load(overrides map[string]any) (*Config, error) {
	if err := l.k.Load(mapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load file %s: %w", l.filePath, err)
		}
	}

	// MESHCACHE_ARCHIVE_COMPRESSION -> archive.compression
	envTransformer := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "_", ".")
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", envTransformer), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if len(overrides) > 0 {
		if err := l.k.Load(mapProvider(overrides), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Descriptors converts the configured attributes. Entries that do not
// parse are returned as diagnostics and left out; the caller decides
// whether to continue.
func (c *Config) Descriptors() ([]meshcache.AttributeDescriptor, []error) {
	var (
		out   []meshcache.AttributeDescriptor
		diags []error
	)
	for i, a := range c.Attributes {
		t, err := meshcache.ParseElementType(a.Type)
		if err != nil {
			diags = append(diags, fmt.Errorf("attribute %d (%q): %w", i, a.Name, err))
			continue
		}
		s, err := meshcache.ParseScope(a.Scope)
		if err != nil {
			diags = append(diags, fmt.Errorf("attribute %d (%q): %w", i, a.Name, err))
			continue
		}
		out = append(out, meshcache.AttributeDescriptor{Name: a.Name, Type: t, Scope: s})
	}
	return out, diags
}

// TimeSampling returns the time sampling for Archive.FPS. ok is false when
// no rate is configured and the input's sampling should be kept.
func (c *Config) TimeSampling() (ts archive.TimeSampling, ok bool) {
	if c.Archive.FPS <= 0 {
		return archive.DefaultTimeSampling, false
	}
	return archive.TimeSampling{Step: 1 / c.Archive.FPS}, true
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// Check reports missing required settings.
func (c *Config) Check() error {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"in", c.In},
		{"out", c.Out},
		{"transform", c.Transform},
		{"mesh", c.Mesh},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required %s", strings.Join(missing, ", "))
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/isstracker/isstracker/server/internal/source"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 5000
	DefaultStreamInterval = 5 * time.Second
)

// Environment variables that override file settings.
const (
	EnvEpochSource    = "ISSTRACKER_EPOCH_SOURCE"
	EnvSightingSource = "ISSTRACKER_SIGHTING_SOURCE"
	EnvHTTPPort       = "ISSTRACKER_HTTP_PORT"
)

// Config holds the configuration parsed from the `server:` section of the
// config file.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics and WebSocket stream listen on.
	HTTPPort int `yaml:"http_port"`

	// Sources describes where the two datasets come from.
	Sources SourcesConfig `yaml:"sources"`

	// Fetch controls how remote (http/https) sources are downloaded.
	Fetch FetchConfig `yaml:"fetch"`

	// Preload loads both sources at startup instead of waiting for POST /reset.
	Preload bool `yaml:"preload"`

	// Watch reloads the datasets whenever a local source file changes.
	Watch bool `yaml:"watch"`

	// Stream controls the WebSocket status broadcast.
	Stream StreamConfig `yaml:"stream"`
}

// SourcesConfig holds the epoch and sighting source definitions.
type SourcesConfig struct {
	Epochs    SourceConfig `yaml:"epochs"`
	Sightings SourceConfig `yaml:"sightings"`
}

// SourceConfig describes one source document.
type SourceConfig struct {
	// Location is a local path, file:// URL or http(s):// URL.
	Location string `yaml:"location"`

	// Format is xml or json. Empty means infer from the location's extension.
	Format string `yaml:"format"`

	// Path is the dot-separated path from the document root to the entry list.
	Path string `yaml:"path"`
}

// Spec converts c into a source.Spec named name.
func (c SourceConfig) Spec(name string) source.Spec {
	return source.Spec{
		Name:     name,
		Location: c.Location,
		Format:   source.Format(c.Format),
		Path:     c.Path,
	}
}

// FetchConfig controls remote source downloads.
type FetchConfig struct {
	// Timeout bounds a single HTTP attempt (default 30s).
	Timeout time.Duration `yaml:"timeout"`

	// RetryMax is the number of retries after the first attempt (default 3).
	RetryMax int `yaml:"retry_max"`
}

// StreamConfig controls the WebSocket status broadcast.
type StreamConfig struct {
	// Interval between periodic status messages (default 5s).
	Interval time.Duration `yaml:"interval"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults and environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}
	return finish(cfg)
}

// FromEnv returns the default configuration with environment overrides
// applied. It is used when no config file is given.
func FromEnv() (*Config, error) {
	return finish(Defaults())
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Sources: SourcesConfig{
				Epochs: SourceConfig{
					Location: source.DefaultEpochLocation,
					Path:     source.DefaultEpochPath,
				},
				Sightings: SourceConfig{
					Location: source.DefaultSightingLocation,
					Path:     source.DefaultSightingPath,
				},
			},
			Fetch: FetchConfig{
				Timeout:  source.DefaultFetchTimeout,
				RetryMax: source.DefaultRetryMax,
			},
			Stream: StreamConfig{
				Interval: DefaultStreamInterval,
			},
		},
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvEpochSource); v != "" {
		cfg.Server.Sources.Epochs.Location = v
	}
	if v := os.Getenv(EnvSightingSource); v != "" {
		cfg.Server.Sources.Sightings.Location = v
	}
	if v := os.Getenv(EnvHTTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvHTTPPort, v, err)
		}
		cfg.Server.HTTPPort = port
	}
	return nil
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	for name, src := range map[string]SourceConfig{"epochs": s.Sources.Epochs, "sightings": s.Sources.Sightings} {
		if src.Location == "" {
			return fmt.Errorf("server.sources.%s.location must be set", name)
		}
		if src.Path == "" {
			return fmt.Errorf("server.sources.%s.path must be set", name)
		}
		switch source.Format(src.Format) {
		case source.FormatXML, source.FormatJSON, "":
		default:
			return fmt.Errorf("server.sources.%s.format %q unknown: want xml|json", name, src.Format)
		}
	}
	if s.Fetch.Timeout < 0 {
		return fmt.Errorf("server.fetch.timeout must not be negative")
	}
	if s.Fetch.RetryMax < 0 {
		return fmt.Errorf("server.fetch.retry_max must not be negative")
	}
	if s.Stream.Interval <= 0 {
		return fmt.Errorf("server.stream.interval must be positive")
	}
	return nil
}

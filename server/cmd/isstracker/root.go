package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/isstracker/isstracker/server/internal/config"
	"github.com/isstracker/isstracker/server/internal/source"
	"github.com/isstracker/isstracker/server/internal/store"
)

// defaultConfigPath is read when --config is not given and the file exists.
const defaultConfigPath = "config.yaml"

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "isstracker",
		Short: "Query ISS ephemeris epochs and sighting locations.",
		Long: `isstracker loads the ISS orbital ephemeris (OEM) and the visible-pass
sighting list, and answers queries by epoch or by country, region and city.

Run "isstracker serve" for the HTTP API, or "isstracker query ..." for
one-off lookups from the command line.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with ISSTRACKER_* overrides; ignored if missing")
	root.PersistentFlags().StringVarP(&opts.logLevel, "loglevel", "l", "info", "log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(opts), newQueryCmd(opts))
	return root
}

// setupLogger installs a JSON slog handler writing to w as the default logger.
func setupLogger(w io.Writer, level string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig resolves the configuration: dotenv first, then the config file
// (explicit, or ./config.yaml when present), then environment overrides.
func (o *options) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %q: %w", o.envFile, err)
		}
	}
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.FromEnv()
}

// newStore builds an empty store reading the sources described by cfg.
func newStore(cfg *config.Config) (*store.Store, *source.Loader) {
	s := cfg.Server
	loader := source.NewLoader(
		s.Sources.Epochs.Spec("epochs"),
		s.Sources.Sightings.Spec("sightings"),
		source.NewFetcher(s.Fetch.Timeout, s.Fetch.RetryMax),
	)
	return store.New(loader), loader
}

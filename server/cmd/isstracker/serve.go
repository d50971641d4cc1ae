package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/isstracker/isstracker/server/internal/api"
	"github.com/isstracker/isstracker/server/internal/config"
	"github.com/isstracker/isstracker/server/internal/metrics"
	"github.com/isstracker/isstracker/server/internal/query"
	"github.com/isstracker/isstracker/server/internal/source"
	"github.com/isstracker/isstracker/server/internal/store"
	"github.com/isstracker/isstracker/server/internal/ws"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		port    int
		preload bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupLogger(os.Stdout, opts.logLevel); err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				slog.Error("failed to load config", "err", err)
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.HTTPPort = port
			}
			if cmd.Flags().Changed("preload") {
				cfg.Server.Preload = preload
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watch
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultHTTPPort, "HTTP listen port (overrides config)")
	cmd.Flags().BoolVar(&preload, "preload", false, "load both sources at startup")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload when a local source file changes")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	s := cfg.Server
	slog.Info("isstracker starting",
		"http_port", s.HTTPPort,
		"epochs", s.Sources.Epochs.Location,
		"sightings", s.Sources.Sightings.Location,
		"preload", s.Preload,
		"watch", s.Watch,
	)

	st, loader := newStore(cfg)
	m := metrics.New()
	hub := ws.New(query.New(st), s.Stream.Interval)

	st.OnLoad(m.ObserveLoad)
	st.OnLoad(func(snap *store.Snapshot, _ time.Duration, err error) {
		if err == nil {
			hub.Broadcast(ws.EventReload)
		}
	})

	if s.Preload {
		// A failed preload leaves the store empty; POST /reset can retry.
		st.Load(ctx) //nolint:errcheck
	}

	go hub.Run(ctx)

	if s.Watch {
		epochs, sightings := loader.Specs()
		var paths []string
		for _, spec := range []source.Spec{epochs, sightings} {
			if p := source.LocalPath(spec.Location); p != "" {
				paths = append(paths, p)
			}
		}
		if len(paths) == 0 {
			slog.Warn("watch enabled but no local sources to watch")
		} else {
			go func() {
				err := source.Watch(ctx, paths, source.DefaultDebounce, func(ctx context.Context) {
					st.Load(ctx) //nolint:errcheck
				})
				if err != nil {
					slog.Error("source watcher stopped", "err", err)
				}
			}()
		}
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/", api.New(st, m))
	httpMux.Handle("/metrics", m.Handler())
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", s.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("HTTP server stopped", "err", err)
		return err
	}

	slog.Info("isstracker shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/attrs/internal/config"
	"github.com/vango-dev/attrs/pkg/attrs"
	"github.com/vango-dev/attrs/pkg/live"
	"github.com/vango-dev/attrs/pkg/snapshot"
	"github.com/vango-dev/attrs/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to attrsd.json (default: ./"+config.ConfigFileName+")")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.ConfigFileName); err == nil {
		return config.Load(config.ConfigFileName)
	}
	return config.Default(), nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	for _, warning := range cfg.Warnings() {
		logger.Warn("config warning", "warning", warning)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Model from declared properties, with metrics and tracing wired in.
	opts := []attrs.Option{
		attrs.WithInstrumentation(telemetry.Multi(
			telemetry.NewMetrics(),
			telemetry.NewTracing(),
		)),
	}
	for name, value := range cfg.Properties {
		opts = append(opts, attrs.WithValue(name, value))
	}
	model := attrs.New(opts...)
	defer model.Destroy()

	store, cleanup, err := newStore(ctx, cfg.Snapshot)
	if err != nil {
		return err
	}
	defer cleanup()

	restoreLatest(ctx, logger, store, model)
	if cfg.Snapshot.IntervalSeconds > 0 {
		go snapshotLoop(ctx, logger, store, model, time.Duration(cfg.Snapshot.IntervalSeconds)*time.Second)
	}

	liveServer := live.New(model, live.WithLogger(logger))
	defer liveServer.Close()

	mux := chi.NewRouter()
	mux.Mount("/", liveServer.Router())
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving model", "name", cfg.Name, "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
	}))
}

// newStore builds the snapshot store selected by the config. The returned
// cleanup releases whatever the driver holds open.
func newStore(ctx context.Context, cfg config.SnapshotConfig) (snapshot.Store, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		if cfg.Path == "" {
			return nil, nil, fmt.Errorf("sqlite snapshot driver requires a path")
		}
		store, err := snapshot.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case "s3":
		if cfg.Bucket == "" {
			return nil, nil, fmt.Errorf("s3 snapshot driver requires a bucket")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		store := snapshot.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix)
		return store, func() {}, nil

	default:
		return snapshot.NewMemoryStore(), func() {}, nil
	}
}

// restoreLatest applies the most recent stored snapshot, if any, so a
// restarted daemon resumes from its last persisted state.
func restoreLatest(ctx context.Context, logger *slog.Logger, store snapshot.Store, model *attrs.Model) {
	snaps, err := store.List(ctx)
	if err != nil {
		logger.Warn("snapshot list failed", "error", err)
		return
	}
	if len(snaps) == 0 {
		return
	}

	latest := snaps[len(snaps)-1]
	if err := latest.Restore(model); err != nil {
		logger.Warn("snapshot restore failed", "snapshot", latest.ID, "error", err)
		return
	}
	logger.Info("restored snapshot", "snapshot", latest.ID, "taken_at", latest.TakenAt)
}

// snapshotLoop captures the model periodically until the context ends.
func snapshotLoop(ctx context.Context, logger *slog.Logger, store snapshot.Store, model *attrs.Model, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := snapshot.Capture(model)
			if err := store.Save(ctx, snap); err != nil {
				logger.Warn("snapshot save failed", "snapshot", snap.ID, "error", err)
				continue
			}
			logger.Debug("snapshot saved", "snapshot", snap.ID)
		}
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/coursefetch/coursefetch/internal/archive"
	"github.com/coursefetch/coursefetch/internal/busy"
	"github.com/coursefetch/coursefetch/internal/config"
	"github.com/coursefetch/coursefetch/internal/enqueue"
	"github.com/coursefetch/coursefetch/internal/http/rest"
	"github.com/coursefetch/coursefetch/internal/logctx"
	"github.com/coursefetch/coursefetch/internal/notifier"
	"github.com/coursefetch/coursefetch/internal/status"
	"github.com/coursefetch/coursefetch/internal/storage"
	"github.com/coursefetch/coursefetch/internal/storage/sqlite"
	"github.com/coursefetch/coursefetch/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logger := slog.New(logctx.NewTraceHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("coursefetch starting...", "log_level", cfg.LogLevel)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown telemetry", "err", err)
		}
	}()

	if cfg.Telemetry.Enabled {
		if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
			logger.Warn("failed to start runtime instrumentation", "err", err)
		}
	}

	// =========================================================================
	// Start Database
	database, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}
	defer database.Close()

	var history storage.EnqueueHistory = sqlite.NewInstrumentedHistoryRepository(database, tel)

	// =========================================================================
	// Start Archive Client
	client := archive.NewClient(cfg.ArchiveBaseURL, cfg.ArchiveToken, cfg.RequestTimeout)

	// =========================================================================
	// Start Notification
	var notif notifier.Notifier = &notifier.SlogNotifier{Logger: logger}
	if cfg.DiscordWebhookURL != "" {
		notif = notifier.NewDiscordNotifier(cfg.DiscordWebhookURL)
	}

	// =========================================================================
	// Start Core Services
	state := rest.NewState(cfg.WatchWindow)
	busyCounter := busy.NewCounter(nil, nil)
	sizes := status.NewSizeCache(client)

	agg := status.NewAggregator(client, sizes, state, busyCounter, state.Watched, cfg.Quality, tel)

	orchestrator := enqueue.NewOrchestrator(
		client,
		enqueue.NewClient(client, cfg.EnqueueRate, cfg.EnqueueBurst),
		sizes,
		busyCounter,
		notif,
		history,
		tel,
		cfg.Quality,
	)

	// surface incremental progress in the queue view during long runs
	orchestrator.SetProgressFunc(func() {
		agg.Tick(context.WithoutCancel(ctx), true)
	})

	// =========================================================================
	// Start API Service

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	defaultOpts := enqueue.Options{
		Subtitles: cfg.DownloadSubtitles,
		Assets:    cfg.DownloadAssets,
	}

	server := setupServer(ctx, cfg, rest.NewHandler(client, client, orchestrator, agg, state, history, defaultOpts, tel))

	go func() {
		logger.Info("Initializing API support", "host", cfg.Web.BindAddress)
		serverErrors <- server.ListenAndServe()
	}()

	logger.Info("watching the queue...",
		"archive_base_url", cfg.ArchiveBaseURL,
		"quality", cfg.Quality,
		"poll_interval", cfg.PollInterval.String(),
		"watch_window", cfg.WatchWindow.String(),
	)

	// =========================================================================
	// Start Poll Loop
	go agg.Run(ctx, cfg.PollInterval)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown the server", "err", err)

			if err = server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		return ctx.Err()
	}
}

// setupServer prepares the http rest server around the api handler.
func setupServer(ctx context.Context, cfg *config.Config, handler *rest.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      handler.Routes(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

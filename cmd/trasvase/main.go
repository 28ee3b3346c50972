package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/trasvase/internal/adapter/fsm"
	hmacsigner "github.com/neomorfeo/trasvase/internal/adapter/hmac"
	"github.com/neomorfeo/trasvase/internal/adapter/otel"
	"github.com/neomorfeo/trasvase/internal/adapter/render"
	riverjobs "github.com/neomorfeo/trasvase/internal/adapter/river"
	"github.com/neomorfeo/trasvase/internal/adapter/sqlite"
	"github.com/neomorfeo/trasvase/internal/app"
	"github.com/neomorfeo/trasvase/internal/config"

	handler "github.com/neomorfeo/trasvase/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer store.Close()

	signer := otel.NewMeteredSigner(hmacsigner.New(cfg.SigningSecret, cfg.SigningSecretPrevious))
	renderer := render.New(cfg.PublicBaseURL)

	sweepWorker := &riverjobs.SweepWorker{}
	renderWorker := &riverjobs.RenderWorker{Store: store, Signer: signer, Renderer: renderer}

	client, err := riverjobs.Setup(ctx, db, sweepWorker, renderWorker)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	publisher := riverjobs.NewPublisher(client)
	notifier := otel.NewTracingNotifier(publisher)

	// --- Application ---
	transfers := app.NewTransferService(store, fsm.New(), signer, notifier, publisher, cfg.TokenTTL)
	catalog := app.NewCatalogService(store)
	sweepWorker.Engine = transfers

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("trasvase", otelchi.WithChiRoutes(router)))
	router.Use(handler.Middleware(cfg.JWTSecret))

	api := humachi.New(router, huma.DefaultConfig("trasvase", "0.1.0"))
	handler.Register(api, transfers, catalog)

	// --- Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("trasvase listening", "port", cfg.Port)
		slog.Info("api docs", "url", fmt.Sprintf("http://localhost:%d/docs", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	if err := client.Stop(shutdownCtx); err != nil {
		slog.Error("river shutdown", "error", err)
	}

	slog.Info("stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	indexadapter "github.com/pkgpanel/pkgpanel/internal/adapter/driven/index"
	sqliteadapter "github.com/pkgpanel/pkgpanel/internal/adapter/driven/sqlite"
	httphandler "github.com/pkgpanel/pkgpanel/internal/adapter/driving/http"
	"github.com/pkgpanel/pkgpanel/internal/application"
	"github.com/pkgpanel/pkgpanel/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"export_dir", cfg.ExportDir,
		"index_timeout", cfg.IndexTimeout,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on the writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	repoStore := sqliteadapter.NewRepoRepo(db)
	visibilityStore := sqliteadapter.NewVisibilityRepo(db)
	indexClient := indexadapter.NewClient(cfg.IndexTimeout)

	// 6. Wire application services.
	repoSvc := application.NewRepositoryService(repoStore, visibilityStore, slog.Default())
	addSvc := application.NewAddService(repoStore, indexClient, repoSvc.Invalidate, slog.Default())
	transferSvc := application.NewTransferService(repoStore, cfg.ExportDir, repoSvc.Invalidate, slog.Default())

	// 7. Start deep-link intake.
	deepLinks := application.NewDeepLinkQueue()
	intake := application.NewIntakeService(deepLinks, addSvc, slog.Default())
	go intake.Run(ctx)

	// 8. Create HTTP handler and server.
	handler := httphandler.NewHandler(repoSvc, addSvc, transferSvc, deepLinks, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("pkgpanel started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with a 10s drain timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

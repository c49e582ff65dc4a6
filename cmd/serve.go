package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/handler"
	"github.com/Kosench/shortlink/internal/migration"
	"github.com/Kosench/shortlink/internal/repository"
	"github.com/Kosench/shortlink/internal/server"
	"github.com/Kosench/shortlink/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()

	store, err := repository.Open(ctx, cfg.Storage.URI, cfg.Storage.ConnectTimeout)
	if err != nil {
		// no partial availability without a store
		log.Fatal("failed to connect to storage", zap.Error(err))
	}
	defer store.Close()

	log.Info("connected to storage", zap.String("driver", store.Name()))

	if cfg.App.MigrateOnStart {
		inserted, err := migration.ImportLegacy(ctx, store, cfg.App.LegacyDataFile, log)
		if err != nil {
			log.Warn("legacy import failed, continuing", zap.Error(err))
		} else if inserted > 0 {
			log.Info("legacy import finished", zap.Int("inserted", inserted))
		}
	}

	linkService := service.NewLinkService(store, cfg.GetBaseURL(), log)
	linkHandler := handler.NewLinkHandler(linkService, log)

	router := server.NewRouter(linkHandler, store, log, server.Options{
		AllowedOrigins: cfg.GetAllowedOrigins(),
		ClientDir:      cfg.App.ClientDir,
		Release:        cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.GetServerAddress()),
			zap.String("environment", cfg.App.Environment))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	log.Info("server gracefully stopped")
	return nil
}

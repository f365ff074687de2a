// main.go
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

	"github.com/gorilla/mux"

	"github.com/Gantuuu/Elbeg-sub001/config"
	"github.com/Gantuuu/Elbeg-sub001/controllers"
	"github.com/Gantuuu/Elbeg-sub001/media"
	"github.com/Gantuuu/Elbeg-sub001/middleware"
	"github.com/Gantuuu/Elbeg-sub001/routes"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, store.Config{
		Driver:        cfg.DBDriver,
		DSN:           cfg.DatabaseURL,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		slog.Error("Failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	mediaStore, err := media.NewDiskStorage(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		slog.Error("Failed to prepare media storage", "error", err)
		os.Exit(1)
	}

	debug := !cfg.Production
	emailService := utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender)
	sessions := middleware.NewSessions(cfg.SessionKey, cfg.CookieSecure, db)
	feed := controllers.NewOrderFeed()

	deliveryController := controllers.NewDeliveryController(db, cfg.Location, debug)
	orderOptions := store.OrderOptions{
		MissingProduct:    store.MissingProductPolicy(cfg.MissingProductPolicy),
		IdempotencyWindow: cfg.IdempotencyWindow,
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, sessions, routes.Controllers{
		Users:        controllers.NewUserController(db, sessions, cfg.AuthProviderSecret, debug),
		Products:     controllers.NewProductController(db, mediaStore, debug),
		Orders:       controllers.NewOrderController(db, deliveryController, emailService, feed, orderOptions, cfg.RestoreStockOnCancel, debug),
		Delivery:     deliveryController,
		BankAccounts: controllers.NewBankAccountController(db, debug),
		Media:        controllers.NewMediaController(mediaStore, debug),
		Exports:      controllers.NewExportController(db, debug),
		Feed:         feed,
	}, cfg.MediaDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.Logging(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server is running", "port", cfg.Port, "driver", cfg.DBDriver, "production", cfg.Production)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Production {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

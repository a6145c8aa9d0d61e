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

	"github.com/spf13/pflag"

	"assignboard/internal/api"
	"assignboard/internal/config"
	"assignboard/internal/server"
	"assignboard/internal/session"
	"assignboard/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("assignment board starting", slog.String("api", cfg.APIBase), slog.String("db", cfg.DBPath))

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	sessions, err := session.Open(ctx, store, logger)
	if err != nil {
		logger.Error("unable to restore session", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jar, err := api.OpenJar(ctx, cfg.APIBase, store, logger)
	if err != nil {
		logger.Error("unable to restore cookies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	client, err := api.New(api.Config{BaseURL: cfg.APIBase, Timeout: cfg.APITimeout, Jar: jar, Logger: logger})
	if err != nil {
		logger.Error("unable to build api client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if keys, err := store.Keys(ctx); err == nil {
		logger.Debug("persisted slots", slog.Any("keys", keys))
	}
	if id, ok := sessions.Current(); ok {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		remote, known, err := client.CurrentUser(checkCtx)
		cancel()
		switch {
		case err != nil:
			logger.Warn("could not reach api to confirm session", slog.String("api", client.BaseURL().String()), slog.String("error", err.Error()))
		case !known || remote.ID != id.ID:
			logger.Warn("api no longer recognizes the restored session; log in again", slog.String("email", id.Email))
		}
	}

	srv, err := server.New(server.Options{
		API:            client,
		Sessions:       sessions,
		Cookies:        jar,
		OrganizationID: cfg.OrganizationID,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("unable to build server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/catalogimport/internal/application"
	"github.com/JonMunkholm/catalogimport/internal/config"
	"github.com/JonMunkholm/catalogimport/internal/logging"
	"github.com/JonMunkholm/catalogimport/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// .env wins over the inherited environment in local setups
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	server := web.NewServer(app.Service, cfg)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	drainImports(shutdownCtx, app)
	return server.Shutdown(shutdownCtx)
}

// drainImports waits for running imports so their rows are not cut off
// when the store connections close.
func drainImports(ctx context.Context, app *application.App) {
	status := app.Service.LimiterStatus()
	if status.Active == 0 {
		return
	}
	slog.Info("waiting for imports to complete", "active", status.Active)
	if err := app.Service.WaitForImports(ctx); err != nil {
		slog.Warn("imports did not complete in time", "error", err)
		return
	}
	slog.Info("all imports completed")
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/JRI98/widgetbridge/server/config"
	"github.com/JRI98/widgetbridge/server/handlers"
	"github.com/JRI98/widgetbridge/server/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Could not load config", slog.Any("err", err))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	trustedKeys, err := cfg.TrustedKeys()
	if err != nil {
		slog.Error("Could not parse trusted keys", slog.Any("err", err))
		os.Exit(1)
	}
	if len(trustedKeys) == 0 {
		slog.Warn("No trusted public keys configured, API is unauthenticated")
	}

	opts := handlers.Options{
		HistoryCapacity: cfg.HistoryCapacity,
		ChatwootBaseURL: cfg.ChatwootBaseURL,
		Screens:         cfg.Screens,
		Logger:          slog.Default(),
	}

	if cfg.NATSURL != "" {
		natsService, err := services.NewNATSService(context.Background(), cfg.NATSURL, cfg.NATSStream)
		if err != nil {
			slog.Error("Could not initialize NATS service", slog.Any("err", err))
			os.Exit(1)
		}
		opts.Publisher = natsService
	}

	handler := handlers.NewHandler(opts)
	defer handler.Cleanup()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	e.Use(slogecho.NewWithConfig(slog.Default(), slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithUserAgent:    true,
		WithRequestID:    true,
		WithRequestBody:  true,
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			return fmt.Errorf("[PANIC RECOVER] %v\n%s", err, stack)
		},
		DisableErrorHandler: true,
	}))

	e.Use(middleware.RequestID())

	e.Use(middleware.Secure())

	e.Use(middleware.CORS())

	api := e.Group("/api", handlers.Authenticate(trustedKeys))
	handler.Routes(api)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			slog.Error("Server start error", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", slog.Any("err", err))
	} else {
		slog.Info("Server successfully shutdown")
	}
}

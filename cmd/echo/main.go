// Command echo runs the downstream echo service the router forwards to.
//
// Usage:
//
//	echo --address :8081
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/angeloszaimis/request-router/internal/echo"
	"github.com/angeloszaimis/request-router/internal/httpserver"
	"github.com/angeloszaimis/request-router/pkg/logger"
)

func main() {
	address := pflag.StringP("address", "a", ":8081", "listen address")
	logLevel := pflag.StringP("log-level", "l", "info", "log level: debug, info, warn or error")
	environment := pflag.String("environment", "dev", "environment: dev, staging or prod")
	pflag.Parse()

	log := logger.New(logger.Options{
		Level:       *logLevel,
		Environment: *environment,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv, err := httpserver.New(*address, echo.NewHandler(log))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Echo backend listening", slog.String("addr", srv.Addr()))

	if err := srv.Run(ctx); err != nil {
		log.Error("Echo backend stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/angeloszaimis/request-router/config"
	"github.com/angeloszaimis/request-router/pkg/logger"
)

func main() {
	fs := pflag.NewFlagSet("router", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: router [flags] [backend-url...]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	configFile, _ := fs.GetString(config.FlagConfig)

	cfg, err := config.Load(config.Options{
		File:     configFile,
		Flags:    fs,
		Backends: fs.Args(),
	})
	if err != nil {
		slog.Error("Failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		AddSource:   cfg.Server.Environment != config.EnvProd,
		Environment: cfg.Server.Environment,
	})

	if cfg.File != "" {
		log.Info("Loaded config file", slog.String("file", cfg.File))
	}

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))
	defer undo()
	if err != nil {
		log.Warn("Failed to set GOMAXPROCS", slog.Any("err", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("Failed to initialize router", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Router listening",
		slog.String("addr", a.server.Addr()),
		slog.Int("backends", len(cfg.Backends)))

	if err := a.run(ctx); err != nil {
		log.Error("Router stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Router stopped")
}

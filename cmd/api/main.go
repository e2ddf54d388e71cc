package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path"
	"strconv"
	"syscall"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/config"
	"github.com/eskrenkovic/run-sessions-go/internal/server"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootPath := pflag.String("root", "", "repository root containing config.env and db/migrations")
	port := pflag.Int("port", 0, "port to listen on, overrides PORT")
	pflag.Parse()

	if *rootPath != "" {
		if err := godotenv.Load(path.Join(*rootPath, "config.env")); err != nil {
			log.Fatal(err)
		}

		if err := os.Setenv(config.RootPathEnv, *rootPath); err != nil {
			log.Fatal(err)
		}
	}

	if *port != 0 {
		if err := os.Setenv(config.PortEnv, strconv.Itoa(*port)); err != nil {
			log.Fatal(err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	zap.ReplaceGlobals(cfg.Logger)

	srv, err := server.NewHTTPServer(cfg)
	if err != nil {
		cfg.Logger.Fatal("failed to build server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Start()
	}()

	select {
	case err := <-errs:
		if err != nil {
			cfg.Logger.Fatal("http server failed", zap.Error(err))
		}
	case <-ctx.Done():
		cfg.Logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		cfg.Logger.Error("failed to stop http server", zap.Error(err))
	}
}

// Command ud-server serves the user directory as a JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/userdir/internal/app"
	"github.com/and161185/userdir/internal/config"
	"github.com/and161185/userdir/internal/logging"
	"github.com/and161185/userdir/internal/metrics"
	httpserver "github.com/and161185/userdir/internal/server/http"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, opens the cache backend and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Flags override the environment
	addr := flag.String("addr", cfg.App.HTTPAddr, "listen address")
	bootDelay := flag.Duration("boot-delay", cfg.Store.BootDelay, "wait before loading the directory")
	flag.Parse()

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logging.Sync(logger)
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
		zap.String("backend", cfg.Cache.Backend),
		zap.String("idPolicy", string(cfg.Store.IDPolicy)),
		zap.String("mirrorMode", string(cfg.Store.MirrorMode)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open cache", zap.Error(err))
	}
	defer closeStore()

	m := metrics.New()
	dir := app.NewDirectory(store, cfg, logger, m)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Env:     cfg.App.Env,
		Server:  httpserver.New(dir),
		Logger:  logger,
		Metrics: m,
	})
	listener := &httpserver.Listener{Handler: router, Addr: *addr, Logger: logger}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error {
		// a failed seed is reported through /status, not fatal
		if err := dir.Start(gctx, *bootDelay); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("directory init", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		logging.Sync(logger)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/XDXX/PNA/core"
	"github.com/XDXX/PNA/internal"
	"github.com/XDXX/PNA/internal/pool"
	"github.com/XDXX/PNA/internal/server"
	"github.com/XDXX/PNA/internal/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	cfg, err := utils.HandleCLIInputs()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := utils.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.WithError(err).Fatal("kvs-server stopped")
	}
}

func run(cfg *internal.ServerConfig) error {
	logger := log.WithField("component", "kvs-server")

	kind, err := core.ResolveEngineKind(cfg.DataDir, cfg.Engine)
	if err != nil {
		return err
	}

	engine, err := core.OpenEngine(cfg.DataDir, kind,
		core.WithCompactionThreshold(cfg.CompactionThreshold),
		core.WithSyncInterval(cfg.SyncInterval),
		core.WithSyncOnWrite(cfg.SyncOnWrite),
	)
	if err != nil {
		return err
	}

	p, err := pool.New(cfg.Pool, cfg.Workers, cfg.QueueSize, log.WithField("component", "pool"))
	if err != nil {
		engine.Close()
		return err
	}

	logger.WithFields(log.Fields{
		"version": version,
		"engine":  kind,
		"pool":    cfg.Pool,
		"addr":    cfg.Addr,
		"dir":     cfg.DataDir,
	}).Info("kvs-server starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.ListenForProcessInterruptOrKill(ctx)
		cancel()
		return nil
	})

	srv := server.New(engine, p, server.WithIdleTimeout(cfg.IdleTimeout))
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Addr)
	})

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, cfg.MetricsAddr, logger)
		})
	}

	err = g.Wait()

	if perr := p.Shutdown(); perr != nil {
		logger.WithError(perr).Error("error draining thread pool")
	}
	if cerr := engine.Close(); cerr != nil {
		logger.WithError(cerr).Error("error closing engine")
	}

	logger.Info("kvs-server stopped")
	return err
}

func serveMetrics(ctx context.Context, addr string, logger log.FieldLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

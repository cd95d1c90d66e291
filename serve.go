package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/filestore"
	"github.com/danielhkuo/truevote/middleware"
	"github.com/danielhkuo/truevote/notify"
	"github.com/danielhkuo/truevote/router"
	"github.com/danielhkuo/truevote/store"
	"github.com/danielhkuo/truevote/tracing"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "serve [flags]",
		Short:              "Run the HTTP API",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := commonRun(args)
			if err != nil {
				return err
			}
			return serveRun(cmd.Context(), cfg, logger)
		},
	}
}

func serveRun(ctx context.Context, cfg cliparse.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("Database schema ready", "type", cfg.DatabaseType)

	var traceOut io.Writer
	if cfg.TraceStdout {
		traceOut = os.Stdout
	}
	shutdownTracing, err := tracing.Setup(traceOut)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	files, err := filestore.Open(filestore.WithDir(cfg.FileStoreDir), filestore.WithLogger(logger))
	if err != nil {
		return err
	}
	defer files.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := router.NewRouter(router.Deps{
		DB:       conn,
		Config:   cfg,
		Files:    files,
		Registry: registry,
		Logger:   logger,
	})

	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sweeper := notify.NewSweeper(store.New(conn, logger), cfg.MessageRetention, cfg.SweepInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("Server closed", "error", err)
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swcheck/internal/server"
	"swcheck/internal/watch"
)

var (
	serveAddr    string
	serveNoWatch bool
)

// serveCmd runs the JSON API and the report watcher
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API and watch for new reports",
	Long: `Starts the local JSON API used by the operator UI and, unless
disabled, a watcher over the reports folder that checks new unit reports
automatically. Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Bind address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable the automatic report watcher")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildService(store)
	if err != nil {
		return err
	}
	cfg := store.Snapshot()

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var watcher *watch.Watcher
	var watcherStatus server.WatcherStatus
	if !serveNoWatch {
		if cfg.ReportsFolder == "" {
			logger.Warn("reports folder not configured, watcher disabled")
		} else {
			watcher, err = watch.New(cfg.ReportsFolder, svc, logger)
			if err != nil {
				return fmt.Errorf("creating report watcher: %w", err)
			}
			watcherStatus = watcher
		}
	}

	api := server.New(store, svc, watcherStatus, svc.Audit.Path(), logger)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	if watcher != nil {
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("starting report watcher: %w", err)
		}
		defer watcher.Stop()
	}

	g.Go(func() error {
		logger.Info("serving API", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

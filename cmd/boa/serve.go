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

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/boa/internal/api"
	"github.com/gyaneshwarpardhi/boa/internal/config"
	"github.com/gyaneshwarpardhi/boa/internal/engine"
	"github.com/gyaneshwarpardhi/boa/internal/fitness"
	"github.com/gyaneshwarpardhi/boa/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve optimization runs over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides server.addr)")
}

func serve(cmd *cobra.Command, args []string) error {
	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		return err
	}
	cfg := loader.Config()
	reg := fitness.Default()
	if err := config.Validate(cfg, reg.Check); err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// ── Run store ────────────────────────────────────────────────────────────
	db, err := store.Open(cfg.Server.DataPath)
	if err != nil {
		return err
	}
	defer db.Close()
	runs := store.Bucket[engine.Record](db, "runs")

	// ── Engine ───────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := engine.New(ctx, reg, runs, cfg.Server, cfg.Run, slog.Default())

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg, reg.Check); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		eng.SwapDefaults(newCfg.Run)
		slog.Info("run defaults reloaded", "fitness", newCfg.Run.Fitness, "n", newCfg.Run.ProblemSize)
	})
	if *cfgPath != "" {
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.New(eng, loader, reg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(cfg.Server.RunTimeoutMs)*time.Millisecond + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr, "workers", cfg.Server.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errC:
		cancel()
		eng.Shutdown()
		return err
	}
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop running searches
	eng.Shutdown()
	slog.Info("goodbye")
	return nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vjranagit/touchdown/pkg/api"
	"github.com/vjranagit/touchdown/pkg/storage"
)

func (a *app) doServe(cmd *cobra.Command, args []string) error {
	listen, err := cmd.Flags().GetString("listen")
	if err != nil {
		return err
	}
	if listen == "" {
		listen = a.cfg.Server.ListenAddr
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	watch = watch || a.cfg.Server.Watch

	path := args[0]
	store, err := a.open(cmd.Context(), path)
	if err != nil {
		return err
	}

	slog.Info("configuration loaded",
		"listen", listen,
		"source", path,
		"signals", len(a.cfg.Source.Signals),
		"rows", store.Len(),
		"watch", watch)

	server := api.NewServer(listen, store, a.cfg.ExtractorOptions()...)
	server.SetTimeout(a.cfg.Server.Timeout)
	server.SetLayout(a.cfg.Layout(path))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if watch {
		go func() {
			reload := func(ctx context.Context) (*storage.Store, error) {
				return a.open(ctx, path)
			}
			if err := server.Watch(ctx, path, reload); err != nil {
				slog.Error("watch stopped", "path", path, "err", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", listen)
		errCh <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
	}

	slog.Info("shutdown signal received, stopping server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return err
	}

	slog.Info("server stopped")
	return nil
}

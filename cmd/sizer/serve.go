package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"battery_sizer/internal/api"
	"battery_sizer/internal/catalog"
	"battery_sizer/internal/ws"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(a *app) *cobra.Command {
	var (
		addr        string
		frontendDir string
		noWatch     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sizing API and WebSocket endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Address = addr
			}
			if noWatch {
				a.cfg.WatchTables = false
			}

			ln, err := net.Listen("tcp", a.cfg.Address)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", a.cfg.Address, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a, ln, frontendDir)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (env SIZER_ADDR)")
	cmd.Flags().StringVar(&frontendDir, "frontend-dir", "", "directory of static frontend files to serve")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the tables file when it changes")
	return cmd
}

// runServe serves on ln until ctx is cancelled or the server fails.
func runServe(ctx context.Context, a *app, ln net.Listener, frontendDir string) error {
	logger := a.logger

	store := catalog.NewStore(a.tables)
	calc := a.calculator(store)
	hub := ws.NewHub(logger)
	store.OnReload(ws.NewBridge(hub, logger).OnReload)

	router := api.NewRouter(api.Deps{
		Store:      store,
		Calculator: calc,
		WS:         ws.NewHandler(hub, calc, store, logger),
		Logger:     logger,
		StaticDir:  frontendDir,
	})
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	if a.cfg.TablesFile != "" && a.cfg.WatchTables {
		w, err := catalog.NewWatcher(a.cfg.TablesFile, store, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("watching tables: %w", err)
			}
		}()
		logger.Info("watching tables file", zap.String("path", a.cfg.TablesFile))
	}

	go func() {
		logger.Info("starting server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serving: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = srv.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srv.SetKeepAlivesEnabled(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

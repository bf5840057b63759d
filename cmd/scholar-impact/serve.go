package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/scholar-impact/pkg/api"
	"github.com/hazyhaar/scholar-impact/pkg/importer"
	"github.com/hazyhaar/scholar-impact/pkg/journal"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (with MCP at /mcp)",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := openStore(cmd.Context(), cfg)
		return server.ServeStdio(newMCPServer(newService(store)))
	},
}

func newService(store *journal.Store) *api.Service {
	return &api.Service{Store: store, Selectors: cfg.Selectors, Logger: logger}
}

func newMCPServer(svc *api.Service) *server.MCPServer {
	srv := server.NewMCPServer("scholar-impact", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, svc)
	return srv
}

func newHandler(svc *api.Service) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(newMCPServer(svc)))
	mux.Handle("/", api.NewRouter(svc))
	return mux
}

func runServe(cmd *cobra.Command, _ []string) error {
	// SIGHUP: hot reload the table.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg)

	var checker *importer.Checker
	if len(cfg.Sources) > 0 {
		sdb, _, err := openSources()
		if err != nil {
			return err
		}
		defer sdb.Close()
		checker = importer.NewChecker(sdb, logger, cfg.CheckInterval)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(newService(store)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("scholar-impact listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		sighup := make(chan os.Signal, 1)
		signal.Notify(sighup, syscall.SIGHUP)
		defer signal.Stop(sighup)
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-sighup:
				logger.Info("SIGHUP received, reloading table")
				if err := store.Reload(); err != nil && !errors.Is(err, journal.ErrEmptyTable) {
					logger.Error("reload failed", "error", err)
				}
			}
		}
	})

	if checker != nil {
		g.Go(func() error {
			checker.Start(gCtx)
			return nil
		})
	}

	return g.Wait()
}

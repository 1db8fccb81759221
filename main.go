package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/api"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/config"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/locale"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/logging"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/seed"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/server"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// stdout carries the MCP stream in stdio mode
	log, err := logging.New(cfg.LogDev, cfg.Transport == config.TransportStdio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalw("Server stopped", "error", err)
	}
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if cfg.Seed {
		sample, err := seed.Load(store)
		switch {
		case errors.Is(err, seed.ErrNotEmpty):
			log.Infow("Store already populated, skipping seed", "data_dir", cfg.DataDir)
		case err != nil:
			return fmt.Errorf("seed: %w", err)
		default:
			log.Infow("Sample provenance loaded", "pipeline", sample.Pipeline.ID, "products", len(sample.Products))
		}
	}

	locales, err := locale.LoadWith(cfg.DefaultLocale, cfg.FallbackLocale)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	srv := server.New(store)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cfg.Transport {
	case config.TransportStdio:
		log.Infow("Provenance MCP server starting", "transport", "stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	default:
		return serveHTTP(ctx, cfg, log, srv, store, locales)
	}
}

// handlerTimeout bounds every route except /mcp, whose streams stay open.
const handlerTimeout = 30 * time.Second

func serveHTTP(ctx context.Context, cfg config.Config, log *zap.SugaredLogger, srv *mcp.Server, store *storage.Store, locales *locale.Bundle) error {
	httpServer := newHTTPServer(cfg.Addr(), newHandler(cfg, log, srv, store, locales))

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Provenance viewer listening", "addr", cfg.Addr(), "api", cfg.APIBase, "mcp", "/mcp")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newHandler(cfg config.Config, log *zap.SugaredLogger, srv *mcp.Server, store *storage.Store, locales *locale.Bundle) http.Handler {
	apiServer := http.TimeoutHandler(api.NewServer(store, locales, log, cfg.APIBase), handlerTimeout, "request timed out")

	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", apiServer)
	mux.Handle("/health", apiServer)
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return srv
	}, nil))
	mux.Handle("/", http.TimeoutHandler(web.NewShell(locales, cfg.APIBase, log), handlerTimeout, "request timed out"))
	return api.LoggingMiddleware(log, mux)
}

// newHTTPServer leaves WriteTimeout unset so long-lived MCP streams survive;
// the other routes are bounded by handlerTimeout.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

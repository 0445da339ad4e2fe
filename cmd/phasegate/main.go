// phasegate: phase-gated Spec → Plan → Tasks authoring server
//
// Projects move through three phases. A phase is edited in draft, approved
// into reviewed, and only then unlocks the next one. The same projects are
// served to AI tools over MCP and to other clients over a JSON HTTP API.
//
// Usage:
//
//	phasegate serve    # Start MCP server (stdio transport)
//	phasegate http     # Start the JSON HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HendryAvila/phasegate/internal/config"
	"github.com/HendryAvila/phasegate/internal/httpapi"
	pgserver "github.com/HendryAvila/phasegate/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runMCP()
	case "http":
		err = runHTTP()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("phasegate v%s\n", pgserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runMCP serves MCP over stdio. ServeStdio handles SIGINT and SIGTERM
// itself and returns, so the deferred cleanup flushes pending saves.
func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	b, cleanup, err := pgserver.OpenBackend(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return server.ServeStdio(pgserver.New(b))
}

func runHTTP() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	b, cleanup, err := pgserver.OpenBackend(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(b.Manager, b.Store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `phasegate v%s — phase-gated Spec → Plan → Tasks server

Usage:
  phasegate serve    Start the MCP server (stdio transport)
  phasegate http     Start the JSON HTTP API

Environment (also read from a .env file):
  PHASEGATE_DATA_DIR      Where the database lives (default ~/.phasegate)
  PHASEGATE_DEBOUNCE_MS   Quiet period before edits are saved (default 1000)
  PHASEGATE_HTTP_ADDR     Listen address for "http" (default :8080)

MCP configuration:

  {
    "mcpServers": {
      "phasegate": {
        "command": "phasegate",
        "args": ["serve"]
      }
    }
  }
`, pgserver.Version)
}

// Command morpheus-mcp exposes the MorpheusAI agents as MCP tools, over
// stdio by default or over SSE with -transport sse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/shubharthaksangharsha/morpheusAI/internal/app"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/mcpserver/sandbox"
)

var (
	transport = flag.String("transport", "stdio", "Transport (stdio|sse)")
	addr      = flag.String("addr", "localhost:3002", "Listen address for the sse transport")
	directory = flag.String("directory", "", "Working directory")
	offline   = flag.Bool("offline", false, "Route with the fallback rules only")
	logLevel  = flag.String("log-level", "WARN", "Log level (DEBUG|INFO|WARN|ERROR)")
)

func main() {
	flag.Parse()

	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(*logLevel)
	logging.Init(cfg)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	workDir := *directory
	if workDir == "" {
		var err error
		if workDir, err = os.Getwd(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, workDir, app.Options{Offline: *offline})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("agent shutdown error")
		}
	}()

	s := sandbox.NewServer(a.Router)

	switch *transport {
	case "stdio":
		return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
	case "sse":
		sse := server.NewSSEServer(s, server.WithBaseURL("http://"+*addr))
		errCh := make(chan error, 1)
		go func() { errCh <- sse.Start(*addr) }()
		logging.Info().Str("addr", *addr).Msg("MCP SSE server listening")

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sse.Shutdown(shutdownCtx)
	default:
		return fmt.Errorf("unknown transport %q", *transport)
	}
}

// Package main provides the entry point for the MorpheusAI server.
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

	"github.com/shubharthaksangharsha/morpheusAI/internal/app"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
)

var (
	port      = flag.Int("port", 0, "Server port (default from config, then 3001)")
	directory = flag.String("directory", "", "Working directory")
	offline   = flag.Bool("offline", false, "Route with the fallback rules only")
	logLevel  = flag.String("log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	version   = flag.Bool("version", false, "Print version and exit")
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("morpheus-server %s (%s)\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(*logLevel)
	logging.Init(cfg)

	workDir := *directory
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to get working directory")
		}
	}

	logging.Info().Str("version", Version).Str("directory", workDir).Msg("starting MorpheusAI server")

	a, err := app.New(context.Background(), workDir, app.Options{Offline: *offline})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to start")
	}

	srv := a.Server(*port)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
	if err := a.Close(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("agent shutdown error")
	}

	logging.Info().Msg("server stopped")
}
